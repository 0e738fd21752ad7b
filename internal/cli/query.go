package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/simring"
)

// QueryOptions holds the query flags.
type QueryOptions struct {
	*RootOptions
	Index       string
	QueriesPath string
	OutDir      string
	Limit       uint64
	Timeout     time.Duration
	Algorithm   string
	Strategy    string
}

// NewQueryCommand returns the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Evaluate a file of queries against an index snapshot",
		Long: `Evaluate one query per line and print "n;results;nanoseconds" for each.

Patterns are separated by '.', variables start with '?', constants are
positive integers, kN relates a term to its N nearest neighbours and bN to
its best N.`,
		Example: `  simring query --queries queries.txt
  simring query --index idx-00001.srng --queries queries.txt --limit 1000 --out res`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Index, "index", "i", "", "snapshot name (default: CURRENT)")
	cmd.Flags().StringVarP(&opts.QueriesPath, "queries", "q", "", "file with one query per line")
	cmd.Flags().StringVarP(&opts.OutDir, "out", "o", "", "directory for per-query result files (q1.txt, q2.txt, ...)")
	cmd.Flags().Uint64Var(&opts.Limit, "limit", 0, "stop after this many results per query (0 = unlimited)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "time budget per query")
	cmd.Flags().StringVar(&opts.Algorithm, "algorithm", "", "ltj or baseline")
	cmd.Flags().StringVar(&opts.Strategy, "strategy", "", "adaptive, adaptive-nosim or static")

	_ = cmd.MarkFlagRequired("queries")

	return cmd
}

func (o *QueryOptions) queryOptions(cmd *cobra.Command) ([]simring.QueryOption, error) {
	qc := o.Config().Query
	flags := cmd.Flags()

	if flags.Changed("limit") {
		qc.Limit = o.Limit
	}

	if flags.Changed("timeout") {
		qc.Timeout = o.Timeout
	}

	if flags.Changed("algorithm") {
		qc.Algorithm = o.Algorithm
	}

	if flags.Changed("strategy") {
		qc.Strategy = o.Strategy
	}

	algo, err := simring.ParseAlgorithm(qc.Algorithm)
	if err != nil {
		return nil, err
	}

	strategy, err := simring.ParseStrategy(qc.Strategy)
	if err != nil {
		return nil, err
	}

	return []simring.QueryOption{
		simring.WithLimit(qc.Limit),
		simring.WithTimeout(qc.Timeout),
		simring.WithAlgorithm(algo),
		simring.WithStrategy(strategy),
	}, nil
}

func (o *QueryOptions) run(cmd *cobra.Command) error {
	ctx := cmd.Context()

	qOpts, err := o.queryOptions(cmd)
	if err != nil {
		return err
	}

	queries, err := readFile(o.QueriesPath, ReadQueries)
	if err != nil {
		return err
	}

	if o.OutDir != "" {
		if err := os.MkdirAll(o.OutDir, 0o755); err != nil {
			return err
		}
	}

	db, err := o.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	out := cmd.OutOrStdout()
	n := 0

	for i, text := range queries {
		start := time.Now()

		res, err := db.QueryString(ctx, text, qOpts...)
		if errors.Is(err, simring.ErrInvalidQuery) {
			fmt.Fprintln(out, "Incorrect query")
			o.logger.Debug("rejected query", "line", i+1, "error", err)

			continue
		}

		if err != nil {
			return fmt.Errorf("query %d: %w", i+1, err)
		}

		fmt.Fprintf(out, "%d;%d;%d\n", n, res.Len(), time.Since(start).Nanoseconds())

		if o.OutDir != "" {
			if err := writeResults(filepath.Join(o.OutDir, fmt.Sprintf("q%d.txt", n+1)), res); err != nil {
				return err
			}
		}

		n++
	}

	return nil
}

func (o *QueryOptions) open(ctx context.Context) (*simring.DB, error) {
	dbOpts, err := o.dbOptions()
	if err != nil {
		return nil, err
	}

	store, err := OpenStore(ctx, o.Config())
	if err != nil {
		return nil, err
	}

	if o.Index == "" {
		return simring.LoadCurrent(ctx, store, dbOpts...)
	}

	return simring.Load(ctx, store, o.Index, dbOpts...)
}

func writeResults(path string, res *simring.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	printResults(w, res)

	if err := w.Flush(); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}

// printResults writes one line per tuple: "[i]:\t?x=1 ?y=2".
func printResults(w io.Writer, res *simring.Result) {
	for i, t := range res.Tuples {
		fmt.Fprintf(w, "[%d]:\t", i)

		for j, v := range t {
			if j > 0 {
				fmt.Fprint(w, " ")
			}

			fmt.Fprintf(w, "?%s=%d", res.Vars[j], v)
		}

		fmt.Fprintln(w)
	}
}
