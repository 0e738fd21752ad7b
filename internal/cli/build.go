package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/simring"
	"github.com/hupe1980/simring/blobstore"
)

// BuildOptions holds the build flags.
type BuildOptions struct {
	*RootOptions
	TriplesPath string
	KNNPath     string
	Name        string
	Compression string
	MaxK        uint64
	Commit      bool
}

// NewBuildCommand returns the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build an index snapshot from a triple file and a k-NN file",
		Example: `  simring build --triples graph.nt --knn graph.knn --out idx-00001.srng --commit
  simring build -s s3://bucket/indexes --triples graph.nt --knn graph.knn --out idx-00002.srng`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd)
		},
	}

	cmd.Flags().StringVar(&opts.TriplesPath, "triples", "", "file with one \"s p o\" triple per line")
	cmd.Flags().StringVar(&opts.KNNPath, "knn", "", "file whose line i lists the ranked neighbours of node i")
	cmd.Flags().StringVarP(&opts.Name, "out", "o", "", "snapshot name in the store")
	cmd.Flags().StringVar(&opts.Compression, "compression", "", "snapshot compression: none, lz4 or zstd")
	cmd.Flags().Uint64Var(&opts.MaxK, "max-k", 0, "largest usable rank (default: longest neighbour list)")
	cmd.Flags().BoolVar(&opts.Commit, "commit", false, "point CURRENT at the new snapshot")

	_ = cmd.MarkFlagRequired("triples")
	_ = cmd.MarkFlagRequired("knn")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func (o *BuildOptions) run(cmd *cobra.Command) error {
	ctx := cmd.Context()
	cfg := o.Config()

	if cmd.Flags().Changed("compression") {
		cfg.Compression = o.Compression
	}

	dbOpts, err := o.dbOptions()
	if err != nil {
		return err
	}

	if o.MaxK > 0 {
		dbOpts = append(dbOpts, simring.WithMaxK(o.MaxK))
	}

	triples, err := readFile(o.TriplesPath, ReadTriples)
	if err != nil {
		return err
	}

	adjacency, err := readFile(o.KNNPath, ReadKNN)
	if err != nil {
		return err
	}

	start := time.Now()

	db, err := simring.New(triples, adjacency, dbOpts...)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	defer db.Close()

	buildTime := time.Since(start)

	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return err
	}

	save := db.Save
	if o.Commit {
		save = db.Commit
	}

	if err := save(ctx, store, o.Name); err != nil {
		if errors.Is(err, blobstore.ErrExists) {
			return fmt.Errorf("snapshot %q already exists", o.Name)
		}

		return fmt.Errorf("save snapshot: %w", err)
	}

	st := db.Stats()
	fmt.Fprintf(cmd.OutOrStdout(), "built %s: %d triples, %d nodes, maxK %d in %s\n",
		o.Name, st.Triples, st.Nodes, st.MaxK, buildTime.Round(time.Millisecond))

	if o.Commit {
		fmt.Fprintf(cmd.OutOrStdout(), "CURRENT -> %s\n", o.Name)
	}

	return nil
}

func readFile[T any](path string, parse func(io.Reader) (T, error)) (T, error) {
	var zero T

	f, err := os.Open(path)
	if err != nil {
		return zero, err
	}
	defer f.Close()

	v, err := parse(f)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", path, err)
	}

	return v, nil
}
