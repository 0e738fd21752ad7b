package cli

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type statsOutput struct {
	Snapshot    string `yaml:"snapshot"`
	Triples     uint64 `yaml:"triples"`
	Nodes       uint64 `yaml:"nodes"`
	Edges       uint64 `yaml:"edges"`
	MaxK        uint64 `yaml:"max_k"`
	MaxSubject  uint64 `yaml:"max_subject"`
	MaxPred     uint64 `yaml:"max_predicate"`
	MaxObject   uint64 `yaml:"max_object"`
	MemoryBytes int64  `yaml:"memory_bytes"`
}

// NewStatsCommand returns the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print index statistics as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			st := db.Stats()

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			defer enc.Close()

			return enc.Encode(statsOutput{
				Snapshot:    st.Snapshot,
				Triples:     st.Triples,
				Nodes:       st.Nodes,
				Edges:       st.Edges,
				MaxK:        st.MaxK,
				MaxSubject:  st.MaxSubject,
				MaxPred:     st.MaxPred,
				MaxObject:   st.MaxObject,
				MemoryBytes: st.MemoryBytes,
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Index, "index", "i", "", "snapshot name (default: CURRENT)")

	return cmd
}
