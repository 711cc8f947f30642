package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/flancast90/agegraph-go/internal/seed"
)

func (a *app) seedCommand() *cobra.Command {
	var (
		graph string
		reset bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate a graph with sample Person data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if graph == "" {
				graph = a.cfg.Graph
			}
			client, err := a.open(cmd.Context())
			if err != nil {
				return fmt.Errorf("seeding failed: %w", err)
			}
			if _, err := seed.Run(cmd.Context(), client, seed.Options{Graph: graph, Reset: reset}, a.out, a.log); err != nil {
				return fmt.Errorf("seeding failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&graph, "graph", "g", "", "graph to seed (default $AGE_GRAPH)")
	cmd.Flags().BoolVar(&reset, "reset", false, "drop the graph before seeding")
	return cmd
}

func (a *app) healthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check database connectivity and show pool statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := client.Ping(cmd.Context()); err != nil {
				return err
			}

			s := client.Stats()
			return renderTable(a.out, []string{"Metric", "Value"}, [][]string{
				{"Status", "ok"},
				{"Total connections", strconv.Itoa(int(s.TotalConns))},
				{"Idle connections", strconv.Itoa(int(s.IdleConns))},
				{"Acquired connections", strconv.Itoa(int(s.AcquiredConns))},
				{"Max connections", strconv.Itoa(int(s.MaxConns))},
				{"Acquires", strconv.FormatInt(s.AcquireCount, 10)},
			})
		},
	}
}
