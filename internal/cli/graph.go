package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func (a *app) graphCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Create, drop and inspect graphs",
	}
	cmd.AddCommand(
		a.graphCreateCommand(),
		a.graphDropCommand(),
		a.graphListCommand(),
		a.graphLabelsCommand(),
	)
	return cmd
}

func (a *app) graphCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create NAME",
		Short: "Create a graph if it does not exist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := client.CreateGraph(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Graph %s ready\n", args[0])
			return nil
		},
	}
}

func (a *app) graphDropCommand() *cobra.Command {
	var cascade bool

	cmd := &cobra.Command{
		Use:   "drop NAME",
		Short: "Drop a graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := client.DropGraph(cmd.Context(), args[0], cascade); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Graph %s dropped\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&cascade, "cascade", true, "also drop labels and their data")
	return cmd
}

func (a *app) graphListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List graphs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			graphs, err := client.Graphs(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, len(graphs))
			for i, g := range graphs {
				rows[i] = []string{strconv.FormatInt(g.ID, 10), g.Name, g.Namespace}
			}
			return renderTable(a.out, []string{"ID", "Name", "Namespace"}, rows)
		},
	}
}

func (a *app) graphLabelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "labels NAME",
		Short: "List the vertex and edge labels of a graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			labels, err := client.SelectGraph(args[0]).Labels(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, len(labels))
			for i, l := range labels {
				rows[i] = []string{l.Name, string(l.Kind)}
			}
			return renderTable(a.out, []string{"Label", "Kind"}, rows)
		},
	}
}
