package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/vantle/sibyl/internal/sibylctl/cmd/util"
	"github.com/vantle/sibyl/pkg/cli/genericclioptions"
	"github.com/vantle/sibyl/pkg/streaming"
)

// GraphOptions holds the flags and dependencies of `sibylctl graph`.
type GraphOptions struct {
	Limit int

	factory util.Factory
	genericclioptions.IOStreams
}

// NewCmdGraph creates the `graph` command with its subcommands.
func NewCmdGraph(f util.Factory, ioStreams genericclioptions.IOStreams) *cobra.Command {
	o := &GraphOptions{
		Limit:     20,
		factory:   f,
		IOStreams: ioStreams,
	}

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Explore the knowledge graph built from parsed DDL and source",
		Example: heredoc.Doc(`
			# Graph-wide counts
			sibylctl graph summary

			# Find nodes and their relationships
			sibylctl graph search customers --limit=10
		`),
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	summary := &cobra.Command{
		Use:   "summary",
		Short: "Show graph-wide counts",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(o.RunSummary(cmd.Context()))
		},
	}

	search := &cobra.Command{
		Use:   "search <query>",
		Short: "Search graph nodes",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(o.RunSearch(cmd.Context(), strings.Join(args, " ")))
		},
	}
	search.Flags().IntVar(&o.Limit, "limit", o.Limit, "Maximum nodes to return")

	cmd.AddCommand(summary, search)
	return cmd
}

// RunSummary prints graph-wide counts.
func (o *GraphOptions) RunSummary(ctx context.Context) error {
	client, err := o.factory.Client()
	if err != nil {
		return err
	}
	summary, err := client.Graph().Summary(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(o.Out, "%d nodes, %d relationships\n", summary.NodeCount, summary.RelationshipCount)
	if len(summary.NodesByLabel) > 0 {
		table := uitable.New()
		table.AddRow("LABEL", "COUNT")
		for label, count := range summary.NodesByLabel {
			table.AddRow(label, count)
		}
		fmt.Fprintln(o.Out, table)
	}
	return nil
}

// RunSearch prints matching nodes and their immediate relationships.
func (o *GraphOptions) RunSearch(ctx context.Context, query string) error {
	client, err := o.factory.Client()
	if err != nil {
		return err
	}
	payload, err := client.Graph().Search(ctx, query, o.Limit)
	if err != nil {
		return err
	}
	if len(payload.Nodes) == 0 {
		fmt.Fprintln(o.Out, "no matching nodes")
		return nil
	}

	table := uitable.New()
	table.MaxColWidth = 64
	table.AddRow("ID", "LABELS", "NAME")
	for _, node := range payload.Nodes {
		table.AddRow(node.ID, strings.Join(node.Labels, ","), nodeName(node))
	}
	fmt.Fprintln(o.Out, table)

	if len(payload.Relationships) > 0 {
		fmt.Fprintln(o.Out)
		rels := uitable.New()
		rels.AddRow("FROM", "TYPE", "TO")
		for _, rel := range payload.Relationships {
			rels.AddRow(rel.StartID, rel.Type, rel.EndID)
		}
		fmt.Fprintln(o.Out, rels)
	}
	return nil
}

func nodeName(node streaming.GraphNode) string {
	if name, ok := node.Properties["name"].(string); ok {
		return name
	}
	return ""
}
