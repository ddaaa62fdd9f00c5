package incident

import (
	"context"
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/vantle/sibyl/internal/sibylctl/cmd/util"
	"github.com/vantle/sibyl/pkg/cli/genericclioptions"
)

// IncidentOptions holds the flags and dependencies of `sibylctl incident`.
type IncidentOptions struct {
	Status string
	Note   string

	factory util.Factory
	genericclioptions.IOStreams
}

// NewCmdIncident creates the `incident` command with its subcommands.
func NewCmdIncident(f util.Factory, ioStreams genericclioptions.IOStreams) *cobra.Command {
	o := &IncidentOptions{
		factory:   f,
		IOStreams: ioStreams,
	}

	cmd := &cobra.Command{
		Use:   "incident",
		Short: "Track data incidents",
		Example: heredoc.Doc(`
			# Open incidents
			sibylctl incident list --status=open

			# Take an incident
			sibylctl incident ack INC-42

			# Close it out
			sibylctl incident resolve INC-42 --note="backfilled partition"
		`),
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List incidents",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(o.RunList(cmd.Context()))
		},
	}
	list.Flags().StringVar(&o.Status, "status", "", "Only incidents in this state (open, acknowledged, resolved)")

	ack := &cobra.Command{
		Use:   "ack <id>",
		Short: "Acknowledge an incident",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(o.RunAck(cmd.Context(), args[0]))
		},
	}
	resolve := &cobra.Command{
		Use:   "resolve <id>",
		Short: "Resolve an incident",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(o.RunResolve(cmd.Context(), args[0]))
		},
	}
	resolve.Flags().StringVar(&o.Note, "note", "", "Resolution note")

	cmd.AddCommand(list, ack, resolve)
	return cmd
}

// RunList prints incidents.
func (o *IncidentOptions) RunList(ctx context.Context) error {
	client, err := o.factory.Client()
	if err != nil {
		return err
	}
	incidents, err := client.Incidents().List(ctx, o.Status)
	if err != nil {
		return err
	}
	if len(incidents) == 0 {
		fmt.Fprintln(o.Out, "no incidents")
		return nil
	}

	table := uitable.New()
	table.MaxColWidth = 56
	table.AddRow("ID", "SEVERITY", "STATUS", "TITLE", "CREATED")
	for _, inc := range incidents {
		table.AddRow(inc.ID, inc.Severity, inc.Status, inc.Title, inc.CreatedAt)
	}
	fmt.Fprintln(o.Out, table)
	return nil
}

// RunAck acknowledges one incident.
func (o *IncidentOptions) RunAck(ctx context.Context, id string) error {
	client, err := o.factory.Client()
	if err != nil {
		return err
	}
	inc, err := client.Incidents().Acknowledge(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(o.Out, "incident %s is now %s\n", inc.ID, inc.Status)
	return nil
}

// RunResolve resolves one incident.
func (o *IncidentOptions) RunResolve(ctx context.Context, id string) error {
	client, err := o.factory.Client()
	if err != nil {
		return err
	}
	inc, err := client.Incidents().Resolve(ctx, id, o.Note)
	if err != nil {
		return err
	}
	fmt.Fprintf(o.Out, "incident %s is now %s\n", inc.ID, inc.Status)
	return nil
}
