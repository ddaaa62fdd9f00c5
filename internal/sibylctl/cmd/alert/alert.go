package alert

import (
	"context"
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/vantle/sibyl/internal/sibylctl/cmd/util"
	"github.com/vantle/sibyl/pkg/cli/genericclioptions"
)

// AlertOptions holds the flags and dependencies of `sibylctl alert`.
type AlertOptions struct {
	Until string

	factory util.Factory
	genericclioptions.IOStreams
}

// NewCmdAlert creates the `alert` command with its subcommands.
func NewCmdAlert(f util.Factory, ioStreams genericclioptions.IOStreams) *cobra.Command {
	o := &AlertOptions{
		factory:   f,
		IOStreams: ioStreams,
	}

	cmd := &cobra.Command{
		Use:   "alert",
		Short: "Manage alert rules",
		Example: heredoc.Doc(`
			# List rules
			sibylctl alert list

			# Toggle a rule
			sibylctl alert disable stale-orders
			sibylctl alert enable stale-orders

			# Silence a rule over the weekend
			sibylctl alert mute stale-orders --until=2026-09-01T09:00:00Z
		`),
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List alert rules",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(o.RunList(cmd.Context()))
		},
	}
	enable := &cobra.Command{
		Use:   "enable <id>",
		Short: "Enable an alert rule",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(o.RunSetEnabled(cmd.Context(), args[0], true))
		},
	}
	disable := &cobra.Command{
		Use:   "disable <id>",
		Short: "Disable an alert rule",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(o.RunSetEnabled(cmd.Context(), args[0], false))
		},
	}
	mute := &cobra.Command{
		Use:   "mute <id>",
		Short: "Silence an alert rule until a given time",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(o.RunMute(cmd.Context(), args[0]))
		},
	}
	mute.Flags().StringVar(&o.Until, "until", "", "RFC 3339 time the mute expires")
	_ = mute.MarkFlagRequired("until")

	cmd.AddCommand(list, enable, disable, mute)
	return cmd
}

// RunList prints all alert rules.
func (o *AlertOptions) RunList(ctx context.Context) error {
	client, err := o.factory.Client()
	if err != nil {
		return err
	}
	rules, err := client.Alerts().List(ctx)
	if err != nil {
		return err
	}
	if len(rules) == 0 {
		fmt.Fprintln(o.Out, "no alert rules defined")
		return nil
	}

	table := uitable.New()
	table.MaxColWidth = 56
	table.AddRow("ID", "NAME", "SEVERITY", "ENABLED", "MUTED UNTIL")
	for _, rule := range rules {
		table.AddRow(rule.ID, rule.Name, rule.Severity, rule.Enabled, rule.MutedUntil)
	}
	fmt.Fprintln(o.Out, table)
	return nil
}

// RunSetEnabled toggles one rule.
func (o *AlertOptions) RunSetEnabled(ctx context.Context, id string, enabled bool) error {
	client, err := o.factory.Client()
	if err != nil {
		return err
	}
	rule, err := client.Alerts().SetEnabled(ctx, id, enabled)
	if err != nil {
		return err
	}
	state := "disabled"
	if rule.Enabled {
		state = "enabled"
	}
	fmt.Fprintf(o.Out, "rule %s is now %s\n", rule.ID, state)
	return nil
}

// RunMute silences one rule until the configured time.
func (o *AlertOptions) RunMute(ctx context.Context, id string) error {
	client, err := o.factory.Client()
	if err != nil {
		return err
	}
	rule, err := client.Alerts().Mute(ctx, id, o.Until)
	if err != nil {
		return err
	}
	fmt.Fprintf(o.Out, "rule %s muted until %s\n", rule.ID, rule.MutedUntil)
	return nil
}
