package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vantle/sibyl/internal/sibylctl/cmd/util"
	"github.com/vantle/sibyl/pkg/cli/genericclioptions"
	"github.com/vantle/sibyl/pkg/utils/json"
	"github.com/vantle/sibyl/pkg/version"
)

// VersionOptions holds the flags of `sibylctl version`.
type VersionOptions struct {
	Output string

	genericclioptions.IOStreams
}

// NewCmdVersion creates the `version` command.
func NewCmdVersion(ioStreams genericclioptions.IOStreams) *cobra.Command {
	o := &VersionOptions{IOStreams: ioStreams}

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(o.Run())
		},
	}
	cmd.Flags().StringVarP(&o.Output, "output", "o", "", "Output format, one of: json")

	return cmd
}

// Run prints build information.
func (o *VersionOptions) Run() error {
	info := version.Get()
	switch o.Output {
	case "":
		fmt.Fprintln(o.Out, info.String())
	case "json":
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(o.Out, string(data))
	default:
		return fmt.Errorf("invalid output format %q", o.Output)
	}
	return nil
}
