package upload

import (
	"context"
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/vantle/sibyl/internal/sibyl/api"
	"github.com/vantle/sibyl/internal/sibylctl/cmd/util"
	"github.com/vantle/sibyl/pkg/cli/genericclioptions"
	"github.com/vantle/sibyl/pkg/streaming"
)

var uploadExample = heredoc.Doc(`
		# Upload a DDL archive and follow the analysis
		sibylctl upload schema.zip

		# Upload application source for lineage parsing
		sibylctl upload --kind=source app-src.tar.gz

		# Fire and forget
		sibylctl upload --no-follow schema.zip
`)

// UploadOptions holds the flags and dependencies of `sibylctl upload`.
type UploadOptions struct {
	Kind     string
	NoFollow bool

	factory util.Factory
	genericclioptions.IOStreams
}

// NewCmdUpload creates the `upload` command.
func NewCmdUpload(f util.Factory, ioStreams genericclioptions.IOStreams) *cobra.Command {
	o := &UploadOptions{
		Kind:      api.UploadKindDDL,
		factory:   f,
		IOStreams: ioStreams,
	}

	cmd := &cobra.Command{
		Use:                   "upload <archive>",
		DisableFlagsInUseLine: true,
		Short:                 "Upload a DDL or source archive for analysis",
		Example:               uploadExample,
		Args:                  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(o.Run(cmd.Context(), args[0]))
		},
	}

	cmd.Flags().StringVar(&o.Kind, "kind", o.Kind, "Archive kind: ddl or source")
	cmd.Flags().BoolVar(&o.NoFollow, "no-follow", false, "Do not follow the analysis stream")

	return cmd
}

// Run uploads the archive and, unless told otherwise, follows the parsing
// progress until the task finishes.
func (o *UploadOptions) Run(ctx context.Context, path string) error {
	client, err := o.factory.Client()
	if err != nil {
		return err
	}

	result, err := client.Upload().Push(ctx, path, o.Kind)
	if err != nil {
		return err
	}
	fmt.Fprintf(o.Out, "uploaded %s (%d bytes), task %s\n", result.FileName, result.Size, result.TaskID)

	if o.NoFollow {
		return nil
	}

	var failure string
	err = client.Upload().Follow(ctx, result.TaskID, func(ev *streaming.Event) bool {
		switch ev.Type {
		case streaming.EventError:
			failure = ev.Content
		case streaming.EventComplete:
			fmt.Fprintln(o.Out, "analysis complete")
		default:
			if ev.Content != "" {
				fmt.Fprintln(o.Out, ev.Content)
			}
		}
		return true
	})
	if err != nil {
		return err
	}
	if failure != "" {
		return fmt.Errorf("analysis failed: %s", failure)
	}
	return nil
}
