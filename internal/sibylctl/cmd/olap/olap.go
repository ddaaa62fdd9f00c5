package olap

import (
	"context"
	"fmt"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/vantle/sibyl/internal/sibyl/api"
	"github.com/vantle/sibyl/internal/sibylctl/cmd/util"
	"github.com/vantle/sibyl/pkg/cli/genericclioptions"
)

// OLAPOptions holds the dependencies of `sibylctl olap`.
type OLAPOptions struct {
	factory util.Factory
	genericclioptions.IOStreams
}

// NewCmdOLAP creates the `olap` command with its subcommands.
func NewCmdOLAP(f util.Factory, ioStreams genericclioptions.IOStreams) *cobra.Command {
	o := &OLAPOptions{
		factory:   f,
		IOStreams: ioStreams,
	}

	cmd := &cobra.Command{
		Use:   "olap",
		Short: "Manage OLAP cubes",
		Example: heredoc.Doc(`
			# List cubes
			sibylctl olap list

			# Show one cube
			sibylctl olap show sales-cube

			# Draft a cube from a description
			sibylctl olap generate "monthly revenue by region and product"
		`),
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List cubes",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(o.RunList(cmd.Context()))
		},
	}
	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one cube",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(o.RunShow(cmd.Context(), args[0]))
		},
	}
	generate := &cobra.Command{
		Use:   "generate <description>",
		Short: "Draft a cube from a natural-language description",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(o.RunGenerate(cmd.Context(), strings.Join(args, " ")))
		},
	}
	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a cube",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(o.RunDelete(cmd.Context(), args[0]))
		},
	}

	cmd.AddCommand(list, show, generate, del)
	return cmd
}

// RunList prints all cubes.
func (o *OLAPOptions) RunList(ctx context.Context) error {
	client, err := o.factory.Client()
	if err != nil {
		return err
	}
	cubes, err := client.OLAP().List(ctx)
	if err != nil {
		return err
	}
	if len(cubes) == 0 {
		fmt.Fprintln(o.Out, "no cubes defined")
		return nil
	}

	table := uitable.New()
	table.MaxColWidth = 48
	table.AddRow("ID", "NAME", "FACT TABLE", "DIMS", "MEASURES")
	for _, cube := range cubes {
		table.AddRow(cube.ID, cube.Name, cube.FactTable, len(cube.Dimensions), len(cube.Measures))
	}
	fmt.Fprintln(o.Out, table)
	return nil
}

// RunShow prints one cube's full definition.
func (o *OLAPOptions) RunShow(ctx context.Context, id string) error {
	client, err := o.factory.Client()
	if err != nil {
		return err
	}
	cube, err := client.OLAP().Get(ctx, id)
	if err != nil {
		return err
	}
	o.printCube(cube)
	return nil
}

// RunGenerate asks the backend to draft a cube and prints the result.
func (o *OLAPOptions) RunGenerate(ctx context.Context, prompt string) error {
	client, err := o.factory.Client()
	if err != nil {
		return err
	}
	cube, err := client.OLAP().Generate(ctx, prompt)
	if err != nil {
		return err
	}
	o.printCube(cube)
	return nil
}

// RunDelete removes a cube.
func (o *OLAPOptions) RunDelete(ctx context.Context, id string) error {
	client, err := o.factory.Client()
	if err != nil {
		return err
	}
	if err := client.OLAP().Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(o.Out, "cube %s deleted\n", id)
	return nil
}

func (o *OLAPOptions) printCube(cube *api.Cube) {
	fmt.Fprintf(o.Out, "%s (%s)\n", cube.Name, cube.ID)
	if cube.Description != "" {
		fmt.Fprintln(o.Out, cube.Description)
	}
	fmt.Fprintf(o.Out, "fact table: %s\n", cube.FactTable)

	if len(cube.Dimensions) > 0 {
		table := uitable.New()
		table.AddRow("DIMENSION", "TABLE", "COLUMN")
		for _, d := range cube.Dimensions {
			table.AddRow(d.Name, d.Table, d.Column)
		}
		fmt.Fprintln(o.Out, table)
	}
	if len(cube.Measures) > 0 {
		table := uitable.New()
		table.AddRow("MEASURE", "COLUMN", "AGG")
		for _, m := range cube.Measures {
			table.AddRow(m.Name, m.Column, m.Aggregation)
		}
		fmt.Fprintln(o.Out, table)
	}
}
