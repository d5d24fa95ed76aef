package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/recera/drawflow/pkg/export"
)

func newExportCommand() *cobra.Command {
	var file string
	var output string
	opts := export.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "export [graph]",
		Short: "Draw a graph to a PNG image",
		Long: `Draws a stored graph, or a JSON document given with --file, to a PNG.
Port positions are estimated from the node layout.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, name, err := readGraph(cmd, file, args)
			if err != nil {
				return err
			}
			if output == "" {
				output = "drawflow.png"
			}
			if err := export.SavePNG(output, g, nil, opts); err != nil {
				return fmt.Errorf("export %s: %w", name, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d nodes)\n", output, g.Len())
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the graph from a JSON document")
	cmd.Flags().StringVarP(&output, "output", "o", "", "PNG file to write (default drawflow.png)")
	cmd.Flags().Float64Var(&opts.NodeWidth, "node-width", opts.NodeWidth, "Width of a node box")
	cmd.Flags().Float64Var(&opts.Padding, "padding", opts.Padding, "Margin around the drawing")
	cmd.Flags().Float64Var(&opts.FontSize, "font-size", opts.FontSize, "Label font size")
	addStoreFlags(cmd)
	return cmd
}
