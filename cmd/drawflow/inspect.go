package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/recera/drawflow/pkg/graph"
)

var (
	primaryColor = lipgloss.Color("#4ea9ff")
	mutedColor   = lipgloss.Color("#94a3b8")
	successColor = lipgloss.Color("#10b981")
	errorColor   = lipgloss.Color("#ef4444")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(mutedColor)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	successStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)
)

func newInspectCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "inspect [graph]",
		Short: "Summarise and validate a graph",
		Long: `Prints the nodes and connections of a stored graph, or of a JSON
document given with --file, and reports dangling connections and inputs
fed more than once. Exits with an error when problems are found.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, name, err := readGraph(cmd, file, args)
			if err != nil {
				return err
			}
			if problems := inspect(cmd.OutOrStdout(), name, g); problems > 0 {
				return fmt.Errorf("%d problem(s) found", problems)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the graph from a JSON document")
	addStoreFlags(cmd)
	return cmd
}

// inspect writes the report for g and returns the number of problems
func inspect(w io.Writer, name string, g *graph.Drawflow) int {
	edges := g.Connections()

	fmt.Fprintln(w, titleStyle.Render("drawflow · "+name))
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("%d nodes, %d connections", g.Len(), len(edges))))
	fmt.Fprintln(w)

	var rows []string
	rows = append(rows, headerStyle.Render(fmt.Sprintf("%-6s %-16s %-24s %-14s %s", "ID", "NAME", "COMPONENT", "POSITION", "PORTS")))
	for _, id := range g.IDs() {
		node := g.Get(id)
		ports := fmt.Sprintf("%d in / %d out", len(node.Inputs), len(node.Outputs))
		pos := fmt.Sprintf("%g,%g", node.PosX, node.PosY)
		rows = append(rows, fmt.Sprintf("%-6s %-16s %-24s %-14s %s", id, node.Name, node.Component, pos, ports))
	}
	fmt.Fprintln(w, boxStyle.Render(strings.Join(rows, "\n")))

	if len(edges) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headerStyle.Render("Connections"))
		for _, e := range edges {
			fmt.Fprintf(w, "  %s.%s → %s.%s\n", e.Source, e.Output, e.Conn.Node, e.Conn.Input)
		}
	}

	fmt.Fprintln(w)
	problems := g.Validate()
	if len(problems) == 0 {
		fmt.Fprintln(w, successStyle.Render("✓ graph is valid"))
		return 0
	}
	for _, p := range problems {
		fmt.Fprintln(w, errorStyle.Render("✗ "+p.Error()))
	}
	return len(problems)
}
