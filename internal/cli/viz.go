package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/orbweave/orbweave/pkg/mindmap"
	"github.com/orbweave/orbweave/pkg/render"
)

// vizCommand creates the viz command.
func (c *CLI) vizCommand() *cobra.Command {
	var (
		format   string
		output   string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "viz <map.json>",
		Short: "Render a mind map as a 2D structure diagram",
		Long: `Viz projects the mind map's connection graph onto a 2D diagram for
quick inspection. The 3D positions are not drawn; use --detailed to
include them in the node labels.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := mindmap.ReadFile(args[0])
			if err != nil {
				return err
			}

			dot := render.ToDOT(m, render.Options{Detailed: detailed})

			var data []byte
			switch strings.ToLower(format) {
			case "dot":
				data = []byte(dot)
			case "svg":
				tracker := newTimer(c.Logger)
				data, err = render.RenderSVG(dot)
				tracker.done(fmt.Sprintf("Rendered %d entries as SVG", len(m.Entries)))
			case "png":
				tracker := newTimer(c.Logger)
				data, err = render.RenderPNG(dot)
				tracker.done(fmt.Sprintf("Rendered %d entries as PNG", len(m.Entries)))
			default:
				return fmt.Errorf("invalid format: %q (must be one of: dot, svg, png)", format)
			}
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err = os.Stdout.Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			printSuccess("Rendered %s diagram", format)
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "dot", "output format: dot, svg, or png")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include entry positions in labels")

	return cmd
}
