package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/orbweave/orbweave/pkg/layout"
	"github.com/orbweave/orbweave/pkg/mindmap"
	"github.com/orbweave/orbweave/pkg/pipeline"
)

// arrangeCommand creates the arrange command.
func (c *CLI) arrangeCommand() *cobra.Command {
	var (
		output  string
		rootID  string
		refresh bool
		noCache bool
		plain   bool
	)

	cmd := &cobra.Command{
		Use:   "arrange <map.json>",
		Short: "Compute new 3D positions for a mind map",
		Long: `Arrange loads a mind map, runs the force-directed layout from its root
entry, and writes the map back with fresh positions.

By default the input file is updated in place. Use --output to write
elsewhere, or --output - to print the arranged map to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if output == "" {
				output = path
			}

			runner, err := c.newRunner(noCache)
			if err != nil {
				return fmt.Errorf("init cache: %w", err)
			}
			defer runner.Close()

			opts := pipeline.Options{
				Path:    path,
				RootID:  rootID,
				Refresh: refresh,
				Logger:  c.Logger,
			}

			var result *pipeline.Result
			execute := func(progress layout.ProgressFunc) error {
				opts.Progress = progress
				var err error
				result, err = runner.Execute(cmd.Context(), opts)
				return err
			}

			if plain || output == "-" {
				err = execute(nil)
			} else {
				err = runWithProgressUI("arranging", execute)
			}
			if err != nil {
				return err
			}

			if output == "-" {
				return mindmap.Write(result.Map, os.Stdout)
			}
			if err := mindmap.WriteFile(result.Map, output); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}

			printSuccess("Arranged %d entries", len(result.Layout.NewPositions))
			printStats(result.Stats.EntryCount, result.Stats.ConnectionCount, result.CacheInfo.ArrangeHit)
			printFile(output)
			printNextStep("Inspect the structure", fmt.Sprintf("orbweave viz %s", output))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: update input in place, - for stdout)")
	cmd.Flags().StringVar(&rootID, "root", "", "entry ID to arrange around (default: the map's root)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even if a cached arrangement exists")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the arrangement cache")
	cmd.Flags().BoolVar(&plain, "plain", false, "disable the progress bar")

	return cmd
}
