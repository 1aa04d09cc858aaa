package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/phanxgames/sunscope"
)

func newViewCommand(ctx *commandContext) *cobra.Command {
	var dateFlag string
	var hour float64
	var outDir string
	var scriptPath string
	var shotsDir string

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Open the interactive viewer",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			date, err := resolveDate(cfg, dateFlag)
			if err != nil {
				return err
			}
			v, err := sunscope.NewViewer(cfg, sunscope.ViewerOptions{
				Date:               date,
				Hour:               hour,
				OutDir:             outDir,
				ScreenshotDir:      shotsDir,
				ExitWhenScriptDone: scriptPath != "",
			})
			if err != nil {
				return err
			}
			if scriptPath != "" {
				data, err := os.ReadFile(scriptPath)
				if err != nil {
					return fmt.Errorf("read script: %w", err)
				}
				runner, err := sunscope.LoadScript(data)
				if err != nil {
					return err
				}
				v.SetScript(runner)
			}
			return v.Run("sunscope")
		},
	}
	cmd.Flags().StringVarP(&dateFlag, "date", "d", "", "Day as YYYY-MM-DD (default today)")
	cmd.Flags().Float64Var(&hour, "hour", 0, "Initial hour of day (default solar noon)")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory for exports started from the viewer")
	cmd.Flags().StringVar(&scriptPath, "script", "", "JSON viewer script to play, closing the window when done")
	cmd.Flags().StringVar(&shotsDir, "screenshots", "", "Directory for script screenshots")
	return cmd
}
