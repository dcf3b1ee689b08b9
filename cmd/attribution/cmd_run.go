package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AngelCh415/lead-attribution/internal/pipeline"
	"github.com/AngelCh415/lead-attribution/internal/report"
)

var (
	runStyle string
	runQuiet bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch all sources, build the report and write it to REPORT_DIR",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		p, err := pipeline.FromConfig(cfg, logger, nil)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		res := p.Run(ctx)
		if _, _, err := p.Persist(ctx, res.Report); err != nil {
			return err
		}
		if runQuiet {
			return nil
		}
		out, err := report.Console(res.Report, runStyle)
		if err != nil {
			// sin terminal compatible: markdown plano
			out = report.Markdown(res.Report)
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runStyle, "style", "auto", "glamour style for the console rendering (auto, dark, light, notty)")
	runCmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "only write the report files")
}
