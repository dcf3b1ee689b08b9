package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AngelCh415/lead-attribution/internal/config"
	"github.com/AngelCh415/lead-attribution/internal/models"
	"github.com/AngelCh415/lead-attribution/internal/pipeline"
	"github.com/AngelCh415/lead-attribution/internal/report"
)

var (
	projectReport    string
	projectBudget    float64
	projectTargetCPA float64
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Re-run the reallocation optimizer over the channels of a saved report",
	RunE: func(cmd *cobra.Command, args []string) error {
		if projectReport == "" {
			return errors.New("--report is required")
		}
		b, err := os.ReadFile(projectReport)
		if err != nil {
			return err
		}
		var rep report.Report
		if err := json.Unmarshal(b, &rep); err != nil {
			return fmt.Errorf("parse %s: %w", projectReport, err)
		}

		th := config.DefaultThresholds()
		if path := os.Getenv("THRESHOLDS_FILE"); path != "" {
			if th, err = config.LoadThresholds(path); err != nil {
				return err
			}
		}
		if projectTargetCPA > 0 {
			th.TargetCPA = projectTargetCPA
		}
		if err := th.Validate(); err != nil {
			return err
		}

		current := make(map[models.Channel]models.AggregateBucket, len(rep.Channels))
		for _, c := range rep.Channels {
			current[c.Channel] = models.AggregateBucket{
				Channel:             c.Channel,
				Leads:               c.Leads,
				Applications:        c.Applications,
				Enrollments:         c.Enrollments,
				Tiers:               c.Tiers,
				Spend:               c.Spend,
				PlatformConversions: c.PlatformConversions,
			}
		}
		rep.Plans = pipeline.Optimizer(th).Plans(current, projectBudget)
		rep.Content, rep.Windows = nil, nil
		fmt.Fprintln(cmd.OutOrStdout(), report.Markdown(rep))
		return nil
	},
}

func init() {
	f := projectCmd.Flags()
	f.StringVar(&projectReport, "report", "", "path to a JSON report written by run")
	f.Float64Var(&projectBudget, "budget", 0, "total budget to distribute (0 keeps current spend)")
	f.Float64Var(&projectTargetCPA, "target-cpa", 0, "override the target CPA")
}
