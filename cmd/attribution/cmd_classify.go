package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AngelCh415/lead-attribution/internal/attribution"
	"github.com/AngelCh415/lead-attribution/internal/models"
)

var utm models.UTM

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify one set of UTM/source fields into a channel",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), attribution.Classify(utm))
		return nil
	},
}

func init() {
	f := classifyCmd.Flags()
	f.StringVar(&utm.Source, "source", "", "utm_source")
	f.StringVar(&utm.Medium, "medium", "", "utm_medium")
	f.StringVar(&utm.Campaign, "campaign", "", "utm_campaign")
	f.StringVar(&utm.Channel, "channel", "", "free-text channel attribute")
	f.StringVar(&utm.FormSource, "form-source", "", "form source attribute")
}
