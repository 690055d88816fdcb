package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	reportDistribution string
	reportRaw          bool
	reportNoColor      bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "List CloudFront distributions in the account.",
	Long: `Report prints one line per CloudFront distribution (id, ARN, domain name,
comment). With --raw each distribution is printed as indented JSON.
With --distribution only that distribution is reported.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := buildApplication(cmd)
		if err != nil {
			return err
		}
		return application.Report(cmd.Context(), reportDistribution, reportRaw)
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportDistribution, "distribution", "", "Only report the distribution with this ID")
	reportCmd.Flags().BoolVar(&reportRaw, "raw", false, "Print full distribution records as JSON")
	reportCmd.Flags().BoolVar(&reportNoColor, "no-color", false, "Disable colored output")

	viper.BindPFlag("report.no_color", reportCmd.Flags().Lookup("no-color"))
}
