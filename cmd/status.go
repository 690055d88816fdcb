package main

import (
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which of the site's resources already exist.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := buildApplication(cmd)
		if err != nil {
			return err
		}
		return application.Status(cmd.Context())
	},
}
