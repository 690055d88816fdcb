package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Create the buckets, policies, certificate and distribution for the site.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := buildApplication(cmd)
		if err != nil {
			return err
		}

		res, err := application.Provision(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Web bucket:    %s\n", res.WebBucket)
		fmt.Fprintf(out, "Log bucket:    %s\n", res.LogBucket)
		fmt.Fprintf(out, "Certificate:   %s\n", res.CertificateARN)
		fmt.Fprintf(out, "Distribution:  %s (%s)\n", res.Distribution.ID, res.Distribution.DomainName)
		return nil
	},
}
