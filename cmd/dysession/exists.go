package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var existsCmd = &cobra.Command{
	Use:   "exists",
	Short: "Check the session table exists in the region",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := applyTableFlags(cmd, cfg); err != nil {
			return err
		}

		_, err := newClient().Table(cfg.TableName).TableExistsWithContext(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "table %s exists in %s\n", cfg.TableName, cfg.Region)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(existsCmd)
	existsCmd.Flags().StringP("table", "n", "", "Name of the session table")
	existsCmd.Flags().String("region", "", "AWS region")
}
