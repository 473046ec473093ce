package main

import (
	"github.com/spf13/cobra"
)

var destroyCmd = &cobra.Command{
	Use:   "destroy",
	Short: "Delete the session table",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := applyTableFlags(cmd, cfg); err != nil {
			return err
		}

		_, err := newClient().Table(cfg.TableName).DestroyTableWithContext(cmd.Context())
		if err != nil {
			return err
		}

		logger.Info().Str("table", cfg.TableName).Msg("session table deleted")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(destroyCmd)
	destroyCmd.Flags().StringP("table", "n", "", "Name of the session table")
	destroyCmd.Flags().String("region", "", "AWS region")
}
