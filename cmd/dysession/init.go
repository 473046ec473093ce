package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/wolfeidau/dysession"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the session table",
	Long:  `Creates the session table with on demand billing and a single string partition key.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := applyTableFlags(cmd, cfg); err != nil {
			return err
		}

		wait, _ := cmd.Flags().GetBool("wait")
		enableTTL, _ := cmd.Flags().GetBool("enable-ttl")

		client := newClient()

		_, err := client.Table(cfg.TableName).CreateTableWithContext(cmd.Context(), dysession.CreateTableOptions{
			PartitionKey: cfg.PartitionKey,
			TTLAttribute: cfg.TTLAttribute,
			Wait:         wait,
			EnableTTL:    enableTTL,
		})
		if err != nil {
			return err
		}

		logger.Info().
			Str("table", cfg.TableName).
			Str("partition_key", cfg.PartitionKey).
			Str("ttl_attribute", cfg.TTLAttribute).
			Dur("cache_period", cfg.CachePeriod).
			Msg("session table created")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringP("table", "n", "", "Name of the session table")
	initCmd.Flags().String("pk", "", "Partition key attribute name")
	initCmd.Flags().String("sk", "", "Sort key attribute name, recorded but not part of the key schema")
	initCmd.Flags().String("ttl", "", "TTL attribute name")
	initCmd.Flags().String("region", "", "AWS region")
	initCmd.Flags().Int("period", 0, "Session lifetime in seconds, must be positive")
	initCmd.Flags().Bool("wait", false, "Wait until the table is active")
	initCmd.Flags().Bool("enable-ttl", false, "Enable expiry of the ttl attribute, implies --wait")
}

// periodDuration convert a positive number of seconds to a duration
func periodDuration(seconds int) (time.Duration, error) {
	if seconds <= 0 {
		return 0, fmt.Errorf("%d is an invalid positive int value", seconds)
	}

	return time.Duration(seconds) * time.Second, nil
}
