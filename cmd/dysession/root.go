package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/wolfeidau/dysession"
	"github.com/wolfeidau/dysession/internal/logging"
	"github.com/wolfeidau/dysession/internal/settings"
)

var (
	loader    *settings.Loader
	cfg       *dysession.Config
	logger    = zerolog.Nop()
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:          "dysession",
	Short:        "Manage the DynamoDB table backing web sessions",
	Long:         `dysession provisions and removes the DynamoDB session table, and runs a demo server using the session middleware.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFile, _ := cmd.Flags().GetString("config")

		loader = settings.New(configFile)

		v := loader.Viper()
		if err := v.BindPFlag("logging.level", cmd.Flags().Lookup("log-level")); err != nil {
			return err
		}
		if err := v.BindPFlag("endpoint", cmd.Flags().Lookup("endpoint")); err != nil {
			return err
		}

		var err error

		cfg, err = loader.Load()
		if err != nil {
			return err
		}

		logger, logCloser, err = logging.New(cfg.Logging)
		if err != nil {
			return err
		}

		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logCloser != nil {
			return logCloser.Close()
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Config file (default is ./dysession.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level, one of debug, info, warn, error")
	rootCmd.PersistentFlags().String("endpoint", "", "DynamoDB endpoint, for example http://localhost:8000")
}

func newClient(options ...dysession.SessionOption) *dysession.DynaSession {
	options = append([]dysession.SessionOption{dysession.WithConfig(cfg), dysession.WithLogger(logger)}, options...)

	return dysession.New(nil, options...)
}

// applyTableFlags copy the table flags which were set on the command line into the config
func applyTableFlags(cmd *cobra.Command, c *dysession.Config) error {
	flags := cmd.Flags()

	for name, dest := range map[string]*string{
		"table":  &c.TableName,
		"pk":     &c.PartitionKey,
		"sk":     &c.SortKey,
		"ttl":    &c.TTLAttribute,
		"region": &c.Region,
	} {
		if flags.Lookup(name) == nil || !flags.Changed(name) {
			continue
		}

		val, err := flags.GetString(name)
		if err != nil {
			return err
		}

		*dest = val
	}

	if flags.Lookup("period") != nil && flags.Changed("period") {
		period, err := flags.GetInt("period")
		if err != nil {
			return err
		}

		c.CachePeriod, err = periodDuration(period)
		if err != nil {
			return err
		}
	}

	return c.Validate()
}
