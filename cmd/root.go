package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/chrisdamba/cotraffic/internal/feed"
	"github.com/chrisdamba/cotraffic/internal/logging"
	"github.com/chrisdamba/cotraffic/internal/models"
	"github.com/chrisdamba/cotraffic/internal/output"
	"github.com/chrisdamba/cotraffic/internal/reading"
	"github.com/chrisdamba/cotraffic/internal/scheduler"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "cotraffic",
	Short: "Records I-70 corridor travel times from the CDOT speed feed",
	Long: `cotraffic reads the CDOT speed feed, totals the current east and west bound
travel times for a corridor and stores both the raw snapshot and a summary.
Without --schedule it takes one reading and exits.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := models.LoadConfig(viper.GetViper(), cfgFile)
		if err != nil {
			return err
		}
		logger, err := logging.Setup(os.Stderr, cfg.LogLevel)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		gateway, err := output.NewGatewayFromConfig(ctx, cfg, logger)
		if err != nil {
			return err
		}
		pipeline := reading.NewPipeline(feed.NewClient(cfg.Feed.URL, cfg.Feed.Timeout), gateway, reading.Options{
			Corridor:    cfg.Corridor,
			StaleWindow: cfg.StaleWindow,
			Logger:      logger,
		})

		opts := []scheduler.Option{scheduler.WithLogger(logger)}
		if cfg.Progress && isTerminal(os.Stderr) {
			opts = append(opts, scheduler.WithProgress(os.Stderr))
		}
		s := scheduler.New(pipeline, gateway, opts...)

		if cfg.Once() {
			if err := s.RunOnce(ctx); err != nil {
				logger.Error("reading did not complete", "error", err)
			}
			return nil
		}
		return s.RunEvery(ctx, cfg.Interval())
	},
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.cotraffic.yaml)")
	rootCmd.PersistentFlags().String("log-level", "debug", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("store-driver", models.StoreDriverPostgres, "Document store (postgres, kafka, jsonl)")
	rootCmd.PersistentFlags().String("postgres-url", models.DefaultPostgresURL, "Postgres connection URL")

	rootCmd.Flags().Int("schedule", 0, "Seconds between readings (0 takes a single reading)")
	rootCmd.Flags().String("feed-url", models.DefaultFeedURL, "Speed feed URL")
	rootCmd.Flags().String("corridor", models.DefaultCorridor, "Road name to total")
	rootCmd.Flags().Duration("stale-window", models.DefaultStaleWindow, "Maximum age of a segment measurement")
	rootCmd.Flags().String("kafka-broker-list", "", "Kafka broker list for the kafka store")
	rootCmd.Flags().String("output-path", "", "Directory for the jsonl store")
	rootCmd.Flags().Bool("archive", false, "Keep a parquet copy of every reading")
	rootCmd.Flags().Bool("progress", false, "Show a countdown between scheduled readings")

	bindFlags(rootCmd, map[string]string{
		"log_level":               "log-level",
		"store.driver":            "store-driver",
		"store.postgres_url":      "postgres-url",
		"schedule":                "schedule",
		"feed.url":                "feed-url",
		"corridor":                "corridor",
		"stale_window":            "stale-window",
		"store.kafka_broker_list": "kafka-broker-list",
		"store.output_path":       "output-path",
		"archive.enabled":         "archive",
		"progress":                "progress",
	})

	rootCmd.AddCommand(statsCmd, fakefeedCmd)
}

func bindFlags(cmd *cobra.Command, keys map[string]string) {
	for key, name := range keys {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			flag = cmd.PersistentFlags().Lookup(name)
		}
		cobra.CheckErr(viper.BindPFlag(key, flag))
	}
}

// initConfig loads a .env file from the working directory if there is one, so
// COTRAFFIC_ variables can be kept next to the binary.
func initConfig() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintln(os.Stderr, "Error loading .env file:", err)
	}
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

func Execute() {
	ExecuteContext(context.Background())
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
