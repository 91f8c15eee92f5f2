package cmd

import (
	"fmt"
	"os"

	"github.com/chrisdamba/cotraffic/internal/logging"
	"github.com/chrisdamba/cotraffic/internal/models"
	"github.com/chrisdamba/cotraffic/internal/output"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print how many raw and summary documents are stored",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := models.LoadConfig(viper.GetViper(), cfgFile)
		if err != nil {
			return err
		}
		if cfg.Store.Driver != models.StoreDriverPostgres {
			return fmt.Errorf("stats needs the %s store, configured driver is %s", models.StoreDriverPostgres, cfg.Store.Driver)
		}
		logger, err := logging.Setup(os.Stderr, cfg.LogLevel)
		if err != nil {
			return err
		}

		store, err := output.NewPostgresStore(cmd.Context(), cfg.Store, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		counts, err := store.Counts(cmd.Context())
		if err != nil {
			return err
		}
		for _, collection := range []string{models.CollectionRawTraffic, models.CollectionSummary} {
			fmt.Fprintf(cmd.OutOrStdout(), "%-12s %d\n", collection, counts[collection])
		}
		return nil
	},
}
