package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chrisdamba/cotraffic/internal/fakefeed"
	"github.com/chrisdamba/cotraffic/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var fakefeedCmd = &cobra.Command{
	Use:   "fakefeed",
	Short: "Serve a synthetic speed feed for local runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := logging.Setup(os.Stderr, viper.GetString("log_level"))
		if err != nil {
			return err
		}
		addr, _ := cmd.Flags().GetString("addr")
		corridor, _ := cmd.Flags().GetString("corridor")

		server := &http.Server{
			Addr:              addr,
			Handler:           fakefeed.NewServer(corridor, logger).Handler(),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errc := make(chan error, 1)
		go func() {
			logger.Info("fake feed listening", "addr", addr, "path", fakefeed.FeedPath)
			errc <- server.ListenAndServe()
		}()

		select {
		case err := <-errc:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	},
}

func init() {
	fakefeedCmd.Flags().String("addr", ":8089", "Listen address")
	fakefeedCmd.Flags().String("corridor", "I-70", "Road name of the generated corridor segments")
}
