// Command ssm-relay runs the relay hub that orders and fans out
// structure updates for the shared-state-machine library.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/BCzarkowski/shared-state-machine/internal/config"
	"github.com/BCzarkowski/shared-state-machine/pkg/ssm/core"
	"github.com/BCzarkowski/shared-state-machine/pkg/ssm/definition"
	"github.com/BCzarkowski/shared-state-machine/pkg/ssm/types"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	var (
		configPath  string
		port        uint16
		metricsAddr string
		logLevel    string
	)

	cmd := &cobra.Command{
		Use:   "ssm-relay",
		Short: "Relay hub for shared replicated data structures",
		Long: `ssm-relay accepts client connections, orders the updates submitted to
each group and broadcasts the accepted history to every subscriber.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if cmd.Flags().Changed("port") {
				cfg.Relay.Port = port
			}
			if cmd.Flags().Changed("metrics-addr") {
				cfg.Relay.MetricsAddress = metricsAddr
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Logging.Level = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML configuration file")
	cmd.Flags().Uint16Var(&port, "port", 7878, "port the relay listens on")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "address serving prometheus metrics, empty disables")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error; warn and error log at info level")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	logger := definition.NewDefaultLogger()
	if cfg.Logging.Level == "debug" {
		logger.ToggleDebug(true)
	}

	server, err := core.NewServer(&types.ServerConfiguration{
		Address:         cfg.Address(),
		BroadcastBuffer: cfg.Relay.BroadcastBuffer,
		MaxFrameSize:    cfg.Relay.MaxFrameBytes,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.Relay.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(server.Registry(), promhttp.HandlerOpts{}))
		metrics := &http.Server{Addr: cfg.Relay.MetricsAddress, Handler: mux}
		go func() {
			logger.Infof("metrics listening on %s", cfg.Relay.MetricsAddress)
			if err := metrics.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logrus.WithError(err).Error("metrics endpoint failed")
			}
		}()
		go func() {
			<-ctx.Done()
			metrics.Close()
		}()
	}

	return server.Run(ctx)
}
