package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Cutii/enocean/internal/config"
	"github.com/Cutii/enocean/pkg/log"
)

var (
	cfgPath      string
	portOverride string

	cfg *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to a config file (default: enocean.yaml in . or /etc/enocean)")
	rootCmd.PersistentFlags().StringVar(&portOverride, "port", "", "serial port of the ESP3 transceiver (overrides config)")

	rootCmd.AddCommand(cmdListen, cmdVersion, cmdPlug, cmdBlind)
}

var rootCmd = &cobra.Command{
	Use:   "enoceanctl",
	Short: "enoceanctl talks to an EnOcean ESP3 transceiver: listen to radio telegrams and control actuators",
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		if portOverride != "" {
			cfg.Serial.Port = portOverride
		}

		level, err := zapcore.ParseLevel(cfg.Logging.Level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.Logging.Level, err)
		}
		zapCfg := zap.NewProductionConfig()
		if cfg.Logging.Development {
			zapCfg = zap.NewDevelopmentConfig()
		}
		zapCfg.Level = zap.NewAtomicLevelAt(level)
		logger, err := zapCfg.Build()
		if err != nil {
			return fmt.Errorf("building logger: %w", err)
		}
		logger = logger.With(zap.String("app", "enoceanctl"))
		_ = zap.ReplaceGlobals(logger.With(zap.String("scope", "global")))

		// setup signal handlers for SIGINT and SIGTERM
		ctx, cancelCtx := context.WithCancel(cmd.Context())
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			// Wait for context cancel or signal
			select {
			case <-ctx.Done():
			case <-sigs:
				// On signal, cancel context
				cancelCtx()
			}
		}()

		cmd.SetContext(log.IntoContext(ctx, logger))
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
