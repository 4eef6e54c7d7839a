package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Cutii/enocean/pkg/eep"
	"github.com/Cutii/enocean/pkg/gateway"
	"github.com/Cutii/enocean/pkg/log"
)

var deviceFlags []string

func init() {
	cmdListen.Flags().StringArrayVar(&deviceFlags, "device", nil, "device mapping id=profile, e.g. 05:11:72:F7=A5-04-01 (repeatable)")
}

var cmdListen = &cobra.Command{
	Use:   "listen",
	Short: "Print radio telegrams as they arrive, decoded for known devices",
	RunE:  runListen,
}

func buildRegistry() (*eep.Registry, error) {
	registry := eep.NewRegistry()

	for _, d := range cfg.Devices {
		id, err := eep.ParseDeviceID(d.ID)
		if err != nil {
			return nil, err
		}
		profile, err := eep.ParseProfile(d.Profile)
		if err != nil {
			return nil, err
		}
		registry.Register(id, profile)
	}

	for _, mapping := range deviceFlags {
		rawID, rawProfile, ok := strings.Cut(mapping, "=")
		if !ok {
			return nil, fmt.Errorf("device mapping %q: want id=profile", mapping)
		}
		id, err := eep.ParseDeviceID(rawID)
		if err != nil {
			return nil, err
		}
		profile, err := eep.ParseProfile(rawProfile)
		if err != nil {
			return nil, err
		}
		registry.Register(id, profile)
	}

	return registry, nil
}

func runListen(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := log.FromContext(ctx)

	registry, err := buildRegistry()
	if err != nil {
		return err
	}

	rwc, err := gateway.OpenSerial(cfg.Serial.Port)
	if err != nil {
		return err
	}
	comm := gateway.NewCommunicator(rwc)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return comm.Run(ctx)
	})

	// setup prometheus endpoint
	if cfg.Metrics.Enable {
		promHandler := http.NewServeMux()
		promHandler.Handle(cfg.Metrics.Path, promhttp.Handler())
		server := &http.Server{Addr: cfg.Metrics.Addr, Handler: promHandler}
		group.Go(func() error {
			err := server.ListenAndServe()
			if err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("prometheus server: %w", err)
			}
			return nil
		})
		group.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	group.Go(func() error {
		for telegram := range comm.Telegrams() {
			sender := eep.FormatDeviceID(telegram.SenderID)
			reading, known := registry.DecodeTelegram(telegram)
			if !known {
				logger.Info("Telegram from unknown device",
					zap.String("sender", sender),
					zap.String("rorg", telegram.Rorg.String()),
					zap.Binary("payload", telegram.Payload),
				)
				continue
			}

			parts := make([]string, 0, 4)
			for _, f := range reading.Fields() {
				parts = append(parts, fmt.Sprintf("%s=%q", f.Code, f.Value))
			}
			fmt.Printf("%s %s %s\n", sender, telegram.Rorg, strings.Join(parts, " "))
		}
		return nil
	})

	logger.Info("Listening for radio telegrams", zap.String("port", cfg.Serial.Port))
	return group.Wait()
}
