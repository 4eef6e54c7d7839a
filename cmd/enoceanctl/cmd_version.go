package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Cutii/enocean/pkg/gateway"
)

var cmdVersion = &cobra.Command{
	Use:   "version",
	Short: "Query the transceiver chip and application version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rwc, err := gateway.OpenSerial(cfg.Serial.Port)
		if err != nil {
			return err
		}
		port := gateway.NewPort(rwc)
		defer port.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()

		version, err := port.ReadVersion(ctx)
		if err != nil {
			return fmt.Errorf("reading version: %w", err)
		}

		fmt.Printf("app:          %s %s\n", version.DescriptionString(), version.App)
		fmt.Printf("api:          %s\n", version.API)
		fmt.Printf("chip id:      %X\n", version.ChipID)
		fmt.Printf("chip version: %X\n", version.ChipVersion)
		return nil
	},
}
