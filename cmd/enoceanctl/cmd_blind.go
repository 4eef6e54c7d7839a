package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Cutii/enocean/pkg/eep"
	"github.com/Cutii/enocean/pkg/esp3"
	"github.com/Cutii/enocean/pkg/gateway"
)

var cmdBlind = &cobra.Command{
	Use:   "blind",
	Short: "Control PTM-paired roller blinds (broadcast)",
}

var cmdBlindOpen = &cobra.Command{
	Use:   "open",
	Short: "Open the blinds",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return sendBlindCommand(cmd, eep.BlindOpen)
	},
}

var cmdBlindClose = &cobra.Command{
	Use:   "close",
	Short: "Close the blinds",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return sendBlindCommand(cmd, eep.BlindClosed)
	},
}

func init() {
	cmdBlind.AddCommand(cmdBlindOpen, cmdBlindClose)
}

func sendBlindCommand(cmd *cobra.Command, command eep.BlindCommand) error {
	rwc, err := gateway.OpenSerial(cfg.Serial.Port)
	if err != nil {
		return err
	}
	port := gateway.NewPort(rwc)
	defer port.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	resp, err := port.Send(ctx, eep.NewBlindTelegram(command))
	if err != nil {
		return err
	}
	if resp.Code != esp3.RetOk {
		return fmt.Errorf("transceiver refused command: %s", resp.Code)
	}
	return nil
}
