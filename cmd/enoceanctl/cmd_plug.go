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

var cmdPlug = &cobra.Command{
	Use:   "plug",
	Short: "Control a D2-01 smart plug",
}

var cmdPlugOn = &cobra.Command{
	Use:   "on <device-id>",
	Short: "Switch the plug on",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendPlugCommand(cmd, args[0], eep.SmartPlugOn, false)
	},
}

var cmdPlugOff = &cobra.Command{
	Use:   "off <device-id>",
	Short: "Switch the plug off",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendPlugCommand(cmd, args[0], eep.SmartPlugOff, false)
	},
}

var cmdPlugPower = &cobra.Command{
	Use:   "power <device-id>",
	Short: "Query the momentary power draw",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendPlugCommand(cmd, args[0], eep.SmartPlugQueryPower, true)
	},
}

var cmdPlugEnergy = &cobra.Command{
	Use:   "energy <device-id>",
	Short: "Query the accumulated energy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendPlugCommand(cmd, args[0], eep.SmartPlugQueryEnergy, true)
	},
}

func init() {
	cmdPlug.AddCommand(cmdPlugOn, cmdPlugOff, cmdPlugPower, cmdPlugEnergy)
}

// sendPlugCommand sends a VLD command to the plug and, for queries, waits
// for the measurement telegram the plug sends back.
func sendPlugCommand(cmd *cobra.Command, rawID string, command eep.SmartPlugCommand, await bool) error {
	dest, err := eep.ParseDeviceID(rawID)
	if err != nil {
		return err
	}

	rwc, err := gateway.OpenSerial(cfg.Serial.Port)
	if err != nil {
		return err
	}
	port := gateway.NewPort(rwc)
	defer port.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	resp, err := port.Send(ctx, eep.NewSmartPlugTelegram(dest, command))
	if err != nil {
		return err
	}
	if resp.Code != esp3.RetOk {
		return fmt.Errorf("transceiver refused command: %s", resp.Code)
	}
	if !await {
		return nil
	}

	// The measurement arrives as a separate radio telegram, possibly already
	// queued while we waited for the response.
	for _, p := range port.Pending() {
		if printPlugReading(p, dest) {
			return nil
		}
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		f, err := port.ReadFrame()
		if err != nil {
			return err
		}
		p, err := esp3.Decode(f)
		if err != nil {
			return err
		}
		if printPlugReading(p, dest) {
			return nil
		}
	}
}

func printPlugReading(p esp3.Packet, dest [4]byte) bool {
	telegram, ok := p.(*esp3.RadioErp1)
	if !ok || telegram.SenderID != dest || telegram.Rorg != esp3.RorgVLD {
		return false
	}
	reading := eep.Decode(eep.ProfileD2010E, telegram.Payload)
	unit, _ := reading.Get("UN")
	value, _ := reading.Get("MV")
	fmt.Printf("%s %s %s\n", eep.FormatDeviceID(telegram.SenderID), value, unit)
	return true
}
