package eep

import (
	"github.com/Cutii/enocean/pkg/esp3"
)

// Telegrams sent on behalf of the gateway use the module-local sender id.
var gatewaySenderID = [4]byte{0x00, 0x00, 0x00, 0x00}

// SmartPlugCommand enumerates the D2-01 commands this package can build.
type SmartPlugCommand int

const (
	// SmartPlugOn switches the actuator output on.
	SmartPlugOn SmartPlugCommand = iota
	// SmartPlugOff switches the actuator output off.
	SmartPlugOff
	// SmartPlugQueryPower requests an instantaneous power report (W).
	SmartPlugQueryPower
	// SmartPlugQueryEnergy requests an accumulated energy report (Wh).
	SmartPlugQueryEnergy
	// SmartPlugDefaultConfig pushes the default measurement configuration:
	// auto-reporting power in watts, 3 W report delta, 60 s maximum and 1 s
	// minimum report interval.
	SmartPlugDefaultConfig
)

// NewSmartPlugTelegram builds the ERP1 telegram carrying a D2-01 command for
// the addressed actuator.
func NewSmartPlugTelegram(destination [4]byte, cmd SmartPlugCommand) *esp3.RadioErp1 {
	var payload []byte
	switch cmd {
	case SmartPlugOn:
		payload = []byte{0x01, 0x00, 0x01}
	case SmartPlugOff:
		payload = []byte{0x01, 0x00, 0x00}
	case SmartPlugQueryPower:
		payload = []byte{0x06, 0x20}
	case SmartPlugQueryEnergy:
		payload = []byte{0x06, 0x00}
	case SmartPlugDefaultConfig:
		payload = []byte{0x05, 0xA0, 0x33, 0x00, 0x06, 0x01}
	}
	return &esp3.RadioErp1{
		Rorg:          esp3.RorgVLD,
		Payload:       payload,
		SenderID:      gatewaySenderID,
		Status:        0x00,
		SubtelNum:     0x03,
		DestinationID: destination,
		RSSI:          0xFF,
		SecurityLevel: 0x00,
	}
}

// BlindCommand enumerates the PTM rocker emulations used to drive blind
// actuators paired against a physical switch.
type BlindCommand int

const (
	// BlindClosed emulates the rocker press that closes the blind.
	BlindClosed BlindCommand = iota
	// BlindOpen emulates the rocker press that opens the blind.
	BlindOpen
)

// NewBlindTelegram builds an F6 (RPS) telegram emulating a PTM rocker press.
// The status byte has T21 and NU set, matching what a real PTM module sends.
func NewBlindTelegram(cmd BlindCommand) *esp3.RadioErp1 {
	action := byte(0x10)
	if cmd == BlindOpen {
		action = 0x30
	}
	return &esp3.RadioErp1{
		Rorg:          esp3.RorgRPS,
		Payload:       []byte{action},
		SenderID:      gatewaySenderID,
		Status:        0x30,
		SubtelNum:     0x03,
		DestinationID: esp3.Broadcast,
		RSSI:          0xFF,
		SecurityLevel: 0x00,
	}
}

// NewTeachInAcceptedTelegram builds the UTE response that accepts a
// D2-01-0E actuator's teach-in request, mirroring the device record the plug
// announces (bidirectional, EEP D2-01-0E).
func NewTeachInAcceptedTelegram(destination [4]byte) *esp3.RadioErp1 {
	return &esp3.RadioErp1{
		Rorg:          esp3.RorgUTE,
		Payload:       []byte{0xD1, 0x01, 0x46, 0x00, 0x0E, 0x01, 0xD2},
		SenderID:      gatewaySenderID,
		Status:        0x00,
		SubtelNum:     0x03,
		DestinationID: destination,
		RSSI:          0xFF,
		SecurityLevel: 0x00,
	}
}
