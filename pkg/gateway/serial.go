package gateway

import (
	"fmt"
	"io"

	"go.bug.st/serial"
)

// Baudrate of an ESP3 transceiver (TCM310 and friends), fixed by the
// protocol.
const Baudrate = 57600

// OpenSerial opens the transceiver serial port in 8N1 mode. The returned
// port blocks on read; shutdown is done by closing it.
func OpenSerial(portName string) (io.ReadWriteCloser, error) {
	rwc, err := serial.Open(portName, &serial.Mode{
		BaudRate: Baudrate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("opening serial port %s: %w", portName, err)
	}
	return rwc, nil
}
