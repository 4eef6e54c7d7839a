package gateway_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cutii/enocean/pkg/esp3"
	"github.com/Cutii/enocean/pkg/gateway"
)

// pipeConn joins two in-memory pipes into the transceiver's side of a
// duplex connection.
type pipeConn struct {
	reader *io.PipeReader
	writer *io.PipeWriter
}

func (c *pipeConn) Read(p []byte) (int, error)  { return c.reader.Read(p) }
func (c *pipeConn) Write(p []byte) (int, error) { return c.writer.Write(p) }

func (c *pipeConn) Close() error {
	c.reader.Close()
	return c.writer.Close()
}

// newFakeDevice returns a connection for the communicator plus the device
// ends: write to feed inbound frames, read to observe outbound frames.
func newFakeDevice() (*pipeConn, *io.PipeWriter, *io.PipeReader) {
	inboundR, inboundW := io.Pipe()
	outboundR, outboundW := io.Pipe()
	return &pipeConn{reader: inboundR, writer: outboundW}, inboundW, outboundR
}

func TestCommunicatorTelegramOrder(t *testing.T) {
	t.Parallel()

	conn, device, _ := newFakeDevice()
	comm := gateway.NewCommunicator(conn)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- comm.Run(ctx) }()

	rocker := []byte{
		85, 0, 7, 7, 1, 122, 246, 48, 0, 49, 192, 249, 48,
		1, 255, 255, 255, 255, 51, 0, 144,
	}
	_, err := device.Write(append(append([]byte{}, temperatureTelegram...), rocker...))
	require.NoError(t, err)

	first := <-comm.Telegrams()
	assert.Equal(t, esp3.Rorg4BS, first.Rorg)
	second := <-comm.Telegrams()
	assert.Equal(t, esp3.RorgRPS, second.Rorg)

	cancel()
	require.NoError(t, <-done)

	// The telegram channel closes with the run loop.
	_, open := <-comm.Telegrams()
	assert.False(t, open)
}

func TestCommunicatorSurvivesBadCRC(t *testing.T) {
	t.Parallel()

	conn, device, _ := newFakeDevice()
	comm := gateway.NewCommunicator(conn)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go comm.Run(ctx)

	corrupted := append([]byte{}, temperatureTelegram...)
	corrupted[len(corrupted)-1] ^= 0xFF
	_, err := device.Write(append(corrupted, temperatureTelegram...))
	require.NoError(t, err)

	select {
	case telegram := <-comm.Telegrams():
		assert.Equal(t, esp3.Rorg4BS, telegram.Rorg)
	case <-time.After(time.Second):
		t.Fatal("telegram not delivered after CRC error")
	}
}

func TestCommunicatorSend(t *testing.T) {
	t.Parallel()

	conn, device, outbound := newFakeDevice()
	comm := gateway.NewCommunicator(conn)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go comm.Run(ctx)

	// Fake device: echo a RET_OK response once the command arrives.
	wireLen := len(readVersionWire(t))
	go func() {
		buf := make([]byte, wireLen)
		if _, err := io.ReadFull(outbound, buf); err != nil {
			return
		}
		device.Write(okResponse)
	}()

	resp, err := comm.Send(ctx, esp3.ReadVersion())
	require.NoError(t, err)
	assert.Equal(t, esp3.RetOk, resp.Code)
}

func TestCommunicatorSendSingleFlight(t *testing.T) {
	t.Parallel()

	conn, device, outbound := newFakeDevice()
	comm := gateway.NewCommunicator(conn)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go comm.Run(ctx)

	first := make(chan error, 1)
	go func() {
		_, err := comm.Send(ctx, esp3.ReadVersion())
		first <- err
	}()

	// Wait for the command frame on the wire; the slot is held by then.
	buf := make([]byte, len(readVersionWire(t)))
	_, err := io.ReadFull(outbound, buf)
	require.NoError(t, err)

	_, err = comm.Send(ctx, esp3.ReadVersion())
	assert.ErrorIs(t, err, gateway.ErrCommandInFlight)

	_, err = device.Write(okResponse)
	require.NoError(t, err)
	require.NoError(t, <-first)
}

func TestCommunicatorSubscribe(t *testing.T) {
	t.Parallel()

	conn, device, _ := newFakeDevice()
	comm := gateway.NewCommunicator(conn)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go comm.Run(ctx)

	responses := comm.Subscribe(1, gateway.MatchResponses)
	defer responses.Unsubscribe()
	telegrams := comm.Subscribe(1, gateway.MatchTelegrams)
	defer telegrams.Unsubscribe()

	_, err := device.Write(append(append([]byte{}, okResponse...), temperatureTelegram...))
	require.NoError(t, err)

	select {
	case p := <-responses.C():
		_, ok := p.(*esp3.Response)
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("response not observed")
	}
	select {
	case p := <-telegrams.C():
		_, ok := p.(*esp3.RadioErp1)
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("telegram not observed")
	}
}
