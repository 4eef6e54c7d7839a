package gateway

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/Cutii/enocean/pkg/esp3"
)

// ErrCommandInFlight is returned by Port.Send and Communicator.Send while a
// previous command still awaits its response. The transceiver answers
// strictly one command at a time.
var ErrCommandInFlight = errors.New("gateway: command already in flight")

// Port is the blocking link to an ESP3 transceiver. All reads go through a
// single buffered reader; callers drive the loop themselves. For a
// channel-based model see Communicator.
type Port struct {
	rwc io.ReadWriteCloser
	br  *bufio.Reader

	writeMu sync.Mutex
	cmdMu   chan struct{} // capacity-1 command slot

	pendingMu sync.Mutex
	pending   []esp3.Packet
}

// NewPort wraps an open transceiver connection, typically from OpenSerial.
func NewPort(rwc io.ReadWriteCloser) *Port {
	return &Port{
		rwc:   rwc,
		br:    bufio.NewReader(rwc),
		cmdMu: make(chan struct{}, 1),
	}
}

// ReadFrame reads the next valid frame, blocking until one arrives. Frames
// failing the data CRC check are reported as *esp3.DataCRCError; the caller
// can keep reading, the stream is not corrupted.
func (p *Port) ReadFrame() (*esp3.Frame, error) {
	f, err := esp3.ReadFrame(p.br)
	var crcErr *esp3.DataCRCError
	if errors.As(err, &crcErr) {
		frameCRCErrorCount.Inc()
	}
	if err != nil {
		return nil, err
	}
	framesDecodedCount.WithLabelValues(fmt.Sprintf("0x%02X", f.PacketType())).Inc()
	return f, nil
}

// WriteFrame writes a frame to the transceiver. Safe for concurrent use.
func (p *Port) WriteFrame(f *esp3.Frame) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if _, err := f.WriteTo(p.rwc); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// Send writes the packet and blocks until the transceiver responds. Radio
// telegrams arriving in between are queued in arrival order and can be
// drained with Pending. At most one command may be in flight; a concurrent
// Send returns ErrCommandInFlight. The context is checked between frames,
// a read in progress is only unblocked by Close.
func (p *Port) Send(ctx context.Context, pkt esp3.Packet) (*esp3.Response, error) {
	select {
	case p.cmdMu <- struct{}{}:
	default:
		return nil, ErrCommandInFlight
	}
	defer func() { <-p.cmdMu }()

	frame, err := pkt.Encode()
	if err != nil {
		return nil, err
	}
	if err := p.WriteFrame(frame); err != nil {
		return nil, err
	}
	commandsSentCount.Inc()

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := p.ReadFrame()
		if err != nil {
			return nil, err
		}
		if esp3.PacketType(f.PacketType()) == esp3.PacketTypeResponse {
			resp, err := esp3.DecodeResponse(f)
			if err != nil {
				return nil, err
			}
			responsesMatchedCount.Inc()
			return resp, nil
		}
		decoded, err := esp3.Decode(f)
		if err != nil {
			return nil, err
		}
		p.pendingMu.Lock()
		p.pending = append(p.pending, decoded)
		p.pendingMu.Unlock()
		telegramsQueuedCount.Inc()
	}
}

// Pending drains the packets that arrived while a command was awaiting its
// response, in arrival order.
func (p *Port) Pending() []esp3.Packet {
	p.pendingMu.Lock()
	defer p.pendingMu.Unlock()
	queued := p.pending
	p.pending = nil
	return queued
}

// ReadVersion queries the transceiver chip and application version.
func (p *Port) ReadVersion(ctx context.Context) (*esp3.VersionResponse, error) {
	resp, err := p.Send(ctx, esp3.ReadVersion())
	if err != nil {
		return nil, err
	}
	return esp3.DecodeVersionResponse(resp)
}

// Close closes the underlying transport, unblocking any in-progress read.
func (p *Port) Close() error {
	return p.rwc.Close()
}
