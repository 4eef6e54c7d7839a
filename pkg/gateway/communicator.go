package gateway

import (
	"context"
	"errors"
	"io"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Cutii/enocean/pkg/esp3"
	"github.com/Cutii/enocean/pkg/log"
)

// Communicator drives an ESP3 transceiver with background goroutines and
// hands packets over on channels. Radio telegrams are delivered in arrival
// order on Telegrams; any packet can be observed through Subscribe. Send
// correlates a command with the next response.
//
// Run owns the transport: cancelling its context closes the port to unblock
// the read loop, and the telegram channel is closed when Run returns.
type Communicator struct {
	port *Port
	bus  *PacketBus

	outbound  chan *esp3.Frame
	telegrams chan *esp3.RadioErp1
	cmdSlot   chan struct{}

	queueMu sync.Mutex
	queue   []*esp3.RadioErp1
	notify  chan struct{}
}

// NewCommunicator wraps an open transceiver connection, typically from
// OpenSerial.
func NewCommunicator(rwc io.ReadWriteCloser) *Communicator {
	return &Communicator{
		port:      NewPort(rwc),
		bus:       NewPacketBus(),
		outbound:  make(chan *esp3.Frame),
		telegrams: make(chan *esp3.RadioErp1),
		cmdSlot:   make(chan struct{}, 1),
		notify:    make(chan struct{}, 1),
	}
}

// Telegrams is the ordered stream of inbound radio telegrams. The queue
// behind it is unbounded, a slow consumer never stalls the read loop. The
// channel is closed when Run returns.
func (c *Communicator) Telegrams() <-chan *esp3.RadioErp1 {
	return c.telegrams
}

// Subscribe registers a packet observer with the given filter and buffer
// size. Observers with a full buffer miss packets.
func (c *Communicator) Subscribe(bufSize int, filter func(esp3.Packet) bool) *BusSubscriber {
	return c.bus.Subscribe(bufSize, filter)
}

// Run drives the read, delivery and write loops until the context is
// cancelled or the transport fails.
func (c *Communicator) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	// Close the port on cancellation to unblock the read loop.
	group.Go(func() error {
		<-ctx.Done()
		return c.port.Close()
	})

	group.Go(func() error {
		return c.readLoop(ctx)
	})

	group.Go(func() error {
		return c.deliverLoop(ctx)
	})

	group.Go(func() error {
		return c.writeLoop(ctx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (c *Communicator) readLoop(ctx context.Context) error {
	logger := log.FromContext(ctx)
	for {
		f, err := c.port.ReadFrame()
		var crcErr *esp3.DataCRCError
		switch {
		case errors.As(err, &crcErr):
			logger.Warn("Dropping frame with bad data CRC", zap.Binary("frame", crcErr.Bytes))
			continue
		case err != nil:
			// The watcher goroutine closes the port on cancellation;
			// the resulting read error is expected then.
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		pkt, err := esp3.Decode(f)
		if err != nil {
			logger.Warn("Dropping undecodable frame", zap.Error(err))
			continue
		}
		if raw, ok := pkt.(*esp3.Raw); ok {
			logger.Debug("Passing through unknown packet type", zap.Uint8("type", raw.Type))
		}

		c.bus.Publish(pkt)

		if telegram, ok := pkt.(*esp3.RadioErp1); ok {
			c.enqueue(telegram)
		}
	}
}

func (c *Communicator) enqueue(t *esp3.RadioErp1) {
	c.queueMu.Lock()
	c.queue = append(c.queue, t)
	c.queueMu.Unlock()
	telegramsQueuedCount.Inc()

	select {
	case c.notify <- struct{}{}:
	default:
	}
}

// deliverLoop pumps queued telegrams onto the consumer channel, preserving
// arrival order.
func (c *Communicator) deliverLoop(ctx context.Context) error {
	defer close(c.telegrams)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.notify:
		}

		for {
			c.queueMu.Lock()
			if len(c.queue) == 0 {
				c.queueMu.Unlock()
				break
			}
			head := c.queue[0]
			c.queue = c.queue[1:]
			c.queueMu.Unlock()

			select {
			case c.telegrams <- head:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (c *Communicator) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f := <-c.outbound:
			if err := c.port.WriteFrame(f); err != nil {
				return err
			}
			commandsSentCount.Inc()
		}
	}
}

// Send writes the packet and waits for the transceiver's response. At most
// one command may be in flight; a concurrent Send returns
// ErrCommandInFlight. Run must be active for Send to make progress.
func (c *Communicator) Send(ctx context.Context, pkt esp3.Packet) (*esp3.Response, error) {
	frame, err := pkt.Encode()
	if err != nil {
		return nil, err
	}

	select {
	case c.cmdSlot <- struct{}{}:
	default:
		return nil, ErrCommandInFlight
	}
	defer func() { <-c.cmdSlot }()

	// Subscribe before writing so the response cannot be missed.
	sub := c.bus.Subscribe(1, MatchResponses)
	defer sub.Unsubscribe()

	select {
	case c.outbound <- frame:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case p := <-sub.C():
		responsesMatchedCount.Inc()
		return p.(*esp3.Response), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ReadVersion queries the transceiver chip and application version.
func (c *Communicator) ReadVersion(ctx context.Context) (*esp3.VersionResponse, error) {
	resp, err := c.Send(ctx, esp3.ReadVersion())
	if err != nil {
		return nil, err
	}
	return esp3.DecodeVersionResponse(resp)
}
