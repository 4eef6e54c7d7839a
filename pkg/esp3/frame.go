// Package esp3 implements framing and packet encoding for the EnOcean Serial
// Protocol version 3.
//
// An ESP3 frame on the wire looks like this (multi-byte integers big-endian):
//
//	offset 0    0x55    sync byte
//	offset 1-2  uint16  data length
//	offset 3    uint8   optional data length
//	offset 4    uint8   packet type
//	offset 5    uint8   CRC8 over bytes 1..4
//	offset 6..  data, then optional data
//	last        uint8   CRC8 over data ++ optional data
//
// ReadFrame synchronizes on the 0x55 byte and validates both CRCs; a Frame
// value therefore always carries a checked wire image.
package esp3

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/Cutii/enocean/pkg/crc8"
)

// SyncByte starts every ESP3 frame on the wire.
const SyncByte = 0x55

// headerLength covers sync byte, length fields, packet type and header CRC.
const headerLength = 6

// Wire-format capacity of the header length fields.
const (
	maxDataLength         = 0xFFFF
	maxOptionalDataLength = 0xFF
)

// ErrIncompleteFrame reports that the stream ended in the middle of a frame.
var ErrIncompleteFrame = errors.New("incomplete frame")

// ErrFrameTooLarge reports data or optional data that does not fit the
// header's uint16/uint8 length fields.
var ErrFrameTooLarge = errors.New("frame too large")

// DataCRCError reports a frame whose header validated but whose data CRC did
// not. Bytes holds the complete offending frame candidate as read from the
// wire; Computed is the CRC8 this side calculated over its body. The bytes
// have been consumed, so the caller may simply keep reading to resynchronize,
// or treat the error as a line failure.
type DataCRCError struct {
	Bytes    []byte
	Computed byte
}

func (e *DataCRCError) Error() string {
	return fmt.Sprintf("data CRC mismatch: frame carries 0x%02X, computed 0x%02X", e.Bytes[len(e.Bytes)-1], e.Computed)
}

// Frame is a CRC-checked ESP3 frame. It is only ever constructed by ReadFrame
// or AssembleFrame, so both CRCs are known to be consistent with the content.
type Frame struct {
	packetType         byte
	dataLength         int
	optionalDataLength int
	raw                []byte // complete wire image, sync byte through data CRC
}

// ReadFrame reads the next frame from r.
//
// Synchronization follows the ESP3 rule: any byte that is not 0x55, and any
// 0x55 whose following header fails its CRC, is noise; exactly one byte is
// discarded before scanning resumes, so a valid frame starting one byte later
// is never skipped. A clean end of stream before any frame byte returns
// io.EOF; an end of stream inside a frame returns ErrIncompleteFrame. A body
// whose data CRC fails returns *DataCRCError.
func ReadFrame(r *bufio.Reader) (*Frame, error) {
	var header []byte
	for {
		b, err := r.Peek(1)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, err
		}
		if b[0] != SyncByte {
			_, _ = r.Discard(1)
			continue
		}

		header, err = r.Peek(headerLength)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: %d header bytes", ErrIncompleteFrame, len(header))
			}
			return nil, err
		}
		if crc8.Checksum(header[1:5]) != header[5] {
			_, _ = r.Discard(1)
			continue
		}
		break
	}

	dataLength := int(header[1])<<8 | int(header[2])
	optionalDataLength := int(header[3])
	packetType := header[4]

	total := headerLength + dataLength + optionalDataLength + 1
	raw := make([]byte, total)
	if _, err := io.ReadFull(r, raw); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: need %d bytes", ErrIncompleteFrame, total)
		}
		return nil, err
	}

	body := raw[headerLength : total-1]
	if sum := crc8.Checksum(body); sum != raw[total-1] {
		return nil, &DataCRCError{Bytes: raw, Computed: sum}
	}

	return &Frame{
		packetType:         packetType,
		dataLength:         dataLength,
		optionalDataLength: optionalDataLength,
		raw:                raw,
	}, nil
}

// AssembleFrame builds a frame from its parts, computing both CRCs. It is the
// exact inverse of ReadFrame. Sections exceeding the header's length fields
// return ErrFrameTooLarge.
func AssembleFrame(packetType byte, data, optionalData []byte) (*Frame, error) {
	if len(data) > maxDataLength {
		return nil, fmt.Errorf("%w: %d data bytes, wire maximum is %d", ErrFrameTooLarge, len(data), maxDataLength)
	}
	if len(optionalData) > maxOptionalDataLength {
		return nil, fmt.Errorf("%w: %d optional data bytes, wire maximum is %d", ErrFrameTooLarge, len(optionalData), maxOptionalDataLength)
	}

	total := headerLength + len(data) + len(optionalData) + 1
	raw := make([]byte, 0, total)

	raw = append(raw,
		SyncByte,
		byte(len(data)>>8),
		byte(len(data)),
		byte(len(optionalData)),
		packetType,
	)
	raw = append(raw, crc8.Checksum(raw[1:5]))

	d := crc8.New()
	d.FeedSlice(data)
	d.FeedSlice(optionalData)
	raw = append(raw, data...)
	raw = append(raw, optionalData...)
	raw = append(raw, d.Sum())

	return &Frame{
		packetType:         packetType,
		dataLength:         len(data),
		optionalDataLength: len(optionalData),
		raw:                raw,
	}, nil
}

// PacketType returns the frame's packet type byte.
func (f *Frame) PacketType() byte {
	return f.packetType
}

// Data returns the frame's mandatory data section.
func (f *Frame) Data() []byte {
	return f.raw[headerLength : headerLength+f.dataLength]
}

// OptionalData returns the frame's optional data section.
func (f *Frame) OptionalData() []byte {
	return f.raw[headerLength+f.dataLength : headerLength+f.dataLength+f.optionalDataLength]
}

// Bytes returns the complete wire image, sync byte through data CRC.
func (f *Frame) Bytes() []byte {
	return f.raw
}

// WriteTo writes the frame's wire image to w.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(f.raw)
	return int64(n), err
}
