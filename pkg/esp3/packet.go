package esp3

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// PacketType identifies how a frame's data and optional data are laid out.
type PacketType byte

// Packet types defined by ESP3. Types without a modeled Go struct decode to
// Raw and pass through untouched.
const (
	PacketTypeRadioErp1        PacketType = 0x01
	PacketTypeResponse         PacketType = 0x02
	PacketTypeRadioSubTel      PacketType = 0x03
	PacketTypeEvent            PacketType = 0x04
	PacketTypeCommonCommand    PacketType = 0x05
	PacketTypeSmartAckCommand  PacketType = 0x06
	PacketTypeRemoteManCommand PacketType = 0x07
)

// Rorg is the radio-telegram organization byte of an ERP1 telegram. It
// selects how the telegram's payload is interpreted.
type Rorg byte

const (
	RorgRPS       Rorg = 0xF6 // repeated switch communication
	Rorg1BS       Rorg = 0xD5 // 1-byte communication
	Rorg4BS       Rorg = 0xA5 // 4-byte communication
	RorgVLD       Rorg = 0xD2 // variable length data
	RorgMSC       Rorg = 0xD1 // manufacturer specific
	RorgADT       Rorg = 0xA6 // addressing destination telegram
	RorgUTE       Rorg = 0xD4 // universal teach-in
	RorgSec       Rorg = 0x30 // secure telegram
	RorgSecEncaps Rorg = 0x31
)

func (r Rorg) String() string {
	switch r {
	case RorgRPS:
		return "RPS"
	case Rorg1BS:
		return "1BS"
	case Rorg4BS:
		return "4BS"
	case RorgVLD:
		return "VLD"
	case RorgMSC:
		return "MSC"
	case RorgADT:
		return "ADT"
	case RorgUTE:
		return "UTE"
	case RorgSec:
		return "SEC"
	case RorgSecEncaps:
		return "SEC_ENCAPS"
	default:
		return fmt.Sprintf("RORG(0x%02X)", byte(r))
	}
}

// ReturnCode is the result byte of a Response packet. Values outside the
// known set are preserved verbatim so responses always round-trip.
type ReturnCode byte

const (
	RetOk              ReturnCode = 0x00
	RetError           ReturnCode = 0x01
	RetNotSupported    ReturnCode = 0x02
	RetWrongParam      ReturnCode = 0x03
	RetOperationDenied ReturnCode = 0x04
	RetLockSet         ReturnCode = 0x05
	RetBufferTooSmall  ReturnCode = 0x06
	RetNoFreeBuffer    ReturnCode = 0x07
)

// Known reports whether the code is part of the ESP3 enumeration.
func (rc ReturnCode) Known() bool {
	return rc <= RetNoFreeBuffer
}

func (rc ReturnCode) String() string {
	switch rc {
	case RetOk:
		return "OK"
	case RetError:
		return "ERROR"
	case RetNotSupported:
		return "NOT_SUPPORTED"
	case RetWrongParam:
		return "WRONG_PARAM"
	case RetOperationDenied:
		return "OPERATION_DENIED"
	case RetLockSet:
		return "LOCK_SET"
	case RetBufferTooSmall:
		return "BUFFER_TOO_SMALL"
	case RetNoFreeBuffer:
		return "NO_FREE_BUFFER"
	default:
		return fmt.Sprintf("UNDEFINED(0x%02X)", byte(rc))
	}
}

// Common command codes (data[0] of a type 0x05 frame).
const (
	CommandReadVersion byte = 0x03
)

var (
	// ErrUnsupportedPacketType is returned when a typed decode is requested
	// for a frame whose packet type byte does not match.
	ErrUnsupportedPacketType = errors.New("unsupported packet type")
	// ErrPacketTooShort is returned when a frame's data section is shorter
	// than the requested packet layout.
	ErrPacketTooShort = errors.New("packet too short")
	// ErrInvalidDescription is returned when a version response description
	// is not valid UTF-8 text.
	ErrInvalidDescription = errors.New("version description is not valid text")
)

// Packet is a typed view of a frame. Every implementation re-encodes to the
// exact bytes it was decoded from.
type Packet interface {
	Encode() (*Frame, error)
}

// erp1OptionalLength is the fixed optional-data layout of an ERP1 telegram:
// subtel num (1), destination id (4), dBm (1), security level (1).
const erp1OptionalLength = 7

// Broadcast is the ERP1 broadcast destination.
var Broadcast = [4]byte{0xFF, 0xFF, 0xFF, 0xFF}

// RadioErp1 is a radio telegram (packet type 0x01).
//
// The data section is rorg (1), payload (data length - 6), sender id (4),
// status (1). When the optional section has the standard 7-byte layout it is
// broken out into the Subtel/Destination/RSSI/Security fields; anything else
// is kept verbatim in RawOptional so the telegram still re-encodes
// byte-for-byte.
type RadioErp1 struct {
	Rorg          Rorg
	Payload       []byte
	SenderID      [4]byte
	Status        byte
	SubtelNum     byte
	DestinationID [4]byte
	RSSI          byte
	SecurityLevel byte

	// RawOptional, when non-nil, replaces the decoded optional fields. An
	// empty non-nil slice encodes a frame with no optional section.
	RawOptional []byte
}

func decodeRadioErp1(f *Frame) (*RadioErp1, error) {
	data := f.Data()
	if len(data) < 6 {
		return nil, fmt.Errorf("%w: ERP1 data is %d bytes", ErrPacketTooShort, len(data))
	}
	t := &RadioErp1{
		Rorg:    Rorg(data[0]),
		Payload: append([]byte(nil), data[1:len(data)-5]...),
		Status:  data[len(data)-1],
	}
	copy(t.SenderID[:], data[len(data)-5:len(data)-1])

	opt := f.OptionalData()
	if len(opt) == erp1OptionalLength {
		t.SubtelNum = opt[0]
		copy(t.DestinationID[:], opt[1:5])
		t.RSSI = opt[5]
		t.SecurityLevel = opt[6]
	} else {
		// Non-nil even for a zero-length optional section, so Encode does
		// not synthesize the standard layout.
		t.RawOptional = append(make([]byte, 0, len(opt)), opt...)
	}
	return t, nil
}

// Encode serializes the telegram into a CRC-checked frame.
func (t *RadioErp1) Encode() (*Frame, error) {
	data := make([]byte, 0, 1+len(t.Payload)+5)
	data = append(data, byte(t.Rorg))
	data = append(data, t.Payload...)
	data = append(data, t.SenderID[:]...)
	data = append(data, t.Status)

	optional := t.RawOptional
	if optional == nil {
		optional = make([]byte, 0, erp1OptionalLength)
		optional = append(optional, t.SubtelNum)
		optional = append(optional, t.DestinationID[:]...)
		optional = append(optional, t.RSSI, t.SecurityLevel)
	}
	return AssembleFrame(byte(PacketTypeRadioErp1), data, optional)
}

// Response is a reply to a previously sent command frame (packet type 0x02).
type Response struct {
	Code    ReturnCode
	Payload []byte
	// Optional preserves any optional data a gateway attached; it is not
	// interpreted.
	Optional []byte
}

func decodeResponse(f *Frame) (*Response, error) {
	data := f.Data()
	if len(data) < 1 {
		return nil, fmt.Errorf("%w: empty response data", ErrPacketTooShort)
	}
	return &Response{
		Code:     ReturnCode(data[0]),
		Payload:  append([]byte(nil), data[1:]...),
		Optional: append([]byte(nil), f.OptionalData()...),
	}, nil
}

// Encode serializes the response into a CRC-checked frame.
func (r *Response) Encode() (*Frame, error) {
	data := make([]byte, 0, 1+len(r.Payload))
	data = append(data, byte(r.Code))
	data = append(data, r.Payload...)
	return AssembleFrame(byte(PacketTypeResponse), data, r.Optional)
}

// CommonCommand is a gateway command (packet type 0x05). data[0] on the wire
// is the sub-command code.
type CommonCommand struct {
	Code     byte
	Data     []byte
	Optional []byte
}

// ReadVersion builds the CO_RD_VERSION common command. The gateway answers
// with a Response whose payload decodes via DecodeVersionResponse.
func ReadVersion() *CommonCommand {
	return &CommonCommand{Code: CommandReadVersion}
}

func decodeCommonCommand(f *Frame) (*CommonCommand, error) {
	data := f.Data()
	if len(data) < 1 {
		return nil, fmt.Errorf("%w: empty common command data", ErrPacketTooShort)
	}
	return &CommonCommand{
		Code:     data[0],
		Data:     append([]byte(nil), data[1:]...),
		Optional: append([]byte(nil), f.OptionalData()...),
	}, nil
}

// Encode serializes the command into a CRC-checked frame.
func (c *CommonCommand) Encode() (*Frame, error) {
	data := make([]byte, 0, 1+len(c.Data))
	data = append(data, c.Code)
	data = append(data, c.Data...)
	return AssembleFrame(byte(PacketTypeCommonCommand), data, c.Optional)
}

// Raw is the forward-compatible fallback for packet types this package does
// not model. It always decodes and always re-encodes byte-for-byte.
type Raw struct {
	Type     byte
	Data     []byte
	Optional []byte
}

// Encode serializes the raw packet into a CRC-checked frame.
func (p *Raw) Encode() (*Frame, error) {
	return AssembleFrame(p.Type, p.Data, p.Optional)
}

// Decode interprets a frame according to its packet type byte. Unmodeled
// types yield *Raw, never an error.
func Decode(f *Frame) (Packet, error) {
	switch PacketType(f.PacketType()) {
	case PacketTypeRadioErp1:
		return decodeRadioErp1(f)
	case PacketTypeResponse:
		return decodeResponse(f)
	case PacketTypeCommonCommand:
		return decodeCommonCommand(f)
	default:
		return &Raw{
			Type:     f.PacketType(),
			Data:     append([]byte(nil), f.Data()...),
			Optional: append([]byte(nil), f.OptionalData()...),
		}, nil
	}
}

// DecodeResponse decodes a frame that the caller requires to be a Response.
// A frame of any other type returns ErrUnsupportedPacketType.
func DecodeResponse(f *Frame) (*Response, error) {
	if PacketType(f.PacketType()) != PacketTypeResponse {
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnsupportedPacketType, f.PacketType())
	}
	return decodeResponse(f)
}

// Version is a four-part firmware version number.
type Version struct {
	Main  byte
	Beta  byte
	Alpha byte
	Build byte
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", v.Main, v.Beta, v.Alpha, v.Build)
}

// versionPayloadLength is the fixed size of a CO_RD_VERSION response payload:
// app version (4), api version (4), chip id (4), chip version (4),
// description (16).
const versionPayloadLength = 32

// VersionResponse is the decoded payload of a CO_RD_VERSION response.
type VersionResponse struct {
	App         Version
	API         Version
	ChipID      [4]byte
	ChipVersion [4]byte
	// Description is the raw 16-character field including any NUL padding;
	// use DescriptionString for display.
	Description string
}

// DescriptionString returns the description with trailing NULs removed.
func (v *VersionResponse) DescriptionString() string {
	return strings.TrimRight(v.Description, "\x00")
}

// DecodeVersionResponse interprets the payload of a gateway's answer to
// ReadVersion.
func DecodeVersionResponse(r *Response) (*VersionResponse, error) {
	if len(r.Payload) != versionPayloadLength {
		return nil, fmt.Errorf("%w: version payload is %d bytes, want %d", ErrPacketTooShort, len(r.Payload), versionPayloadLength)
	}
	desc := r.Payload[16:32]
	if !utf8.Valid(desc) {
		return nil, ErrInvalidDescription
	}
	v := &VersionResponse{
		App:         Version{r.Payload[0], r.Payload[1], r.Payload[2], r.Payload[3]},
		API:         Version{r.Payload[4], r.Payload[5], r.Payload[6], r.Payload[7]},
		Description: string(desc),
	}
	copy(v.ChipID[:], r.Payload[8:12])
	copy(v.ChipVersion[:], r.Payload[12:16])
	return v, nil
}

// Encode rebuilds the 32-byte response payload, padding the description with
// NULs. Descriptions longer than 16 bytes are truncated.
func (v *VersionResponse) Encode() *Response {
	payload := make([]byte, 0, versionPayloadLength)
	payload = append(payload,
		v.App.Main, v.App.Beta, v.App.Alpha, v.App.Build,
		v.API.Main, v.API.Beta, v.API.Alpha, v.API.Build,
	)
	payload = append(payload, v.ChipID[:]...)
	payload = append(payload, v.ChipVersion[:]...)
	desc := make([]byte, 16)
	copy(desc, v.Description)
	payload = append(payload, desc...)
	return &Response{Code: RetOk, Payload: payload}
}
