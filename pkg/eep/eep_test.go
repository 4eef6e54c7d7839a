package eep_test

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cutii/enocean/pkg/eep"
	"github.com/Cutii/enocean/pkg/esp3"
)

func decodeTelegram(t *testing.T, raw []byte) *esp3.RadioErp1 {
	t.Helper()
	frame, err := esp3.ReadFrame(bufio.NewReader(bytes.NewReader(raw)))
	require.NoError(t, err)
	pkt, err := esp3.Decode(frame)
	require.NoError(t, err)
	telegram, ok := pkt.(*esp3.RadioErp1)
	require.True(t, ok)
	return telegram
}

func encodeFrame(t *testing.T, pkt esp3.Packet) *esp3.Frame {
	t.Helper()
	frame, err := pkt.Encode()
	require.NoError(t, err)
	return frame
}

func TestRegistryLookup(t *testing.T) {
	t.Parallel()

	r := eep.NewRegistry()
	id := [4]byte{5, 17, 114, 247}
	r.Register(id, eep.ProfileA50401)

	p, ok := r.Lookup(id)
	assert.True(t, ok)
	assert.Equal(t, eep.ProfileA50401, p)

	_, ok = r.Lookup([4]byte{1, 2, 3, 4})
	assert.False(t, ok)

	r.Unregister(id)
	_, ok = r.Lookup(id)
	assert.False(t, ok)
}

func TestDecodeTemperatureHumidity(t *testing.T) {
	t.Parallel()

	// Captured A5-04-01 data telegram, learn button not pressed.
	telegram := decodeTelegram(t, []byte{
		85, 0, 10, 7, 1, 235, 165, 0, 229, 204, 10, 5, 17, 114, 247, 0,
		1, 255, 255, 255, 255, 54, 0, 213,
	})

	registry := eep.NewRegistry()
	registry.Register(telegram.SenderID, eep.ProfileA50401)

	reading, ok := registry.DecodeTelegram(telegram)
	require.True(t, ok)

	expected := []eep.Field{
		{Code: "HUM", Value: "91.6"},
		{Code: "TMP", Value: "32.64"},
		{Code: "LRNB", Value: "Data telegram"},
		{Code: "TSN", Value: "Temperature sensor available"},
	}
	assert.Equal(t, expected, reading.Fields())

	// Decoding is idempotent.
	again := eep.Decode(eep.ProfileA50401, telegram.Payload)
	assert.Equal(t, reading.Fields(), again.Fields())
}

func TestDecodeSingleRocker(t *testing.T) {
	t.Parallel()

	testcases := []struct {
		name     string
		payload  []byte
		expected string
	}{
		{name: "pressed", payload: []byte{0x70}, expected: "Pressed"},
		{name: "released", payload: []byte{0x00}, expected: "Released"},
		{name: "nonconformant", payload: []byte{0x42}, expected: "Unknown"},
	}

	for _, tcl := range testcases {
		tc := tcl
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			reading := eep.Decode(eep.ProfileF60201, tc.payload)
			btn, ok := reading.Get("BTN")
			require.True(t, ok)
			assert.Equal(t, tc.expected, btn)
		})
	}
}

func TestDecodeDualRocker(t *testing.T) {
	t.Parallel()

	// Captured F6-02-02 telegram: A0 pressed on a NodOn soft remote.
	telegram := decodeTelegram(t, []byte{
		85, 0, 7, 7, 1, 122, 246, 48, 0, 49, 192, 249, 48,
		1, 255, 255, 255, 255, 51, 0, 144,
	})
	require.Equal(t, []byte{0x30}, telegram.Payload)

	reading := eep.Decode(eep.ProfileF60202, telegram.Payload)
	expected := []eep.Field{
		{Code: "R1", Value: "A0"},
		{Code: "EB", Value: "Pressed"},
		{Code: "R2", Value: "A1"},
		{Code: "SA", Value: "No 2nd action"},
	}
	assert.Equal(t, expected, reading.Fields())
}

func TestDecodeSmartPlugTelemetry(t *testing.T) {
	t.Parallel()

	// Captured D2-01-0E automatic power report.
	telegram := decodeTelegram(t, []byte{
		0x55, 0, 0xC, 7, 1, 0x96, 0xD2, 7, 0x60, 0, 0, 0, 0x13, 5,
		0xA, 0x3D, 0x6A, 0, 1, 0xFF, 0xFF, 0xFF, 0xFF, 0x3D, 0, 0xF1,
	})

	reading := eep.Decode(eep.ProfileD2010E, telegram.Payload)
	un, ok := reading.Get("UN")
	require.True(t, ok)
	assert.Equal(t, "Power[W]", un)
	mv, ok := reading.Get("MV")
	require.True(t, ok)
	assert.Equal(t, "19", mv)
	io, ok := reading.Get("I/O")
	require.True(t, ok)
	assert.Equal(t, "0", io)
}

func TestDecodeSmartPlugStatus(t *testing.T) {
	t.Parallel()

	testcases := []struct {
		name    string
		payload []byte
		ov      string
	}{
		{name: "off", payload: []byte{0x84, 0x00, 0x00}, ov: "Output value : 0% or OFF"},
		{name: "on", payload: []byte{0x84, 0x00, 0x7F}, ov: "Output value : 1 to 100% or ON"},
		{name: "not used band", payload: []byte{0x84, 0x00, 0x32}, ov: "Not used"},
		{name: "invalid band", payload: []byte{0x84, 0x00, 0x70}, ov: "Output value not valid / not set"},
	}

	for _, tcl := range testcases {
		tc := tcl
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			reading := eep.Decode(eep.ProfileD2010E, tc.payload)
			pf, ok := reading.Get("PF")
			require.True(t, ok)
			assert.Equal(t, "Power Failure Detection enabled", pf)
			ov, ok := reading.Get("OV")
			require.True(t, ok)
			assert.Equal(t, tc.ov, ov)
		})
	}
}

func TestDecodeContact(t *testing.T) {
	t.Parallel()

	testcases := []struct {
		name    string
		payload []byte
		lrnb    string
		co      string
	}{
		{name: "closed", payload: []byte{0x90}, lrnb: "not pressed", co: "closed"},
		{name: "open", payload: []byte{0x10}, lrnb: "not pressed", co: "open"},
		{name: "teach-in", payload: []byte{0x00}, lrnb: "pressed", co: "open"},
	}

	for _, tcl := range testcases {
		tc := tcl
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			reading := eep.Decode(eep.ProfileD50001, tc.payload)
			lrnb, _ := reading.Get("LRNB")
			co, _ := reading.Get("CO")
			assert.Equal(t, tc.lrnb, lrnb)
			assert.Equal(t, tc.co, co)
		})
	}
}

func TestDecodeShortPayload(t *testing.T) {
	t.Parallel()

	for _, p := range []eep.Profile{
		eep.ProfileA50401, eep.ProfileF60201, eep.ProfileF60202,
		eep.ProfileD2010E, eep.ProfileD50001,
	} {
		reading := eep.Decode(p, nil)
		_, ok := reading.Get("ERR")
		assert.True(t, ok, "profile %s", p)
	}
}

func TestSmartPlugTelegram(t *testing.T) {
	t.Parallel()

	dest := [4]byte{0x05, 0x0A, 0x3D, 0x6A}
	telegram := eep.NewSmartPlugTelegram(dest, eep.SmartPlugQueryPower)

	frame := encodeFrame(t, telegram)
	// The encoded data section must start with the VLD rorg and the query
	// power command.
	assert.Equal(t, []byte{0xD2, 0x06, 0x20}, frame.Data()[:3])

	// Re-decoding the wire image yields the same telegram.
	reread := decodeTelegram(t, frame.Bytes())
	assert.Equal(t, esp3.RorgVLD, reread.Rorg)
	assert.Equal(t, []byte{0x06, 0x20}, reread.Payload)
	assert.Equal(t, [4]byte{0, 0, 0, 0}, reread.SenderID)
	assert.Equal(t, dest, reread.DestinationID)
	assert.Equal(t, byte(0xFF), reread.RSSI)
	assert.Equal(t, byte(0x00), reread.SecurityLevel)
}

func TestSmartPlugTelegramPayloads(t *testing.T) {
	t.Parallel()

	testcases := []struct {
		name    string
		cmd     eep.SmartPlugCommand
		payload []byte
	}{
		{name: "on", cmd: eep.SmartPlugOn, payload: []byte{0x01, 0x00, 0x01}},
		{name: "off", cmd: eep.SmartPlugOff, payload: []byte{0x01, 0x00, 0x00}},
		{name: "query power", cmd: eep.SmartPlugQueryPower, payload: []byte{0x06, 0x20}},
		{name: "query energy", cmd: eep.SmartPlugQueryEnergy, payload: []byte{0x06, 0x00}},
		{name: "default config", cmd: eep.SmartPlugDefaultConfig, payload: []byte{0x05, 0xA0, 0x33, 0x00, 0x06, 0x01}},
	}

	for _, tcl := range testcases {
		tc := tcl
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			telegram := eep.NewSmartPlugTelegram([4]byte{1, 2, 3, 4}, tc.cmd)
			assert.Equal(t, tc.payload, telegram.Payload)
			assert.Equal(t, esp3.RorgVLD, telegram.Rorg)
		})
	}
}

func TestBlindTelegram(t *testing.T) {
	t.Parallel()

	closed := eep.NewBlindTelegram(eep.BlindClosed)
	assert.Equal(t, []byte{0x10}, closed.Payload)
	open := eep.NewBlindTelegram(eep.BlindOpen)
	assert.Equal(t, []byte{0x30}, open.Payload)

	reread := decodeTelegram(t, encodeFrame(t, open).Bytes())
	assert.Equal(t, esp3.RorgRPS, reread.Rorg)
	assert.Equal(t, byte(0x30), reread.Status)
	assert.Equal(t, esp3.Broadcast, reread.DestinationID)
}

func TestTeachInAcceptedTelegram(t *testing.T) {
	t.Parallel()

	// Byte-exact response that pairs a D2-01-0E micro smart plug.
	expected := []byte{
		0x55, 0x0, 0xD, 0x7, 0x1, 0xFD, 0xD4, 0xD1, 0x1, 0x46, 0x0, 0xE,
		0x1, 0xD2, 0x0, 0x0, 0x0, 0x0, 0x0, 0x3, 0x5, 0xA, 0x3D, 0x6A,
		0xFF, 0x0, 0x6D,
	}
	telegram := eep.NewTeachInAcceptedTelegram([4]byte{0x05, 0x0A, 0x3D, 0x6A})
	assert.Equal(t, expected, encodeFrame(t, telegram).Bytes())
}

func TestParseProfile(t *testing.T) {
	t.Parallel()

	p, err := eep.ParseProfile("a5-04-01")
	require.NoError(t, err)
	assert.Equal(t, eep.ProfileA50401, p)
	assert.Equal(t, "A5-04-01", p.String())

	_, err = eep.ParseProfile("A5-99-99")
	assert.Error(t, err)
}

func TestParseDeviceID(t *testing.T) {
	t.Parallel()

	id, err := eep.ParseDeviceID("05:11:72:F7")
	require.NoError(t, err)
	assert.Equal(t, [4]byte{0x05, 0x11, 0x72, 0xF7}, id)

	id, err = eep.ParseDeviceID("050a3d6a")
	require.NoError(t, err)
	assert.Equal(t, [4]byte{0x05, 0x0A, 0x3D, 0x6A}, id)

	_, err = eep.ParseDeviceID("05:11:72")
	assert.Error(t, err)
	_, err = eep.ParseDeviceID("zz:11:72:F7")
	assert.Error(t, err)
}
