package eep

import (
	"fmt"
	"strconv"
)

// Field is one decoded payload value, e.g. {"TMP", "32.64"}.
type Field struct {
	Code  string
	Value string
}

// Reading is the ordered result of decoding a telegram payload. Field order
// is fixed per profile, so rendering a reading is deterministic.
type Reading struct {
	fields []Field
}

// Fields returns the decoded fields in profile order.
func (r Reading) Fields() []Field {
	return r.fields
}

// Get returns the value for a field code.
func (r Reading) Get(code string) (string, bool) {
	for _, f := range r.fields {
		if f.Code == code {
			return f.Value, true
		}
	}
	return "", false
}

func (r *Reading) add(code, value string) {
	r.fields = append(r.fields, Field{Code: code, Value: value})
}

func shortPayload(n int) Reading {
	var r Reading
	r.add("ERR", fmt.Sprintf("payload too short (%d bytes)", n))
	return r
}

// Decode interprets payload according to profile. It never fails: anomalous
// payloads decode to error-valued fields.
func Decode(p Profile, payload []byte) Reading {
	switch p {
	case ProfileA50401:
		return decodeA50401(payload)
	case ProfileF60201:
		return decodeF60201(payload)
	case ProfileF60202:
		return decodeF60202(payload)
	case ProfileD2010E:
		return decodeD2010E(payload)
	case ProfileD50001:
		return decodeD50001(payload)
	default:
		var r Reading
		r.add("ERR", fmt.Sprintf("unsupported profile %s", p))
		return r
	}
}

func bit(b byte, n uint) bool {
	return (b>>n)&1 != 0
}

// decodeA50401 handles the 4BS temperature/humidity sensor profile.
// Humidity is 0.4 % per count, temperature 40/250 degC per count. Scaling is
// done in float32 so values render the way the sensor documentation writes
// them ("91.6", "32.64").
func decodeA50401(payload []byte) Reading {
	if len(payload) < 4 {
		return shortPayload(len(payload))
	}
	var r Reading
	r.add("HUM", fmt.Sprintf("%v", float32(payload[1])*0.4))
	r.add("TMP", fmt.Sprintf("%v", float32(payload[2])*40.0/250.0))
	if bit(payload[3], 3) {
		r.add("LRNB", "Data telegram")
	} else {
		r.add("LRNB", "Teach-in telegram")
	}
	if bit(payload[3], 1) {
		r.add("TSN", "Temperature sensor available")
	} else {
		r.add("TSN", "Temperature sensor not available")
	}
	return r
}

// decodeF60201 handles the single rocker / necklace pushbutton profile.
func decodeF60201(payload []byte) Reading {
	if len(payload) < 1 {
		return shortPayload(len(payload))
	}
	var r Reading
	if bit(payload[0], 3) {
		r.add("LRNB", "Data telegram")
	} else {
		r.add("LRNB", "Teach-in telegram")
	}
	switch payload[0] {
	case 0x70:
		r.add("BTN", "Pressed")
	case 0x00:
		r.add("BTN", "Released")
	default:
		r.add("BTN", "Unknown")
	}
	return r
}

// rockerAction maps the 3-bit rocker action field of an F6-02-02 status byte.
func rockerAction(v byte) string {
	switch v {
	case 0:
		return "A1"
	case 1:
		return "A0"
	case 2:
		return "B1"
	case 3:
		return "B0"
	default:
		return "Unknown"
	}
}

// decodeF60202 handles the dual rocker / soft remote profile. The single
// status byte packs rocker 1 action (bits 7..5), energy bow (bit 4),
// rocker 2 action (bits 3..1), and the second-action flag (bit 0).
func decodeF60202(payload []byte) Reading {
	if len(payload) < 1 {
		return shortPayload(len(payload))
	}
	var r Reading
	b := payload[0]
	r.add("R1", rockerAction(b>>5))
	if bit(b, 4) {
		r.add("EB", "Pressed")
	} else {
		r.add("EB", "Released")
	}
	r.add("R2", rockerAction((b>>1)&0x07))
	if bit(b, 0) {
		r.add("SA", "2nd action valid")
	} else {
		r.add("SA", "No 2nd action")
	}
	return r
}

// decodeD2010E handles the VLD smart plug profile. The low nibble of the
// first payload byte selects the command; only the telemetry report (0x07)
// and the status report (0x04) are interpreted.
func decodeD2010E(payload []byte) Reading {
	if len(payload) < 1 {
		return shortPayload(len(payload))
	}
	var r Reading
	switch payload[0] & 0x0F {
	case 0x07: // actuator measurement response
		if len(payload) < 6 {
			return shortPayload(len(payload))
		}
		switch payload[1] >> 5 {
		case 0:
			r.add("UN", "Energy [Ws]")
		case 1:
			r.add("UN", "Energy [Wh]")
		case 2:
			r.add("UN", "Energy [KWh]")
		case 3:
			r.add("UN", "Power[W]")
		case 4:
			r.add("UN", "Power[KW]")
		default:
			r.add("UN", "Error")
		}
		r.add("I/O", strconv.Itoa(int(payload[1]&0x1F)))
		value := int(payload[3])*65536 + int(payload[4])*256 + int(payload[5])
		r.add("MV", strconv.Itoa(value))
	case 0x04: // actuator status response
		if len(payload) < 3 {
			return shortPayload(len(payload))
		}
		if bit(payload[0], 7) {
			r.add("PF", "Power Failure Detection enabled")
		} else {
			r.add("PF", "Power Failure Detection disabled/not supported")
		}
		if bit(payload[0], 6) {
			r.add("PFD", "Power Failure Detected")
		} else {
			r.add("PFD", "Power Failure Detection disabled/not supported")
		}
		switch ov := payload[2] & 0x7F; {
		case ov == 0x00:
			r.add("OV", "Output value : 0% or OFF")
		case ov == 0x7F:
			r.add("OV", "Output value : 1 to 100% or ON")
		case ov >= 0x01 && ov <= 0x64:
			r.add("OV", "Not used")
		default: // 0x65..0x7E
			r.add("OV", "Output value not valid / not set")
		}
	default:
		r.add("ERR", fmt.Sprintf("unsupported command 0x%02X", payload[0]&0x0F))
	}
	return r
}

// decodeD50001 handles the 1BS single-input contact profile.
func decodeD50001(payload []byte) Reading {
	if len(payload) < 1 {
		return shortPayload(len(payload))
	}
	var r Reading
	if bit(payload[0], 4) {
		r.add("LRNB", "not pressed")
	} else {
		r.add("LRNB", "pressed")
	}
	if bit(payload[0], 7) {
		r.add("CO", "closed")
	} else {
		r.add("CO", "open")
	}
	return r
}
