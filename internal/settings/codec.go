package settings

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"unicode/utf8"

	"github.com/nerrad567/gray-logic-hub/internal/board"
)

// Fixed string slot widths in the encoded record.
const (
	ssidWidth     = 32
	passwordWidth = 64
	nameWidth     = 32
	endpointWidth = 200
)

// Feature bit positions.
const (
	bitDHT = iota
	bitLight
	bitMotion
	bitRelay1
	bitRelay2
	bitRelay3
	bitRelay4
	bitLED
	bitMotor
	bitLogging
)

const (
	headerSize = 3 // magic u16 + version u8
	bodySize   = 2*ssidWidth + 2*passwordWidth + nameWidth + endpointWidth +
		1 + // board type
		9 + // pins
		1 + // dht kind
		2 + // feature bits
		2 + 2 // intervals
	crcSize = 4

	// RecordSize is the exact length of an encoded record.
	RecordSize = headerSize + bodySize + crcSize
)

var byteOrder = binary.BigEndian

// Encode serialises c into a RecordSize byte slice. The header always
// carries the current SchemaMagic and SchemaVersion. Strings longer than
// their slot are cut at a rune boundary.
func Encode(c Configuration) []byte {
	buf := make([]byte, 0, RecordSize)

	buf = byteOrder.AppendUint16(buf, SchemaMagic)
	buf = append(buf, SchemaVersion)

	buf = appendFixed(buf, c.WiFi.SSID, ssidWidth)
	buf = appendFixed(buf, c.WiFi.Password, passwordWidth)
	buf = appendFixed(buf, c.AP.SSID, ssidWidth)
	buf = appendFixed(buf, c.AP.Password, passwordWidth)
	buf = appendFixed(buf, c.DeviceName, nameWidth)
	buf = appendFixed(buf, c.LoggingEndpoint, endpointWidth)

	buf = append(buf, byte(c.Board))
	for _, pin := range c.Profile.Pins() {
		buf = append(buf, byte(pin))
	}
	buf = append(buf, byte(c.Profile.DHTKind))

	buf = byteOrder.AppendUint16(buf, encodeFeatures(c.Features))
	buf = byteOrder.AppendUint16(buf, c.SensorIntervalSeconds)
	buf = byteOrder.AppendUint16(buf, c.LogIntervalSeconds)

	return byteOrder.AppendUint32(buf, crc32.ChecksumIEEE(buf))
}

// Decode parses a record produced by Encode. Any structural problem is
// reported as ErrRecordInvalid.
func Decode(data []byte) (Configuration, error) {
	if len(data) != RecordSize {
		return Configuration{}, fmt.Errorf("%w: length %d, want %d", ErrRecordInvalid, len(data), RecordSize)
	}

	if magic := byteOrder.Uint16(data[0:2]); magic != SchemaMagic {
		return Configuration{}, fmt.Errorf("%w: magic %#04x", ErrRecordInvalid, magic)
	}
	if version := data[2]; version != SchemaVersion {
		return Configuration{}, fmt.Errorf("%w: schema version %d", ErrRecordInvalid, version)
	}

	payload, sum := data[:RecordSize-crcSize], byteOrder.Uint32(data[RecordSize-crcSize:])
	if crc32.ChecksumIEEE(payload) != sum {
		return Configuration{}, fmt.Errorf("%w: checksum mismatch", ErrRecordInvalid)
	}

	r := reader{data: payload, off: headerSize}
	c := Configuration{Magic: SchemaMagic, Version: SchemaVersion}

	c.WiFi.SSID = r.fixed(ssidWidth)
	c.WiFi.Password = r.fixed(passwordWidth)
	c.AP.SSID = r.fixed(ssidWidth)
	c.AP.Password = r.fixed(passwordWidth)
	c.DeviceName = r.fixed(nameWidth)
	c.LoggingEndpoint = r.fixed(endpointWidth)

	c.Board = board.Type(r.readByte())
	if !c.Board.Valid() {
		return Configuration{}, fmt.Errorf("%w: board type %d", ErrRecordInvalid, c.Board)
	}

	profile := board.Profile{}
	for _, role := range board.Roles() {
		profile = profile.With(role, board.Pin(r.readByte()))
	}
	profile.DHTKind = board.DHTKind(r.readByte())
	if profile.DHTKind != board.DHT11 && profile.DHTKind != board.DHT22 {
		return Configuration{}, fmt.Errorf("%w: dht kind %d", ErrRecordInvalid, profile.DHTKind)
	}
	c.Profile = profile

	c.Features = decodeFeatures(r.uint16())
	c.SensorIntervalSeconds = r.uint16()
	c.LogIntervalSeconds = r.uint16()
	if c.SensorIntervalSeconds == 0 || c.LogIntervalSeconds == 0 {
		return Configuration{}, fmt.Errorf("%w: zero interval", ErrRecordInvalid)
	}

	return c, nil
}

func encodeFeatures(f Features) uint16 {
	flags := []bool{
		bitDHT: f.DHT, bitLight: f.Light, bitMotion: f.Motion,
		bitRelay1: f.Relay[0], bitRelay2: f.Relay[1], bitRelay3: f.Relay[2], bitRelay4: f.Relay[3],
		bitLED: f.LED, bitMotor: f.Motor, bitLogging: f.Logging,
	}
	var bits uint16
	for i, on := range flags {
		if on {
			bits |= 1 << i
		}
	}
	return bits
}

func decodeFeatures(bits uint16) Features {
	has := func(bit int) bool { return bits&(1<<bit) != 0 }
	return Features{
		DHT:     has(bitDHT),
		Light:   has(bitLight),
		Motion:  has(bitMotion),
		Relay:   [4]bool{has(bitRelay1), has(bitRelay2), has(bitRelay3), has(bitRelay4)},
		LED:     has(bitLED),
		Motor:   has(bitMotor),
		Logging: has(bitLogging),
	}
}

// appendFixed writes s NUL-padded to width bytes.
func appendFixed(buf []byte, s string, width int) []byte {
	s = truncate(s, width)
	buf = append(buf, s...)
	for i := len(s); i < width; i++ {
		buf = append(buf, 0)
	}
	return buf
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

type reader struct {
	data []byte
	off  int
}

func (r *reader) fixed(width int) string {
	field := r.data[r.off : r.off+width]
	r.off += width
	if i := bytes.IndexByte(field, 0); i >= 0 {
		field = field[:i]
	}
	return string(field)
}

func (r *reader) readByte() byte {
	b := r.data[r.off]
	r.off++
	return b
}

func (r *reader) uint16() uint16 {
	v := byteOrder.Uint16(r.data[r.off:])
	r.off += 2
	return v
}
