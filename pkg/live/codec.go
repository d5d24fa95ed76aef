package live

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/recera/drawflow/pkg/vdom"
)

// maxString bounds length-prefixed strings read from the wire
const maxString = 1 << 24

var errShortFrame = errors.New("live: frame too short")

// Encoder handles encoding of live protocol messages
type Encoder struct {
	w   io.Writer
	err error
}

// NewEncoder creates a new encoder
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Err returns the first write error
func (e *Encoder) Err() error {
	return e.err
}

func (e *Encoder) write(b []byte) {
	if e.err != nil {
		return
	}
	_, e.err = e.w.Write(b)
}

// WriteByte writes a single byte
func (e *Encoder) WriteByte(b byte) error {
	e.write([]byte{b})
	return e.err
}

// WriteUvarint writes an unsigned varint
func (e *Encoder) WriteUvarint(v uint64) error {
	e.write(binary.AppendUvarint(nil, v))
	return e.err
}

// WriteVarint writes a signed varint
func (e *Encoder) WriteVarint(v int64) error {
	e.write(binary.AppendVarint(nil, v))
	return e.err
}

// WriteFloat writes a float64 as 8 little-endian bytes
func (e *Encoder) WriteFloat(f float64) error {
	e.write(binary.LittleEndian.AppendUint64(nil, math.Float64bits(f)))
	return e.err
}

// WriteString writes a length-prefixed string
func (e *Encoder) WriteString(s string) error {
	if err := e.WriteUvarint(uint64(len(s))); err != nil {
		return err
	}
	e.write([]byte(s))
	return e.err
}

// Decoder handles decoding of live protocol messages
type Decoder struct {
	r *bytes.Reader
}

// NewDecoder creates a decoder over one frame
func NewDecoder(data []byte) *Decoder {
	return &Decoder{r: bytes.NewReader(data)}
}

// ReadByte implements io.ByteReader
func (d *Decoder) ReadByte() (byte, error) {
	return d.r.ReadByte()
}

// ReadUvarint reads an unsigned varint
func (d *Decoder) ReadUvarint() (uint64, error) {
	return binary.ReadUvarint(d.r)
}

// ReadVarint reads a signed varint
func (d *Decoder) ReadVarint() (int64, error) {
	return binary.ReadVarint(d.r)
}

// ReadFloat reads a float64 written by WriteFloat
func (d *Decoder) ReadFloat() (float64, error) {
	var b [8]byte
	if _, err := io.ReadFull(d.r, b[:]); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b[:])), nil
}

// ReadString reads a length-prefixed string
func (d *Decoder) ReadString() (string, error) {
	length, err := d.ReadUvarint()
	if err != nil {
		return "", err
	}
	if length > maxString || length > uint64(d.r.Len()) {
		return "", fmt.Errorf("live: string length %d exceeds frame", length)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// Remaining reports the unread byte count
func (d *Decoder) Remaining() int {
	return d.r.Len()
}

// EncodeEvent encodes a handler invocation to a binary event frame
func EncodeEvent(hid string, ev vdom.Event) []byte {
	var buf bytes.Buffer
	e := NewEncoder(&buf)
	e.WriteByte(byte(FrameEvent))
	e.WriteString(hid)
	e.WriteString(ev.Type)
	e.WriteFloat(ev.ClientX)
	e.WriteFloat(ev.ClientY)
	e.WriteVarint(int64(ev.Button))
	e.WriteUvarint(uint64(ev.Buttons))
	e.WriteString(ev.Value)
	return buf.Bytes()
}

// DecodeEvent decodes a binary event frame
func DecodeEvent(data []byte) (hid string, ev vdom.Event, err error) {
	if len(data) < 2 {
		return "", ev, errShortFrame
	}
	if data[0] != byte(FrameEvent) {
		return "", ev, errors.New("live: not an event frame")
	}
	d := NewDecoder(data[1:])

	if hid, err = d.ReadString(); err != nil {
		return "", ev, fmt.Errorf("live: event hid: %w", err)
	}
	if ev.Type, err = d.ReadString(); err != nil {
		return "", ev, fmt.Errorf("live: event type: %w", err)
	}
	if ev.ClientX, err = d.ReadFloat(); err != nil {
		return "", ev, fmt.Errorf("live: event clientX: %w", err)
	}
	if ev.ClientY, err = d.ReadFloat(); err != nil {
		return "", ev, fmt.Errorf("live: event clientY: %w", err)
	}
	button, err := d.ReadVarint()
	if err != nil {
		return "", ev, fmt.Errorf("live: event button: %w", err)
	}
	buttons, err := d.ReadUvarint()
	if err != nil {
		return "", ev, fmt.Errorf("live: event buttons: %w", err)
	}
	ev.Button, ev.Buttons = int(button), int(buttons)
	if ev.Value, err = d.ReadString(); err != nil {
		return "", ev, fmt.Errorf("live: event value: %w", err)
	}
	return hid, ev, nil
}

// EncodeControl encodes a control frame with optional numeric arguments
func EncodeControl(name string, args ...uint64) []byte {
	var buf bytes.Buffer
	e := NewEncoder(&buf)
	e.WriteByte(byte(FrameControl))
	e.WriteString(name)
	for _, a := range args {
		e.WriteUvarint(a)
	}
	return buf.Bytes()
}

// DecodeControl decodes a control frame. Every varint after the name is
// returned as an argument.
func DecodeControl(data []byte) (name string, args []uint64, err error) {
	if len(data) < 2 {
		return "", nil, errShortFrame
	}
	if data[0] != byte(FrameControl) {
		return "", nil, errors.New("live: not a control frame")
	}
	d := NewDecoder(data[1:])
	if name, err = d.ReadString(); err != nil {
		return "", nil, fmt.Errorf("live: control name: %w", err)
	}
	for d.Remaining() > 0 {
		v, err := d.ReadUvarint()
		if err != nil {
			return "", nil, fmt.Errorf("live: control %s argument: %w", name, err)
		}
		args = append(args, v)
	}
	return name, args, nil
}

// EncodeRender encodes a full canvas render. seq increases with every
// render of a session so the client can drop stale frames.
func EncodeRender(seq uint64, html string) []byte {
	var buf bytes.Buffer
	e := NewEncoder(&buf)
	e.WriteByte(byte(FrameRender))
	e.WriteUvarint(seq)
	e.WriteString(html)
	return buf.Bytes()
}

// DecodeRender decodes a render frame
func DecodeRender(data []byte) (seq uint64, html string, err error) {
	if len(data) < 2 {
		return 0, "", errShortFrame
	}
	if data[0] != byte(FrameRender) {
		return 0, "", errors.New("live: not a render frame")
	}
	d := NewDecoder(data[1:])
	if seq, err = d.ReadUvarint(); err != nil {
		return 0, "", fmt.Errorf("live: render seq: %w", err)
	}
	if html, err = d.ReadString(); err != nil {
		return 0, "", fmt.Errorf("live: render html: %w", err)
	}
	return seq, html, nil
}
