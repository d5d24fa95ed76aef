package live

import (
	"encoding/json"

	"github.com/recera/drawflow/pkg/vdom"
)

// MessageType represents the type of a binary live protocol frame
type MessageType uint8

const (
	// Frame types
	FrameRender  MessageType = 0x00
	FrameEvent   MessageType = 0x01
	FrameControl MessageType = 0x02
)

// Control messages
const (
	ControlHello = "HELLO"
	ControlPing  = "PING"
	ControlPong  = "PONG"
)

// Kinds of JSON text messages sent by the browser
const (
	KindEvent   = "event"
	KindMeasure = "measure"
	KindOrigin  = "origin"
	KindPing    = "ping"
)

// ClientMessage is a JSON text frame from the browser.
//
// An event names the element by the hydration ID it was rendered with. A
// measure reports the layout box of one port relative to its node. An
// origin reports where the canvas sits in the page.
type ClientMessage struct {
	Kind string `json:"kind"`

	HID   string     `json:"hid,omitempty"`
	Event vdom.Event `json:"event"`

	Node string          `json:"node,omitempty"`
	Port string          `json:"port,omitempty"`
	Dir  string          `json:"dir,omitempty"`
	Rect json.RawMessage `json:"rect,omitempty"`

	X float64 `json:"x,omitempty"`
	Y float64 `json:"y,omitempty"`
}
