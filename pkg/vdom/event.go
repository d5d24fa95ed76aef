package vdom

import (
	"encoding/json"
	"strings"
)

// Event is the payload delivered to a Handler. Pointer events fill the
// client coordinates and button fields, form events fill Value.
type Event struct {
	Type    string          `json:"type"`
	ClientX float64         `json:"clientX"`
	ClientY float64         `json:"clientY"`
	Button  int             `json:"button"`
	Buttons int             `json:"buttons"`
	Value   string          `json:"value,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Handler reacts to a DOM event routed back from the browser
type Handler func(ev Event)

// AsHandler converts the handler shapes accepted in Props. It returns nil
// for anything else.
func AsHandler(v any) Handler {
	switch h := v.(type) {
	case Handler:
		return h
	case func(Event):
		return h
	case func():
		return func(Event) { h() }
	case func(string):
		return func(ev Event) { h(ev.Value) }
	}
	return nil
}

// IsEventProp reports whether key names an event handler prop
func IsEventProp(key string) bool {
	return len(key) > 2 && key[0] == 'o' && key[1] == 'n'
}

// EventName maps a handler prop key to its DOM event name:
// "onMouseDown" and "onmousedown" both give "mousedown".
func EventName(key string) string {
	if !IsEventProp(key) {
		return ""
	}
	return strings.ToLower(key[2:])
}

// HIDProp pins the hydration ID of an element. Handler-bearing elements
// below a pinned element are numbered within it, so their IDs do not move
// when elements elsewhere in the tree appear or disappear.
const HIDProp = "hid"
