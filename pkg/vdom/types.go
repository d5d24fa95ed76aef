package vdom

import "sort"

// VKind represents the type of virtual node
type VKind uint8

const (
	// KindElement represents a DOM element node
	KindElement VKind = iota
	// KindText represents a text node
	KindText
	// KindFragment represents children without a parent element
	KindFragment
)

// VNodeFlags are bitwise hints computed when a node is built
type VNodeFlags uint8

const (
	// FlagHasKey indicates this node has a key for list reconciliation
	FlagHasKey VNodeFlags = 1 << iota
	// FlagHasEvents indicates this node has event listeners
	FlagHasEvents
)

// Props represents the properties/attributes of a VNode.
// Keys starting with "on" hold event handlers.
type Props map[string]any

// VNode represents a virtual DOM node.
// Once built it is never modified.
type VNode struct {
	Kind  VKind
	Tag   string
	Props Props
	Kids  []VNode
	Key   string
	Flags VNodeFlags
	Text  string
}

// NewElement creates a new element VNode. Nil children are dropped.
func NewElement(tag string, props Props, children ...*VNode) *VNode {
	flags := VNodeFlags(0)
	for k := range props {
		if IsEventProp(k) {
			flags |= FlagHasEvents
		}
		if k == "key" {
			flags |= FlagHasKey
		}
	}

	return &VNode{
		Kind:  KindElement,
		Tag:   tag,
		Props: props,
		Kids:  flatten(children),
		Flags: flags,
	}
}

// NewText creates a new text VNode
func NewText(text string) *VNode {
	return &VNode{
		Kind: KindText,
		Text: text,
	}
}

// NewFragment creates a new fragment VNode
func NewFragment(children ...*VNode) *VNode {
	return &VNode{
		Kind: KindFragment,
		Kids: flatten(children),
	}
}

func flatten(children []*VNode) []VNode {
	kids := make([]VNode, 0, len(children))
	for _, child := range children {
		if child != nil {
			kids = append(kids, *child)
		}
	}
	return kids
}

// IsElement returns true if this is an element node
func (v VNode) IsElement() bool {
	return v.Kind == KindElement
}

// IsText returns true if this is a text node
func (v VNode) IsText() bool {
	return v.Kind == KindText
}

// HasFlag returns true if the specified flag is set
func (v VNode) HasFlag(flag VNodeFlags) bool {
	return v.Flags&flag != 0
}

// GetKey returns the key of this node, handling the Props map safely
func (v VNode) GetKey() string {
	if key, ok := v.Props["key"].(string); ok {
		return key
	}
	return v.Key
}

// Attr returns a non-event prop formatted as a string
func (v VNode) Attr(key string) string {
	val, ok := v.Props[key]
	if !ok || IsEventProp(key) {
		return ""
	}
	return propToString(val)
}

// Handler returns the event handler registered under the prop key, e.g.
// "onmousedown".
func (v VNode) Handler(key string) Handler {
	return AsHandler(v.Props[key])
}

// TextContent concatenates every text node below v
func (v VNode) TextContent() string {
	if v.Kind == KindText {
		return v.Text
	}
	var s string
	for i := range v.Kids {
		s += v.Kids[i].TextContent()
	}
	return s
}

// SortedKeys returns the prop keys in a stable order
func (p Props) SortedKeys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Walk visits v and its descendants depth-first until fn returns false
func Walk(v *VNode, fn func(n *VNode) bool) bool {
	if v == nil {
		return true
	}
	if !fn(v) {
		return false
	}
	for i := range v.Kids {
		if !Walk(&v.Kids[i], fn) {
			return false
		}
	}
	return true
}

// Find returns the first node in document order matching pred
func Find(root *VNode, pred func(n *VNode) bool) *VNode {
	var found *VNode
	Walk(root, func(n *VNode) bool {
		if pred(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

// FindAll returns every node in document order matching pred
func FindAll(root *VNode, pred func(n *VNode) bool) []*VNode {
	var out []*VNode
	Walk(root, func(n *VNode) bool {
		if pred(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// ByAttr matches elements whose prop key formats to value
func ByAttr(key, value string) func(n *VNode) bool {
	return func(n *VNode) bool {
		return n.Kind == KindElement && n.Attr(key) == value
	}
}
