package vdom

import (
	"fmt"
	"strconv"
)

// PatchOp represents the type of patch operation
type PatchOp uint8

const (
	// OpReplaceText replaces text node content
	OpReplaceText PatchOp = 0x01
	// OpSetAttribute sets or replaces an attribute
	OpSetAttribute PatchOp = 0x02
	// OpRemoveNode removes a node
	OpRemoveNode PatchOp = 0x03
	// OpInsertNode inserts a new node
	OpInsertNode PatchOp = 0x04
	// OpUpdateEvents updates event subscriptions
	OpUpdateEvents PatchOp = 0x05
	// OpRemoveAttribute removes an attribute
	OpRemoveAttribute PatchOp = 0x06
	// OpMoveNode moves a node to a new position
	OpMoveNode PatchOp = 0x07
)

// Patch represents a single DOM mutation
type Patch struct {
	Op        PatchOp
	NodeID    uint32
	ParentID  uint32 // For insert operations
	BeforeID  uint32 // For move operations (0 means append)
	Key       string // Attribute key for set/remove attribute
	Value     string // Text content or attribute value
	Node      *VNode // For insert operations
	EventBits uint32 // For event updates
}

// String returns a human-readable representation of the patch
func (p Patch) String() string {
	switch p.Op {
	case OpReplaceText:
		return fmt.Sprintf("ReplaceText(node=%d, text=%q)", p.NodeID, p.Value)
	case OpSetAttribute:
		return fmt.Sprintf("SetAttribute(node=%d, key=%q, value=%q)", p.NodeID, p.Key, p.Value)
	case OpRemoveAttribute:
		return fmt.Sprintf("RemoveAttribute(node=%d, key=%q)", p.NodeID, p.Key)
	case OpRemoveNode:
		return fmt.Sprintf("RemoveNode(node=%d)", p.NodeID)
	case OpInsertNode:
		return fmt.Sprintf("InsertNode(parent=%d)", p.ParentID)
	case OpUpdateEvents:
		return fmt.Sprintf("UpdateEvents(node=%d, bits=%x)", p.NodeID, p.EventBits)
	case OpMoveNode:
		return fmt.Sprintf("MoveNode(node=%d, parent=%d, before=%d)", p.NodeID, p.ParentID, p.BeforeID)
	default:
		return fmt.Sprintf("Unknown(op=%d)", p.Op)
	}
}

type diffContext struct {
	patches     []Patch
	nodeCounter uint32
	nodeMap     map[*VNode]uint32
}

func (ctx *diffContext) nodeID(node *VNode) uint32 {
	if node == nil {
		return 0
	}
	if id, ok := ctx.nodeMap[node]; ok {
		return id
	}
	id := ctx.nodeCounter
	ctx.nodeCounter++
	ctx.nodeMap[node] = id
	return id
}

func (ctx *diffContext) add(p Patch) {
	ctx.patches = append(ctx.patches, p)
}

// Diff computes the patches needed to transform prev into next. An empty
// result means the two trees render identically.
func Diff(prev, next *VNode) []Patch {
	ctx := &diffContext{
		patches:     make([]Patch, 0, 16),
		nodeCounter: 1,
		nodeMap:     make(map[*VNode]uint32),
	}
	diffNode(ctx, prev, next, 0)
	return ctx.patches
}

func diffNode(ctx *diffContext, prev, next *VNode, parentID uint32) {
	switch {
	case prev == nil && next == nil:
		return
	case next == nil:
		ctx.add(Patch{Op: OpRemoveNode, NodeID: ctx.nodeID(prev)})
		return
	case prev == nil:
		ctx.add(Patch{Op: OpInsertNode, NodeID: ctx.nodeID(next), ParentID: parentID, Node: next})
		return
	}

	// Different node types - replace
	if prev.Kind != next.Kind || (prev.Kind == KindElement && prev.Tag != next.Tag) {
		ctx.add(Patch{Op: OpRemoveNode, NodeID: ctx.nodeID(prev)})
		ctx.add(Patch{Op: OpInsertNode, NodeID: ctx.nodeID(next), ParentID: parentID, Node: next})
		return
	}

	id := ctx.nodeID(prev)
	ctx.nodeMap[next] = id

	switch prev.Kind {
	case KindText:
		if prev.Text != next.Text {
			ctx.add(Patch{Op: OpReplaceText, NodeID: id, Value: next.Text})
		}
	case KindElement:
		diffProps(ctx, id, prev.Props, next.Props)
		diffChildren(ctx, id, prev.Kids, next.Kids)
	case KindFragment:
		diffChildren(ctx, id, prev.Kids, next.Kids)
	}
}

// diffProps diffs attributes in key order. Handlers are compared by the set
// of events they listen to; a closure rebuilt on every render is not a
// change.
func diffProps(ctx *diffContext, id uint32, prev, next Props) {
	var prevEvents, nextEvents uint32

	for _, key := range prev.SortedKeys() {
		if key == "key" {
			continue
		}
		if IsEventProp(key) {
			prevEvents |= eventBit(key)
			continue
		}
		if _, ok := next[key]; !ok {
			ctx.add(Patch{Op: OpRemoveAttribute, NodeID: id, Key: key})
		}
	}

	for _, key := range next.SortedKeys() {
		if key == "key" {
			continue
		}
		if IsEventProp(key) {
			nextEvents |= eventBit(key)
			continue
		}
		nextVal := next[key]
		if prevVal, ok := prev[key]; !ok || !propsEqual(prevVal, nextVal) {
			ctx.add(Patch{Op: OpSetAttribute, NodeID: id, Key: key, Value: propToString(nextVal)})
		}
	}

	if prevEvents != nextEvents {
		ctx.add(Patch{Op: OpUpdateEvents, NodeID: id, EventBits: nextEvents})
	}
}

// diffChildren diffs child nodes with keyed and unkeyed reconciliation
func diffChildren(ctx *diffContext, parentID uint32, prevKids, nextKids []VNode) {
	if len(prevKids) == 0 && len(nextKids) == 0 {
		return
	}

	hasKeys := false
	for i := range nextKids {
		if nextKids[i].GetKey() != "" {
			hasKeys = true
			break
		}
	}

	if hasKeys {
		diffKeyedChildren(ctx, parentID, prevKids, nextKids)
	} else {
		diffUnkeyedChildren(ctx, parentID, prevKids, nextKids)
	}
}

func diffUnkeyedChildren(ctx *diffContext, parentID uint32, prevKids, nextKids []VNode) {
	common := min(len(prevKids), len(nextKids))
	for i := 0; i < common; i++ {
		diffNode(ctx, &prevKids[i], &nextKids[i], parentID)
	}
	for i := common; i < len(prevKids); i++ {
		diffNode(ctx, &prevKids[i], nil, parentID)
	}
	for i := common; i < len(nextKids); i++ {
		diffNode(ctx, nil, &nextKids[i], parentID)
	}
}

// diffKeyedChildren matches children by key so that moving a node in a list
// becomes a single move instead of a cascade of replacements.
func diffKeyedChildren(ctx *diffContext, parentID uint32, prevKids, nextKids []VNode) {
	prevKeyed := make(map[string]int, len(prevKids))
	for i := range prevKids {
		if key := prevKids[i].GetKey(); key != "" {
			prevKeyed[key] = i
		}
	}

	matched := make([]bool, len(prevKids))
	type move struct {
		nodeID   uint32
		newIndex int
	}
	var moves []move

	for nextIdx := range nextKids {
		nextChild := &nextKids[nextIdx]
		key := nextChild.GetKey()

		if key == "" {
			if nextIdx < len(prevKids) && prevKids[nextIdx].GetKey() == "" && !matched[nextIdx] {
				matched[nextIdx] = true
				diffNode(ctx, &prevKids[nextIdx], nextChild, parentID)
			} else {
				diffNode(ctx, nil, nextChild, parentID)
			}
			continue
		}

		prevIdx, found := prevKeyed[key]
		if !found {
			diffNode(ctx, nil, nextChild, parentID)
			continue
		}
		matched[prevIdx] = true
		id := ctx.nodeID(&prevKids[prevIdx])
		diffNode(ctx, &prevKids[prevIdx], nextChild, parentID)
		if prevIdx != nextIdx {
			moves = append(moves, move{id, nextIdx})
		}
	}

	for i, ok := range matched {
		if !ok {
			diffNode(ctx, &prevKids[i], nil, parentID)
		}
	}

	for _, m := range moves {
		var before uint32
		if m.newIndex+1 < len(nextKids) {
			before = ctx.nodeID(&nextKids[m.newIndex+1])
		}
		ctx.add(Patch{Op: OpMoveNode, NodeID: m.nodeID, ParentID: parentID, BeforeID: before})
	}
}

func eventBit(key string) uint32 {
	switch EventName(key) {
	case "click":
		return 1 << 0
	case "change":
		return 1 << 1
	case "input":
		return 1 << 2
	case "mousedown":
		return 1 << 8
	case "mouseup":
		return 1 << 9
	case "mousemove":
		return 1 << 10
	case "mouseover":
		return 1 << 11
	default:
		return 1 << 31
	}
}

func propsEqual(a, b any) bool {
	return propToString(a) == propToString(b)
}

func propToString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	}
	return fmt.Sprintf("%v", v)
}
