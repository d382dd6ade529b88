// Package dialogue walks an NPC's dialogue graph.
//
// The engine is either closed or open on one node. Nodes reference each
// other by id; a choice whose next id is "end", empty or unknown closes the
// conversation.
package dialogue

import (
	"github.com/sirupsen/logrus"

	"github.com/nathoo/amgis/logger"
	"github.com/nathoo/amgis/types"
)

const (
	// RootNode is the preferred entry node id.
	RootNode = "root"
	// End closes the conversation when used as a choice target.
	End = "end"
)

// DefaultChoices is offered by nodes that declare none.
var DefaultChoices = []types.DialogueChoice{{Label: "End dialogue", Next: End}}

// EnterFunc is called each time a node is entered.
type EnterFunc func(npcID string, node types.DialogueNode)

// Engine is the dialogue state machine.
type Engine struct {
	npc     types.NPC
	current int
	open    bool
	onEnter EnterFunc
}

// New returns a closed engine. onEnter may be nil.
func New(onEnter EnterFunc) *Engine {
	return &Engine{current: -1, onEnter: onEnter}
}

// Open starts a conversation with n at its root node, or its first node if
// none is named root. It reports false and stays closed when n has no nodes.
func (e *Engine) Open(n types.NPC) bool {
	if len(n.Dialogue) == 0 {
		logger.Log.WithField("npc", n.ID).Info("npc has no dialogue")
		return false
	}
	start := FindNode(n.Dialogue, RootNode)
	if start < 0 {
		start = 0
	}
	e.npc = n
	e.open = true
	e.enter(start)
	return true
}

// Choose follows choice i of the current node. It reports whether the
// conversation is still open afterwards.
func (e *Engine) Choose(i int) bool {
	if !e.open {
		return false
	}
	choices := Choices(e.npc.Dialogue[e.current])
	if i < 0 || i >= len(choices) {
		return true
	}
	next := choices[i].Next
	if next == "" || next == End {
		e.Close()
		return false
	}
	idx := FindNode(e.npc.Dialogue, next)
	if idx < 0 {
		logger.Log.WithFields(logrus.Fields{"npc": e.npc.ID, "next": next}).Warn("dialogue choice targets unknown node")
		e.Close()
		return false
	}
	e.enter(idx)
	return true
}

// Close ends the conversation.
func (e *Engine) Close() {
	e.open = false
	e.current = -1
	e.npc = types.NPC{}
}

// Active reports whether a conversation is open.
func (e *Engine) Active() bool { return e.open }

// NPC returns the conversation partner.
func (e *Engine) NPC() types.NPC { return e.npc }

// Current returns the node being shown.
func (e *Engine) Current() (types.DialogueNode, bool) {
	if !e.open {
		return types.DialogueNode{}, false
	}
	return e.npc.Dialogue[e.current], true
}

func (e *Engine) enter(idx int) {
	e.current = idx
	if e.onEnter != nil {
		e.onEnter(e.npc.ID, e.npc.Dialogue[idx])
	}
}

// Choices returns a node's choices, or DefaultChoices if it has none.
func Choices(n types.DialogueNode) []types.DialogueChoice {
	if len(n.Choices) == 0 {
		return DefaultChoices
	}
	return n.Choices
}

// FindNode returns the index of the node with the given id, or -1.
func FindNode(nodes []types.DialogueNode, id string) int {
	for i, n := range nodes {
		if n.ID == id {
			return i
		}
	}
	return -1
}
