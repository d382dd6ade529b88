package loader

import (
	"fmt"

	"github.com/nathoo/amgis/catalog"
	"github.com/nathoo/amgis/engine/dialogue"
	"github.com/nathoo/amgis/types"
)

var validSlots = map[types.Slot]bool{
	types.SlotWeapon:    true,
	types.SlotArmor:     true,
	types.SlotAccessory: true,
}

// Validate checks cross references between catalogs and returns one
// message per problem. Records are never rejected here; the engine
// tolerates every reported inconsistency.
func Validate(c *catalog.Catalog) []string {
	var out []string
	add := func(format string, args ...any) {
		out = append(out, fmt.Sprintf(format, args...))
	}

	for _, it := range c.Items {
		switch it.Type {
		case types.ItemEquipment:
			if !validSlots[it.Slot] {
				add("item %q is equipment without a valid slot (%q)", it.ID, it.Slot)
			}
		case types.ItemConsumable:
			if it.HealAmount <= 0 {
				add("consumable %q heals nothing", it.ID)
			}
		default:
			add("item %q has unknown type %q", it.ID, it.Type)
		}
	}

	for _, e := range c.Enemies {
		for _, loot := range e.RewardLoot {
			if _, ok := c.Item(loot); !ok {
				add("enemy %q drops undefined item %q", e.ID, loot)
			}
		}
	}

	for _, n := range c.NPCs {
		if len(n.Dialogue) == 0 {
			add("npc %q has no dialogue", n.ID)
			continue
		}
		for _, node := range n.Dialogue {
			for _, ch := range node.Choices {
				if ch.Next == "" || ch.Next == dialogue.End {
					continue
				}
				if dialogue.FindNode(n.Dialogue, ch.Next) < 0 {
					add("npc %q node %q links to undefined node %q", n.ID, node.ID, ch.Next)
				}
			}
		}
	}

	for _, q := range c.Quests {
		if len(q.Objectives) == 0 {
			add("quest %q has no objectives", q.ID)
		}
		for _, o := range q.Objectives {
			validateObjective(c, q, o, add)
		}
		for _, g := range q.Rewards.Items {
			if _, ok := c.Item(g.ID); !ok {
				add("quest %q rewards undefined item %q", q.ID, g.ID)
			}
		}
	}
	return out
}

func validateObjective(c *catalog.Catalog, q types.Quest, o types.Objective, add func(string, ...any)) {
	if o.ID == "" {
		add("quest %q has an objective without id", q.ID)
	}
	switch o.Type {
	case types.ObjectiveDialogue:
		n, ok := c.NPC(o.NPCID)
		if !ok {
			add("quest %q objective %q references undefined npc %q", q.ID, o.ID, o.NPCID)
			return
		}
		if o.NodeID != "" && dialogue.FindNode(n.Dialogue, o.NodeID) < 0 {
			add("quest %q objective %q references undefined node %q of npc %q", q.ID, o.ID, o.NodeID, o.NPCID)
		}
	case types.ObjectiveLocation:
		if o.X == nil || o.Y == nil {
			add("quest %q objective %q has no target position", q.ID, o.ID)
		}
	default:
		add("quest %q objective %q has unknown type %q", q.ID, o.ID, o.Type)
	}
}
