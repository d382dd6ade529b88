// Package inventory holds item stacks and equipped items.
package inventory

import (
	"github.com/nathoo/amgis/engine/errs"
	"github.com/nathoo/amgis/types"
)

// Slots lists the equipment slots in display order.
var Slots = []types.Slot{types.SlotWeapon, types.SlotArmor, types.SlotAccessory}

// Catalog resolves item definitions.
type Catalog interface {
	Item(id string) (types.Item, bool)
	AllItems() []types.Item
}

// Entry is one stack.
type Entry struct {
	ID       string
	Quantity int
}

// Bonuses are the summed stat bonuses of equipped items.
type Bonuses struct {
	MaxHP    int
	Attack   int
	Defense  int
	Speed    int
	Movement int
}

// Inventory is the item state of one session.
type Inventory struct {
	catalog   Catalog
	entries   []Entry
	equipment map[types.Slot]string
}

// New returns an empty inventory backed by catalog.
func New(catalog Catalog) *Inventory {
	return &Inventory{catalog: catalog, equipment: make(map[types.Slot]string)}
}

// Hydrate replaces the contents with rec. Unknown items and non-positive
// quantities are dropped and duplicate stacks merged. A nil rec means
// nothing was ever persisted and yields the starter loadout; usedStarter
// reports that case.
func (inv *Inventory) Hydrate(rec *types.InventoryRecord) (usedStarter bool) {
	var entries []Entry
	if rec != nil {
		entries = inv.normalize(rec.Items)
	} else {
		entries = inv.starter()
		usedStarter = len(entries) > 0
	}
	inv.entries = entries
	inv.equipment = make(map[types.Slot]string)
	if rec != nil {
		for _, slot := range Slots {
			id := rec.Equipment[slot]
			if def, ok := inv.catalog.Item(id); ok && def.Slot == slot && inv.Quantity(id) > 0 {
				inv.equipment[slot] = id
			}
		}
	}
	return usedStarter
}

func (inv *Inventory) normalize(items []types.ItemGrant) []Entry {
	var out []Entry
	for _, g := range items {
		if g.ID == "" || g.Quantity <= 0 {
			continue
		}
		if _, ok := inv.catalog.Item(g.ID); !ok {
			continue
		}
		merged := false
		for i := range out {
			if out[i].ID == g.ID {
				out[i].Quantity += g.Quantity
				merged = true
				break
			}
		}
		if !merged {
			out = append(out, Entry{ID: g.ID, Quantity: g.Quantity})
		}
	}
	return out
}

func (inv *Inventory) starter() []Entry {
	var out []Entry
	for _, it := range inv.catalog.AllItems() {
		if it.StarterQuantity > 0 {
			out = append(out, Entry{ID: it.ID, Quantity: it.StarterQuantity})
		}
	}
	return out
}

// Record returns the persisted form.
func (inv *Inventory) Record() types.InventoryRecord {
	rec := types.InventoryRecord{
		Items:     make([]types.ItemGrant, 0, len(inv.entries)),
		Equipment: make(map[types.Slot]string, len(inv.equipment)),
	}
	for _, e := range inv.entries {
		rec.Items = append(rec.Items, types.ItemGrant{ID: e.ID, Quantity: e.Quantity})
	}
	for slot, id := range inv.equipment {
		rec.Equipment[slot] = id
	}
	return rec
}

// Entries returns a copy of the stacks in acquisition order.
func (inv *Inventory) Entries() []Entry {
	return append([]Entry(nil), inv.entries...)
}

// Quantity returns how many of id are held.
func (inv *Inventory) Quantity(id string) int {
	for _, e := range inv.entries {
		if e.ID == id {
			return e.Quantity
		}
	}
	return 0
}

// Equipped returns the item id in slot, or "".
func (inv *Inventory) Equipped(slot types.Slot) string {
	return inv.equipment[slot]
}

// Add changes the stack of id by delta. A stack that reaches zero is removed
// and unequipped.
func (inv *Inventory) Add(id string, delta int) error {
	if _, ok := inv.catalog.Item(id); !ok {
		return errs.NotFound("item", id)
	}
	idx := -1
	for i := range inv.entries {
		if inv.entries[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		if delta <= 0 {
			return nil
		}
		inv.entries = append(inv.entries, Entry{ID: id})
		idx = len(inv.entries) - 1
	}
	inv.entries[idx].Quantity += delta
	if inv.entries[idx].Quantity <= 0 {
		inv.entries = append(inv.entries[:idx], inv.entries[idx+1:]...)
		for slot, eq := range inv.equipment {
			if eq == id {
				delete(inv.equipment, slot)
			}
		}
	}
	return nil
}

// Equip puts id into its slot, replacing what was there.
func (inv *Inventory) Equip(id string) (types.Slot, error) {
	def, ok := inv.catalog.Item(id)
	if !ok {
		return "", errs.NotFound("item", id)
	}
	if def.Slot == "" {
		return "", errs.Precondition("%s cannot be equipped", def.Name)
	}
	if inv.Quantity(id) < 1 {
		return "", errs.Precondition("%s is not in the inventory", def.Name)
	}
	inv.equipment[def.Slot] = id
	return def.Slot, nil
}

// Unequip empties slot. It reports whether anything was removed.
func (inv *Inventory) Unequip(slot types.Slot) bool {
	if _, ok := inv.equipment[slot]; !ok {
		return false
	}
	delete(inv.equipment, slot)
	return true
}

// Use consumes one consumable and returns its definition.
func (inv *Inventory) Use(id string) (types.Item, error) {
	def, ok := inv.catalog.Item(id)
	if !ok {
		return types.Item{}, errs.NotFound("item", id)
	}
	if def.Type != types.ItemConsumable {
		return types.Item{}, errs.Precondition("%s is not a consumable", def.Name)
	}
	if inv.Quantity(id) < 1 {
		return types.Item{}, errs.Precondition("no %s left", def.Name)
	}
	if err := inv.Add(id, -1); err != nil {
		return types.Item{}, err
	}
	return def, nil
}

// Bonuses sums the bonuses of equipped items.
func (inv *Inventory) Bonuses() Bonuses {
	var b Bonuses
	for _, slot := range Slots {
		def, ok := inv.catalog.Item(inv.equipment[slot])
		if !ok {
			continue
		}
		b.MaxHP += def.MaxHPBonus
		b.Attack += def.AttackBonus
		b.Defense += def.DefenseBonus
		b.Speed += def.SpeedBonus
		b.Movement += def.MovementBonus
	}
	return b
}
