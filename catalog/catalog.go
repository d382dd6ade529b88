// Package catalog holds the static game records and id-indexed lookups.
package catalog

import "github.com/nathoo/amgis/types"

// Catalog is the set of records loaded at boot. Records reference each
// other by id only.
type Catalog struct {
	Enemies    []types.Enemy
	NPCs       []types.NPC
	Items      []types.Item
	Quests     []types.Quest
	Characters []types.Character

	enemies    map[string]int
	npcs       map[string]int
	items      map[string]int
	quests     map[string]int
	characters map[string]int
}

// New builds the indexes. On duplicate ids the first record wins.
func New(enemies []types.Enemy, npcs []types.NPC, items []types.Item, quests []types.Quest, characters []types.Character) *Catalog {
	c := &Catalog{
		Enemies:    enemies,
		NPCs:       npcs,
		Items:      items,
		Quests:     quests,
		Characters: characters,
	}
	c.enemies = index(len(enemies), func(i int) string { return enemies[i].ID })
	c.npcs = index(len(npcs), func(i int) string { return npcs[i].ID })
	c.items = index(len(items), func(i int) string { return items[i].ID })
	c.quests = index(len(quests), func(i int) string { return quests[i].ID })
	c.characters = index(len(characters), func(i int) string { return characters[i].File })
	return c
}

func index(n int, key func(int) string) map[string]int {
	m := make(map[string]int, n)
	for i := 0; i < n; i++ {
		k := key(i)
		if k == "" {
			continue
		}
		if _, dup := m[k]; !dup {
			m[k] = i
		}
	}
	return m
}

// Enemy returns the enemy template with id.
func (c *Catalog) Enemy(id string) (types.Enemy, bool) {
	if i, ok := c.enemies[id]; ok {
		return c.Enemies[i], true
	}
	return types.Enemy{}, false
}

// NPC returns the NPC with id.
func (c *Catalog) NPC(id string) (types.NPC, bool) {
	if i, ok := c.npcs[id]; ok {
		return c.NPCs[i], true
	}
	return types.NPC{}, false
}

// Item returns the item with id.
func (c *Catalog) Item(id string) (types.Item, bool) {
	if i, ok := c.items[id]; ok {
		return c.Items[i], true
	}
	return types.Item{}, false
}

// AllItems returns the item catalog in order.
func (c *Catalog) AllItems() []types.Item { return c.Items }

// Quest returns the quest with id.
func (c *Catalog) Quest(id string) (types.Quest, bool) {
	if i, ok := c.quests[id]; ok {
		return c.Quests[i], true
	}
	return types.Quest{}, false
}

// Character returns the character whose file path is path.
func (c *Catalog) Character(path string) (types.Character, bool) {
	if i, ok := c.characters[path]; ok {
		return c.Characters[i], true
	}
	return types.Character{}, false
}
