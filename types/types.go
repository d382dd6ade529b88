// Package types defines the shared data structures for the Amgis engine.
// It contains only type definitions, no logic.
package types

// World is an immutable catalog entry from the world list file.
type World struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Difficulty string `json:"difficulty"`
	Biome      string `json:"biome"`
	Summary    string `json:"summary"`
}

// Point is a world-space position in pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// MapMeta is one entry of a world's map list file.
type MapMeta struct {
	ID             int    `json:"id"`
	FileName       string `json:"fileName"`
	Name           string `json:"name"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	Spawn          *Point `json:"spawn,omitempty"`
	Difficulty     string `json:"difficulty"`
	Threat         string `json:"threat"`
	Summary        string `json:"summary"`
	Weather        string `json:"weather"`
	Recommendation string `json:"recommendation"`
}

// MapFormat identifies the source grammar a Map was parsed from.
type MapFormat int

const (
	FormatLegacy MapFormat = iota // ';'-joined pipe chunks
	FormatTiled                   // tileset-indexed markup
)

// Empty tile sentinels per source grammar.
const (
	EmptyLegacyTile int32 = -1
	EmptyTiledTile  int32 = 0
)

// PropertyKind tags the variant held by a Property.
type PropertyKind int

const (
	PropString PropertyKind = iota
	PropBool
	PropInt
	PropFloat
)

// Property is a typed layer or map property.
type Property struct {
	Kind   PropertyKind
	Bool   bool
	Int    int64
	Float  float64
	String string
}

// Layer is one grid-aligned plane of tile ids.
type Layer struct {
	ID         int
	Name       string
	GridWidth  int
	GridHeight int
	Tiles      []int32 // len == GridWidth*GridHeight
	Properties map[string]Property
}

// Tileset is an image sheet sliced into tiles covering [FirstGID, FirstGID+TileCount).
type Tileset struct {
	Name        string
	FirstGID    int32
	TileCount   int
	Columns     int
	TileWidth   int
	TileHeight  int
	Image       string
	ImageWidth  int
	ImageHeight int
}

// Map is the canonical map model shared by both source grammars.
type Map struct {
	Format         MapFormat
	World          string
	FileName       string
	TileWidth      int
	TileHeight     int
	GridWidth      int
	GridHeight     int
	Layers         []Layer
	Tilesets       []Tileset // sorted by FirstGID
	SpriteSheet    string    // resolved image reference
	Properties     map[string]Property
	Spawn          *Point
	Difficulty     string
	Threat         string
	Summary        string
	Weather        string
	Recommendation string
}

// DialogueChoice links a dialogue node to the next node id, or "end".
type DialogueChoice struct {
	Label string `json:"label"`
	Next  string `json:"next,omitempty"`
}

// DialogueNode is one node of an NPC dialogue graph.
type DialogueNode struct {
	ID      string           `json:"id"`
	Speaker string           `json:"speaker,omitempty"`
	Text    string           `json:"text"`
	Choices []DialogueChoice `json:"choices,omitempty"`
}

// NPC is a static catalog entry placed on one world map.
type NPC struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Role         string         `json:"role,omitempty"`
	World        string         `json:"world"`
	Map          string         `json:"map"`
	Position     Point          `json:"position"`
	Radius       float64        `json:"radius,omitempty"`
	MarkerRadius float64        `json:"markerRadius,omitempty"`
	MarkerColor  string         `json:"markerColor,omitempty"`
	Dialogue     []DialogueNode `json:"dialogue"`
}

// ItemType distinguishes wearable from usable items.
type ItemType string

const (
	ItemEquipment  ItemType = "equipment"
	ItemConsumable ItemType = "consumable"
)

// Slot is an equipment slot.
type Slot string

const (
	SlotWeapon    Slot = "weapon"
	SlotArmor     Slot = "armor"
	SlotAccessory Slot = "accessory"
)

// Item is an item catalog entry.
type Item struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Type            ItemType `json:"type"`
	Slot            Slot     `json:"slot,omitempty"`
	Description     string   `json:"description,omitempty"`
	Rarity          string   `json:"rarity,omitempty"`
	AttackBonus     int      `json:"attackBonus,omitempty"`
	DefenseBonus    int      `json:"defenseBonus,omitempty"`
	SpeedBonus      int      `json:"speedBonus,omitempty"`
	MaxHPBonus      int      `json:"maxHpBonus,omitempty"`
	MovementBonus   int      `json:"movementBonus,omitempty"`
	HealAmount      int      `json:"healAmount,omitempty"`
	StarterQuantity int      `json:"starterQuantity,omitempty"`
}

// ObjectiveType is the fixed quest objective taxonomy.
type ObjectiveType string

const (
	ObjectiveDialogue ObjectiveType = "dialogue"
	ObjectiveLocation ObjectiveType = "location"
)

// Objective is one independently trackable quest condition.
type Objective struct {
	ID          string        `json:"id"`
	Type        ObjectiveType `json:"type"`
	Description string        `json:"description,omitempty"`
	NPCID       string        `json:"npcId,omitempty"`
	NodeID      string        `json:"nodeId,omitempty"`
	World       string        `json:"world,omitempty"`
	Map         string        `json:"map,omitempty"`
	X           *float64      `json:"x,omitempty"`
	Y           *float64      `json:"y,omitempty"`
	Radius      float64       `json:"radius,omitempty"`
}

// ItemGrant is an item id with a quantity.
type ItemGrant struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// QuestRewards lists what completing a quest grants.
type QuestRewards struct {
	Items []ItemGrant `json:"items,omitempty"`
}

// Quest is a quest catalog entry.
type Quest struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Giver      string       `json:"giver,omitempty"`
	World      string       `json:"world,omitempty"`
	Map        string       `json:"map,omitempty"`
	Summary    string       `json:"summary,omitempty"`
	AutoTrack  bool         `json:"autoTrack,omitempty"`
	Objectives []Objective  `json:"objectives"`
	Rewards    QuestRewards `json:"rewards"`
}

// Enemy is an enemy template; encounters fight a clone of it.
type Enemy struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Rank       string   `json:"rank,omitempty"`
	Threat     string   `json:"threat,omitempty"`
	HP         int      `json:"hp"`
	Attack     int      `json:"attack"`
	Defense    int      `json:"defense"`
	Speed      int      `json:"speed"`
	RewardExp  int      `json:"rewardExp,omitempty"`
	RewardLoot []string `json:"rewardLoot,omitempty"`
}

// Character is a playable avatar; File doubles as the character path.
type Character struct {
	Name   string `json:"name"`
	Gender string `json:"gender,omitempty"`
	File   string `json:"file"`
}

// InventoryRecord is the persisted form of the inventory.
type InventoryRecord struct {
	Items     []ItemGrant     `json:"items"`
	Equipment map[Slot]string `json:"equipment"`
}

// QuestStatus is the lifecycle of one quest.
type QuestStatus string

const (
	QuestNotStarted QuestStatus = "not-started"
	QuestInProgress QuestStatus = "in-progress"
	QuestCompleted  QuestStatus = "completed"
)

// QuestProgressRecord is the persisted progress of one quest.
type QuestProgressRecord struct {
	Status              QuestStatus `json:"status"`
	CompletedObjectives []string    `json:"completedObjectives"`
}

// QuestLogRecord is the persisted progress of every quest plus the tracked one.
type QuestLogRecord struct {
	Progress       map[string]QuestProgressRecord `json:"progress"`
	TrackedQuestID string                         `json:"trackedQuestId,omitempty"`
}
