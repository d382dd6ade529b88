// Package quest evaluates quest objectives and owns per-quest progress.
package quest

import (
	"math"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/zyedidia/generic/mapset"

	"github.com/nathoo/amgis/logger"
	"github.com/nathoo/amgis/types"
)

// Location objective radius defaults.
const (
	DefaultRadius = 90.0
	MinRadius     = 10.0
)

// Progress is the live state of one quest.
type Progress struct {
	Status    types.QuestStatus
	Completed mapset.Set[string]
}

// GrantFunc adds a reward stack to the inventory.
type GrantFunc func(itemID string, quantity int) error

// Tracker owns progress for every quest in the catalog.
type Tracker struct {
	quests   []types.Quest
	progress map[string]*Progress
	tracked  string
	grant    GrantFunc
	notices  []string
}

// NewTracker returns a tracker with every quest not started. grant may be nil.
func NewTracker(quests []types.Quest, grant GrantFunc) *Tracker {
	t := &Tracker{quests: quests, grant: grant}
	t.Hydrate(nil)
	return t
}

// Hydrate replaces all progress with rec, discarding in-memory state.
// Unknown quests and objectives are dropped and statuses recomputed from the
// completed objectives.
func (t *Tracker) Hydrate(rec *types.QuestLogRecord) {
	t.progress = make(map[string]*Progress, len(t.quests))
	t.notices = nil
	for _, q := range t.quests {
		p := &Progress{Status: types.QuestNotStarted, Completed: mapset.New[string]()}
		if rec != nil {
			if saved, ok := rec.Progress[q.ID]; ok {
				for _, id := range saved.CompletedObjectives {
					if objectiveIndex(q, id) >= 0 {
						p.Completed.Put(id)
					}
				}
			}
		}
		p.Status = statusFor(q, p.Completed)
		t.progress[q.ID] = p
	}

	t.tracked = ""
	if rec != nil && rec.TrackedQuestID != "" {
		if p, ok := t.progress[rec.TrackedQuestID]; ok && p.Status != types.QuestCompleted {
			t.tracked = rec.TrackedQuestID
		}
	}
	if t.tracked == "" {
		t.tracked = t.defaultTracked()
	}
}

func (t *Tracker) defaultTracked() string {
	for _, q := range t.quests {
		if q.AutoTrack && t.progress[q.ID].Status != types.QuestCompleted {
			return q.ID
		}
	}
	for _, q := range t.quests {
		if t.progress[q.ID].Status != types.QuestCompleted {
			return q.ID
		}
	}
	return ""
}

func statusFor(q types.Quest, done mapset.Set[string]) types.QuestStatus {
	if done.Size() == 0 {
		return types.QuestNotStarted
	}
	for _, o := range q.Objectives {
		if !done.Has(o.ID) {
			return types.QuestInProgress
		}
	}
	return types.QuestCompleted
}

// Record returns the persisted form of every quest's progress.
func (t *Tracker) Record() types.QuestLogRecord {
	rec := types.QuestLogRecord{
		Progress:       make(map[string]types.QuestProgressRecord, len(t.progress)),
		TrackedQuestID: t.tracked,
	}
	for _, q := range t.quests {
		p := t.progress[q.ID]
		ids := make([]string, 0, p.Completed.Size())
		p.Completed.Each(func(id string) { ids = append(ids, id) })
		sort.Strings(ids)
		rec.Progress[q.ID] = types.QuestProgressRecord{Status: p.Status, CompletedObjectives: ids}
	}
	return rec
}

// Quests returns the catalog in order.
func (t *Tracker) Quests() []types.Quest { return t.quests }

// Quest returns the catalog entry for id.
func (t *Tracker) Quest(id string) (types.Quest, bool) {
	for _, q := range t.quests {
		if q.ID == id {
			return q, true
		}
	}
	return types.Quest{}, false
}

// Status returns the status of a quest; unknown quests are not started.
func (t *Tracker) Status(id string) types.QuestStatus {
	if p, ok := t.progress[id]; ok {
		return p.Status
	}
	return types.QuestNotStarted
}

// IsComplete reports whether an objective has been completed.
func (t *Tracker) IsComplete(questID, objectiveID string) bool {
	p, ok := t.progress[questID]
	return ok && p.Completed.Has(objectiveID)
}

// Complete marks an objective complete. It reports false when the quest or
// objective is unknown or the objective was already complete.
func (t *Tracker) Complete(questID, objectiveID string) bool {
	q, ok := t.Quest(questID)
	if !ok {
		return false
	}
	oi := objectiveIndex(q, objectiveID)
	if oi < 0 {
		return false
	}
	p := t.progress[questID]
	if p.Completed.Has(objectiveID) {
		return false
	}
	p.Completed.Put(objectiveID)
	if p.Status == types.QuestNotStarted {
		p.Status = types.QuestInProgress
	}
	if t.tracked == "" {
		t.tracked = questID
	}

	log := logger.Log.WithFields(logrus.Fields{"quest": questID, "objective": objectiveID})
	if statusFor(q, p.Completed) == types.QuestCompleted {
		p.Status = types.QuestCompleted
		t.notices = append(t.notices, "Quest complete: "+displayName(q.Name, q.ID))
		t.grantRewards(q)
		log.Info("quest completed")
		return true
	}
	if desc := q.Objectives[oi].Description; desc != "" {
		t.notices = append(t.notices, "Objective complete: "+desc)
	}
	log.Debug("objective completed")
	return true
}

func (t *Tracker) grantRewards(q types.Quest) {
	if t.grant == nil {
		return
	}
	for _, r := range q.Rewards.Items {
		qty := r.Quantity
		if qty <= 0 {
			qty = 1
		}
		if err := t.grant(r.ID, qty); err != nil {
			logger.Log.WithError(err).WithField("quest", q.ID).Warn("reward not granted")
		}
	}
}

// OnDialogueNode completes dialogue objectives bound to npcID and, when the
// objective names one, nodeID. It reports whether anything changed.
func (t *Tracker) OnDialogueNode(npcID, nodeID string) bool {
	changed := false
	for _, q := range t.quests {
		for _, o := range q.Objectives {
			if o.Type != types.ObjectiveDialogue || o.NPCID != npcID {
				continue
			}
			if o.NodeID != "" && o.NodeID != nodeID {
				continue
			}
			if t.Complete(q.ID, o.ID) {
				changed = true
			}
		}
	}
	return changed
}

// OnPosition completes location objectives whose target circle contains
// (x, y) on the given world and map. It reports whether anything changed.
func (t *Tracker) OnPosition(world, mapFile string, x, y float64) bool {
	changed := false
	for _, q := range t.quests {
		if t.progress[q.ID].Status == types.QuestCompleted {
			continue
		}
		for _, o := range q.Objectives {
			if !Reached(o, world, mapFile, x, y) {
				continue
			}
			if t.Complete(q.ID, o.ID) {
				changed = true
			}
		}
	}
	return changed
}

// Reached reports whether a location objective is satisfied at (x, y).
func Reached(o types.Objective, world, mapFile string, x, y float64) bool {
	if o.Type != types.ObjectiveLocation || o.X == nil || o.Y == nil {
		return false
	}
	if o.World != "" && o.World != world {
		return false
	}
	if o.Map != "" && o.Map != mapFile {
		return false
	}
	radius := o.Radius
	if radius <= 0 {
		radius = DefaultRadius
	}
	radius = math.Max(MinRadius, radius)
	return math.Hypot(x-*o.X, y-*o.Y) <= radius
}

// Tracked returns the quest summarized in the HUD, if any.
func (t *Tracker) Tracked() (types.Quest, bool) {
	return t.Quest(t.tracked)
}

// SetTracked changes the tracked quest. Unknown ids are ignored.
func (t *Tracker) SetTracked(id string) bool {
	if _, ok := t.progress[id]; !ok {
		return false
	}
	t.tracked = id
	return true
}

// NextObjective returns the first incomplete objective of a quest.
func (t *Tracker) NextObjective(questID string) (types.Objective, bool) {
	q, ok := t.Quest(questID)
	if !ok {
		return types.Objective{}, false
	}
	p := t.progress[questID]
	for _, o := range q.Objectives {
		if !p.Completed.Has(o.ID) {
			return o, true
		}
	}
	return types.Objective{}, false
}

// DrainNotices returns queued notifications and clears the queue.
func (t *Tracker) DrainNotices() []string {
	out := t.notices
	t.notices = nil
	return out
}

func objectiveIndex(q types.Quest, id string) int {
	if id == "" {
		return -1
	}
	for i, o := range q.Objectives {
		if o.ID == id {
			return i
		}
	}
	return -1
}

func displayName(name, id string) string {
	if name != "" {
		return name
	}
	return id
}
