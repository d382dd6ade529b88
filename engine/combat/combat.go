// Package combat runs turn-based encounters between the player and one enemy.
//
// The state machine is idle -> player-turn <-> enemy-turn -> victory|defeat.
// The enemy acts through a scheduled event; an encounter that is torn down
// before the event fires invalidates it by bumping the session epoch.
package combat

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nathoo/amgis/engine/errs"
	"github.com/nathoo/amgis/engine/schedule"
	"github.com/nathoo/amgis/logger"
	"github.com/nathoo/amgis/types"
)

// State is a combat state.
type State string

const (
	Idle       State = "idle"
	PlayerTurn State = "player-turn"
	EnemyTurn  State = "enemy-turn"
	Victory    State = "victory"
	Defeat     State = "defeat"
)

// Tuning.
const (
	GuardBonus     = 6
	LogLimit       = 8
	EnemyTurnDelay = 600 * time.Millisecond
	varianceSides  = 4
)

// Stats are the combat-relevant numbers of a combatant.
type Stats struct {
	MaxHP   int
	Attack  int
	Defense int
	Speed   int
}

// BaseStats are the player's stats with nothing equipped.
var BaseStats = Stats{MaxHP: 90, Attack: 12, Defense: 4, Speed: 12}

// Plus adds bonuses to s.
func (s Stats) Plus(b Stats) Stats {
	return Stats{
		MaxHP:   s.MaxHP + b.MaxHP,
		Attack:  s.Attack + b.Attack,
		Defense: s.Defense + b.Defense,
		Speed:   s.Speed + b.Speed,
	}
}

// Combatant is one side of an encounter.
type Combatant struct {
	ID         string
	Name       string
	Rank       string
	Threat     string
	MaxHP      int
	HP         int
	Attack     int
	Defense    int
	Speed      int
	RewardExp  int
	RewardLoot []string
}

// PlayerCombatant builds the player side at full health.
func PlayerCombatant(name, rank string, s Stats) Combatant {
	if name == "" {
		name = "Operative"
	}
	if rank == "" {
		rank = "Guild Agent"
	}
	c := Combatant{ID: "player", Name: name, Rank: rank}
	c.apply(s)
	c.HP = c.MaxHP
	return c
}

// CloneEnemy builds a fresh enemy from a catalog template.
func CloneEnemy(e types.Enemy) Combatant {
	c := Combatant{
		ID:         e.ID,
		Name:       e.Name,
		Rank:       e.Rank,
		Threat:     e.Threat,
		MaxHP:      e.HP,
		Attack:     e.Attack,
		Defense:    e.Defense,
		Speed:      e.Speed,
		RewardExp:  e.RewardExp,
		RewardLoot: append([]string(nil), e.RewardLoot...),
	}
	if c.ID == "" {
		c.ID = e.Name
	}
	if c.Name == "" {
		c.Name = "Unknown Foe"
	}
	if c.Rank == "" {
		c.Rank = "Unknown"
	}
	if c.Threat == "" {
		c.Threat = "???"
	}
	if c.MaxHP <= 0 {
		c.MaxHP = 1
	}
	if c.Attack <= 0 {
		c.Attack = 1
	}
	c.Defense = max(0, c.Defense)
	if c.Speed <= 0 {
		c.Speed = 1
	}
	c.HP = c.MaxHP
	return c
}

func (c *Combatant) apply(s Stats) {
	c.MaxHP = max(1, s.MaxHP)
	c.Attack = max(1, s.Attack)
	c.Defense = max(0, s.Defense)
	c.Speed = max(1, s.Speed)
}

// Damage computes max(1, attack + variance - defense), where variance is in
// [0, 4). A guarding defender reduces it by GuardBonus, still floored at 1.
func Damage(attack, defense int, guarded bool, rng *RNG) int {
	variance := rng.Roll(varianceSides) - 1
	dmg := max(1, attack+variance-defense)
	if guarded {
		dmg = max(1, dmg-GuardBonus)
	}
	return dmg
}

// Session is the live encounter.
type Session struct {
	id     string
	state  State
	player Combatant
	enemy  Combatant
	log    []string
	logged int // messages ever appended
	guard  bool
	epoch  uint64
	rng    *RNG
	sched  *schedule.Queue
}

// NewSession returns an idle session that schedules enemy turns on sched.
func NewSession(rng *RNG, sched *schedule.Queue) *Session {
	return &Session{state: Idle, rng: rng, sched: sched}
}

// Start begins an encounter. It fails if one is already running.
func (s *Session) Start(player, enemy Combatant) error {
	if s.state != Idle {
		return errs.Precondition("encounter already in progress")
	}
	s.teardown()
	s.id = uuid.NewString()
	s.player = player
	s.enemy = enemy
	s.log = nil
	s.guard = false
	s.state = PlayerTurn
	s.appendLog(fmt.Sprintf("A %s approaches!", enemy.Name))
	s.logger().Info("encounter started")
	return nil
}

// Attack strikes the enemy.
func (s *Session) Attack() error {
	if s.state != PlayerTurn {
		return errs.Precondition("cannot attack during %s", s.state)
	}
	dmg := Damage(s.player.Attack, s.enemy.Defense, false, s.rng)
	s.enemy.HP -= dmg
	s.appendLog(fmt.Sprintf("You slash %s for %d dmg.", s.enemy.Name, dmg))
	if s.resolve() {
		return nil
	}
	s.queueEnemyTurn()
	return nil
}

// Defend raises a guard consumed by the next enemy attack.
func (s *Session) Defend() error {
	if s.state != PlayerTurn {
		return errs.Precondition("cannot defend during %s", s.state)
	}
	s.guard = true
	s.appendLog("You brace for impact, raising aether shield.")
	s.queueEnemyTurn()
	return nil
}

// Retreat leaves the encounter without reward.
func (s *Session) Retreat() error {
	if s.state != PlayerTurn {
		return errs.Precondition("cannot retreat during %s", s.state)
	}
	s.appendLog("You disengage and fall back to the map.")
	s.logger().Info("player retreated")
	s.Abort()
	return nil
}

// Continue leaves a finished encounter.
func (s *Session) Continue() error {
	if s.state != Victory && s.state != Defeat {
		return errs.Precondition("encounter is not finished")
	}
	s.Abort()
	return nil
}

// Abort returns to idle from any state and discards a pending enemy turn.
func (s *Session) Abort() {
	s.teardown()
	s.state = Idle
	s.guard = false
}

// Heal restores up to amount HP to the player and returns how much was
// restored. Nothing happens outside an encounter or after defeat.
func (s *Session) Heal(amount int, source string) int {
	if s.state == Idle || s.state == Defeat || amount <= 0 {
		return 0
	}
	before := s.player.HP
	s.player.HP = min(s.player.MaxHP, s.player.HP+amount)
	healed := s.player.HP - before
	if healed > 0 {
		if source == "" {
			source = "Consumable"
		}
		s.appendLog(fmt.Sprintf("%s restores %d HP.", source, healed))
	}
	return healed
}

// Rescale applies new player stats mid-encounter, keeping the HP ratio.
func (s *Session) Rescale(stats Stats) {
	if s.state == Idle {
		return
	}
	ratio := 1.0
	if s.player.MaxHP > 0 {
		ratio = float64(s.player.HP) / float64(s.player.MaxHP)
	}
	s.player.apply(stats)
	s.player.HP = min(s.player.MaxHP, int(math.Round(float64(s.player.MaxHP)*ratio)))
}

func (s *Session) queueEnemyTurn() {
	s.state = EnemyTurn
	epoch := s.epoch
	s.sched.After(EnemyTurnDelay, epoch, func() { s.enemyTurn(epoch) })
}

func (s *Session) enemyTurn(epoch uint64) {
	if epoch != s.epoch || s.state != EnemyTurn {
		s.logger().WithField("stale_epoch", epoch).Debug("discarding stale enemy turn")
		return
	}
	dmg := Damage(s.enemy.Attack, s.player.Defense, s.guard, s.rng)
	s.guard = false
	s.player.HP -= dmg
	s.appendLog(fmt.Sprintf("%s strikes for %d dmg.", s.enemy.Name, dmg))
	if s.resolve() {
		return
	}
	s.state = PlayerTurn
}

func (s *Session) resolve() bool {
	if s.enemy.HP <= 0 {
		s.enemy.HP = 0
		s.state = Victory
		s.appendLog(fmt.Sprintf("You defeated the %s!", s.enemy.Name))
		s.logger().Info("encounter won")
		return true
	}
	if s.player.HP <= 0 {
		s.player.HP = 0
		s.state = Defeat
		s.appendLog("You were overwhelmed. Retreat to regroup.")
		s.logger().Info("encounter lost")
		return true
	}
	return false
}

func (s *Session) teardown() {
	s.sched.Cancel(s.epoch)
	s.epoch++
}

func (s *Session) appendLog(msg string) {
	s.logged++
	s.log = append([]string{msg}, s.log...)
	if len(s.log) > LogLimit {
		s.log = s.log[:LogLimit]
	}
}

func (s *Session) logger() *logrus.Entry {
	return logger.Log.WithFields(logrus.Fields{"encounter": s.id, "enemy": s.enemy.ID})
}

// LogSince returns, oldest first, the messages appended after the mark and
// a new mark. Messages pushed out of the bounded log are skipped.
func (s *Session) LogSince(mark int) ([]string, int) {
	n := min(s.logged-mark, len(s.log))
	out := make([]string, 0, max(n, 0))
	for i := n - 1; i >= 0; i-- {
		out = append(out, s.log[i])
	}
	return out, s.logged
}

// ID returns the encounter id.
func (s *Session) ID() string { return s.id }

// State returns the current state.
func (s *Session) State() State { return s.state }

// Active reports whether an encounter is running or awaiting Continue.
func (s *Session) Active() bool { return s.state != Idle }

// Player returns the player combatant.
func (s *Session) Player() Combatant { return s.player }

// Enemy returns the enemy combatant.
func (s *Session) Enemy() Combatant { return s.enemy }

// GuardActive reports whether the player is guarding.
func (s *Session) GuardActive() bool { return s.guard }

// Log returns the combat log, newest first.
func (s *Session) Log() []string { return append([]string(nil), s.log...) }
