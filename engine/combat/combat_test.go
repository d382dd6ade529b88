package combat

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nathoo/amgis/engine/errs"
	"github.com/nathoo/amgis/engine/schedule"
	"github.com/nathoo/amgis/logger"
	"github.com/nathoo/amgis/types"
)

func newSession(seed int64) (*Session, *schedule.Queue) {
	logger.Silence()
	q := schedule.New()
	return NewSession(NewRNG(seed), q), q
}

func scenario() (Combatant, Combatant) {
	player := PlayerCombatant("Ash", "", Stats{MaxHP: 90, Attack: 12, Defense: 4, Speed: 12})
	enemy := CloneEnemy(types.Enemy{ID: "wolf", Name: "Wolf", HP: 30, Attack: 8, Defense: 2, Speed: 9})
	return player, enemy
}

func TestDamage_AlwaysPositive(t *testing.T) {
	rng := NewRNG(3)
	tests := []struct {
		attack, defense int
		guarded         bool
		lo, hi          int
	}{
		{12, 2, false, 10, 13},
		{1, 50, false, 1, 1},
		{0, 0, true, 1, 1},
		{20, 4, true, 10, 13},
		{-5, 3, false, 1, 1},
	}
	for _, tt := range tests {
		for i := 0; i < 200; i++ {
			d := Damage(tt.attack, tt.defense, tt.guarded, rng)
			if d < tt.lo || d > tt.hi {
				t.Fatalf("Damage(%d,%d,%v) = %d, want [%d,%d]", tt.attack, tt.defense, tt.guarded, d, tt.lo, tt.hi)
			}
		}
	}
}

func TestScenario_ThreeAttacksWin(t *testing.T) {
	for seed := int64(0); seed < 25; seed++ {
		s, q := newSession(seed)
		player, enemy := scenario()
		if err := s.Start(player, enemy); err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 3 && s.State() == PlayerTurn; i++ {
			before := s.Enemy().HP
			if err := s.Attack(); err != nil {
				t.Fatalf("seed %d attack %d: %v", seed, i, err)
			}
			// A killing blow clamps HP at zero, so only earlier hits show the full roll.
			if dealt := before - s.Enemy().HP; dealt < 6 && s.Enemy().HP != 0 {
				t.Fatalf("seed %d attack %d dealt %d", seed, i, dealt)
			}
			q.Advance(EnemyTurnDelay)
		}
		if s.State() != Victory || s.Enemy().HP != 0 {
			t.Fatalf("seed %d: state %s enemy hp %d", seed, s.State(), s.Enemy().HP)
		}
	}
}

func TestEnemyTurn_Delay(t *testing.T) {
	s, q := newSession(1)
	s.Start(scenario())
	s.Attack()
	if s.State() != EnemyTurn {
		t.Fatalf("expected enemy-turn, got %s", s.State())
	}
	q.Advance(EnemyTurnDelay - time.Millisecond)
	if s.State() != EnemyTurn || s.Player().HP != 90 {
		t.Fatal("enemy should not act before the delay")
	}
	q.Advance(time.Millisecond)
	if s.State() != PlayerTurn {
		t.Fatalf("expected player-turn, got %s", s.State())
	}
	if hp := s.Player().HP; hp < 90-7 || hp > 90-4 {
		t.Errorf("unexpected player hp %d", hp)
	}
}

func TestDefend_GuardConsumed(t *testing.T) {
	s, q := newSession(2)
	s.Start(scenario())
	s.Defend()
	if !s.GuardActive() {
		t.Fatal("guard should be raised")
	}
	q.Advance(EnemyTurnDelay)
	if s.GuardActive() {
		t.Error("guard should be consumed by the enemy attack")
	}
	// 8 + [0,3] - 4 - 6 floors at 1.
	if hp := s.Player().HP; hp != 89 {
		t.Errorf("guarded hit should deal 1, player hp %d", hp)
	}
}

func TestActions_RejectedOutOfTurn(t *testing.T) {
	s, _ := newSession(1)
	if err := s.Attack(); !errors.Is(err, errs.ErrPrecondition) {
		t.Errorf("attack while idle: %v", err)
	}
	s.Start(scenario())
	s.Attack()
	for name, act := range map[string]func() error{"attack": s.Attack, "defend": s.Defend, "retreat": s.Retreat, "continue": s.Continue} {
		if err := act(); !errors.Is(err, errs.ErrPrecondition) {
			t.Errorf("%s during enemy-turn: %v", name, err)
		}
	}
	if err := s.Start(scenario()); !errors.Is(err, errs.ErrPrecondition) {
		t.Errorf("starting over a live encounter: %v", err)
	}
}

func TestStaleEnemyTurnDiscarded(t *testing.T) {
	s, q := newSession(4)
	s.Start(scenario())
	s.Attack()
	if s.State() != EnemyTurn {
		t.Fatalf("expected enemy-turn, got %s", s.State())
	}
	firstID := s.ID()

	s.Abort()
	player, _ := scenario()
	fresh := CloneEnemy(types.Enemy{ID: "bat", Name: "Bat", HP: 20, Attack: 50})
	if err := s.Start(player, fresh); err != nil {
		t.Fatal(err)
	}
	if s.ID() == firstID {
		t.Error("new encounter should have a new id")
	}
	q.Advance(10 * EnemyTurnDelay)
	if s.State() != PlayerTurn || s.Player().HP != player.MaxHP {
		t.Errorf("stale enemy turn leaked: state %s hp %d", s.State(), s.Player().HP)
	}
	if log := s.Log(); len(log) != 1 || !strings.Contains(log[0], "Bat") {
		t.Errorf("unexpected log %v", log)
	}
}

func TestStaleCallbackWithoutCancel(t *testing.T) {
	s, q := newSession(4)
	s.Start(scenario())
	s.Attack()
	// Bypass the queue cancellation: only the epoch check protects the session.
	s.epoch++
	s.state = PlayerTurn
	q.Advance(EnemyTurnDelay)
	if s.Player().HP != 90 {
		t.Errorf("stale callback applied damage, hp %d", s.Player().HP)
	}
}

func TestRetreatAndContinue(t *testing.T) {
	s, q := newSession(5)
	s.Start(scenario())
	if err := s.Retreat(); err != nil {
		t.Fatal(err)
	}
	if s.State() != Idle || s.Active() {
		t.Errorf("retreat should return to idle, got %s", s.State())
	}

	player, _ := scenario()
	weak := CloneEnemy(types.Enemy{Name: "Rat", HP: 1})
	s.Start(player, weak)
	s.Attack()
	if s.State() != Victory {
		t.Fatalf("expected victory, got %s", s.State())
	}
	q.Advance(time.Second)
	if err := s.Continue(); err != nil || s.State() != Idle {
		t.Errorf("continue: %v, state %s", err, s.State())
	}
}

func TestDefeat(t *testing.T) {
	s, q := newSession(6)
	player := PlayerCombatant("", "", Stats{MaxHP: 5, Attack: 1, Defense: 0, Speed: 1})
	brute := CloneEnemy(types.Enemy{Name: "Ogre", HP: 500, Attack: 40, Defense: 10})
	s.Start(player, brute)
	s.Attack()
	q.Advance(EnemyTurnDelay)
	if s.State() != Defeat || s.Player().HP != 0 {
		t.Errorf("expected defeat at 0 hp, got %s %d", s.State(), s.Player().HP)
	}
	if s.Heal(10, "Tonic") != 0 {
		t.Error("healing after defeat should do nothing")
	}
}

func TestLogBounded(t *testing.T) {
	s, q := newSession(7)
	player := PlayerCombatant("", "", Stats{MaxHP: 1000, Attack: 1, Defense: 100, Speed: 1})
	s.Start(player, CloneEnemy(types.Enemy{Name: "Golem", HP: 1000, Attack: 1, Defense: 100}))
	for i := 0; i < 20; i++ {
		s.Attack()
		q.Advance(EnemyTurnDelay)
	}
	log := s.Log()
	if len(log) != LogLimit {
		t.Fatalf("log length %d", len(log))
	}
	if !strings.HasPrefix(log[0], "Golem strikes") {
		t.Errorf("newest entry should be first, got %q", log[0])
	}
}

func TestLogSince(t *testing.T) {
	s, q := newSession(9)
	s.Start(scenario())
	msgs, mark := s.LogSince(0)
	if len(msgs) != 1 || msgs[0] != "A Wolf approaches!" {
		t.Fatalf("first batch = %q", msgs)
	}
	s.Attack()
	q.Advance(EnemyTurnDelay)
	msgs, mark = s.LogSince(mark)
	if len(msgs) != 2 || !strings.HasPrefix(msgs[0], "You slash") || !strings.HasPrefix(msgs[1], "Wolf strikes") {
		t.Errorf("second batch = %q", msgs)
	}
	if msgs, _ := s.LogSince(mark); len(msgs) != 0 {
		t.Errorf("nothing new expected, got %q", msgs)
	}
}

func TestHealAndRescale(t *testing.T) {
	s, q := newSession(8)
	s.Start(scenario())
	s.Attack()
	q.Advance(EnemyTurnDelay)
	hurt := s.Player().HP
	if healed := s.Heal(100, "Tonic"); healed != 90-hurt || s.Player().HP != 90 {
		t.Errorf("heal should cap at max: healed %d hp %d", healed, s.Player().HP)
	}
	if !strings.Contains(s.Log()[0], "Tonic restores") {
		t.Errorf("heal not logged: %v", s.Log())
	}

	s.player.HP = 45
	s.Rescale(Stats{MaxHP: 120, Attack: 15, Defense: 6, Speed: 12})
	p := s.Player()
	if p.MaxHP != 120 || p.HP != 60 || p.Attack != 15 {
		t.Errorf("rescale should keep the hp ratio, got %+v", p)
	}
}

func TestCloneEnemyDefaults(t *testing.T) {
	e := CloneEnemy(types.Enemy{})
	if e.Name != "Unknown Foe" || e.MaxHP != 1 || e.HP != 1 || e.Attack != 1 || e.Speed != 1 || e.Threat != "???" {
		t.Errorf("unexpected defaults %+v", e)
	}
	base := BaseStats.Plus(Stats{Attack: 3, MaxHP: 10})
	if base != (Stats{MaxHP: 100, Attack: 15, Defense: 4, Speed: 12}) {
		t.Errorf("Plus = %+v", base)
	}
}
