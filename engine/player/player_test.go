package player

import (
	"math"
	"math/rand"
	"testing"
)

// wallAt blocks every point with x >= X.
type wallAt struct{ X float64 }

func (w wallAt) CollidesAt(x, _, radius float64) bool { return x+radius >= w.X }

// boxes blocks any sample inside one of the rectangles.
type boxes [][4]float64

func (b boxes) CollidesAt(x, y, radius float64) bool {
	for _, r := range b {
		if x+radius > r[0] && x-radius < r[2] && y+radius > r[1] && y-radius < r[3] {
			return true
		}
	}
	return false
}

func spawned(x, y float64) *Player {
	p := New()
	p.Radius = 6
	p.Place(x, y, 320, 320)
	return p
}

func TestUpdate_MovesAndFaces(t *testing.T) {
	p := spawned(100, 100)
	p.Update(0.1, NewIntents(MoveRight), nil, 320, 320)
	if math.Abs(p.X-116) > 1e-9 || p.Y != 100 {
		t.Fatalf("expected (116,100), got (%v,%v)", p.X, p.Y)
	}
	if p.Direction != Right || !p.Moving {
		t.Errorf("expected moving right, got %s moving=%v", p.Direction, p.Moving)
	}

	p.Update(0.1, NewIntents(MoveUp, MoveLeft), nil, 320, 320)
	if p.Direction != Left {
		t.Errorf("diagonal tie should face horizontally, got %s", p.Direction)
	}
}

func TestUpdate_ClampsStep(t *testing.T) {
	p := spawned(100, 100)
	p.Update(5, NewIntents(MoveDown), nil, 320, 320)
	if math.Abs(p.Y-116) > 1e-9 {
		t.Errorf("dt should clamp to %v, moved to y=%v", MaxStep, p.Y)
	}
}

func TestUpdate_SprintDrains(t *testing.T) {
	p := spawned(50, 160)
	p.Stamina = 13
	held := NewIntents(MoveRight, Sprint)
	p.Update(0.1, held, nil, 320, 320)
	if !p.Sprinting {
		t.Fatal("expected sprinting above threshold")
	}
	if math.Abs(p.Stamina-9.2) > 1e-9 {
		t.Errorf("expected stamina 9.2, got %v", p.Stamina)
	}
	if math.Abs(p.X-74) > 1e-9 {
		t.Errorf("expected sprint distance 24, got x=%v", p.X)
	}

	p.Update(0.1, held, nil, 320, 320)
	if p.Sprinting {
		t.Error("sprint should not be eligible below threshold")
	}
	if math.Abs(p.Stamina-(9.2+2.4*MovingRegenScale)) > 1e-9 {
		t.Errorf("walking should regen at the moving rate, got %v", p.Stamina)
	}
	if !held.Has(Sprint) {
		t.Error("sprint should stay held while stamina is above zero")
	}
}

func TestUpdate_SprintReleasedAtZero(t *testing.T) {
	p := spawned(50, 160)
	p.Stamina = 0
	held := NewIntents(MoveRight, Sprint)
	p.Update(0, held, nil, 320, 320)
	if held.Has(Sprint) {
		t.Error("sprint intent should be released at zero stamina")
	}
	if !held.Has(MoveRight) {
		t.Error("directional intents should stay held")
	}
}

func TestUpdate_Regen(t *testing.T) {
	tests := []struct {
		name string
		held Intents
		want float64
	}{
		{"standing", NewIntents(), 50 + 2.4},
		{"walking", NewIntents(MoveDown), 50 + 2.4*MovingRegenScale},
		{"resting", NewIntents(Rest), 50 + 2.4*RestRegenScale},
		{"rest while moving walks", NewIntents(Rest, MoveDown), 50 + 2.4*MovingRegenScale},
	}
	for _, tt := range tests {
		p := spawned(100, 100)
		p.Stamina = 50
		p.Update(0.1, tt.held, nil, 320, 320)
		if math.Abs(p.Stamina-tt.want) > 1e-9 {
			t.Errorf("%s: stamina = %v, want %v", tt.name, p.Stamina, tt.want)
		}
	}

	p := spawned(100, 100)
	p.Stamina = 50
	p.Update(0.1, NewIntents(MoveRight, Sprint), wallAt{X: 107}, 320, 320)
	if p.X != 100 || p.Moving || p.Sprinting {
		t.Errorf("pinned against a wall: x=%v moving=%v sprinting=%v", p.X, p.Moving, p.Sprinting)
	}
	if math.Abs(p.Stamina-52.4) > 1e-9 {
		t.Errorf("pinned against a wall should regen at the standing rate, got %v", p.Stamina)
	}

	p = spawned(100, 100)
	p.Update(0.1, NewIntents(Rest), nil, 320, 320)
	if !p.Resting || p.X != 100 || p.Y != 100 {
		t.Errorf("rest should suppress movement, got resting=%v at (%v,%v)", p.Resting, p.X, p.Y)
	}
	if p.Stamina != MaxStamina {
		t.Errorf("stamina should cap at max, got %v", p.Stamina)
	}
}

func TestUpdate_WallSlide(t *testing.T) {
	p := spawned(100, 100)
	wall := wallAt{X: 110}
	p.Update(0.1, NewIntents(MoveRight, MoveDown), wall, 320, 320)
	if p.X != 100 {
		t.Errorf("x should be blocked by wall, got %v", p.X)
	}
	if p.Y <= 100 {
		t.Errorf("y should slide along wall, got %v", p.Y)
	}
	if wall.CollidesAt(p.X, p.Y, p.Radius) {
		t.Error("committed position collides")
	}
}

func TestUpdate_NeverLeavesBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	all := []Intent{MoveUp, MoveDown, MoveLeft, MoveRight, Sprint, Rest}
	obstacles := boxes{{60, 60, 120, 90}, {200, 10, 230, 300}}
	p := spawned(20, 20)
	const w, h = 320.0, 240.0
	for i := 0; i < 5000; i++ {
		held := NewIntents()
		for _, in := range all {
			if rng.Intn(3) == 0 {
				held.Put(in)
			}
		}
		dt := rng.Float64() * 0.3
		p.Update(dt, held, obstacles, w, h)
		if p.X < p.Radius || p.X > w-p.Radius || p.Y < p.Radius || p.Y > h-p.Radius {
			t.Fatalf("step %d: player left bounds at (%v,%v)", i, p.X, p.Y)
		}
		if obstacles.CollidesAt(p.X, p.Y, p.Radius) {
			t.Fatalf("step %d: committed move into blocked terrain at (%v,%v)", i, p.X, p.Y)
		}
		if p.Stamina < 0 || p.Stamina > p.MaxStamina {
			t.Fatalf("step %d: stamina out of range: %v", i, p.Stamina)
		}
	}
}

func TestUpdate_Deterministic(t *testing.T) {
	script := []struct {
		dt   float64
		held []Intent
	}{
		{0.016, []Intent{MoveRight}},
		{0.05, []Intent{MoveRight, Sprint}},
		{0.2, []Intent{MoveDown, MoveLeft}},
		{0.033, []Intent{Rest}},
		{0.016, nil},
	}
	run := func() Player {
		p := spawned(150, 150)
		for _, s := range script {
			p.Update(s.dt, NewIntents(s.held...), wallAt{X: 170}, 320, 320)
		}
		return *p
	}
	if a, b := run(), run(); a != b {
		t.Errorf("same inputs produced different states:\n%+v\n%+v", a, b)
	}
}

func TestAnimation(t *testing.T) {
	p := spawned(100, 100)
	if p.AnimFrame != IdleFrame {
		t.Fatalf("standing should show frame %d, got %d", IdleFrame, p.AnimFrame)
	}
	p.Update(0.1, NewIntents(MoveRight), nil, 320, 320)
	if p.AnimFrame != 0 {
		t.Fatalf("first step should restart the cycle at frame 0, got %d", p.AnimFrame)
	}
	p.Update(0.05, NewIntents(MoveRight), nil, 320, 320)
	if p.AnimFrame != 1 {
		t.Errorf("expected frame 1 after one cadence, got %d", p.AnimFrame)
	}
	p.Update(0.1, NewIntents(), nil, 320, 320)
	if p.AnimFrame != IdleFrame {
		t.Errorf("idle should show frame %d, got %d", IdleFrame, p.AnimFrame)
	}
}

func TestAnimation_RestartsAfterStop(t *testing.T) {
	p := spawned(100, 100)
	for i := 0; i < 3; i++ {
		p.Update(0.1, NewIntents(MoveDown), nil, 320, 320)
	}
	p.Update(0.05, NewIntents(), nil, 320, 320)
	p.Update(0.01, NewIntents(MoveDown), nil, 320, 320)
	if p.AnimFrame != 0 || math.Abs(p.AnimTime-0.01) > 1e-9 {
		t.Errorf("restart should begin at frame 0, got frame %d time %v", p.AnimFrame, p.AnimTime)
	}

	wall := wallAt{X: 107}
	p = spawned(100, 100)
	p.Update(0.1, NewIntents(MoveRight), wall, 320, 320)
	if p.Moving || p.AnimFrame != IdleFrame {
		t.Errorf("blocked step should stay idle, got moving=%v frame %d", p.Moving, p.AnimFrame)
	}
}

func TestIdle(t *testing.T) {
	p := spawned(100, 100)
	p.Stamina = 10
	p.Idle(0.1)
	if math.Abs(p.Stamina-12.4) > 1e-9 || p.X != 100 || p.Y != 100 {
		t.Errorf("idle should regen at base rate without moving, got stamina %v at (%v,%v)", p.Stamina, p.X, p.Y)
	}
}

func TestRadiusAndSpeed(t *testing.T) {
	if got := RadiusForTiles(32, 32); got != 14 {
		t.Errorf("RadiusForTiles(32,32) = %v", got)
	}
	if got := RadiusForTiles(8, 16); got != 4 {
		t.Errorf("RadiusForTiles(8,16) = %v", got)
	}
	if got := SpeedFor(20); got != 180 {
		t.Errorf("SpeedFor(20) = %v", got)
	}
}

func TestParse(t *testing.T) {
	if ParseDirection("left") != Left || ParseDirection("sideways") != Down {
		t.Error("ParseDirection mismatch")
	}
	if _, ok := ParseIntent("jump"); ok {
		t.Error("unknown intent should not parse")
	}
	if in, ok := ParseIntent("sprint"); !ok || in != Sprint {
		t.Error("sprint should parse")
	}
}
