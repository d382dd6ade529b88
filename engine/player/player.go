// Package player integrates avatar movement, the sprint/rest stamina
// economy, facing and the walk-cycle animation.
package player

import (
	"math"

	"github.com/zyedidia/generic/mapset"
)

// Direction is the facing of the avatar sprite.
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

// ParseDirection returns the direction named by s, or Down if unknown.
func ParseDirection(s string) Direction {
	switch Direction(s) {
	case Up, Down, Left, Right:
		return Direction(s)
	}
	return Down
}

// Intent is a held input.
type Intent string

const (
	MoveUp    Intent = "up"
	MoveDown  Intent = "down"
	MoveLeft  Intent = "left"
	MoveRight Intent = "right"
	Sprint    Intent = "sprint"
	Rest      Intent = "rest"
)

// ParseIntent maps a name to an intent.
func ParseIntent(s string) (Intent, bool) {
	switch Intent(s) {
	case MoveUp, MoveDown, MoveLeft, MoveRight, Sprint, Rest:
		return Intent(s), true
	}
	return "", false
}

// Intents is the set of currently held inputs.
type Intents = mapset.Set[Intent]

// NewIntents returns a set holding the given intents.
func NewIntents(held ...Intent) Intents {
	return mapset.Of(held...)
}

// Movement and stamina tuning.
const (
	BaseSpeed          = 160.0
	SprintMultiplier   = 1.5
	SprintThreshold    = 12.0
	MaxStamina         = 100.0
	StaminaDrain       = 38.0
	StaminaRegen       = 24.0
	MovingRegenScale   = 0.55
	RestRegenScale     = 2.6
	MaxStep            = 0.1
	moveEpsilon        = 0.001
	FrameCount         = 3
	IdleFrame          = 1
	MovingFrameSeconds = 0.12
	IdleFrameSeconds   = 0.38
	minFrameSeconds    = 0.05
)

// Collider answers whether a circle at (x, y) overlaps blocked terrain.
type Collider interface {
	CollidesAt(x, y, radius float64) bool
}

// Player is the avatar state mutated every tick.
type Player struct {
	X, Y       float64
	Radius     float64
	Speed      float64
	Sprinting  bool
	Resting    bool
	Moving     bool
	Stamina    float64
	MaxStamina float64
	Spawned    bool
	Direction  Direction
	AnimFrame  int
	AnimTime   float64
}

// New returns an unspawned player at full stamina.
func New() *Player {
	return &Player{
		Speed:      BaseSpeed,
		Stamina:    MaxStamina,
		MaxStamina: MaxStamina,
		Direction:  Down,
		AnimFrame:  IdleFrame,
	}
}

// RadiusForTiles is the collision radius used for a map's tile size.
func RadiusForTiles(tileW, tileH int) float64 {
	return math.Max(4, float64(min(tileW, tileH))/2-2)
}

// SpeedFor returns the walking speed with an equipment movement bonus.
func SpeedFor(movementBonus float64) float64 {
	return math.Max(0, BaseSpeed+movementBonus)
}

// Place puts the player at (x, y) clamped to the map and marks it spawned.
func (p *Player) Place(x, y, mapW, mapH float64) {
	p.X, p.Y = x, y
	p.Clamp(mapW, mapH)
	p.Spawned = true
}

// Clamp keeps the player's centre within [Radius, dim-Radius] on both axes.
func (p *Player) Clamp(mapW, mapH float64) {
	p.X = clampAxis(p.X, p.Radius, mapW)
	p.Y = clampAxis(p.Y, p.Radius, mapH)
}

// Update advances the player by dt seconds. It releases the sprint intent
// from held when stamina runs out.
func (p *Player) Update(dt float64, held Intents, world Collider, mapW, mapH float64) {
	dt = clampStep(dt)

	var dx, dy float64
	if held.Has(MoveLeft) {
		dx--
	}
	if held.Has(MoveRight) {
		dx++
	}
	if held.Has(MoveUp) {
		dy--
	}
	if held.Has(MoveDown) {
		dy++
	}
	directional := dx != 0 || dy != 0

	p.Resting = held.Has(Rest) && !directional
	if p.Resting {
		dx, dy = 0, 0
	}
	if length := math.Hypot(dx, dy); length > 0 {
		dx /= length
		dy /= length
	}
	moving := dx != 0 || dy != 0

	sprint := moving && held.Has(Sprint) && p.Stamina > SprintThreshold
	speed := p.Speed
	if sprint {
		speed *= SprintMultiplier
	}

	wasMoving := p.Moving
	p.Moving = false
	if moving {
		nx := clampAxis(p.X+dx*speed*dt, p.Radius, mapW)
		if math.Abs(nx-p.X) > moveEpsilon && !collides(world, nx, p.Y, p.Radius) {
			p.X = nx
			p.Moving = true
		}
		ny := clampAxis(p.Y+dy*speed*dt, p.Radius, mapH)
		if math.Abs(ny-p.Y) > moveEpsilon && !collides(world, p.X, ny, p.Radius) {
			p.Y = ny
			p.Moving = true
		}
		p.Direction = facing(dx, dy, p.Direction)
	}

	// Stamina follows committed motion: pushing into a wall neither
	// sprints nor slows regen.
	p.Sprinting = sprint && p.Moving
	if p.Sprinting {
		p.Stamina = math.Max(0, p.Stamina-StaminaDrain*dt)
	} else {
		regen := StaminaRegen
		if p.Moving {
			regen *= MovingRegenScale
		}
		if p.Resting {
			regen *= RestRegenScale
		}
		p.Stamina = math.Min(p.MaxStamina, p.Stamina+regen*dt)
	}
	if p.Stamina <= 0 && held.Has(Sprint) {
		held.Remove(Sprint)
	}

	if p.Moving && !wasMoving {
		p.AnimFrame, p.AnimTime = 0, 0
	}
	p.animate(dt)
}

// Idle advances stamina and animation only. Used while dialogue, overlays or
// combat freeze movement.
func (p *Player) Idle(dt float64) {
	dt = clampStep(dt)
	p.Moving, p.Sprinting, p.Resting = false, false, false
	p.Stamina = math.Min(p.MaxStamina, p.Stamina+StaminaRegen*dt)
	p.animate(dt)
}

func (p *Player) animate(dt float64) {
	if !p.Moving {
		p.AnimTime += dt
		if p.AnimTime >= IdleFrameSeconds {
			p.AnimTime = 0
		}
		p.AnimFrame = IdleFrame
		return
	}
	cadence := MovingFrameSeconds
	if p.Sprinting {
		cadence = math.Max(minFrameSeconds, cadence/SprintMultiplier)
	}
	p.AnimTime += dt
	if p.AnimTime >= cadence {
		p.AnimTime -= cadence
		p.AnimFrame = (p.AnimFrame + 1) % FrameCount
	}
}

func facing(dx, dy float64, current Direction) Direction {
	switch {
	case dx == 0 && dy == 0:
		return current
	case math.Abs(dx) >= math.Abs(dy):
		if dx < 0 {
			return Left
		}
		return Right
	case dy < 0:
		return Up
	default:
		return Down
	}
}

func collides(world Collider, x, y, radius float64) bool {
	return world != nil && world.CollidesAt(x, y, radius)
}

func clampAxis(v, radius, dim float64) float64 {
	hi := dim - radius
	if hi < radius {
		return dim / 2
	}
	return math.Min(math.Max(v, radius), hi)
}

func clampStep(dt float64) float64 {
	if math.IsNaN(dt) || dt < 0 {
		return 0
	}
	return math.Min(dt, MaxStep)
}
