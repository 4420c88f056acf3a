// Package sim is the grid-tick simulation of the snake game: movement,
// growth, collision, food placement and the shrinking map. It is frame
// stepped and single threaded; callers feed it frame deltas and direction
// requests and drain the signals each Update returns.
package sim

import (
	"log"
	"math/rand/v2"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// Input is what the player did during one frame
type Input struct {
	Turn Direction // DirNone when no direction was pressed
}

// Session is one run from spawn to game over. It is not safe for
// concurrent use.
type Session struct {
	cfg   Config
	rng   *rand.Rand
	grid  *Grid
	snake *Snake
	food  *Food

	elapsed       float64
	score         int
	mutationTimer float64
	ticks         uint64
	ended         bool
	cause         DeathCause

	out []Signal
}

// NewSession builds the grid, places the snake and spawns the first food.
// The food-spawned signal is returned by the first Update.
func NewSession(cfg Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	grid, err := NewGrid(cfg.MapSize)
	if err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	s := &Session{
		cfg:   cfg,
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		grid:  grid,
		snake: NewSnake(cfg.StartPosition, cfg.StartDirection, cfg.BaseSpeed),
	}
	s.spawnFood()
	return s, nil
}

// Update advances the session by dt seconds. Sub-steps always run in the
// same order: map mutation, movement, collision. Once the session has
// ended Update does nothing and returns nil.
func (s *Session) Update(dt float64, in Input) []Signal {
	if s.ended {
		return s.drain()
	}
	if dt < 0 {
		dt = 0
	}
	s.elapsed += dt

	if in.Turn != DirNone && !s.snake.RequestDirection(in.Turn) {
		s.emit(Signal{Kind: SignalDirectionRejected, Dir: in.Turn})
	}

	s.stepMutation(dt)
	s.stepMovement(dt)
	s.out = append(s.out, s.CheckTermination()...)
	return s.drain()
}

// stepMovement runs the snake state machine and resolves eating
func (s *Session) stepMovement(dt float64) {
	if !s.snake.advance(dt) {
		return
	}
	s.ticks++
	if s.food == nil {
		return
	}
	if planarDistance(s.snake.GridPosition, s.food.Position()) >= s.cfg.FoodHitDistance {
		return
	}
	s.emit(Signal{Kind: SignalFoodConsumed, Pos: s.food.Position()})
	s.food = nil
	s.growSnake()
	s.spawnFood()
}

// growSnake appends one segment, bumps the score and applies speed boosts
func (s *Session) growSnake() {
	seg := s.snake.grow()
	s.emit(Signal{Kind: SignalSegmentGrown, Segment: seg.ID, Pos: seg.Position, Value: float64(s.snake.Len())})
	s.score++
	s.emit(Signal{Kind: SignalScoreIncremented, Value: float64(s.score)})
	if s.snake.boost(s.cfg.BoostThresholds, s.cfg.SpeedStep) {
		s.emit(Signal{Kind: SignalSpeedBoosted, Value: s.snake.Speed})
	}
}

// spawnFood places food on a random empty cell, or reports that none exists
func (s *Session) spawnFood() {
	c, ok := chooseOne(s.rng, s.EmptyCells())
	if !ok {
		log.Printf("sim: no empty cell for food")
		s.emit(Signal{Kind: SignalSpawnSkipped, Value: 1})
		return
	}
	s.food = &Food{Pos: c.Pos, SpawnedAt: s.elapsed}
	s.emit(Signal{Kind: SignalFoodSpawned, Cell: c.ID, Pos: c.Position()})
}

func (s *Session) emit(sig Signal) {
	s.out = append(s.out, sig)
}

func (s *Session) drain() []Signal {
	out := s.out
	s.out = nil
	return out
}

// EmptyCells runs the occupancy query against the current state
func (s *Session) EmptyCells() []Cell {
	return EmptyCells(s.grid, s.snake, s.food, s.cfg)
}

// Config returns the settings the session was created with
func (s *Session) Config() Config { return s.cfg }

// Grid exposes the cell store (read it, don't mutate it mid-frame)
func (s *Session) Grid() *Grid { return s.grid }

// Snake exposes the player
func (s *Session) Snake() *Snake { return s.snake }

// Food returns the current food, false when none is on the map
func (s *Session) Food() (Food, bool) {
	if s.food == nil {
		return Food{}, false
	}
	return *s.food, true
}

// Elapsed is the session clock in seconds
func (s *Session) Elapsed() float64 { return s.elapsed }

// Score counts the food eaten this run
func (s *Session) Score() int { return s.score }

// Ticks counts grid commits of the head
func (s *Session) Ticks() uint64 { return s.ticks }

// Ended reports whether the run is over
func (s *Session) Ended() bool { return s.ended }

// Cause is why the run ended, CauseNone while it is running
func (s *Session) Cause() DeathCause { return s.cause }

const (
	foodBobPeriod    = 2.0 // seconds per bob cycle
	foodBobAmplitude = 0.5
)

// FoodBob is the vertical display offset of the food. Each food starts
// its bob from rest when it spawns; 0 when there is no food.
func (s *Session) FoodBob() float64 {
	if s.food == nil {
		return 0
	}
	age := s.elapsed - s.food.SpawnedAt
	return EaseInOutSine(age/foodBobPeriod) * foodBobAmplitude
}

// SegmentView is the render-facing state of one body segment
type SegmentView struct {
	ID       SegmentID
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Heading  mgl32.Vec3
}

// Snapshot is a copy of everything a renderer needs for one frame
type Snapshot struct {
	Head      mgl32.Vec3
	HeadCell  mgl32.Vec3
	Target    mgl32.Vec3
	Direction Direction
	Speed     float64
	Segments  []SegmentView
	Food      *mgl32.Vec3
	Cells     []Cell
	Score     int
	Elapsed   float64
	Ticks     uint64
	Ended     bool
	Cause     DeathCause
}

// Snapshot copies the current state for the presentation layer
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Head:      s.snake.Position,
		HeadCell:  s.snake.GridPosition,
		Target:    s.snake.TargetPosition,
		Direction: s.snake.Direction,
		Speed:     s.snake.Speed,
		Cells:     s.grid.AllCells(),
		Score:     s.score,
		Elapsed:   s.elapsed,
		Ticks:     s.ticks,
		Ended:     s.ended,
		Cause:     s.cause,
	}
	for _, seg := range s.snake.Segments() {
		snap.Segments = append(snap.Segments, SegmentView{
			ID:       seg.ID,
			Position: seg.Position,
			Target:   seg.Target,
			Heading:  seg.Heading(),
		})
	}
	if s.food != nil {
		p := s.food.Position()
		p[1] = float32(s.FoodBob())
		snap.Food = &p
	}
	return snap
}
