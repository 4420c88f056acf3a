package sim

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	MapSize         = 25
	BaseSpeed       = 3.0  // cells per second
	SpeedStep       = 1.0  // added at each boost threshold
	HeadBufferCap   = 10   // max side of the head exclusion square
	FoodBufferSize  = 3    // side of the food exclusion square
	FoodHitDistance = 0.1  // planar distance that counts as eating
	MutationPeriod  = 5.0  // seconds between map mutations
	MutationBase    = 10   // cells sunk per mutation at t=0
	MutationGrowth  = 20.0 // one extra cell every MutationGrowth seconds
	MutationCap     = 25
	WarningDuration = 1.5 // seconds a cell flashes before moving
	MoveDuration    = 0.5 // seconds a cell takes to sink or rise
)

// BoostThresholds are the body counts at which the snake speeds up.
var BoostThresholds = []int{5, 10, 20, 30, 40}

// BufferAnchor selects where the occupancy exclusion squares are placed.
type BufferAnchor int

const (
	// AnchorEntity centres the squares on the head target and the food cell.
	AnchorEntity BufferAnchor = 0
	// AnchorOrigin pins both squares to grid corner (0,0), as the first
	// version of the game did.
	AnchorOrigin BufferAnchor = 1
)

func (a BufferAnchor) String() string {
	if a == AnchorOrigin {
		return "origin"
	}
	return "entity"
}

// ParseAnchor maps a flag value to a BufferAnchor.
func ParseAnchor(s string) (BufferAnchor, error) {
	switch s {
	case "", "entity":
		return AnchorEntity, nil
	case "origin":
		return AnchorOrigin, nil
	}
	return AnchorEntity, fmt.Errorf("unknown buffer anchor %q", s)
}

// Config holds the tunables of one session
type Config struct {
	MapSize         int
	StartPosition   mgl32.Vec3
	StartDirection  Direction
	BaseSpeed       float64
	SpeedStep       float64
	BoostThresholds []int

	MutationPeriod  float64
	MutationBase    int
	MutationGrowth  float64
	MutationCap     int
	WarningDuration float64
	MoveDuration    float64

	HeadBufferCap   int
	FoodBufferSize  int
	FoodHitDistance float64
	BufferAnchor    BufferAnchor

	// Seed feeds the session's random source. 0 picks a time based seed.
	Seed uint64
}

// DefaultStart is the centre cell of a size x size map
func DefaultStart(size int) mgl32.Vec3 {
	c := float32(size / 2)
	return mgl32.Vec3{c, 0, c}
}

// DefaultConfig returns the standard 25x25 game
func DefaultConfig() Config {
	return Config{
		MapSize:         MapSize,
		StartPosition:   DefaultStart(MapSize),
		StartDirection:  Up,
		BaseSpeed:       BaseSpeed,
		SpeedStep:       SpeedStep,
		BoostThresholds: append([]int(nil), BoostThresholds...),
		MutationPeriod:  MutationPeriod,
		MutationBase:    MutationBase,
		MutationGrowth:  MutationGrowth,
		MutationCap:     MutationCap,
		WarningDuration: WarningDuration,
		MoveDuration:    MoveDuration,
		HeadBufferCap:   HeadBufferCap,
		FoodBufferSize:  FoodBufferSize,
		FoodHitDistance: FoodHitDistance,
		BufferAnchor:    AnchorEntity,
	}
}

// Validate reports the first setting that would make the simulation meaningless
func (c Config) Validate() error {
	switch {
	case c.MapSize <= 0:
		return fmt.Errorf("map size must be positive, got %d", c.MapSize)
	case c.BaseSpeed <= 0:
		return fmt.Errorf("base speed must be positive, got %g", c.BaseSpeed)
	case c.SpeedStep < 0:
		return fmt.Errorf("speed step must not be negative, got %g", c.SpeedStep)
	case c.MutationPeriod <= 0:
		return fmt.Errorf("mutation period must be positive, got %g", c.MutationPeriod)
	case c.MutationGrowth <= 0:
		return fmt.Errorf("mutation growth interval must be positive, got %g", c.MutationGrowth)
	case c.WarningDuration < 0 || c.MoveDuration < 0:
		return fmt.Errorf("transition durations must not be negative")
	case c.StartDirection == DirNone:
		return fmt.Errorf("start direction must be set")
	case c.FoodHitDistance <= 0:
		return fmt.Errorf("food hit distance must be positive, got %g", c.FoodHitDistance)
	}
	if st := CoordOf(c.StartPosition); st.X < 0 || st.X >= c.MapSize || st.Z < 0 || st.Z >= c.MapSize {
		return fmt.Errorf("start cell %v is outside the %dx%d map", st, c.MapSize, c.MapSize)
	}
	return nil
}

// DeactivateCount is the number of cells a mutation sinks after elapsed seconds
func (c Config) DeactivateCount(elapsed float64) int {
	n := c.MutationBase + int(elapsed/c.MutationGrowth)
	if n > c.MutationCap {
		n = c.MutationCap
	}
	return n
}
