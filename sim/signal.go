package sim

import "github.com/go-gl/mathgl/mgl32"

// SignalKind tags a signal returned from Session.Update
type SignalKind int

const (
	SignalFoodSpawned SignalKind = iota
	SignalFoodConsumed
	SignalSegmentGrown
	SignalCellWarning
	SignalCellDeactivated
	SignalCellReactivated
	SignalGameOver
	SignalScoreIncremented
	SignalSpeedBoosted
	SignalDirectionRejected
	SignalSpawnSkipped
)

var signalNames = [...]string{
	"food-spawned",
	"food-consumed",
	"segment-grown",
	"cell-warning",
	"cell-deactivated",
	"cell-reactivated",
	"game-over",
	"score-incremented",
	"speed-boosted",
	"direction-rejected",
	"spawn-skipped",
}

func (k SignalKind) String() string {
	if k < 0 || int(k) >= len(signalNames) {
		return "unknown"
	}
	return signalNames[k]
}

// DeathCause says which termination rule ended the session
type DeathCause int

const (
	CauseNone DeathCause = iota
	CauseOutOfBounds
	CauseHeadObstacle
	CauseSelfCollision
	CauseBodyObstacle
)

var causeNames = [...]string{"", "out-of-bounds", "head-obstacle", "self-collision", "body-obstacle"}

func (c DeathCause) String() string {
	if c < 0 || int(c) >= len(causeNames) {
		return "unknown"
	}
	return causeNames[c]
}

// Signal is one outbound event for the presentation layer.
// Only the fields relevant to Kind are set.
type Signal struct {
	Kind    SignalKind
	Cell    CellID     // cell signals
	Segment SegmentID  // segment-grown
	Pos     mgl32.Vec3 // food and segment positions
	Value   float64    // score, speed, or requested cell count
	Cause   DeathCause // game-over
	Dir     Direction  // direction-rejected
}
