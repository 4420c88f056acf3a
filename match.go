package main

import "time"

// MatchPhase represents the lifecycle of a run inside a session
type MatchPhase int

const (
	PhaseWaiting MatchPhase = 0 // menu, no run in progress
	PhasePlaying MatchPhase = 1
	PhaseResult  MatchPhase = 2 // game-over screen, counts down to PhaseWaiting
)

func (p MatchPhase) String() string {
	switch p {
	case PhasePlaying:
		return "playing"
	case PhaseResult:
		return "result"
	}
	return "waiting"
}

// ResultDuration is how long the game-over screen stays up. Tests shorten it.
var ResultDuration = 5 * time.Second

// RunResult is the outcome of one finished run
type RunResult struct {
	Score    int
	Length   int
	Speed    float64
	Duration float64 // seconds
	Cause    string
}

// MatchState tracks the phase of a session and its run history
type MatchState struct {
	Phase       MatchPhase
	ResultTimer float64
	Runs        int
	BestScore   int
	Last        *RunResult
}

// NewMatchState creates a session waiting on the menu
func NewMatchState() MatchState {
	return MatchState{Phase: PhaseWaiting}
}

// CanStart reports whether a new run may begin
func (ms *MatchState) CanStart() bool {
	return ms.Phase != PhasePlaying
}

// Begin moves to PhasePlaying
func (ms *MatchState) Begin() {
	ms.Phase = PhasePlaying
	ms.ResultTimer = 0
}

// End records a finished run and opens the result screen
func (ms *MatchState) End(r RunResult) {
	ms.Phase = PhaseResult
	ms.ResultTimer = ResultDuration.Seconds()
	ms.Runs++
	if r.Score > ms.BestScore {
		ms.BestScore = r.Score
	}
	ms.Last = &r
}

// Tick counts down the result screen and reports whether the phase
// changed back to PhaseWaiting
func (ms *MatchState) Tick(dt float64) bool {
	if ms.Phase != PhaseResult {
		return false
	}
	ms.ResultTimer -= dt
	if ms.ResultTimer > 0 {
		return false
	}
	ms.Phase = PhaseWaiting
	ms.ResultTimer = 0
	return true
}
