package sim

import "log"

// CellPhase is the transition state of a cell. A cell's walkable flag flips
// exactly once per transition, when Sinking or Rising completes.
type CellPhase int

const (
	PhaseIdle              CellPhase = iota
	PhaseDeactivateWarning           // flashing, still walkable
	PhaseSinking                     // moving down, still walkable
	PhaseSunk                        // obstacle, waiting for the next mutation
	PhaseReactivateWarning           // flashing, still an obstacle
	PhaseRising                      // moving up, still an obstacle
)

var phaseNames = [...]string{"idle", "deactivate-warning", "sinking", "sunk", "reactivate-warning", "rising"}

func (p CellPhase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// stepMutation advances running cell transitions and fires the repeating
// mutation timer. Long steps are split at each mutation so cells picked by
// one mutation age before the next one sees them.
func (s *Session) stepMutation(dt float64) {
	for {
		left := s.cfg.MutationPeriod - s.mutationTimer
		if dt < left {
			s.advanceCells(dt)
			s.mutationTimer += dt
			return
		}
		s.advanceCells(left)
		dt -= left
		s.mutationTimer = 0
		s.mutate()
	}
}

// mutate sinks a fresh random batch of empty cells and raises every cell
// sunk by an earlier batch. A deactivation still in flight has not flipped
// its cell yet, so it is cancelled back to plain ground instead.
func (s *Session) mutate() {
	var raise []CellID
	for i := range s.grid.cells {
		c := &s.grid.cells[i]
		switch c.Phase {
		case PhaseSunk:
			raise = append(raise, c.ID)
		case PhaseDeactivateWarning, PhaseSinking:
			c.Phase = PhaseIdle
			c.PhaseElapsed = 0
		}
	}

	want := s.cfg.DeactivateCount(s.elapsed)
	picked := chooseN(s.rng, s.EmptyCells(), want)
	if len(picked) == 0 && want > 0 {
		log.Printf("sim: no empty cell to deactivate")
		s.emit(Signal{Kind: SignalSpawnSkipped, Value: float64(want)})
	}
	for _, c := range picked {
		s.grid.setPhase(c.ID, PhaseDeactivateWarning)
		s.emit(Signal{Kind: SignalCellWarning, Cell: c.ID, Pos: c.Position()})
	}
	for _, id := range raise {
		s.grid.setPhase(id, PhaseReactivateWarning)
		s.emit(Signal{Kind: SignalCellWarning, Cell: id, Pos: s.grid.cells[id].Position()})
	}

	if s.food == nil {
		s.spawnFood()
	}
}

// advanceCells moves every transitioning cell through its phases, carrying
// leftover time into the next phase.
func (s *Session) advanceCells(dt float64) {
	for i := range s.grid.cells {
		c := &s.grid.cells[i]
		if c.Phase == PhaseIdle {
			continue
		}
		c.PhaseElapsed += dt
		for {
			limit, next := s.phaseLimit(c.Phase)
			if limit < 0 || c.PhaseElapsed < limit {
				break
			}
			left := c.PhaseElapsed - limit
			switch c.Phase {
			case PhaseSinking:
				c.Walkable = false
				s.emit(Signal{Kind: SignalCellDeactivated, Cell: c.ID, Pos: c.Position()})
			case PhaseRising:
				c.Walkable = true
				s.emit(Signal{Kind: SignalCellReactivated, Cell: c.ID, Pos: c.Position()})
			}
			c.Phase = next
			c.PhaseElapsed = left
			if next == PhaseIdle {
				c.PhaseElapsed = 0
				break
			}
		}
	}
}

// phaseLimit returns how long a phase lasts and what follows it.
// A negative limit means the phase only ends by outside action.
func (s *Session) phaseLimit(p CellPhase) (float64, CellPhase) {
	switch p {
	case PhaseDeactivateWarning:
		return s.cfg.WarningDuration, PhaseSinking
	case PhaseSinking:
		return s.cfg.MoveDuration, PhaseSunk
	case PhaseReactivateWarning:
		return s.cfg.WarningDuration, PhaseRising
	case PhaseRising:
		return s.cfg.MoveDuration, PhaseIdle
	}
	return -1, p
}
