package sim

// Terminated evaluates the end-of-game rules against the committed cells of
// the head and body. It returns CauseNone while the run may continue.
func Terminated(g *Grid, snake *Snake) DeathCause {
	if g == nil || snake == nil {
		return CauseNone
	}
	head := snake.HeadCell()
	if !g.InBounds(head.X, head.Z) {
		return CauseOutOfBounds
	}
	if g.IsObstacle(head) {
		return CauseHeadObstacle
	}
	for _, id := range snake.Bodies {
		if CoordOf(snake.segments[id].Target) == head {
			return CauseSelfCollision
		}
	}
	for _, id := range snake.Bodies {
		if g.IsObstacle(CoordOf(snake.segments[id].Target)) {
			return CauseBodyObstacle
		}
	}
	return CauseNone
}

// CheckTermination runs the collision rules once. The first positive check
// ends the session and yields the only game-over signal it will ever emit;
// every later call returns nil.
func (s *Session) CheckTermination() []Signal {
	if s.ended {
		return nil
	}
	cause := Terminated(s.grid, s.snake)
	if cause == CauseNone {
		return nil
	}
	s.ended = true
	s.cause = cause
	return []Signal{{Kind: SignalGameOver, Cause: cause, Value: float64(s.score)}}
}
