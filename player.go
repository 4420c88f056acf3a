package main

// Player is a client seated in a session. One player drives the snake,
// the others watch.
type Player struct {
	ID           string
	Name         string
	AuthPlayerID int64 // 0 for guests
	Driver       bool
	joinedSeq    int
}

// NewPlayer creates a spectator; the game promotes drivers
func NewPlayer(id, name string, seq int) *Player {
	return &Player{
		ID:        id,
		Name:      name,
		joinedSeq: seq,
	}
}

// oldestPlayer returns the longest-seated player, nil when there is none
func oldestPlayer(players map[string]*Player) *Player {
	var oldest *Player
	for _, p := range players {
		if oldest == nil || p.joinedSeq < oldest.joinedSeq {
			oldest = p
		}
	}
	return oldest
}
