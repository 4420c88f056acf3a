package main

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"snake-server/sim"
)

const (
	TickRate       = 60 // simulation frames per second
	BroadcastRate  = 30 // state broadcasts per second
	TickDuration   = time.Second / TickRate
	BroadcastEvery = TickRate / BroadcastRate
)

const maxPlayersPerSession = 20

var (
	errNotDriver     = errors.New("only the driver can start a run")
	errRunInProgress = errors.New("run already in progress")
)

// Broadcaster interface for sending messages to clients
type Broadcaster interface {
	SendJSON(msg interface{})
	SendBinary(data []byte)
}

// Game runs one snake session: a single driven snake, any number of
// spectators, and the menu / playing / result cycle around each run.
type Game struct {
	mu          sync.RWMutex
	id          string
	cfg         sim.Config
	run         *sim.Session
	match       MatchState
	players     map[string]*Player
	clients     map[string]Broadcaster // playerID -> client
	controllers map[string]Broadcaster // playerID -> phone controller
	driver      string
	nextSeq     int
	input       sim.Direction // latest press, consumed by the next frame
	tick        uint64
	running     bool
	stop        chan struct{}

	db        *DB
	analytics *Analytics
}

// NewGame creates a game waiting on the menu. A preview session is built
// right away so spectators see the board before the first run.
func NewGame(id string, cfg sim.Config, db *DB, analytics *Analytics) (*Game, error) {
	preview, err := sim.NewSession(cfg)
	if err != nil {
		return nil, err
	}
	return &Game{
		id:          id,
		cfg:         cfg,
		run:         preview,
		match:       NewMatchState(),
		players:     make(map[string]*Player),
		clients:     make(map[string]Broadcaster),
		controllers: make(map[string]Broadcaster),
		stop:        make(chan struct{}),
		db:          db,
		analytics:   analytics,
	}, nil
}

// Run starts the game loop
func (g *Game) Run() {
	g.mu.Lock()
	g.running = true
	g.mu.Unlock()

	ticker := time.NewTicker(TickDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.update()
		case <-g.stop:
			return
		}
	}
}

// Stop terminates the game loop
func (g *Game) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		g.running = false
		close(g.stop)
	}
}

// AddPlayer seats a new player. The first one in becomes the driver.
func (g *Game) AddPlayer(name string, authID int64) *Player {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.players) >= maxPlayersPerSession {
		return nil
	}

	g.nextSeq++
	p := NewPlayer(GenerateID(4), name, g.nextSeq)
	p.AuthPlayerID = authID
	if g.driver == "" {
		g.driver = p.ID
		p.Driver = true
	}
	g.players[p.ID] = p
	return p
}

// RemovePlayer removes a player and hands the snake to the longest-seated
// spectator if the driver left
func (g *Game) RemovePlayer(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.players, id)
	delete(g.clients, id)
	delete(g.controllers, id)

	if id != g.driver {
		return
	}
	g.driver = ""
	g.input = sim.DirNone
	next := oldestPlayer(g.players)
	if next == nil {
		return
	}
	next.Driver = true
	g.driver = next.ID
	if c, ok := g.clients[next.ID]; ok {
		c.SendJSON(Envelope{T: MsgWelcome, Data: g.welcome(next)})
	}
}

// SetClient associates a broadcaster with a player
func (g *Game) SetClient(playerID string, client Broadcaster) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clients[playerID] = client
}

// SetController attaches a phone controller to a player
func (g *Game) SetController(playerID string, ctrl Broadcaster) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.controllers[playerID] = ctrl
	if c, ok := g.clients[playerID]; ok {
		c.SendJSON(Envelope{T: MsgCtrlOn})
	}
}

// RemoveController detaches the phone controller of a player
func (g *Game) RemoveController(playerID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.controllers[playerID]; !ok {
		return
	}
	delete(g.controllers, playerID)
	if c, ok := g.clients[playerID]; ok {
		c.SendJSON(Envelope{T: MsgCtrlOff})
	}
}

// HasPlayer reports whether id is seated in this game
func (g *Game) HasPlayer(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.players[id]
	return ok
}

// DriverID returns the id of the player steering the snake
func (g *Game) DriverID() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.driver
}

// Welcome builds the welcome message for a seated player
func (g *Game) Welcome(playerID string) (WelcomeMsg, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	p, ok := g.players[playerID]
	if !ok {
		return WelcomeMsg{}, false
	}
	return g.welcome(p), true
}

func (g *Game) welcome(p *Player) WelcomeMsg {
	_, ctrl := g.controllers[p.ID]
	return WelcomeMsg{
		ID:       p.ID,
		Driver:   p.Driver,
		MapSize:  g.cfg.MapSize,
		Warning:  g.cfg.WarningDuration,
		Move:     g.cfg.MoveDuration,
		Phase:    int(g.match.Phase),
		Controls: ctrl,
	}
}

// HandleInput latches a direction press from the driver. Presses from
// anyone else are dropped.
func (g *Game) HandleInput(playerID string, dir sim.Direction) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if playerID != g.driver || !dir.Valid() {
		return false
	}
	g.input = dir
	return true
}

// HandleRestart starts a fresh run from the menu or the result screen
func (g *Game) HandleRestart(playerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if playerID != g.driver {
		return errNotDriver
	}
	if !g.match.CanStart() {
		return errRunInProgress
	}
	return g.startRun()
}

// PlayerCount returns the number of players
func (g *Game) PlayerCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.players)
}

// Phase returns the current session phase
func (g *Game) Phase() MatchPhase {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.match.Phase
}

func (g *Game) startRun() error {
	run, err := sim.NewSession(g.cfg)
	if err != nil {
		return err
	}
	g.run = run
	g.input = sim.DirNone
	g.match.Begin()
	g.broadcastPhase()
	g.track(EvtRunStart, nil)
	return nil
}

// update runs one game tick
func (g *Game) update() {
	g.mu.Lock()
	defer g.mu.Unlock()

	dt := 1.0 / float64(TickRate)
	g.tick++

	switch g.match.Phase {
	case PhasePlaying:
		g.step(dt)
	case PhaseResult:
		if g.match.Tick(dt) {
			g.broadcastPhase()
		}
	}

	if g.tick%BroadcastEvery == 0 {
		g.broadcastState()
	}
}

// step advances the running session by one frame and forwards its signals
func (g *Game) step(dt float64) {
	sigs := g.run.Update(dt, sim.Input{Turn: g.input})
	g.input = sim.DirNone

	if len(sigs) > 0 {
		out := make([]SignalMsg, 0, len(sigs))
		for _, s := range sigs {
			out = append(out, newSignalMsg(s))
			g.trackSignal(s)
		}
		g.broadcastMsg(Envelope{T: MsgSignals, Data: out})
	}

	if g.run.Ended() {
		g.finishRun()
	}
}

// finishRun persists the result and opens the result screen
func (g *Game) finishRun() {
	snake := g.run.Snake()
	r := RunResult{
		Score:    g.run.Score(),
		Length:   snake.Len(),
		Speed:    snake.Speed,
		Duration: g.run.Elapsed(),
		Cause:    g.run.Cause().String(),
	}
	g.match.End(r)
	g.track(EvtRunEnd, map[string]any{
		"score":    r.Score,
		"length":   r.Length,
		"duration": r.Duration,
		"cause":    r.Cause,
	})
	unlocked := g.recordRun(r)

	g.broadcastMsg(Envelope{T: MsgOver, Data: OverMsg{
		Score:        r.Score,
		Length:       r.Length,
		Speed:        r.Speed,
		Elapsed:      r.Duration,
		Clock:        FormatTime(r.Duration),
		Cause:        r.Cause,
		Best:         g.match.BestScore,
		Achievements: unlocked,
	}})
	g.broadcastPhase()
}

// recordRun stores the run and returns the names of newly unlocked
// achievements. Guest runs are kept without stats.
func (g *Game) recordRun(r RunResult) []string {
	if g.db == nil {
		return nil
	}
	authID := g.driverAuthID()
	if _, err := g.db.RecordRun(authID, g.id, r); err != nil {
		log.Printf("record run: %v", err)
	}
	if authID == 0 {
		return nil
	}
	if err := g.db.UpdateStatsAfterRun(authID, r); err != nil {
		log.Printf("update stats: %v", err)
		return nil
	}
	var names []string
	for _, a := range CheckAchievements(g.db, authID, r) {
		names = append(names, a.Name)
		g.track(EvtAchievement, map[string]any{"id": a.ID})
	}
	return names
}

func (g *Game) driverAuthID() int64 {
	if p, ok := g.players[g.driver]; ok {
		return p.AuthPlayerID
	}
	return 0
}

// trackSignal forwards the signals worth counting to analytics
func (g *Game) trackSignal(s sim.Signal) {
	switch s.Kind {
	case sim.SignalFoodConsumed:
		g.track(EvtFoodConsumed, map[string]any{"elapsed": g.run.Elapsed()})
	case sim.SignalSpeedBoosted:
		g.track(EvtSpeedBoost, map[string]any{"speed": s.Value})
	}
}

func (g *Game) track(evt string, data map[string]any) {
	if g.analytics == nil {
		return
	}
	var payload string
	if data != nil {
		if b, err := json.Marshal(data); err == nil {
			payload = string(b)
		}
	}
	g.analytics.Track(evt, g.driverAuthID(), g.id, payload)
}

// broadcastState sends the current snapshot to all clients as msgpack
func (g *Game) broadcastState() {
	if len(g.clients) == 0 {
		return
	}
	data, err := msgpack.Marshal(newStateFrame(g.run.Snapshot(), g.tick, g.match.Phase))
	if err != nil {
		log.Printf("msgpack state: %v", err)
		return
	}
	for _, client := range g.clients {
		client.SendBinary(data)
	}
}

func (g *Game) broadcastPhase() {
	g.broadcastMsg(Envelope{T: MsgPhase, Data: PhaseMsg{Phase: int(g.match.Phase), Timer: g.match.ResultTimer}})
}

// broadcastMsg sends a message to all clients in the session
func (g *Game) broadcastMsg(msg Envelope) {
	for _, client := range g.clients {
		client.SendJSON(msg)
	}
}
