package main

import (
	"encoding/json"

	"snake-server/sim"
)

// Client -> Server message types
const (
	MsgJoin        = "join"
	MsgLeave       = "leave"
	MsgInput       = "input"
	MsgRestart     = "restart" // start a run from the menu or the result screen
	MsgCreate      = "create"  // create session
	MsgList        = "list"    // list sessions
	MsgCheck       = "check"   // check if session exists
	MsgControl     = "control" // phone controller attach
	MsgRegister    = "register"
	MsgLogin       = "login"
	MsgAuth        = "auth"
	MsgProfile     = "profile"
	MsgLeaderboard = "leaderboard" // also the reply type
)

// Server -> Client message types
const (
	MsgState       = "state" // binary msgpack frames, never sent as JSON
	MsgWelcome     = "welcome"
	MsgSignals     = "signals"
	MsgOver        = "over"
	MsgPhase       = "phase"
	MsgSessions    = "sessions"
	MsgJoined      = "joined"
	MsgCreated     = "created" // session created, client should navigate
	MsgError       = "error"
	MsgChecked     = "checked"    // session check response
	MsgControlOK   = "control_ok" // controller attach confirmed
	MsgCtrlOn      = "ctrl_on"    // notify desktop: controller attached
	MsgCtrlOff     = "ctrl_off"   // notify desktop: controller detached
	MsgAuthOK      = "auth_ok"
	MsgProfileData = "profile_data"
)

// binaryInputTag marks the 2-byte binary input frame [tag, direction]
const binaryInputTag = 0x01

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages; json.RawMessage avoids double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// InputMsg carries one direction press ("up", "down", "left", "right")
type InputMsg struct {
	Dir string `json:"dir"`
}

// JoinMsg is sent when player wants to join a session
type JoinMsg struct {
	Name      string `json:"name"`
	SessionID string `json:"sid"`
}

// CreateMsg is sent when player wants to create a session
type CreateMsg struct {
	Name        string `json:"name"`
	SessionName string `json:"sname"`
}

// WelcomeMsg is sent to a player when they join. Durations let the
// renderer animate cell transitions from the elapsed times in state frames.
type WelcomeMsg struct {
	ID       string  `json:"id"`
	Driver   bool    `json:"driver"`
	MapSize  int     `json:"size"`
	Warning  float64 `json:"warn"`
	Move     float64 `json:"move"`
	Phase    int     `json:"phase"`
	Controls bool    `json:"ctrl,omitempty"` // a phone controller is already attached
}

// SignalMsg is the wire form of one simulation signal
type SignalMsg struct {
	K     string  `json:"k"`
	Cell  int     `json:"c,omitempty"`
	Seg   int     `json:"sg,omitempty"`
	X     float32 `json:"x,omitempty"`
	Z     float32 `json:"z,omitempty"`
	V     float64 `json:"v,omitempty"`
	Cause string  `json:"cause,omitempty"`
	Dir   string  `json:"dir,omitempty"`
}

// newSignalMsg flattens a sim signal for the wire
func newSignalMsg(s sim.Signal) SignalMsg {
	m := SignalMsg{
		K:    s.Kind.String(),
		Cell: int(s.Cell),
		Seg:  int(s.Segment),
		X:    s.Pos.X(),
		Z:    s.Pos.Z(),
		V:    s.Value,
	}
	if s.Cause != sim.CauseNone {
		m.Cause = s.Cause.String()
	}
	if s.Dir != sim.DirNone {
		m.Dir = s.Dir.String()
	}
	return m
}

// OverMsg is broadcast when a run ends
type OverMsg struct {
	Score        int      `json:"score"`
	Length       int      `json:"len"`
	Speed        float64  `json:"speed"`
	Elapsed      float64  `json:"elapsed"`
	Clock        string   `json:"clock"`
	Cause        string   `json:"cause"`
	Best         int      `json:"best"` // best score in this session
	Achievements []string `json:"ach,omitempty"`
}

// PhaseMsg announces a phase change of the session
type PhaseMsg struct {
	Phase int     `json:"p"`
	Timer float64 `json:"t,omitempty"` // seconds until the next phase, result screen only
}

// SegmentFrame is one body segment in a state frame
type SegmentFrame struct {
	P [3]float32 `msgpack:"p" json:"p"`
	T [3]float32 `msgpack:"t" json:"t"`
}

// CellFrame describes a cell that is not plain walkable ground
type CellFrame struct {
	ID int     `msgpack:"i" json:"i"`
	W  bool    `msgpack:"w" json:"w"`
	P  int     `msgpack:"p" json:"p"`
	E  float64 `msgpack:"e" json:"e"` // seconds spent in phase P
}

// StateFrame is the msgpack snapshot broadcast at BroadcastRate
type StateFrame struct {
	Tick     uint64         `msgpack:"tick" json:"tick"`
	Phase    int            `msgpack:"ph" json:"ph"`
	Head     [3]float32     `msgpack:"h" json:"h"`
	Dir      string         `msgpack:"d" json:"d"`
	Speed    float64        `msgpack:"sp" json:"sp"`
	Segments []SegmentFrame `msgpack:"sg" json:"sg"`
	Food     *[3]float32    `msgpack:"f,omitempty" json:"f,omitempty"`
	Cells    []CellFrame    `msgpack:"c" json:"c"`
	Score    int            `msgpack:"sc" json:"sc"`
	Elapsed  float64        `msgpack:"e" json:"e"`
	Clock    string         `msgpack:"clk" json:"clk"`
	Ended    bool           `msgpack:"end" json:"end"`
}

// newStateFrame converts a session snapshot to its wire form
func newStateFrame(snap sim.Snapshot, tick uint64, phase MatchPhase) StateFrame {
	f := StateFrame{
		Tick:     tick,
		Phase:    int(phase),
		Head:     [3]float32(snap.Head),
		Dir:      snap.Direction.String(),
		Speed:    snap.Speed,
		Segments: make([]SegmentFrame, 0, len(snap.Segments)),
		Cells:    make([]CellFrame, 0),
		Score:    snap.Score,
		Elapsed:  snap.Elapsed,
		Clock:    FormatTime(snap.Elapsed),
		Ended:    snap.Ended,
	}
	for _, seg := range snap.Segments {
		f.Segments = append(f.Segments, SegmentFrame{P: [3]float32(seg.Position), T: [3]float32(seg.Target)})
	}
	if snap.Food != nil {
		food := [3]float32(*snap.Food)
		f.Food = &food
	}
	for _, c := range snap.Cells {
		if c.Walkable && !c.Transitioning() {
			continue
		}
		f.Cells = append(f.Cells, CellFrame{ID: int(c.ID), W: c.Walkable, P: int(c.Phase), E: c.PhaseElapsed})
	}
	return f
}

// SessionInfo is used in the session list
type SessionInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Players int    `json:"players"`
	Phase   int    `json:"phase"`
}

// ErrorMsg sends error to client
type ErrorMsg struct {
	Msg string `json:"msg"`
}

// ControlMsg is sent by a phone controller to attach to a player
type ControlMsg struct {
	SID      string `json:"sid"`
	PlayerID string `json:"pid"`
}

// CheckMsg is sent by client to check if a session exists
type CheckMsg struct {
	SID string `json:"sid"`
}

// CheckedMsg is the response to a session check
type CheckedMsg struct {
	SID     string `json:"sid"`
	Exists  bool   `json:"exists"`
	Name    string `json:"name,omitempty"`
	Players int    `json:"players,omitempty"`
}

// RegisterMsg creates an account
type RegisterMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginMsg authenticates with a password
type LoginMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthMsg resumes a login with a stored token
type AuthMsg struct {
	Token string `json:"token"`
}

// AuthOKMsg confirms register, login or token auth
type AuthOKMsg struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	PlayerID int64  `json:"pid"`
}

// ProfileDataMsg is the reply to a profile request
type ProfileDataMsg struct {
	Username     string   `json:"username"`
	Runs         int      `json:"runs"`
	BestScore    int      `json:"best_score"`
	BestLength   int      `json:"best_len"`
	TotalFood    int      `json:"food"`
	Playtime     float64  `json:"playtime"`
	Achievements []string `json:"ach"`
	Recent       []RunRow `json:"recent"`
}

// LeaderboardMsg asks for the top players ordered by By
type LeaderboardMsg struct {
	By    string `json:"by"`
	Limit int    `json:"limit"`
}
