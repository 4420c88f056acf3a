package main

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"snake-server/sim"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 50
	maxNameLen        = 16
	maxSessionNameLen = 30
	defaultBoardSize  = 10
	maxBoardSize      = 50
	recentRuns        = 5
)

// Client represents a WebSocket connection
type Client struct {
	hub          *Hub
	conn         *websocket.Conn
	send         chan []byte
	playerID     string
	sessionID    string
	remoteAddr   string
	isController bool
	msgCount     int
	msgResetAt   time.Time
	// Auth state
	authPlayerID int64  // 0 = guest
	authUsername string // "" = guest
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		remoteAddr: remoteAddr,
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws error: %v", err)
			}
			break
		}

		// Rate limiting
		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			log.Printf("rate limit exceeded for %s, disconnecting", c.remoteAddr)
			break
		}

		// Binary input: 2 bytes [0x01, direction]
		if msgType == websocket.BinaryMessage {
			if len(message) == 2 && message[0] == binaryInputTag {
				c.steer(sim.Direction(message[1]))
			}
			continue
		}
		c.handleMessage(message)
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// 0xFF prefix marks frames queued by SendBinary
			var err error
			if len(message) > 0 && message[0] == 0xFF {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshal error: %v", err)
		return
	}
	c.SendRaw(data)
}

// SendRaw sends pre-marshaled bytes as a text message to the client
func (c *Client) SendRaw(data []byte) {
	defer func() { recover() }() // send on a channel closed by the hub
	select {
	case c.send <- data:
	default:
		// Client too slow, drop message
	}
}

// SendBinary sends pre-marshaled bytes as a binary WebSocket message.
// A 0xFF marker byte lets WritePump tell it apart from text.
func (c *Client) SendBinary(data []byte) {
	defer func() { recover() }()
	msg := make([]byte, len(data)+1)
	msg[0] = 0xFF
	copy(msg[1:], data)
	select {
	case c.send <- msg:
	default:
	}
}

func (c *Client) sendError(msg string) {
	c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: msg}})
}

// handleMessage routes incoming messages (single-pass decode via InEnvelope)
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("unmarshal error: %v", err)
		return
	}

	switch env.T {
	case MsgList:
		c.handleList()
	case MsgCreate:
		c.handleCreate(env.D)
	case MsgJoin:
		c.handleJoin(env.D)
	case MsgInput:
		c.handleInput(env.D)
	case MsgRestart:
		c.handleRestart()
	case MsgLeave:
		c.leaveSession()
	case MsgCheck:
		c.handleCheck(env.D)
	case MsgControl:
		c.handleControl(env.D)
	case MsgRegister:
		c.handleRegister(env.D)
	case MsgLogin:
		c.handleLogin(env.D)
	case MsgAuth:
		c.handleAuth(env.D)
	case MsgProfile:
		c.handleProfile()
	case MsgLeaderboard:
		c.handleLeaderboard(env.D)
	}
}

// game returns the game of the client's session, nil when not seated
func (c *Client) game() *Game {
	if c.sessionID == "" || c.playerID == "" {
		return nil
	}
	sess := c.hub.sessions.GetSession(c.sessionID)
	if sess == nil {
		return nil
	}
	return sess.Game
}

func (c *Client) handleList() {
	c.SendJSON(Envelope{T: MsgSessions, Data: c.hub.sessions.ListSessions()})
}

func (c *Client) handleCreate(data json.RawMessage) {
	var msg CreateMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sname := truncate(msg.SessionName, maxSessionNameLen)
	if sname == "" {
		sname = "Snake Pit"
	}

	sess := c.hub.sessions.CreateSession(sname)
	if sess == nil {
		c.sendError("too many active sessions")
		return
	}

	c.hub.sessions.MarkActive(sess.ID)
	c.SendJSON(Envelope{T: MsgCreated, Data: map[string]string{"sid": sess.ID}})
}

func (c *Client) handleJoin(data json.RawMessage) {
	var msg JoinMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	name := truncate(msg.Name, maxNameLen)
	if name == "" {
		name = c.authUsername
	}
	if name == "" {
		name = GenerateGuestName()
	}

	sess := c.hub.sessions.GetSession(msg.SessionID)
	if sess == nil {
		c.sendError("session not found")
		return
	}

	// leave any previous session first
	c.leaveSession()

	player := sess.Game.AddPlayer(name, c.authPlayerID)
	if player == nil {
		c.sendError("session full")
		return
	}
	c.hub.sessions.MarkActive(sess.ID)
	c.playerID = player.ID
	c.sessionID = sess.ID

	sess.Game.SetClient(player.ID, c)
	c.hub.analytics.Track(EvtSessionStart, c.authPlayerID, sess.ID, "")

	c.SendJSON(Envelope{T: MsgJoined, Data: map[string]string{"sid": sess.ID}})
	if welcome, ok := sess.Game.Welcome(player.ID); ok {
		c.SendJSON(Envelope{T: MsgWelcome, Data: welcome})
	}
}

func (c *Client) handleInput(data json.RawMessage) {
	var msg InputMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	c.steer(sim.ParseDirection(msg.Dir))
}

// steer forwards a direction press to the game. Controllers steer on
// behalf of the player they are attached to.
func (c *Client) steer(dir sim.Direction) {
	if !dir.Valid() {
		return
	}
	g := c.game()
	if g == nil {
		return
	}
	if g.HandleInput(c.playerID, dir) {
		c.hub.sessions.MarkActive(c.sessionID)
	}
}

func (c *Client) handleRestart() {
	if c.isController {
		return
	}
	g := c.game()
	if g == nil {
		c.sendError("not in a session")
		return
	}
	if err := g.HandleRestart(c.playerID); err != nil {
		c.sendError(err.Error())
		return
	}
	c.hub.sessions.MarkActive(c.sessionID)
}

func (c *Client) handleCheck(data json.RawMessage) {
	var msg CheckMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sess := c.hub.sessions.GetSession(msg.SID)
	if sess == nil {
		c.SendJSON(Envelope{T: MsgChecked, Data: CheckedMsg{SID: msg.SID, Exists: false}})
		return
	}
	c.SendJSON(Envelope{T: MsgChecked, Data: CheckedMsg{
		SID:     msg.SID,
		Exists:  true,
		Name:    sess.Name,
		Players: sess.Game.PlayerCount(),
	}})
}

// leaveSession detaches the client from its session, if any
func (c *Client) leaveSession() {
	if c.sessionID == "" {
		return
	}
	if c.isController {
		if sess := c.hub.sessions.GetSession(c.sessionID); sess != nil {
			sess.Game.RemoveController(c.playerID)
		}
	} else {
		c.hub.analytics.Track(EvtSessionEnd, c.authPlayerID, c.sessionID, "")
		c.hub.sessions.RemovePlayer(c.sessionID, c.playerID)
	}
	c.sessionID = ""
	c.playerID = ""
	c.isController = false
}

func (c *Client) handleControl(data json.RawMessage) {
	var msg ControlMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sess := c.hub.sessions.GetSession(msg.SID)
	if sess == nil {
		c.sendError("session not found")
		return
	}
	pid := msg.PlayerID
	if pid == "" {
		pid = sess.Game.DriverID()
	}
	if !sess.Game.HasPlayer(pid) {
		c.sendError("player not found")
		return
	}

	c.leaveSession()
	c.sessionID = msg.SID
	c.playerID = pid
	c.isController = true

	sess.Game.SetController(pid, c)
	c.SendJSON(Envelope{T: MsgControlOK, Data: map[string]string{"pid": pid}})
}

func (c *Client) authOK(id int64, username, token string) {
	c.authPlayerID = id
	c.authUsername = username
	c.hub.SetOnline(id, c)
	c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{
		Token:    token,
		Username: username,
		PlayerID: id,
	}})
}

func (c *Client) handleRegister(data json.RawMessage) {
	if c.hub.auth == nil {
		c.sendError("accounts are disabled")
		return
	}
	var msg RegisterMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, token, err := c.hub.auth.Register(msg.Username, msg.Password)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.authOK(id, msg.Username, token)
}

func (c *Client) handleLogin(data json.RawMessage) {
	if c.hub.auth == nil {
		c.sendError("accounts are disabled")
		return
	}
	var msg LoginMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, token, err := c.hub.auth.Login(msg.Username, msg.Password, c.remoteAddr)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.authOK(id, msg.Username, token)
}

func (c *Client) handleAuth(data json.RawMessage) {
	if c.hub.auth == nil {
		c.sendError("accounts are disabled")
		return
	}
	var msg AuthMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, username, err := c.hub.auth.ValidateToken(msg.Token)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	// the account may have been removed since the token was issued
	if p, err := c.hub.db.GetPlayerByID(id); err != nil || p == nil {
		c.sendError(ErrInvalidToken.Error())
		return
	}
	c.authOK(id, username, msg.Token)
}

func (c *Client) handleProfile() {
	if c.hub.db == nil || c.authPlayerID == 0 {
		c.sendError("not authenticated")
		return
	}
	stats, err := c.hub.db.GetStats(c.authPlayerID)
	if err != nil || stats == nil {
		c.sendError("profile not found")
		return
	}
	ids, err := c.hub.db.GetAchievements(c.authPlayerID)
	if err != nil {
		log.Printf("profile achievements: %v", err)
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, achievementName(id))
	}
	recent, err := c.hub.db.GetRunHistory(c.authPlayerID, recentRuns)
	if err != nil {
		log.Printf("profile runs: %v", err)
	}
	c.SendJSON(Envelope{T: MsgProfileData, Data: ProfileDataMsg{
		Username:     c.authUsername,
		Runs:         stats.Runs,
		BestScore:    stats.BestScore,
		BestLength:   stats.BestLength,
		TotalFood:    stats.TotalFood,
		Playtime:     stats.Playtime,
		Achievements: names,
		Recent:       recent,
	}})
}

func (c *Client) handleLeaderboard(data json.RawMessage) {
	if c.hub.db == nil {
		c.sendError("leaderboard unavailable")
		return
	}
	var msg LeaderboardMsg
	if len(data) > 0 {
		if err := json.Unmarshal(data, &msg); err != nil {
			return
		}
	}
	limit := msg.Limit
	if limit == 0 {
		limit = defaultBoardSize
	}
	entries, err := c.hub.db.GetLeaderboard(msg.By, ClampInt(limit, 1, maxBoardSize))
	if err != nil {
		log.Printf("leaderboard: %v", err)
		c.sendError("leaderboard unavailable")
		return
	}
	c.SendJSON(Envelope{T: MsgLeaderboard, Data: entries})
}
