package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	jwtExpiry        = 7 * 24 * time.Hour
	bcryptCost       = 12
	minPasswordLen   = 4
	minUsernameLen   = 2
	maxUsernameLen   = 16
	loginRateWindow  = 60 * time.Second
	maxLoginAttempts = 10
	jwtSecretKey     = "jwt_secret"
)

// Errors returned to clients verbatim
var (
	ErrBadCredentials = errors.New("invalid username or password")
	ErrUsernameTaken  = errors.New("username already taken")
	ErrRateLimited    = errors.New("too many login attempts, try again later")
	ErrInvalidToken   = errors.New("invalid token")
	errInternal       = errors.New("internal error")
)

// Claims is the JWT payload handed to logged-in clients
type Claims struct {
	PlayerID int64  `json:"pid"`
	Username string `json:"usr"`
	jwt.RegisteredClaims
}

// Auth handles accounts: registration, password login and token checks
type Auth struct {
	db        *DB
	jwtSecret []byte

	// login attempts per IP
	rateMu  sync.Mutex
	rateMap map[string]*rateEntry
}

type rateEntry struct {
	Count   int
	ResetAt time.Time
}

// NewAuth creates a new Auth handler
func NewAuth(db *DB) *Auth {
	return &Auth{
		db:        db,
		jwtSecret: loadOrCreateSecret(db),
		rateMap:   make(map[string]*rateEntry),
	}
}

// loadOrCreateSecret loads the JWT secret from the settings table, or
// generates and persists a new one, so tokens survive restarts
func loadOrCreateSecret(db *DB) []byte {
	if db != nil {
		if h := db.GetSetting(jwtSecretKey); h != "" {
			if b, err := hex.DecodeString(h); err == nil && len(b) == 32 {
				return b
			}
		}
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic("failed to generate JWT secret: " + err.Error())
	}
	if db != nil {
		if err := db.SetSetting(jwtSecretKey, hex.EncodeToString(secret)); err != nil {
			log.Printf("warning: could not persist JWT secret: %v", err)
		}
	}
	return secret
}

// Register creates a new account and returns its id and a token
func (a *Auth) Register(username, password string) (int64, string, error) {
	username = strings.TrimSpace(username)

	if len(username) < minUsernameLen || len(username) > maxUsernameLen {
		return 0, "", fmt.Errorf("username must be %d-%d characters", minUsernameLen, maxUsernameLen)
	}
	if len(password) < minPasswordLen {
		return 0, "", fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}

	exists, err := a.db.UsernameExists(username)
	if err != nil {
		log.Printf("auth: username lookup: %v", err)
		return 0, "", errInternal
	}
	if exists {
		return 0, "", ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return 0, "", errInternal
	}

	id, err := a.db.CreatePlayer(username, string(hash))
	if err != nil {
		log.Printf("auth: create player: %v", err)
		return 0, "", errInternal
	}

	token, err := a.generateToken(id, username)
	if err != nil {
		return 0, "", errInternal
	}
	return id, token, nil
}

// Login checks a password and returns the account id and a fresh token
func (a *Auth) Login(username, password, ip string) (int64, string, error) {
	if !a.checkRate(ip) {
		return 0, "", ErrRateLimited
	}

	player, err := a.db.GetPlayerByUsername(strings.TrimSpace(username))
	if err != nil {
		log.Printf("auth: player lookup: %v", err)
		return 0, "", errInternal
	}
	if player == nil || player.PassHash == "" {
		return 0, "", ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(player.PassHash), []byte(password)); err != nil {
		return 0, "", ErrBadCredentials
	}

	token, err := a.generateToken(player.ID, player.Username)
	if err != nil {
		return 0, "", errInternal
	}
	return player.ID, token, nil
}

// ValidateToken validates a JWT and returns (playerID, username, error)
func (a *Auth) ValidateToken(tokenStr string) (int64, string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return 0, "", ErrInvalidToken
	}
	if claims.PlayerID <= 0 || claims.Username == "" {
		return 0, "", ErrInvalidToken
	}
	return claims.PlayerID, claims.Username, nil
}

func (a *Auth) generateToken(playerID int64, username string) (string, error) {
	now := time.Now()
	claims := Claims{
		PlayerID: playerID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(jwtExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.jwtSecret)
}

func (a *Auth) checkRate(ip string) bool {
	a.rateMu.Lock()
	defer a.rateMu.Unlock()

	now := time.Now()
	entry, ok := a.rateMap[ip]
	if !ok || now.After(entry.ResetAt) {
		a.rateMap[ip] = &rateEntry{Count: 1, ResetAt: now.Add(loginRateWindow)}
		return true
	}
	entry.Count++
	return entry.Count <= maxLoginAttempts
}

// GenerateGuestName creates a display name like "Guest_a3f2c1" for
// players who join without one
func GenerateGuestName() string {
	b := make([]byte, 3)
	rand.Read(b)
	return "Guest_" + hex.EncodeToString(b)
}
