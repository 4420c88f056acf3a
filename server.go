package main

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"net/url"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/skip2/go-qrcode"
)

const qrSize = 256 // pixels

var uuidPathRe = regexp.MustCompile(`^/[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// controllerURL is the page a phone opens to steer the driver of sid
func controllerURL(r *http.Request, publicURL, sid, pid string) string {
	base := strings.TrimRight(publicURL, "/")
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	q := url.Values{"ctrl": {pid}}
	return base + "/" + sid + "?" + q.Encode()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write json: %v", err)
	}
}

// SetupRoutes configures HTTP routes. An empty clientDir disables static
// file serving; an empty publicURL derives controller links from the request.
func SetupRoutes(hub *Hub, clientDir, publicURL string) *http.ServeMux {
	mux := http.NewServeMux()

	if clientDir != "" {
		// no-cache so browsers always revalidate
		fs := http.FileServer(http.Dir(clientDir))
		mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "no-cache")
			// SPA: serve index.html for root and session paths
			if r.URL.Path == "/" || uuidPathRe.MatchString(r.URL.Path) {
				http.ServeFile(w, r, filepath.Join(clientDir, "index.html"))
				return
			}
			fs.ServeHTTP(w, r)
		}))
	}

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		if !hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("upgrade error: %v", err)
			return
		}

		hub.TrackConnect(ip)

		client := NewClient(hub, conn, ip)
		hub.register <- client

		go client.WritePump()
		go client.ReadPump()
	})

	mux.HandleFunc("GET /qr/{sid}", func(w http.ResponseWriter, r *http.Request) {
		sid := r.PathValue("sid")
		sess := hub.sessions.GetSession(sid)
		if sess == nil {
			http.NotFound(w, r)
			return
		}
		png, err := qrcode.Encode(controllerURL(r, publicURL, sid, sess.Game.DriverID()), qrcode.Medium, qrSize)
		if err != nil {
			log.Printf("qr encode: %v", err)
			http.Error(w, "qr failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		w.Write(png)
	})

	mux.HandleFunc("GET /api/leaderboard", func(w http.ResponseWriter, r *http.Request) {
		if hub.db == nil {
			http.Error(w, "leaderboard unavailable", http.StatusServiceUnavailable)
			return
		}
		limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
		if err != nil || limit == 0 {
			limit = defaultBoardSize
		}
		entries, err := hub.db.GetLeaderboard(r.URL.Query().Get("by"), ClampInt(limit, 1, maxBoardSize))
		if err != nil {
			log.Printf("leaderboard: %v", err)
			http.Error(w, "leaderboard unavailable", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	})

	mux.HandleFunc("GET /api/stats", func(w http.ResponseWriter, r *http.Request) {
		peers, sessions := hub.analytics.GetLiveMetrics()
		out := map[string]interface{}{"peers": peers, "sessions": sessions}
		if dau, err := hub.analytics.DAUCount(); err == nil {
			out["dau"] = dau
		}
		if counts, err := hub.analytics.EventCounts(7); err == nil && counts != nil {
			out["events"] = counts
		}
		if runs, err := hub.analytics.RunStats(7); err == nil && runs != nil {
			out["runs"] = runs
		}
		writeJSON(w, http.StatusOK, out)
	})

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]int{
			"clients":  hub.ClientCount(),
			"conns":    hub.TotalConns(),
			"sessions": hub.sessions.Count(),
			"online":   hub.OnlineCount(),
		})
	})

	return mux
}
