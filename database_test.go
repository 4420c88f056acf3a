package main

import (
	"path/filepath"
	"testing"
)

// openTestDB opens a fresh database in a temp dir
func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCreateAndGetPlayer(t *testing.T) {
	db := openTestDB(t)
	id, err := db.CreatePlayer("viper", "hash")
	if err != nil {
		t.Fatalf("CreatePlayer: %v", err)
	}

	p, err := db.GetPlayerByUsername("viper")
	if err != nil || p == nil {
		t.Fatalf("GetPlayerByUsername: %v %v", p, err)
	}
	if p.ID != id || p.PassHash != "hash" {
		t.Errorf("unexpected row %+v", p)
	}
	if byID, _ := db.GetPlayerByID(id); byID == nil || byID.Username != "viper" {
		t.Errorf("GetPlayerByID returned %+v", byID)
	}

	missing, err := db.GetPlayerByUsername("nobody")
	if err != nil || missing != nil {
		t.Errorf("missing player should be nil, nil; got %v, %v", missing, err)
	}
	if exists, _ := db.UsernameExists("viper"); !exists {
		t.Error("viper should exist")
	}
	if _, err := db.CreatePlayer("viper", "other"); err == nil {
		t.Error("duplicate usernames must be rejected")
	}
}

func TestStatsAfterRuns(t *testing.T) {
	db := openTestDB(t)
	id, _ := db.CreatePlayer("adder", "")

	runs := []RunResult{
		{Score: 5, Length: 5, Speed: 4, Duration: 30, Cause: "self-collision"},
		{Score: 12, Length: 12, Speed: 5, Duration: 80, Cause: "out-of-bounds"},
		{Score: 3, Length: 3, Speed: 3, Duration: 10, Cause: "head-obstacle"},
	}
	for _, r := range runs {
		if _, err := db.RecordRun(id, "sess", r); err != nil {
			t.Fatalf("RecordRun: %v", err)
		}
		if err := db.UpdateStatsAfterRun(id, r); err != nil {
			t.Fatalf("UpdateStatsAfterRun: %v", err)
		}
	}

	s, err := db.GetStats(id)
	if err != nil || s == nil {
		t.Fatalf("GetStats: %v", err)
	}
	if s.Runs != 3 || s.BestScore != 12 || s.BestLength != 12 || s.TotalFood != 20 || s.Playtime != 120 {
		t.Errorf("unexpected stats %+v", s)
	}

	history, err := db.GetRunHistory(id, 2)
	if err != nil {
		t.Fatalf("GetRunHistory: %v", err)
	}
	if len(history) != 2 || history[0].Score != 3 || history[1].Score != 12 {
		t.Errorf("expected newest first, got %+v", history)
	}
}

func TestGuestRunIsRecorded(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.RecordRun(0, "sess", RunResult{Score: 1}); err != nil {
		t.Fatalf("guest run: %v", err)
	}
	var n int
	db.conn.QueryRow("SELECT COUNT(*) FROM runs WHERE player_id IS NULL").Scan(&n)
	if n != 1 {
		t.Errorf("expected one guest run, got %d", n)
	}
}

func TestLeaderboard(t *testing.T) {
	db := openTestDB(t)
	a, _ := db.CreatePlayer("asp", "")
	b, _ := db.CreatePlayer("boa", "")
	db.CreatePlayer("idle", "") // no runs, must not be listed

	db.UpdateStatsAfterRun(a, RunResult{Score: 10, Length: 10, Duration: 50})
	db.UpdateStatsAfterRun(b, RunResult{Score: 20, Length: 20, Duration: 20})
	db.UpdateStatsAfterRun(a, RunResult{Score: 1, Length: 1, Duration: 5})

	byScore, err := db.GetLeaderboard("score", 10)
	if err != nil {
		t.Fatalf("GetLeaderboard: %v", err)
	}
	if len(byScore) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(byScore))
	}
	if byScore[0].Username != "boa" || byScore[0].Rank != 1 || byScore[1].Rank != 2 {
		t.Errorf("unexpected order %+v", byScore)
	}

	byRuns, _ := db.GetLeaderboard("runs", 10)
	if byRuns[0].Username != "asp" || byRuns[0].Runs != 2 {
		t.Errorf("asp has the most runs, got %+v", byRuns[0])
	}

	// unknown columns fall back to best score instead of reaching SQL
	odd, err := db.GetLeaderboard("score; DROP TABLE stats", 1)
	if err != nil || len(odd) != 1 || odd[0].Username != "boa" {
		t.Errorf("fallback ordering failed: %+v %v", odd, err)
	}
}

func TestSettings(t *testing.T) {
	db := openTestDB(t)
	if v := db.GetSetting("missing"); v != "" {
		t.Errorf("unset key should be empty, got %q", v)
	}
	db.SetSetting("k", "one")
	db.SetSetting("k", "two")
	if v := db.GetSetting("k"); v != "two" {
		t.Errorf("expected two, got %q", v)
	}
}

func TestAchievementsUnlockOnce(t *testing.T) {
	db := openTestDB(t)
	id, _ := db.CreatePlayer("mamba", "")
	run := RunResult{Score: 12, Length: 12, Speed: 8, Duration: 65}
	db.UpdateStatsAfterRun(id, run)

	got := CheckAchievements(db, id, run)
	ids := make(map[string]bool)
	for _, a := range got {
		ids[a.ID] = true
	}
	for _, want := range []string{"first_bite", "long_10", "survive_60", "speed_8"} {
		if !ids[want] {
			t.Errorf("expected %s to unlock", want)
		}
	}
	for _, not := range []string{"long_25", "score_40", "survive_180", "regular"} {
		if ids[not] {
			t.Errorf("%s should stay locked", not)
		}
	}

	if again := CheckAchievements(db, id, run); len(again) != 0 {
		t.Errorf("achievements must unlock once, got %+v", again)
	}
	stored, _ := db.GetAchievements(id)
	if len(stored) != len(got) {
		t.Errorf("expected %d stored, got %d", len(got), len(stored))
	}
	if achievementName("speed_8") != "Blur" || achievementName("nope") != "nope" {
		t.Error("achievementName lookup is wrong")
	}
}

func TestAuthRegisterLoginValidate(t *testing.T) {
	db := openTestDB(t)
	auth := NewAuth(db)

	id, token, err := auth.Register(" cobra ", "hiss")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	pid, name, err := auth.ValidateToken(token)
	if err != nil || pid != id || name != "cobra" {
		t.Errorf("ValidateToken = %d %q %v", pid, name, err)
	}

	if _, _, err := auth.Register("cobra", "other"); err != ErrUsernameTaken {
		t.Errorf("expected ErrUsernameTaken, got %v", err)
	}
	if _, _, err := auth.Register("c", "hiss"); err == nil {
		t.Error("short usernames must be rejected")
	}
	if _, _, err := auth.Register("krait", "x"); err == nil {
		t.Error("short passwords must be rejected")
	}

	if lid, _, err := auth.Login("cobra", "hiss", "1.2.3.4"); err != nil || lid != id {
		t.Errorf("Login = %d %v", lid, err)
	}
	if _, _, err := auth.Login("cobra", "wrong", "1.2.3.4"); err != ErrBadCredentials {
		t.Errorf("expected ErrBadCredentials, got %v", err)
	}
	if _, _, err := auth.ValidateToken(token + "x"); err != ErrInvalidToken {
		t.Errorf("tampered token should fail, got %v", err)
	}
}

func TestAuthSecretSurvivesRestart(t *testing.T) {
	db := openTestDB(t)
	first := NewAuth(db)
	_, token, err := first.Register("python", "pass")
	if err != nil {
		t.Fatal(err)
	}
	second := NewAuth(db)
	if _, _, err := second.ValidateToken(token); err != nil {
		t.Errorf("token from a previous process should validate: %v", err)
	}
}

func TestAuthLoginRateLimit(t *testing.T) {
	auth := &Auth{rateMap: make(map[string]*rateEntry)}
	for i := 0; i < maxLoginAttempts; i++ {
		if !auth.checkRate("9.9.9.9") {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if auth.checkRate("9.9.9.9") {
		t.Error("attempt over the limit should be refused")
	}
	if !auth.checkRate("8.8.8.8") {
		t.Error("other addresses are counted separately")
	}
}

func TestAnalyticsFlushOnStop(t *testing.T) {
	db := openTestDB(t)
	a := NewAnalytics(db)
	a.Track(EvtRunStart, 0, "s1", "")
	a.Track(EvtRunEnd, 0, "s1", `{"score":3,"duration":12.5,"cause":"self-collision"}`)
	a.Track(EvtRunEnd, 0, "s1", `{"score":5,"duration":7.5,"cause":"self-collision"}`)
	a.Stop()

	counts, err := a.EventCounts(1)
	if err != nil {
		t.Fatalf("EventCounts: %v", err)
	}
	if counts[EvtRunStart] != 1 || counts[EvtRunEnd] != 2 {
		t.Errorf("unexpected counts %v", counts)
	}

	runs, err := a.RunStats(1)
	if err != nil {
		t.Fatalf("RunStats: %v", err)
	}
	if len(runs) != 1 || runs[0].Cause != "self-collision" || runs[0].Count != 2 {
		t.Fatalf("unexpected run stats %+v", runs)
	}
	if runs[0].AvgScore != 4 || runs[0].AvgDuration != 10 {
		t.Errorf("unexpected averages %+v", runs[0])
	}
}

func TestNilAnalyticsIsSafe(t *testing.T) {
	var a *Analytics
	a.Track(EvtRunStart, 1, "s", "")
	a.SetActiveSessions(3)
	a.Stop()
	if p, s := a.GetLiveMetrics(); p != 0 || s != 0 {
		t.Error("nil analytics should report zeros")
	}
}

func TestGameRecordsRunForAccount(t *testing.T) {
	db := openTestDB(t)
	id, _ := db.CreatePlayer("taipan", "")

	g, err := NewGame("sess", wallConfig(), db, nil)
	if err != nil {
		t.Fatal(err)
	}
	p := g.AddPlayer("taipan", id)
	g.HandleRestart(p.ID)
	g.update()

	s, _ := db.GetStats(id)
	if s == nil || s.Runs != 1 {
		t.Fatalf("expected one run in stats, got %+v", s)
	}
	history, _ := db.GetRunHistory(id, 5)
	if len(history) != 1 || history[0].Cause != "out-of-bounds" {
		t.Errorf("unexpected history %+v", history)
	}
}
