package main

// AchievementDef describes one unlockable
type AchievementDef struct {
	ID          string
	Name        string
	Description string
}

var Achievements = []AchievementDef{
	{"first_bite", "First Bite", "Eat your first food"},
	{"long_10", "Getting Long", "Reach 10 segments in one run"},
	{"long_25", "Serpent", "Reach 25 segments in one run"},
	{"score_40", "Glutton", "Score 40 in one run"},
	{"survive_60", "Survivor", "Stay alive for a minute"},
	{"survive_180", "Unsinkable", "Stay alive for three minutes"},
	{"speed_8", "Blur", "Reach speed 8"},
	{"regular", "Regular", "Finish 100 runs"},
}

// CheckAchievements unlocks whatever the finished run and the updated
// career stats qualify for. Returns only the newly unlocked ones.
func CheckAchievements(db *DB, playerID int64, run RunResult) []AchievementDef {
	if db == nil {
		return nil
	}

	stats, err := db.GetStats(playerID)
	if err != nil || stats == nil {
		return nil
	}

	existing, err := db.GetAchievements(playerID)
	if err != nil {
		return nil
	}
	has := make(map[string]bool, len(existing))
	for _, a := range existing {
		has[a] = true
	}

	check := func(id string) bool {
		if has[id] {
			return false
		}
		switch id {
		case "first_bite":
			return stats.TotalFood >= 1
		case "long_10":
			return run.Length >= 10
		case "long_25":
			return run.Length >= 25
		case "score_40":
			return run.Score >= 40
		case "survive_60":
			return run.Duration >= 60
		case "survive_180":
			return run.Duration >= 180
		case "speed_8":
			return run.Speed >= 8
		case "regular":
			return stats.Runs >= 100
		}
		return false
	}

	var unlocked []AchievementDef
	for _, def := range Achievements {
		if !check(def.ID) {
			continue
		}
		if fresh, err := db.UnlockAchievement(playerID, def.ID); err == nil && fresh {
			unlocked = append(unlocked, def)
		}
	}
	return unlocked
}

// achievementName maps an id to its display name
func achievementName(id string) string {
	for _, def := range Achievements {
		if def.ID == id {
			return def.Name
		}
	}
	return id
}
