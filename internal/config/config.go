package config

import (
	"os"
	"time"

	"github.com/xypp3/leetcode-battleroyal/internal/model"
)

type Config struct {
	MongoURI     string
	MongoDB      string
	RedisAddr    string
	HTTPPort     string
	JWTSecret    string
	JudgeURL     string
	PollInterval time.Duration
}

func Load() *Config {
	return &Config{
		MongoURI:     getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:      getEnv("MONGO_DB", "battleroyal"),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		HTTPPort:     getEnv("HTTP_PORT", "8080"),
		JWTSecret:    getEnv("JWT_SECRET", "super-secret-key-change-in-production"),
		JudgeURL:     getEnv("JUDGE_URL", ""),
		PollInterval: 250 * time.Millisecond,
	}
}

// DefaultRules are the match parameters stamped onto new rooms. Rooms carry
// their own copy, so changing these affects future rooms only.
func DefaultRules() model.MatchRules {
	return model.MatchRules{
		MaxPlayers:       8,
		MaxRounds:        3,
		StartThreshold:   2,
		StartDelaySec:    10,
		MaxTimeSec:       240,
		AttackPenaltySec: 20,
		RoundDelaySec:    5,
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
