package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DatabaseDriver    string        `env:"DATABASE_DRIVER" envDefault:"postgres"`
	DatabaseURL       string        `env:"DATABASE_URL"`
	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`
	DBConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"1m"`

	RedisURL  string `env:"REDIS_URL"`
	JWTSecret string `env:"JWT_SECRET"`

	RoomCodeDigits      int           `env:"ROOM_CODE_DIGITS" envDefault:"4"`
	RoomCodeMaxAttempts int           `env:"ROOM_CODE_MAX_ATTEMPTS" envDefault:"64"`
	RoomCodeClaimTTL    time.Duration `env:"ROOM_CODE_CLAIM_TTL" envDefault:"1m"`
	CreateGameMaxTries  uint          `env:"CREATE_GAME_MAX_TRIES" envDefault:"5"`
	RecentGamesWindow   time.Duration `env:"RECENT_GAMES_WINDOW" envDefault:"24h"`
	LogGameUpdates      bool          `env:"LOG_GAME_UPDATES" envDefault:"true"`
	PresenceTimeout     time.Duration `env:"PRESENCE_TOUCH_TIMEOUT" envDefault:"3s"`

	Client ClientSettings
}

// ClientSettings are the poll intervals handed to clients so they can
// throttle themselves. Intervals are in seconds.
type ClientSettings struct {
	UpdatePlayersStatus   float64 `env:"CLIENT_UPDATE_PLAYERS_STATUS" envDefault:"5" json:"updatePlayersStatus"`
	UpdateGameList        float64 `env:"CLIENT_UPDATE_GAME_LIST" envDefault:"5" json:"updateGameList"`
	CheckOffline          float64 `env:"CLIENT_CHECK_OFFLINE" envDefault:"10" json:"checkOffline"`
	UpdateFrequent        float64 `env:"CLIENT_UPDATE_FREQUENT" envDefault:"1" json:"updateFrequent"`
	UpdateFullTillNextTry float64 `env:"CLIENT_UPDATE_FULL_TILL_NEXT_TRY" envDefault:"1" json:"updateFullTillNextTry"`
	MinimumAppVersion     int     `env:"CLIENT_MINIMUM_APP_VERSION" envDefault:"2" json:"minimumAppVersion"`
}

// Default returns the configuration defaults without consulting the
// process environment.
func Default() Config {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{}}); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return cfg
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.RoomCodeDigits <= 0 || cfg.RoomCodeDigits > 9 {
		return Config{}, fmt.Errorf("ROOM_CODE_DIGITS must be between 1 and 9, got %d", cfg.RoomCodeDigits)
	}
	if cfg.RoomCodeMaxAttempts <= 0 {
		cfg.RoomCodeMaxAttempts = 1
	}
	if cfg.CreateGameMaxTries == 0 {
		cfg.CreateGameMaxTries = 1
	}
	return cfg, nil
}
