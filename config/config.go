package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config faults are fatal at startup. Request-time code can assume every field
// here has already been validated.
type Config struct {
	Port           string
	AllowedOrigins []string
	JWTKey         string
	TokenMaxAge    time.Duration
	RoomTTL        time.Duration
	MaxRooms       int
	Debug          bool
}

var (
	ErrMissingAllowedOrigins = errors.New("missing-allowed-origins")
	ErrMissingJWTKey         = errors.New("missing-jwt-key")
	ErrInvalidRoomTTL        = errors.New("invalid-room-ttl")
	ErrInvalidMaxRooms       = errors.New("invalid-max-rooms")
)

func Load() (Config, error) {
	cfg := Config{
		Port:        ":5000",
		TokenMaxAge: time.Hour * 24 * 7, // 7 days
		MaxRooms:    1024,
		Debug:       os.Getenv("DEBUG") != "",
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = ":" + strings.TrimPrefix(port, ":")
	}

	origins, exists := os.LookupEnv("ALLOWED_ORIGINS")
	if !exists || origins == "" {
		return Config{}, ErrMissingAllowedOrigins
	}
	cfg.AllowedOrigins = strings.Split(origins, ",")

	cfg.JWTKey, exists = os.LookupEnv("JWT_KEY")
	if !exists || cfg.JWTKey == "" {
		return Config{}, ErrMissingJWTKey
	}

	// An unset or non-positive TTL would let idle rooms accumulate forever.
	ttlSeconds, exists := os.LookupEnv("ROOM_TTL_SECONDS")
	if !exists {
		return Config{}, ErrInvalidRoomTTL
	}
	ttl, err := strconv.Atoi(ttlSeconds)
	if err != nil || ttl <= 0 {
		return Config{}, ErrInvalidRoomTTL
	}
	cfg.RoomTTL = time.Duration(ttl) * time.Second

	if maxRooms, exists := os.LookupEnv("MAX_ROOMS"); exists {
		n, err := strconv.Atoi(maxRooms)
		if err != nil || n <= 0 {
			return Config{}, ErrInvalidMaxRooms
		}
		cfg.MaxRooms = n
	}

	return cfg, nil
}
