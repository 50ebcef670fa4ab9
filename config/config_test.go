package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setValidEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000")
	t.Setenv("JWT_KEY", "test-key")
	t.Setenv("ROOM_TTL_SECONDS", "300")
}

func TestLoad_Valid(t *testing.T) {
	setValidEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("MAX_ROOMS", "10")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, 5*time.Minute, cfg.RoomTTL)
	assert.Equal(t, 10, cfg.MaxRooms)
}

func TestLoad_Defaults(t *testing.T) {
	setValidEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":5000", cfg.Port)
	assert.Equal(t, 1024, cfg.MaxRooms)
	assert.Equal(t, time.Hour*24*7, cfg.TokenMaxAge)
}

func TestLoad_Invalid(t *testing.T) {
	testCases := []struct {
		name        string
		mutate      func(t *testing.T)
		expectedErr error
	}{
		{
			name:        "missing allowed origins",
			mutate:      func(t *testing.T) { t.Setenv("ALLOWED_ORIGINS", "") },
			expectedErr: ErrMissingAllowedOrigins,
		},
		{
			name:        "missing jwt key",
			mutate:      func(t *testing.T) { t.Setenv("JWT_KEY", "") },
			expectedErr: ErrMissingJWTKey,
		},
		{
			name:        "zero room ttl",
			mutate:      func(t *testing.T) { t.Setenv("ROOM_TTL_SECONDS", "0") },
			expectedErr: ErrInvalidRoomTTL,
		},
		{
			name:        "garbage room ttl",
			mutate:      func(t *testing.T) { t.Setenv("ROOM_TTL_SECONDS", "soon") },
			expectedErr: ErrInvalidRoomTTL,
		},
		{
			name:        "negative max rooms",
			mutate:      func(t *testing.T) { t.Setenv("MAX_ROOMS", "-1") },
			expectedErr: ErrInvalidMaxRooms,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			setValidEnv(t)
			tc.mutate(t)

			_, err := Load()
			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}
}
