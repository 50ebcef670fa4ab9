package auth

import (
	"api/domain"
	"time"
)

type TokenManager interface {
	Generate(guest domain.Guest, now time.Time) (string, error)
	Verify(token string) (domain.Guest, error)
}
