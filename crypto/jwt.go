package crypto

import (
	"api/domain"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// guestClaims is an unexported struct used for claims.
// Fields must be exported for JSON serialization.
type guestClaims struct {
	Id       string `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type JWTManager struct {
	secretKey []byte
	maxAge    time.Duration
}

func NewJWTManager(secretKey string, maxAge time.Duration) *JWTManager {
	return &JWTManager{
		secretKey: []byte(secretKey),
		maxAge:    maxAge,
	}
}

func (m *JWTManager) Generate(guest domain.Guest, now time.Time) (string, error) {
	claims := guestClaims{
		Id:       guest.Id,
		Username: guest.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.maxAge)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(m.secretKey)

	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.UnexpectedTokenGenerationError, err)
	}

	return signedToken, nil
}

func (m *JWTManager) Verify(tokenString string) (domain.Guest, error) {
	token, err := jwt.ParseWithClaims(tokenString, &guestClaims{}, func(token *jwt.Token) (any, error) {
		// Validate the signing method is what we expect (HMAC)
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidSigningAlg
		}
		return m.secretKey, nil
	})

	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidSigningAlg):
			return domain.Guest{}, err
		case errors.Is(err, jwt.ErrTokenExpired):
			return domain.Guest{}, domain.ErrExpiredToken
		case errors.Is(err, jwt.ErrSignatureInvalid):
			return domain.Guest{}, domain.ErrInvalidTokenSignature
		case errors.Is(err, jwt.ErrTokenMalformed):
			return domain.Guest{}, domain.ErrCorruptedToken
		default:
			return domain.Guest{}, fmt.Errorf("%w: %w", domain.UnexpectedTokenVerificationError, err)
		}
	}

	if claims, ok := token.Claims.(*guestClaims); ok && token.Valid {
		return domain.Guest{Id: claims.Id, Username: claims.Username}, nil
	}

	return domain.Guest{}, domain.ErrCorruptedToken
}
