package domain

import "errors"

var (
	TokenError                       = errors.New("token-error")
	ErrInvalidSigningAlg             = errors.New("invalid-signing-method")
	ErrExpiredToken                  = errors.New("expired-token")
	ErrInvalidTokenSignature         = errors.New("invalid-token-signature")
	ErrCorruptedToken                = errors.New("corrupted-token")
	UnexpectedTokenGenerationError   = errors.New("unexpected-token-generation-error")
	UnexpectedTokenVerificationError = errors.New("unexpected-token-verification-error")
)
