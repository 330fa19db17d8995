package auth

import (
	"context"
	"errors"
	"log/slog"
)

// ErrRevoked is returned for a token that was logged out.
var ErrRevoked = errors.New("token has been revoked")

// Authenticator verifies a bearer token and checks it against the revocation list.
type Authenticator struct {
	issuer      *TokenIssuer
	revocations *Revocations
	logger      *slog.Logger
}

// NewAuthenticator returns an Authenticator.
func NewAuthenticator(issuer *TokenIssuer, revocations *Revocations, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{issuer: issuer, revocations: revocations, logger: logger}
}

// Authenticate returns the token's claims. A revocation store outage fails open.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*Claims, error) {
	claims, err := a.issuer.Verify(token)
	if err != nil {
		return nil, err
	}

	revoked, err := a.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		a.logger.WarnContext(ctx, "token revocation check failed", slog.String("error", err.Error()))
		return claims, nil
	}
	if revoked {
		return nil, ErrRevoked
	}
	return claims, nil
}
