package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const streamTokenIssuer = "room-leaderboard-service"

var ErrInvalidStreamToken = errors.New("invalid stream token")

type streamClaims struct {
	DeviceID string `json:"device_id"`
	jwt.RegisteredClaims
}

// StreamTokenIssuer mints short-lived HS256 tokens that let an EventSource
// client open a stream without the gateway headers. It validates them too, so
// it can stand in for the auth service.
type StreamTokenIssuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewStreamTokenIssuer(secret string, ttl time.Duration) *StreamTokenIssuer {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &StreamTokenIssuer{key: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed token for userID bound to deviceID.
func (i *StreamTokenIssuer) Issue(userID, deviceID string) (string, time.Time, error) {
	now := i.now()
	expires := now.Add(i.ttl)
	claims := streamClaims{
		DeviceID: deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    streamTokenIssuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign stream token: %w", err)
	}
	return signed, expires, nil
}

// ValidateToken checks signature, expiry and the device binding.
func (i *StreamTokenIssuer) ValidateToken(_ context.Context, accessToken, deviceID string) (*ValidateResponse, error) {
	var claims streamClaims
	token, err := jwt.ParseWithClaims(accessToken, &claims,
		func(*jwt.Token) (interface{}, error) { return i.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(streamTokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStreamToken, err)
	}
	if claims.Subject == "" || claims.DeviceID != deviceID {
		return nil, fmt.Errorf("%w: device mismatch", ErrInvalidStreamToken)
	}
	return &ValidateResponse{UserID: claims.Subject, DeviceID: claims.DeviceID}, nil
}
