// Package invite issues and redeems group invitation codes. A code is
// a signed JWT bound to one email address and one group, valid until
// the end of the day it was issued and usable exactly once.
package invite

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrInvalidCode  = errors.New("invite code is invalid or expired")
	ErrWrongEmail   = errors.New("invite code was issued for a different email")
	ErrAlreadyUsed  = errors.New("invite code has already been used")
	ErrUnknownEmail = errors.New("no user with that email")
)

type claims struct {
	Email   string    `json:"email"`
	GroupID uuid.UUID `json:"group_id"`
	jwt.RegisteredClaims
}

// Service signs and verifies invite codes. Single use is enforced
// through redis: redeeming marks the code's ID until the code itself
// expires, so the keys clean themselves up.
type Service struct {
	secret []byte
	rdb    *redis.Client
}

func New(secret string, rdb *redis.Client) *Service {
	return &Service{secret: []byte(secret), rdb: rdb}
}

// Issue mints a code for the email/group pair. The recipient does not
// need an account yet at issue time; Redeem matches against the
// authenticated caller's email.
func (s *Service) Issue(email string, groupID uuid.UUID) (string, error) {
	now := time.Now()
	endOfDay := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, now.Location())
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email:   email,
		GroupID: groupID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(endOfDay),
		},
	})
	return token.SignedString(s.secret)
}

// Redeem validates the code against the caller's email and burns it.
// Returns the group the code admits the caller to.
func (s *Service) Redeem(ctx context.Context, code, callerEmail string) (uuid.UUID, error) {
	var parsed claims
	_, err := jwt.ParseWithClaims(code, &parsed, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return uuid.Nil, ErrInvalidCode
	}
	if parsed.Email != callerEmail {
		return uuid.Nil, ErrWrongEmail
	}

	ttl := time.Until(parsed.ExpiresAt.Time)
	if ttl <= 0 {
		return uuid.Nil, ErrInvalidCode
	}
	fresh, err := s.rdb.SetNX(ctx, "invite:used:"+parsed.ID, 1, ttl).Result()
	if err != nil {
		return uuid.Nil, err
	}
	if !fresh {
		return uuid.Nil, ErrAlreadyUsed
	}
	return parsed.GroupID, nil
}
