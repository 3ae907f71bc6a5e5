package fakeapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	tokenAccess  = "access"
	tokenRefresh = "refresh"
)

var errTokenRevoked = errors.New("token revoked")

type tokenClaims struct {
	Type       string `json:"type"`
	Generation int64  `json:"gen"`
	jwt.RegisteredClaims
}

func (s *Server) issue(userID int64, kind string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := tokenClaims{
		Type:       kind,
		Generation: s.generation(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// verify parses a token of the given kind and returns its user id.
func (s *Server) verify(raw, kind string) (int64, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return 0, err
	}
	if !token.Valid {
		return 0, errors.New("invalid token")
	}
	if claims.Type != kind {
		return 0, errors.New("wrong token type")
	}
	if claims.Generation != s.generation(kind) {
		return 0, errTokenRevoked
	}
	return strconv.ParseInt(claims.Subject, 10, 64)
}

func (s *Server) generation(kind string) int64 {
	if kind == tokenRefresh {
		return s.refreshGen.Load()
	}
	return s.accessGen.Load()
}
