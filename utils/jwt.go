package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ActorOfficer is the actor_type claim carried by officer tokens
const ActorOfficer = "officer"

// ErrInvalidToken is returned for any token that does not authenticate an officer
var ErrInvalidToken = errors.New("invalid token")

// GenerateOfficerJWT generates a JWT token for an authenticated officer user. Only officer-scoped
// tokens are accepted by the escalation and coordination endpoints.
func GenerateOfficerJWT(userID int64, secret []byte, expiresIn time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id":    userID,
		"actor_type": ActorOfficer,
		"exp":        now.Add(expiresIn).Unix(),
		"iat":        now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseOfficerJWT validates an officer token and returns its user_id claim
func ParseOfficerJWT(tokenString string, secret []byte) (int64, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return 0, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fmt.Errorf("%w: unexpected claims", ErrInvalidToken)
	}
	if at, _ := claims["actor_type"].(string); at != ActorOfficer {
		return 0, fmt.Errorf("%w: officer token required", ErrInvalidToken)
	}
	userIDFloat, ok := claims["user_id"].(float64)
	if !ok || userIDFloat <= 0 {
		return 0, fmt.Errorf("%w: user_id not found", ErrInvalidToken)
	}
	return int64(userIDFloat), nil
}
