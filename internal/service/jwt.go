package service

import (
	"errors"
	"os"
	"time"

	"tictactoe_online/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

var jwtSecret []byte

func InitJWT() {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		panic("JWT_SECRET is not set")
	}
	jwtSecret = []byte(secret)
}

// InitJWTWithSecret is used by tests.
func InitJWTWithSecret(secret string) {
	jwtSecret = []byte(secret)
}

// GenerateIdentityToken signs a guest identity. The client persists the
// token and presents it on every WebSocket connect, so the uid stays
// stable across sessions without accounts.
func GenerateIdentityToken(p domain.Player) (string, error) {
	now := time.Now().Unix()
	claims := jwt.MapClaims{
		"uid":  p.UID,
		"name": p.Name,
		"exp":  time.Now().Add(30 * 24 * time.Hour).Unix(),
		"iat":  now,
		"nbf":  now,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// ParseIdentityToken validates a token and returns the identity bound
// to it.
func ParseIdentityToken(tokenString string) (domain.Player, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret, nil
	})

	if err != nil || !token.Valid {
		return domain.Player{}, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Player{}, errors.New("invalid claims")
	}

	now := time.Now().Unix()
	if exp, ok := claims["exp"].(float64); ok && int64(exp) < now {
		return domain.Player{}, errors.New("token expired")
	}
	if nbf, ok := claims["nbf"].(float64); ok && int64(nbf) > now {
		return domain.Player{}, errors.New("token not valid yet")
	}

	uid, ok := claims["uid"].(string)
	if !ok || uid == "" {
		return domain.Player{}, errors.New("uid not found")
	}
	name, _ := claims["name"].(string)

	return domain.Player{UID: uid, Name: name}, nil
}
