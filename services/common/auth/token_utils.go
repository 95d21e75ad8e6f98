package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var (
	ErrSecretNotConfigured = errors.New("JWT secret not configured")
	ErrInvalidToken        = errors.New("invalid or expired token")
)

// Identity is what the auth service vouches for in a bearer token.
type Identity struct {
	UserID int64
	Role   int
}

// Verifier checks HS256 tokens issued by the auth service.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// ParseAndValidateToken parses a JWT token string and returns the identity it
// carries. The "sub" claim holds the user id and "role" the role id.
func (v *Verifier) ParseAndValidateToken(tokenStr string) (Identity, error) {
	if len(v.secret) == 0 {
		return Identity{}, ErrSecretNotConfigured
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, fmt.Errorf("invalid token claims")
	}

	sub, _ := claims["sub"].(string)
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || userID <= 0 {
		return Identity{}, fmt.Errorf("invalid token: missing user_id")
	}

	// json numbers decode as float64
	role, ok := claims["role"].(float64)
	if !ok {
		return Identity{}, fmt.Errorf("invalid token: missing role")
	}

	return Identity{UserID: userID, Role: int(role)}, nil
}

// IssueToken signs a token for id. Production tokens come from the auth
// service; this exists for local tooling and tests.
func (v *Verifier) IssueToken(id Identity, ttl time.Duration) (string, error) {
	if len(v.secret) == 0 {
		return "", ErrSecretNotConfigured
	}
	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(id.UserID, 10),
		"role": id.Role,
		"exp":  time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
