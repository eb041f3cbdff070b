package auth

import (
	"crypto/rsa"
	"errors"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the resolved caller, consumed by handlers as an opaque
// precondition. Credential verification itself lives here, outside the
// pipeline.
type Identity struct {
	UserID string
	Role   string
}

// JWTVerifier verifies RS256 tokens issued by the external auth service.
type JWTVerifier struct {
	pub *rsa.PublicKey
}

func NewJWTVerifier(pubPath string) (*JWTVerifier, error) {
	b, err := os.ReadFile(pubPath)
	if err != nil {
		return nil, err
	}
	pub, err := jwt.ParseRSAPublicKeyFromPEM(b)
	if err != nil {
		return nil, err
	}
	return &JWTVerifier{pub: pub}, nil
}

func (j *JWTVerifier) VerifyToken(token string) (Identity, error) {
	t, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return j.pub, nil
	})
	if err != nil {
		return Identity{}, err
	}
	if !t.Valid {
		return Identity{}, errors.New("invalid token")
	}
	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, errors.New("invalid claims")
	}

	var id Identity
	// try common claim keys
	for _, key := range []string{"user_id", "user_uuid", "sub"} {
		if v, ok := claims[key].(string); ok && v != "" {
			id.UserID = v
			break
		}
	}
	if id.UserID == "" {
		return Identity{}, errors.New("user id not found in token")
	}
	if v, ok := claims["role"].(string); ok {
		id.Role = v
	}
	return id, nil
}
