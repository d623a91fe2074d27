// internal/common/utils/jwt.go
// Access-token validation. Token issuance belongs to the auth
// service; this API only verifies what it is handed.

package utils

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// JWTClaims is the subset of claims this API cares about.
type JWTClaims struct {
	UserID int64
	Type   string // "access" or "refresh"
}

// ValidateJWT verifies signature and expiry and extracts the claims.
func ValidateJWT(tokenString, secret string) (*JWTClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	if exp, ok := mapClaims["exp"].(float64); ok {
		if time.Now().Unix() > int64(exp) {
			return nil, ErrInvalidToken
		}
	}

	claims := &JWTClaims{}
	switch v := mapClaims["user_id"].(type) {
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, ErrInvalidToken
		}
		claims.UserID = id
	case float64:
		claims.UserID = int64(v)
	default:
		return nil, ErrInvalidToken
	}

	if t, ok := mapClaims["type"].(string); ok {
		claims.Type = t
	}

	return claims, nil
}
