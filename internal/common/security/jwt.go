package security

import (
	"errors"
	"time"

	"library_api/internal/platform/config"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

var TokenAuth *jwtauth.JWTAuth

func InitJWT() {
	TokenAuth = jwtauth.New("HS256", config.AppConfig.JWTKey, nil)
}

// GenerateToken signs an access token carrying the user id. Role is not
// embedded; identity resolution loads the user record on every request.
func GenerateToken(userID string) (string, error) {
	claims := jwt.MapClaims{
		"id":  userID,
		"exp": time.Now().Add(config.AppConfig.JWTExp).Unix(),
		"iat": time.Now().Unix(),
	}
	_, tokenString, err := TokenAuth.Encode(claims)
	return tokenString, err
}

func GetUserIDFromClaims(claims jwt.MapClaims) (string, error) {
	id, ok := claims["id"].(string)
	if !ok {
		return "", errors.New("id claim is missing or not a string")
	}
	return id, nil
}
