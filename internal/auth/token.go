package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/interviewme/interviewme/config"
)

const TOKEN_ISSUER = "interviewme"

// TokenDuration reads TOKEN_EXPIRE_MINUTES, defaulting to one hour.
func TokenDuration() time.Duration {
	return time.Duration(config.GetEnvInt("TOKEN_EXPIRE_MINUTES", 60)) * time.Minute
}

func jwtKey() []byte {
	return []byte(config.GetEnv("JWT_SECRET_KEY", "dev-only-insecure-secret"))
}

// CustomClaims is the payload stored inside issued tokens.
type CustomClaims struct {
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// GenerateToken creates a signed HS256 JWT for a user.
func GenerateToken(userID string, roles []string, duration time.Duration) (string, error) {
	claims := &CustomClaims{
		UserID: userID,
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(duration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    TOKEN_ISSUER,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtKey())
}

// ValidateToken checks signature, expiry and issuer and returns the claims.
func ValidateToken(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return jwtKey(), nil
		},
		jwt.WithIssuer(TOKEN_ISSUER))
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrSignatureInvalid
}
