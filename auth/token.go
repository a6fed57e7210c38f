package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"pairchat/domain"
	apperrors "pairchat/errors"
)

// CustomClaims defines the structure of the data stored inside the JWT.
type CustomClaims struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks bearer tokens issued by the auth service.
// The secret and issuer come from configuration: the gateway only ever
// verifies, it never mints tokens outside the dev tool.
type Verifier struct {
	secret []byte
	issuer string
}

func NewVerifier(secret, issuer string) Verifier {
	return Verifier{secret: []byte(secret), issuer: issuer}
}

// Verify parses and validates the signature, expiration and issuer of a
// JWT string and returns the authenticated identity.
func (v Verifier) Verify(credential string) (domain.Identity, error) {
	token, err := jwt.ParseWithClaims(credential, &CustomClaims{},
		func(token *jwt.Token) (interface{}, error) {
			return v.secret, nil
		},
		jwt.WithIssuer(v.issuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", apperrors.ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return domain.Identity{}, apperrors.ErrUnauthorized
	}
	return domain.Identity{UserID: claims.UserID, DisplayName: claims.DisplayName}, nil
}

// GenerateToken creates a signed JWT for a specific user.
// Used by tests and by cmd/tokengen, the real issuer lives in the auth service.
func GenerateToken(secret, issuer, userID, displayName string,
	tokenDuration time.Duration) (string, error) {
	now := time.Now()
	claims := &CustomClaims{
		UserID:      userID,
		DisplayName: displayName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
