// Package token verifies operator access tokens. Issuance lives in the
// external auth service; this package only validates signatures and expiry.
package token

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/CarlosSantos19/parqueadero-app/internal/platform/middleware"
	dErrors "github.com/CarlosSantos19/parqueadero-app/pkg/domain-errors"
)

// OperatorTokenClaims are the JWT claims carried by operator access tokens.
type OperatorTokenClaims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Validator parses and verifies HMAC-signed operator tokens.
type Validator struct {
	signingKey []byte
}

func NewValidator(signingKey string) *Validator {
	return &Validator{signingKey: []byte(signingKey)}
}

// ValidateToken verifies the token signature and expiry and extracts claims.
func (v *Validator) ValidateToken(tokenString string) (*middleware.OperatorClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &OperatorTokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "unexpected signing method")
		}
		return v.signingKey, nil
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*OperatorTokenClaims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	if claims.Subject == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token missing subject")
	}

	return &middleware.OperatorClaims{
		OperatorID: claims.Subject,
		Name:       claims.Name,
	}, nil
}
