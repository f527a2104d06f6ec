package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims for booking manage tokens. A manage token is a capability scoped
// to a single booking, not an account credential.
type Claims struct {
	BookingID int64  `json:"booking_id"`
	Email     string `json:"email"`
	Scope     string `json:"scope"`
	jwt.RegisteredClaims
}

const ManageScope = "booking:read booking:cancel"

func NewManageToken(bookingID int64, email, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		BookingID: bookingID,
		Email:     email,
		Scope:     ManageScope,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Audience:  []string{"brightstay-api"},
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func Parse(tokenString, secret string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := tok.Claims.(*Claims); ok && tok.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
