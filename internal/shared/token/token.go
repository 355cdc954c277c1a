package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

var (
	ErrInvalid = errors.New("invalid token")
	ErrExpired = errors.New("token expired")
)

type Claims struct {
	jwt.RegisteredClaims
	EmployeeID uint   `json:"employee_id"`
	Role       string `json:"role"`
	Type       string `json:"typ"`
}

func Issue(secret string, employeeID uint, role, typ string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(employeeID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		EmployeeID: employeeID,
		Role:       role,
		Type:       typ,
	})
	return t.SignedString([]byte(secret))
}

// Parse verifies the signature and expiry and checks the token type.
func Parse(secret, raw, typ string) (*Claims, error) {
	claims := &Claims{}
	t, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}
	if !t.Valid || claims.EmployeeID == 0 || claims.Type != typ {
		return nil, ErrInvalid
	}
	return claims, nil
}
