package middlewares

import (
	"ridepool/src/config"
	"ridepool/src/models"
	"ridepool/src/types"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const TOKEN_TTL = 24 * time.Hour

func GenerateToken(user *models.User, now time.Time) (string, error) {
	claims := &types.Claims{
		Username: user.Name,
		Role:     string(user.Role),
		UID:      user.UID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TOKEN_TTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(config.JWTSecret())
}
