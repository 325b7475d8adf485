package middlewares

import (
	"errors"
	"log"
	"net/http"
	"ridepool/src/config"
	"ridepool/src/repository"
	"ridepool/src/types"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AuthMiddleware validates the bearer token and loads the caller. The
// handlers read "id", "name", "email", "uid" and "role" from the context.
func AuthMiddleware(store repository.Store) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		bearerToken := ctx.Request.Header.Get("Authorization")
		if !strings.HasPrefix(bearerToken, "Bearer ") {
			ctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		reqToken := strings.TrimSpace(strings.TrimPrefix(bearerToken, "Bearer "))
		if reqToken == "" {
			ctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		claims := &types.Claims{}
		tkn, err := jwt.ParseWithClaims(reqToken, claims, func(t *jwt.Token) (any, error) {
			return config.JWTSecret(), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			log.Printf("token error: %s\n", err.Error())
			if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrTokenMalformed) {
				ctx.AbortWithStatus(http.StatusUnauthorized)
				return
			}
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "code": "unauthorized"})
			return
		}
		if !tkn.Valid {
			ctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		uid, err := strconv.ParseUint(claims.Subject, 10, 64)
		if err != nil || uid == 0 {
			log.Printf("error parsing claims: subject %q\n", claims.Subject)
			ctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		user, err := store.GetUser(ctx.Request.Context(), uint(uid))
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				log.Printf("error loading user %d: %s\n", uid, err.Error())
			}
			ctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		ctx.Set("id", user.ID)
		ctx.Set("name", user.Name)
		ctx.Set("email", user.Email)
		ctx.Set("uid", user.UID)
		ctx.Set("role", string(user.Role))
	}
}

// RequireRole lets through callers whose role is one of roles.
func RequireRole(roles ...types.Role) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		role := types.Role(ctx.GetString("role"))
		for _, r := range roles {
			if r == role {
				ctx.Next()
				return
			}
		}
		ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role", "code": "forbidden"})
	}
}
