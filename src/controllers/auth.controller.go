package controllers

import (
	"errors"
	"log"
	"net/http"
	"ridepool/src/middlewares"
	"ridepool/src/models"
	"ridepool/src/repository"
	"ridepool/src/types"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RegisterUserRequestBody struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"omitempty,oneof=passenger driver manager"`
}

// AuthRegister creates a user and returns a bearer token for it. Only
// mounted outside production.
func AuthRegister(ctx *gin.Context, store repository.Store) (token *string, status int, err error) {
	var body RegisterUserRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}
	role := types.ROLE_PASSENGER
	if body.Role != "" {
		role = types.Role(body.Role)
	}
	user := &models.User{
		Name:  strings.TrimSpace(body.Name),
		Email: strings.ToLower(strings.TrimSpace(body.Email)),
		Role:  role,
		UID:   uuid.NewString(),
	}
	if err := store.CreateUser(ctx.Request.Context(), user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, http.StatusConflict, errors.New("email is already registered")
		}
		log.Printf("error creating user: %s\n", err.Error())
		return nil, http.StatusInternalServerError, err
	}
	signed, err := middlewares.GenerateToken(user, time.Now())
	if err != nil {
		log.Printf("error signing token: %s\n", err.Error())
		return nil, http.StatusInternalServerError, err
	}
	log.Printf("Registered user %d (%s)\n", user.ID, user.Role)
	return &signed, http.StatusCreated, nil
}
