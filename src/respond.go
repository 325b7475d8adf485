package main

import (
	"errors"
	"log"
	"net/http"
	"ridepool/src/apperr"

	"github.com/gin-gonic/gin"
)

const RETRY_AFTER_SECONDS = "1"

// respondError writes err as {"error", "code"} with the status apperr maps
// it to, plus the fields a client needs to react.
func respondError(ctx *gin.Context, scope string, err error) {
	status := apperr.HTTPStatus(err)
	body := gin.H{"error": err.Error(), "code": apperr.Code(err)}

	var seats apperr.InsufficientSeatsError
	if errors.As(err, &seats) {
		body["ride_id"] = seats.RideID
		body["date"] = seats.Date
		body["requested"] = seats.Requested
		body["available"] = seats.Available
	}
	var conflict apperr.ConcurrencyConflictError
	if errors.As(err, &conflict) {
		body["ride_id"] = conflict.RideID
		ctx.Header("Retry-After", RETRY_AFTER_SECONDS)
	}
	var invalid apperr.ValidationError
	if errors.As(err, &invalid) && invalid.Field != "" {
		body["field"] = invalid.Field
	}
	if status >= http.StatusInternalServerError {
		log.Printf("[%s] request %s failed: %s\n", scope, ctx.GetString("request_id"), err.Error())
	}
	if status == http.StatusInternalServerError {
		body["error"] = "internal server error"
	}
	ctx.JSON(status, body)
}

// respondBindError answers a failed ShouldBind* call.
func respondBindError(ctx *gin.Context, err error) {
	ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation_error"})
}
