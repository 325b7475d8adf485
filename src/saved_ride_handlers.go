package main

import (
	"net/http"
	"ridepool/src/middlewares"
	"ridepool/src/services"
	"ridepool/src/types"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func savedRideHandlers(g *gin.RouterGroup, engine *services.Engine, rdb *redis.Client) *gin.RouterGroup {
	g.
		POST("/rides/:id/saved", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				respondBindError(ctx, err)
				return
			}
			var body types.SaveRideRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				respondBindError(ctx, err)
				return
			}
			saved, err := engine.SaveRide(ctx.Request.Context(), params.ID, ctx.GetUint("id"), body.Days)
			if err != nil {
				respondError(ctx, "SaveRide", err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": saved})
		}).
		GET("/saved-rides", func(ctx *gin.Context) {
			saved, err := engine.SavedRides(ctx.Request.Context(), ctx.GetUint("id"))
			if err != nil {
				respondError(ctx, "SavedRides", err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": saved, "count": len(saved)})
		}).
		DELETE("/saved-rides/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				respondBindError(ctx, err)
				return
			}
			if err := engine.DeleteSavedRide(ctx.Request.Context(), params.ID, ctx.GetUint("id")); err != nil {
				respondError(ctx, "DeleteSavedRide", err)
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		POST("/saved-rides/:id/rebook", middlewares.Idempotency(rdb), func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				respondBindError(ctx, err)
				return
			}
			var body types.RebookRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				respondBindError(ctx, err)
				return
			}
			bookings, err := engine.Rebook(ctx.Request.Context(), services.RebookRequest{
				SavedRideID:  params.ID,
				PassengerID:  ctx.GetUint("id"),
				Dates:        body.Dates,
				Seats:        body.Seats,
				ContactEmail: body.ContactEmail,
			})
			if err != nil {
				respondError(ctx, "Rebook", err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": bookings, "count": len(bookings)})
		})
	return g
}
