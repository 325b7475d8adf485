package main

import (
	"net/http"
	"ridepool/src/services"
	"ridepool/src/types"

	"github.com/gin-gonic/gin"
)

func bookingHandlers(g *gin.RouterGroup, engine *services.Engine) *gin.RouterGroup {
	g.
		GET("/bookings", func(ctx *gin.Context) {
			bookings, err := engine.PassengerBookings(ctx.Request.Context(), ctx.GetUint("id"))
			if err != nil {
				respondError(ctx, "PassengerBookings", err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": bookings, "count": len(bookings)})
		}).
		GET("/bookings/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				respondBindError(ctx, err)
				return
			}
			booking, err := engine.Booking(ctx.Request.Context(), params.ID, ctx.GetUint("id"))
			if err != nil {
				respondError(ctx, "Booking", err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": booking})
		}).
		POST("/bookings/:id/cancel", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				respondBindError(ctx, err)
				return
			}
			outcome, err := engine.Cancel(ctx.Request.Context(), params.ID, ctx.GetUint("id"), engine.Clock())
			if err != nil {
				respondError(ctx, "Cancel", err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": outcome})
		})
	return g
}
