package main

import (
	"context"
	"net/http"
	"ridepool/src/middlewares"
	"ridepool/src/repository"
	"ridepool/src/services"
	"ridepool/src/types"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func rideHandlers(g *gin.RouterGroup, engine *services.Engine, rdb *redis.Client) *gin.RouterGroup {
	g.
		GET("/rides", func(ctx *gin.Context) {
			var query types.RideQueryFilters
			if err := ctx.ShouldBindQuery(&query); err != nil {
				respondBindError(ctx, err)
				return
			}
			rides, err := engine.ListRides(ctx.Request.Context(), repository.RideFilter{
				DriverID:    query.DriverID,
				Origin:      query.Origin,
				Destination: query.Destination,
			}, engine.Clock())
			if err != nil {
				respondError(ctx, "ListRides", err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": rides, "count": len(rides)})
		}).
		GET("/rides/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				respondBindError(ctx, err)
				return
			}
			ride, err := engine.GetRide(ctx.Request.Context(), params.ID)
			if err != nil {
				respondError(ctx, "GetRide", err)
				return
			}
			l := ride.Ledger()
			dates := engine.AvailableDates(ride, engine.Clock())
			seats := map[string]int{}
			for _, d := range dates {
				seats[string(d)] = l.Remaining(d)
			}
			ctx.JSON(http.StatusOK, gin.H{"data": ride, "available_dates": dates, "seats": seats})
		}).
		POST("/rides", middlewares.RequireRole(types.ROLE_DRIVER), func(ctx *gin.Context) {
			var body types.PublishRideRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				respondBindError(ctx, err)
				return
			}
			ride, err := engine.PublishRide(ctx.Request.Context(), services.PublishRideInput{
				DriverID:        ctx.GetUint("id"),
				DriverName:      ctx.GetString("name"),
				Origin:          body.Origin,
				Destination:     body.Destination,
				PricePerSeat:    body.PricePerSeat,
				SeatsPerDate:    body.SeatsPerDate,
				Category:        types.RideCategory(body.Category),
				DepartureAt:     body.DepartureAt,
				RecurrenceDates: body.RecurrenceDates,
				CommuteTimes:    body.CommuteTimes,
			})
			if err != nil {
				respondError(ctx, "PublishRide", err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": ride})
		}).
		GET("/rides/:id/passengers", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				respondBindError(ctx, err)
				return
			}
			var query types.ManifestQueryFilters
			if err := ctx.ShouldBindQuery(&query); err != nil {
				respondBindError(ctx, err)
				return
			}
			bookings, err := engine.RideManifest(ctx.Request.Context(), params.ID, ctx.GetUint("id"), query.Date)
			if err != nil {
				respondError(ctx, "RideManifest", err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": bookings, "count": len(bookings)})
		}).
		POST("/rides/:id/bookings", middlewares.Idempotency(rdb), func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				respondBindError(ctx, err)
				return
			}
			var body types.ReserveSeatsRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				respondBindError(ctx, err)
				return
			}
			bookings, err := engine.Reserve(ctx.Request.Context(), services.ReserveRequest{
				RideID:       params.ID,
				PassengerID:  ctx.GetUint("id"),
				Dates:        body.Dates,
				Seats:        body.Seats,
				ContactEmail: body.ContactEmail,
			})
			if err != nil {
				respondError(ctx, "Reserve", err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": bookings, "count": len(bookings)})
		}).
		POST("/rides/:id/start", func(ctx *gin.Context) {
			journeyHandler(ctx, "StartJourney", engine.StartJourney)
		}).
		POST("/rides/:id/finish", func(ctx *gin.Context) {
			journeyHandler(ctx, "FinishJourney", engine.FinishJourney)
		}).
		POST("/rides/:id/ratings", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				respondBindError(ctx, err)
				return
			}
			var body types.RateRideRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				respondBindError(ctx, err)
				return
			}
			outcome, err := engine.Rate(ctx.Request.Context(), services.RateRequest{
				RideID:      params.ID,
				PassengerID: ctx.GetUint("id"),
				Rating:      body.Rating,
				RideDate:    body.RideDate,
				Comment:     body.Comment,
			})
			if err != nil {
				respondError(ctx, "Rate", err)
				return
			}
			status := http.StatusCreated
			if outcome.AlreadyRated {
				status = http.StatusOK
			}
			ctx.JSON(status, gin.H{"data": outcome.Rating, "already_rated": outcome.AlreadyRated})
		})
	return g
}

type journeyFunc func(ctx context.Context, rideID, callerID uint, rideDate string) (int64, error)

func journeyHandler(ctx *gin.Context, scope string, advance journeyFunc) {
	var params types.SimpleRequestParams
	if err := ctx.ShouldBindUri(&params); err != nil {
		respondBindError(ctx, err)
		return
	}
	var body types.JourneyRequestBody
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&body); err != nil {
			respondBindError(ctx, err)
			return
		}
	}
	updated, err := advance(ctx.Request.Context(), params.ID, ctx.GetUint("id"), body.RideDate)
	if err != nil {
		respondError(ctx, scope, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"updated": updated})
}
