package main

import (
	"context"
	"net/http"
	"ridepool/src/middlewares"
	"ridepool/src/services"
	"ridepool/src/types"

	"github.com/gin-gonic/gin"
)

func earningsHandlers(g *gin.RouterGroup, engine *services.Engine) *gin.RouterGroup {
	g.GET("/earnings", func(ctx *gin.Context) {
		var query types.EarningsQueryFilters
		if err := ctx.ShouldBindQuery(&query); err != nil {
			respondBindError(ctx, err)
			return
		}
		report, err := engine.DriverEarnings(ctx.Request.Context(), ctx.GetUint("id"), engine.Clock(), query.Weeks)
		if err != nil {
			respondError(ctx, "DriverEarnings", err)
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"data": report})
	})
	return g
}

type feeSetter interface {
	SetPlatformFeeRate(ctx context.Context, rate float64) error
}

func settingsHandlers(g *gin.RouterGroup, engine *services.Engine) *gin.RouterGroup {
	g.
		GET("/settings/platform-fee", func(ctx *gin.Context) {
			rate, err := engine.Fees.CurrentPlatformFeeRate(ctx.Request.Context())
			if err != nil {
				respondError(ctx, "PlatformFee", err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"platform_fee": rate}})
		}).
		PUT("/settings/platform-fee", middlewares.RequireRole(types.ROLE_MANAGER), func(ctx *gin.Context) {
			var body types.UpdateSettingRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				respondBindError(ctx, err)
				return
			}
			setter, ok := engine.Fees.(feeSetter)
			if !ok {
				ctx.JSON(http.StatusNotImplemented, gin.H{"error": "platform fee is not configurable", "code": "not_configurable"})
				return
			}
			if err := setter.SetPlatformFeeRate(ctx.Request.Context(), *body.Value); err != nil {
				respondError(ctx, "SetPlatformFee", err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"platform_fee": *body.Value}})
		})
	return g
}
