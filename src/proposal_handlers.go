package main

import (
	"net/http"
	"ridepool/src/services"
	"ridepool/src/types"

	"github.com/gin-gonic/gin"
)

func proposalHandlers(g *gin.RouterGroup, engine *services.Engine) *gin.RouterGroup {
	g.
		GET("/bookings/:id/proposals", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				respondBindError(ctx, err)
				return
			}
			proposals, err := engine.BookingProposals(ctx.Request.Context(), params.ID, ctx.GetUint("id"))
			if err != nil {
				respondError(ctx, "BookingProposals", err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": proposals, "count": len(proposals)})
		}).
		POST("/bookings/:id/proposals", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				respondBindError(ctx, err)
				return
			}
			var body types.ProposeEditRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				respondBindError(ctx, err)
				return
			}
			proposal, err := engine.ProposeEdit(ctx.Request.Context(), params.ID, ctx.GetUint("id"), services.ProposeEditInput{
				Pickup: body.Pickup,
				Time:   body.Time,
				Cost:   body.Cost,
			})
			if err != nil {
				respondError(ctx, "ProposeEdit", err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": proposal})
		}).
		POST("/proposals/:id/accept", func(ctx *gin.Context) {
			answerProposal(ctx, engine, true)
		}).
		POST("/proposals/:id/reject", func(ctx *gin.Context) {
			answerProposal(ctx, engine, false)
		})
	return g
}

func answerProposal(ctx *gin.Context, engine *services.Engine, accept bool) {
	var params types.SimpleRequestParams
	if err := ctx.ShouldBindUri(&params); err != nil {
		respondBindError(ctx, err)
		return
	}
	proposal, err := engine.RespondToProposal(ctx.Request.Context(), params.ID, ctx.GetUint("id"), accept)
	if err != nil {
		respondError(ctx, "RespondToProposal", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": proposal})
}
