package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/katatrina/backoffice-BE/internal/model"
	"github.com/katatrina/backoffice-BE/internal/records"
)

type listBonusesRequest struct {
	CollaboratorID string `form:"collaboratorId"`
	ReferenceMonth string `form:"referenceMonth"`
}

func (server *Server) listBonuses(ctx *gin.Context) {
	var req listBonusesRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(err))
		return
	}

	list, err := server.svc.Bonuses.List(ctx, records.BonusFilter{
		CollaboratorID: req.CollaboratorID,
		ReferenceMonth: req.ReferenceMonth,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, list)
}

func (server *Server) createBonus(ctx *gin.Context) {
	var req model.Bonus
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(err))
		return
	}
	req.CreatedBy = currentUser(ctx).UserID()

	created, err := server.svc.Bonuses.Create(ctx, req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

func (server *Server) getBonus(ctx *gin.Context) {
	getRecord(ctx, server.svc.Bonuses.Get)
}

func (server *Server) updateBonus(ctx *gin.Context) {
	updateRecord(ctx, server.svc.Bonuses.Update)
}

func (server *Server) deleteBonus(ctx *gin.Context) {
	deleteRecord(ctx, server.svc.Bonuses.Delete)
}
