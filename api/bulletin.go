package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/katatrina/backoffice-BE/internal/model"
	"github.com/katatrina/backoffice-BE/internal/records"
)

type listBulletinsRequest struct {
	Status   model.BulletinStatus `form:"status" binding:"omitempty,oneof=pendente aprovado emitido"`
	Contract string               `form:"contract"`
}

func (server *Server) listBulletins(ctx *gin.Context) {
	var req listBulletinsRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(err))
		return
	}

	list, err := server.svc.Bulletins.List(ctx, records.BulletinFilter{
		Status:   req.Status,
		Contract: req.Contract,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, list)
}

func (server *Server) createBulletin(ctx *gin.Context) {
	var req model.Bulletin
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(err))
		return
	}
	req.CreatedBy = currentUser(ctx).UserID()

	created, err := server.svc.Bulletins.Create(ctx, req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

func (server *Server) getBulletin(ctx *gin.Context) {
	getRecord(ctx, server.svc.Bulletins.Get)
}

func (server *Server) updateBulletin(ctx *gin.Context) {
	updateRecord(ctx, server.svc.Bulletins.Update)
}

func (server *Server) deleteBulletin(ctx *gin.Context) {
	deleteRecord(ctx, server.svc.Bulletins.Delete)
}
