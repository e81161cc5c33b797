package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/katatrina/backoffice-BE/internal/model"
	"github.com/katatrina/backoffice-BE/internal/records"
)

type listCollaboratorsRequest struct {
	Active     *bool  `form:"active"`
	Department string `form:"department"`
	Search     string `form:"search"`
}

func (server *Server) listCollaborators(ctx *gin.Context) {
	var req listCollaboratorsRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(err))
		return
	}

	list, err := server.svc.Collaborators.List(ctx, records.CollaboratorFilter{
		Active:     req.Active,
		Department: req.Department,
		Search:     req.Search,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, list)
}

func (server *Server) createCollaborator(ctx *gin.Context) {
	var req model.Collaborator
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(err))
		return
	}
	req.CreatedBy = currentUser(ctx).UserID()

	created, err := server.svc.Collaborators.Create(ctx, req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

func (server *Server) getCollaborator(ctx *gin.Context) {
	getRecord(ctx, server.svc.Collaborators.Get)
}

func (server *Server) updateCollaborator(ctx *gin.Context) {
	updateRecord(ctx, server.svc.Collaborators.Update)
}

func (server *Server) deleteCollaborator(ctx *gin.Context) {
	deleteRecord(ctx, server.svc.Collaborators.Delete)
}
