package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/katatrina/backoffice-BE/internal/model"
	"github.com/katatrina/backoffice-BE/internal/records"
)

const documentFileField = "arquivo"

type listDocumentsRequest struct {
	CollaboratorID string               `form:"collaboratorId"`
	Kind           string               `form:"type"`
	Status         model.DocumentStatus `form:"status" binding:"omitempty,oneof=valido vencendo vencido"`
}

func (server *Server) listDocuments(ctx *gin.Context) {
	var req listDocumentsRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(err))
		return
	}

	list, err := server.svc.Documents.List(ctx, records.DocumentFilter{
		CollaboratorID: req.CollaboratorID,
		Kind:           req.Kind,
		Status:         req.Status,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, list)
}

// createDocumentRequest is sent as multipart/form-data when a file is
// attached, or as JSON otherwise.
type createDocumentRequest struct {
	CollaboratorID   string `form:"colaboradorId" json:"colaboradorId" binding:"required"`
	CollaboratorName string `form:"colaboradorNome" json:"colaboradorNome"`
	Kind             string `form:"tipo" json:"tipo" binding:"required"`
	Description      string `form:"descricao" json:"descricao"`
	ValidUntil       string `form:"dataValidade" json:"dataValidade" binding:"required"`
}

func (server *Server) createDocument(ctx *gin.Context) {
	var req createDocumentRequest
	if err := ctx.ShouldBind(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(err))
		return
	}

	validUntil, err := parseDateTime(req.ValidUntil)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, failedValidationError(&FieldViolation{
			Field:       "dataValidade",
			Description: "dataValidade must be a date (YYYY-MM-DD)",
		}))
		return
	}

	file, err := readAttachment(ctx, documentFileField)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(err))
		return
	}

	doc := model.Document{
		CollaboratorID:   req.CollaboratorID,
		CollaboratorName: req.CollaboratorName,
		Kind:             req.Kind,
		Description:      req.Description,
		ValidUntil:       validUntil,
	}
	doc.CreatedBy = currentUser(ctx).UserID()

	created, err := server.svc.Documents.Create(ctx, doc, file)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

func (server *Server) getDocument(ctx *gin.Context) {
	getRecord(ctx, server.svc.Documents.Get)
}

func (server *Server) updateDocument(ctx *gin.Context) {
	updateRecord(ctx, server.svc.Documents.Update)
}

func (server *Server) deleteDocument(ctx *gin.Context) {
	deleteRecord(ctx, server.svc.Documents.Delete)
}
