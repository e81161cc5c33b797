package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/katatrina/backoffice-BE/internal/model"
)

const financialFileField = "anexo"

func (server *Server) listFinancialTransactions(ctx *gin.Context) {
	filter, ok := bindEntryFilter(ctx)
	if !ok {
		return
	}

	list, err := server.svc.Financial.List(ctx, filter)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, list)
}

// createFinancialTransactionRequest is sent as multipart/form-data when a
// file is attached, or as JSON otherwise.
type createFinancialTransactionRequest struct {
	Date        string          `form:"data" json:"data" binding:"required"`
	Description string          `form:"descricao" json:"descricao" binding:"required"`
	Kind        model.EntryKind `form:"tipo" json:"tipo" binding:"required"`
	Amount      float64         `form:"valor" json:"valor"`
	Category    string          `form:"categoria" json:"categoria"`
}

func (server *Server) createFinancialTransaction(ctx *gin.Context) {
	var req createFinancialTransactionRequest
	if err := ctx.ShouldBind(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(err))
		return
	}

	date, err := parseDateTime(req.Date)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, failedValidationError(&FieldViolation{
			Field:       "data",
			Description: "data must be a date (YYYY-MM-DD)",
		}))
		return
	}

	file, err := readAttachment(ctx, financialFileField)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(err))
		return
	}

	tx := model.FinancialTransaction{
		Date:        date,
		Description: req.Description,
		Kind:        req.Kind,
		Amount:      req.Amount,
		Category:    req.Category,
	}
	tx.CreatedBy = currentUser(ctx).UserID()

	created, err := server.svc.Financial.Create(ctx, tx, file)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

func (server *Server) attachFinancialFile(ctx *gin.Context) {
	file, err := readAttachment(ctx, financialFileField)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(err))
		return
	}
	if file == nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(errors.New("no file provided")))
		return
	}

	updated, err := server.svc.Financial.AttachFile(ctx, ctx.Param("id"), *file)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

func (server *Server) getFinancialTransaction(ctx *gin.Context) {
	getRecord(ctx, server.svc.Financial.Get)
}

func (server *Server) updateFinancialTransaction(ctx *gin.Context) {
	updateRecord(ctx, server.svc.Financial.Update)
}

func (server *Server) deleteFinancialTransaction(ctx *gin.Context) {
	deleteRecord(ctx, server.svc.Financial.Delete)
}
