package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/katatrina/backoffice-BE/internal/model"
	"github.com/katatrina/backoffice-BE/internal/records"
)

type entryFilterRequest struct {
	From     string          `form:"from"`
	To       string          `form:"to"`
	Kind     model.EntryKind `form:"kind" binding:"omitempty,oneof=entrada saida"`
	Category string          `form:"category"`
}

func bindEntryFilter(ctx *gin.Context) (records.EntryFilter, bool) {
	var req entryFilterRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(err))
		return records.EntryFilter{}, false
	}

	filter := records.EntryFilter{Kind: req.Kind, Category: req.Category}

	var violations []*FieldViolation
	var err error
	if filter.From, err = parseDate(req.From, false); err != nil {
		violations = append(violations, &FieldViolation{Field: "from", Description: err.Error()})
	}
	if filter.To, err = parseDate(req.To, true); err != nil {
		violations = append(violations, &FieldViolation{Field: "to", Description: err.Error()})
	}
	if len(violations) > 0 {
		ctx.JSON(http.StatusBadRequest, failedValidationError(violations...))
		return records.EntryFilter{}, false
	}

	return filter, true
}

func (server *Server) listDailyEntries(ctx *gin.Context) {
	filter, ok := bindEntryFilter(ctx)
	if !ok {
		return
	}

	list, err := server.svc.DailyEntries.List(ctx, filter)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, list)
}

func (server *Server) getDailyBalance(ctx *gin.Context) {
	filter, ok := bindEntryFilter(ctx)
	if !ok {
		return
	}

	balance, err := server.svc.DailyEntries.Balance(ctx, filter)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, balance)
}

func (server *Server) createDailyEntry(ctx *gin.Context) {
	var req model.DailyEntry
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(err))
		return
	}
	req.CreatedBy = currentUser(ctx).UserID()

	created, err := server.svc.DailyEntries.Create(ctx, req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

func (server *Server) getDailyEntry(ctx *gin.Context) {
	getRecord(ctx, server.svc.DailyEntries.Get)
}

func (server *Server) updateDailyEntry(ctx *gin.Context) {
	updateRecord(ctx, server.svc.DailyEntries.Update)
}

func (server *Server) deleteDailyEntry(ctx *gin.Context) {
	deleteRecord(ctx, server.svc.DailyEntries.Delete)
}
