package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/katatrina/backoffice-BE/internal/records"
)

// maxAttachmentSize bounds uploaded attachments.
const maxAttachmentSize = 10 << 20

// readAttachment returns the file sent in the multipart field, or nil when
// the request carries none.
func readAttachment(ctx *gin.Context, field string) (*records.Attachment, error) {
	header, err := ctx.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if header.Size > maxAttachmentSize {
		return nil, fmt.Errorf("file %s is larger than %d MB", header.Filename, maxAttachmentSize>>20)
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return &records.Attachment{Filename: header.Filename, Data: data}, nil
}

// parseDateTime accepts a calendar date (YYYY-MM-DD) or an RFC 3339 timestamp.
func parseDateTime(value string) (time.Time, error) {
	if t, err := time.ParseInLocation(dateLayout, value, time.Local); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

// getRecord writes the record with the :id path parameter.
func getRecord[T any](ctx *gin.Context, get func(context.Context, string) (T, error)) {
	getRecordByID(ctx, ctx.Param("id"), get)
}

func getRecordByID[T any](ctx *gin.Context, id string, get func(context.Context, string) (T, error)) {
	record, err := get(ctx, id)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, record)
}

// serverOwned is a record that can undo client writes to the fields only the
// server sets.
type serverOwned[T any] interface {
	*T
	RestoreServerFields(prev *T)
}

// updateRecord overlays the JSON body on the record with the :id path
// parameter. Fields absent from the body keep their value.
func updateRecord[T any, PT serverOwned[T]](ctx *gin.Context, update func(context.Context, string, func(*T) error) (T, error)) {
	var bindErr error
	updated, err := update(ctx, ctx.Param("id"), func(record *T) error {
		prev := *record
		if bindErr = ctx.ShouldBindJSON(record); bindErr != nil {
			return bindErr
		}
		PT(record).RestoreServerFields(&prev)
		return nil
	})
	if bindErr != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(bindErr))
		return
	}
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

// deleteRecord removes the record with the :id path parameter.
func deleteRecord(ctx *gin.Context, remove func(context.Context, string) error) {
	if err := remove(ctx, ctx.Param("id")); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
