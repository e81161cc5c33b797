// Package records holds the services of the back-office entities. Each one
// sits on a fallback.Repository, so creates and lists keep working while the
// remote store is slow or unreachable, except for the pure-remote entities.
package records

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/katatrina/backoffice-BE/internal/storage"
	"github.com/katatrina/backoffice-BE/internal/util"
	"github.com/rs/zerolog/log"
)

const (
	CollectionCollaborators         = "colaboradores"
	CollectionDocuments             = "documentacoes"
	CollectionBulletins             = "boletinsMedicao"
	CollectionBonuses               = "premiosProdutividade"
	CollectionFinancialTransactions = "transacoes_financeiras"
	CollectionDailyEntries          = "lancamentosDiarios"
	CollectionUsers                 = "users"

	folderDocuments = "documentacoes"
	folderFinancial = "transacoes_financeiras"

	cleanupTimeout = 10 * time.Second
)

var ErrUploadFailed = errors.New("failed to upload the attached file")

// Attachment is a file sent along with a record.
type Attachment struct {
	Filename string
	Data     []byte
}

type Timeouts struct {
	Remote          time.Duration
	Upload          time.Duration
	FinancialUpload time.Duration
}

// storedFile is an uploaded attachment and the name it can be deleted by.
type storedFile struct {
	URL  string
	Name string
}

func upload(ctx context.Context, files storage.FileStore, timeout time.Duration, file *Attachment, folder string) (storedFile, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	name := util.GenerateUploadName(file.Filename)

	type result struct {
		url string
		err error
	}
	done := make(chan result, 1)
	go func() {
		url, err := files.UploadFile(ctx, file.Data, name, folder)
		done <- result{url, err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return storedFile{}, fmt.Errorf("%w: %w", ErrUploadFailed, res.err)
		}
		return storedFile{URL: res.url, Name: name}, nil
	case <-ctx.Done():
		return storedFile{}, fmt.Errorf("%w: %w", ErrUploadFailed, ctx.Err())
	}
}

// discardFile deletes an uploaded file no record points to. Failures are
// only logged.
func discardFile(ctx context.Context, files storage.FileStore, folder, name string) {
	if name == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	if err := files.DeleteFile(ctx, name, folder); err != nil {
		log.Error().Err(err).Str("folder", folder).Str("name", name).Msg("failed to delete stored file")
	}
}
