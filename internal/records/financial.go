package records

import (
	"context"
	"time"

	"github.com/katatrina/backoffice-BE/internal/fallback"
	"github.com/katatrina/backoffice-BE/internal/model"
	"github.com/katatrina/backoffice-BE/internal/remote"
	"github.com/katatrina/backoffice-BE/internal/storage"
)

// FinancialService manages financial transactions. They are never kept
// locally: remote and upload failures are returned to the caller.
type FinancialService struct {
	repo          *fallback.Repository[model.FinancialTransaction, *model.FinancialTransaction]
	files         storage.FileStore
	uploadTimeout time.Duration
}

func NewFinancialService(coll remote.Collection[model.FinancialTransaction], local fallback.LocalStore, files storage.FileStore, timeouts Timeouts) *FinancialService {
	repo := fallback.New[model.FinancialTransaction](CollectionFinancialTransactions, coll, local, fallback.Options[model.FinancialTransaction]{
		Timeout: timeouts.Remote,
		Less: func(a, b *model.FinancialTransaction) bool {
			return a.Date.After(b.Date)
		},
	})

	return &FinancialService{
		repo:          repo,
		files:         files,
		uploadTimeout: timeouts.FinancialUpload,
	}
}

func (s *FinancialService) Create(ctx context.Context, tx model.FinancialTransaction, file *Attachment) (model.FinancialTransaction, error) {
	if err := fallback.Validate(&tx); err != nil {
		return tx, err
	}

	if file != nil {
		stored, err := upload(ctx, s.files, s.uploadTimeout, file, folderFinancial)
		if err != nil {
			return tx, err
		}
		tx.AttachmentURL = stored.URL
		tx.AttachmentName = stored.Name
	}

	created, err := s.repo.Create(ctx, tx)
	if err != nil {
		discardFile(ctx, s.files, folderFinancial, tx.AttachmentName)
		return created, err
	}
	return created, nil
}

func (s *FinancialService) Get(ctx context.Context, id string) (model.FinancialTransaction, error) {
	return s.repo.Get(ctx, id)
}

func (s *FinancialService) List(ctx context.Context, filter EntryFilter) ([]model.FinancialTransaction, error) {
	return s.repo.List(ctx, filter.query(), nil)
}

// AttachFile uploads file and links it to an existing transaction, replacing
// the previous attachment.
func (s *FinancialService) AttachFile(ctx context.Context, id string, file Attachment) (model.FinancialTransaction, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return model.FinancialTransaction{}, err
	}

	stored, err := upload(ctx, s.files, s.uploadTimeout, &file, folderFinancial)
	if err != nil {
		return model.FinancialTransaction{}, err
	}

	updated, err := s.repo.Update(ctx, id, func(tx *model.FinancialTransaction) error {
		tx.AttachmentURL = stored.URL
		tx.AttachmentName = stored.Name
		return nil
	})
	if err != nil {
		discardFile(ctx, s.files, folderFinancial, stored.Name)
		return model.FinancialTransaction{}, err
	}

	discardFile(ctx, s.files, folderFinancial, existing.AttachmentName)
	return updated, nil
}

func (s *FinancialService) Update(ctx context.Context, id string, mutate func(*model.FinancialTransaction) error) (model.FinancialTransaction, error) {
	return s.repo.Update(ctx, id, mutate)
}

// Delete removes the transaction and its attachment.
func (s *FinancialService) Delete(ctx context.Context, id string) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err = s.repo.Delete(ctx, id); err != nil {
		return err
	}

	discardFile(ctx, s.files, folderFinancial, existing.AttachmentName)
	return nil
}
