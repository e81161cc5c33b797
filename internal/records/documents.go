package records

import (
	"context"
	"time"

	"github.com/katatrina/backoffice-BE/internal/fallback"
	"github.com/katatrina/backoffice-BE/internal/model"
	"github.com/katatrina/backoffice-BE/internal/remote"
	"github.com/katatrina/backoffice-BE/internal/storage"
	"github.com/rs/zerolog/log"
)

type DocumentFilter struct {
	CollaboratorID string
	Kind           string
	Status         model.DocumentStatus
}

type DocumentService struct {
	repo          *fallback.Repository[model.Document, *model.Document]
	files         storage.FileStore
	uploadTimeout time.Duration
}

func NewDocumentService(coll remote.Collection[model.Document], local fallback.LocalStore, files storage.FileStore, timeouts Timeouts) *DocumentService {
	repo := fallback.New[model.Document](CollectionDocuments, coll, local, fallback.Options[model.Document]{
		Timeout:       timeouts.Upload,
		LocalFallback: true,
		Derive: func(doc *model.Document, now time.Time) {
			doc.Status = doc.ComputeStatus(now)
		},
		Less: func(a, b *model.Document) bool {
			return a.ValidUntil.Before(b.ValidUntil)
		},
	})

	return &DocumentService{
		repo:          repo,
		files:         files,
		uploadTimeout: timeouts.Upload,
	}
}

func (s *DocumentService) Repository() *fallback.Repository[model.Document, *model.Document] {
	return s.repo
}

// Create stores the document. A file that fails to upload is logged and the
// document is kept without it.
func (s *DocumentService) Create(ctx context.Context, doc model.Document, file *Attachment) (model.Document, error) {
	if err := fallback.Validate(&doc); err != nil {
		return doc, err
	}

	if file != nil {
		stored, err := upload(ctx, s.files, s.uploadTimeout, file, folderDocuments)
		if err != nil {
			log.Warn().Err(err).Str("filename", file.Filename).Msg("document saved without its file")
		} else {
			doc.FileURL = stored.URL
			doc.FileName = stored.Name
		}
	}

	doc.Status = doc.ComputeStatus(time.Now())
	created, err := s.repo.Create(ctx, doc)
	if err != nil {
		discardFile(ctx, s.files, folderDocuments, doc.FileName)
		return created, err
	}
	return created, nil
}

func (s *DocumentService) Get(ctx context.Context, id string) (model.Document, error) {
	return s.repo.Get(ctx, id)
}

func (s *DocumentService) List(ctx context.Context, filter DocumentFilter) ([]model.Document, error) {
	q := remote.Query{}
	if filter.CollaboratorID != "" {
		q = q.Where("colaboradorId", remote.OpEqual, filter.CollaboratorID)
	}
	if filter.Kind != "" {
		q = q.Where("tipo", remote.OpEqual, filter.Kind)
	}

	var match func(*model.Document) bool
	if filter.Status != "" {
		match = func(doc *model.Document) bool {
			return doc.Status == filter.Status
		}
	}

	return s.repo.List(ctx, q, match)
}

// ListDocuments returns every document with its status derived at call time.
func (s *DocumentService) ListDocuments(ctx context.Context) ([]model.Document, error) {
	return s.repo.List(ctx, remote.Query{}, nil)
}

// Update applies mutate and recomputes the expiry status.
func (s *DocumentService) Update(ctx context.Context, id string, mutate func(*model.Document) error) (model.Document, error) {
	return s.repo.Update(ctx, id, func(doc *model.Document) error {
		if err := mutate(doc); err != nil {
			return err
		}
		doc.Status = doc.ComputeStatus(time.Now())
		return nil
	})
}

// MarkAlertSent records that an expiry alert about the document went out at.
func (s *DocumentService) MarkAlertSent(ctx context.Context, id string, at time.Time) error {
	_, err := s.repo.Update(ctx, id, func(doc *model.Document) error {
		doc.AlertSent = true
		doc.LastAlertAt = &at
		return nil
	})
	return err
}

// Delete removes the document and its file.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err = s.repo.Delete(ctx, id); err != nil {
		return err
	}

	discardFile(ctx, s.files, folderDocuments, existing.FileName)
	return nil
}
