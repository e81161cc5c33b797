package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type CloudinaryStore struct {
	*cloudinary.Cloudinary
}

func NewCloudinaryStore(url string) (FileStore, error) {
	cld, err := cloudinary.NewFromURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloudinary store: %w", err)
	}

	cld.Config.URL.Secure = true

	return &CloudinaryStore{cld}, nil
}

func (cld *CloudinaryStore) UploadFile(ctx context.Context, file []byte, filename string, folder string) (string, error) {
	uploadParams := uploader.UploadParams{
		Folder:         folder,
		PublicID:       filename,
		UniqueFilename: api.Bool(false),
		Overwrite:      api.Bool(true),
		ResourceType:   "auto",
	}

	result, err := cld.Upload.Upload(ctx, bytes.NewReader(file), uploadParams)
	if err != nil {
		return "", fmt.Errorf("failed to upload file to cloudinary: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("failed to upload file to cloudinary: %s", result.Error.Message)
	}

	return result.SecureURL, nil
}

func (cld *CloudinaryStore) DeleteFile(ctx context.Context, publicID string, folder string) error {
	fullPublicID := publicID
	if folder != "" {
		fullPublicID = fmt.Sprintf("%s/%s", folder, publicID)
	}

	_, err := cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID: fullPublicID,
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from cloudinary: %w", err)
	}

	return nil
}
