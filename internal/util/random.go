package util

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/lithammer/shortuuid/v4"
)

// LocalIDPrefix marks identifiers generated on this side of the remote store.
const LocalIDPrefix = "local-"

// GenerateLocalID returns an identifier of the form local-<unix millis>-<random>.
func GenerateLocalID() string {
	return fmt.Sprintf("%s%d-%s", LocalIDPrefix, time.Now().UnixMilli(), strings.ToLower(shortuuid.New()[:8]))
}

// IsLocalID reports whether id was produced by GenerateLocalID.
func IsLocalID(id string) bool {
	return strings.HasPrefix(id, LocalIDPrefix)
}

// GenerateUploadName builds a unique, URL-safe file name for uploaded attachments.
// "ASO João.pdf" becomes something like "aso-joao-3fK9xQ2m".
func GenerateUploadName(filename string) string {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	baseSlug := slug.Make(base)
	if baseSlug == "" {
		baseSlug = "file"
	}

	return fmt.Sprintf("%s-%s", baseSlug, shortuuid.New()[:8])
}
