package blob

import (
	"context"
	"io"
	"strings"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// Storage persists uploaded attachment bytes and returns the reference the
// ticket will carry. The URL must be resolvable by API clients.
type Storage interface {
	Save(ctx context.Context, filename string, size int64, contentType string, r io.Reader) (domain.Attachment, error)
}

// sanitizeFilename strips path separators and whitespace so an upload name
// can never escape the storage prefix.
func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	replacer := strings.NewReplacer("/", "_", "\\", "_", "..", "_", " ", "_")
	name = replacer.Replace(name)
	if name == "" {
		name = "upload"
	}
	return name
}
