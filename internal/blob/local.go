package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// LocalStorage writes attachments to a directory served as static files.
type LocalStorage struct {
	dir        string
	publicBase string
	now        func() time.Time
}

// NewLocalStorage creates the upload directory if needed.
func NewLocalStorage(dir, publicBase string, clock func() time.Time) (*LocalStorage, error) {
	if clock == nil {
		clock = time.Now
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.NewBackendError("blob.mkdir", err)
	}
	return &LocalStorage{dir: dir, publicBase: publicBase, now: clock}, nil
}

// Save writes the stream to disk under a timestamped name.
func (s *LocalStorage) Save(ctx context.Context, filename string, size int64, contentType string, r io.Reader) (domain.Attachment, error) {
	name := fmt.Sprintf("%d_%s", s.now().UnixMilli(), sanitizeFilename(filename))
	target := filepath.Join(s.dir, name)

	f, err := os.Create(target)
	if err != nil {
		return domain.Attachment{}, apperrors.NewBackendError("blob.create", err)
	}
	written, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(target)
		return domain.Attachment{}, apperrors.NewBackendError("blob.write", err)
	}

	return domain.Attachment{
		Name: filename,
		Size: written,
		URL:  path.Join(s.publicBase, name),
	}, nil
}
