package persistence

import (
	"os"
	"path/filepath"

	"github.com/tidwall/buntdb"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// Bunt owns the embedded store files, one per table.
type Bunt struct {
	Handles *repository.BuntHandles
}

// NewBunt opens (creating if needed) the buntdb files under the data dir.
func NewBunt(cfg config.BuntConfig, logger *zap.Logger) (*Bunt, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}

	handles := &repository.BuntHandles{}
	open := func(name string, target **buntdb.DB) error {
		db, err := buntdb.Open(filepath.Join(cfg.Dir, name))
		if err != nil {
			return err
		}
		*target = db
		return nil
	}

	if err := open("tickets.db", &handles.Tickets); err != nil {
		return nil, err
	}
	if err := open("comments.db", &handles.Comments); err != nil {
		return nil, err
	}
	if err := open("users.db", &handles.Users); err != nil {
		return nil, err
	}
	if err := open("chat_links.db", &handles.ChatLinks); err != nil {
		return nil, err
	}

	logger.Info("opened embedded store", zap.String("dir", cfg.Dir))
	return &Bunt{Handles: handles}, nil
}

// Close closes every table file.
func (b *Bunt) Close() {
	if b == nil || b.Handles == nil {
		return
	}
	for _, db := range []*buntdb.DB{b.Handles.Tickets, b.Handles.Comments, b.Handles.Users, b.Handles.ChatLinks} {
		if db != nil {
			_ = db.Close()
		}
	}
}
