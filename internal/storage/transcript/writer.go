// Package transcript persists completed chat exchanges as JSON records
// in an archive backend, one object per exchange.
package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kwhite/azchat/internal/chat"
	"github.com/kwhite/azchat/internal/config"
	"github.com/kwhite/azchat/internal/core"
	"github.com/kwhite/azchat/internal/storage/archive"
)

// basePrefix roots every transcript key in the archive.
const basePrefix = "chats"

// Writer implements chat.Recorder over an archive.Storage backend.
type Writer struct {
	store archive.Storage

	// Overridable for tests.
	now   func() time.Time
	newID func() string
}

// NewWriter creates a writer over the given backend.
func NewWriter(store archive.Storage) *Writer {
	return &Writer{
		store: store,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// FromConfig builds a writer for the configured backend. Returns nil
// when archiving is disabled.
func FromConfig(cfg config.ArchiveConfig) (*Writer, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	store, err := newStore(cfg)
	if err != nil {
		return nil, err
	}
	return NewWriter(store), nil
}

// newStore opens the configured archive backend.
func newStore(cfg config.ArchiveConfig) (archive.Storage, error) {
	switch cfg.Type {
	case "localfs":
		return archive.NewLocalFS(cfg.Path)
	case "s3":
		return archive.NewS3(archive.S3Config{
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Prefix:    cfg.S3.Prefix,
		})
	default:
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown archive type: %s", cfg.Type))
	}
}

// Record writes the exchange at chats/YYYY/MM/DD/<id>.json.
func (w *Writer) Record(ctx context.Context, ex chat.Exchange) error {
	data, err := json.MarshalIndent(ex, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling exchange: %w", err)
	}

	ts := ex.CreatedAt
	if ts.IsZero() {
		ts = w.now().UTC()
	}
	path := fmt.Sprintf("%s/%s/%s.json", basePrefix, ts.Format("2006/01/02"), w.newID())

	return w.store.Write(ctx, path, data)
}
