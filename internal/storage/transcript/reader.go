package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"

	"github.com/kwhite/azchat/internal/chat"
	"github.com/kwhite/azchat/internal/config"
	"github.com/kwhite/azchat/internal/core"
	"github.com/kwhite/azchat/internal/storage/archive"
)

// Reader retrieves exchanges archived by a Writer.
type Reader struct {
	store archive.Storage
}

// NewReader creates a reader over the given backend.
func NewReader(store archive.Storage) *Reader {
	return &Reader{store: store}
}

// ReaderFromConfig builds a reader for the configured backend. Unlike
// the writer, a disabled archive is an error: there is nothing to read.
func ReaderFromConfig(cfg config.ArchiveConfig) (*Reader, error) {
	if !cfg.Enabled {
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("archive is not enabled"))
	}
	store, err := newStore(cfg)
	if err != nil {
		return nil, err
	}
	return NewReader(store), nil
}

// List returns the archive keys of recorded exchanges, sorted. An empty
// day lists the whole archive; otherwise day narrows the listing to a
// YYYY/MM/DD (or YYYY, YYYY/MM) prefix.
func (r *Reader) List(ctx context.Context, day string) ([]string, error) {
	prefix := basePrefix
	if day != "" {
		prefix = path.Join(basePrefix, day)
	}

	keys, err := r.store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("listing archive: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Get reads the exchange stored at the given archive key.
func (r *Reader) Get(ctx context.Context, key string) (*chat.Exchange, error) {
	ok, err := r.store.Exists(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("checking archive: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("no transcript at %s", key)
	}

	data, err := r.store.Read(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("reading transcript: %w", err)
	}

	var ex chat.Exchange
	if err := json.Unmarshal(data, &ex); err != nil {
		return nil, fmt.Errorf("decoding transcript %s: %w", key, err)
	}
	return &ex, nil
}
