package transcript

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kwhite/azchat/internal/chat"
	"github.com/kwhite/azchat/internal/config"
	"github.com/kwhite/azchat/internal/core"
	"github.com/kwhite/azchat/internal/storage/archive"
)

// seedArchive records one exchange per given day and returns the store.
func seedArchive(t *testing.T, days map[string]chat.Exchange) archive.Storage {
	t.Helper()
	store, err := archive.NewLocalFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalFS: %v", err)
	}

	w := NewWriter(store)
	for day, ex := range days {
		day := day
		w.newID = func() string { return "id-" + strings.ReplaceAll(day, "/", "-") }
		ts, err := time.Parse("2006/01/02", day)
		if err != nil {
			t.Fatalf("parsing day %s: %v", day, err)
		}
		ex.CreatedAt = ts
		if err := w.Record(context.Background(), ex); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	return store
}

func TestReader_ListAndGet(t *testing.T) {
	store := seedArchive(t, map[string]chat.Exchange{
		"2026/08/25": {Prompt: "yesterday", Completion: "a"},
		"2026/08/26": {Prompt: "today", Completion: "b"},
	})
	r := NewReader(store)

	keys, err := r.List(context.Background(), "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %v", keys)
	}
	// Sorted, so the oldest day comes first.
	if keys[0] != "chats/2026/08/25/id-2026-08-25.json" {
		t.Errorf("unexpected first key: %s", keys[0])
	}

	ex, err := r.Get(context.Background(), keys[1])
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ex.Prompt != "today" || ex.Completion != "b" {
		t.Errorf("unexpected exchange: %+v", ex)
	}
}

func TestReader_ListByDay(t *testing.T) {
	store := seedArchive(t, map[string]chat.Exchange{
		"2026/08/25": {Prompt: "yesterday"},
		"2026/08/26": {Prompt: "today"},
	})
	r := NewReader(store)

	keys, err := r.List(context.Background(), "2026/08/26")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(keys) != 1 || !strings.Contains(keys[0], "2026/08/26") {
		t.Errorf("expected only the 2026/08/26 record, got %v", keys)
	}
}

func TestReader_GetMissingKey(t *testing.T) {
	store, _ := archive.NewLocalFS(t.TempDir())
	r := NewReader(store)

	_, err := r.Get(context.Background(), "chats/2026/01/01/nope.json")
	if err == nil {
		t.Fatal("expected error for missing key")
	}
	if !strings.Contains(err.Error(), "no transcript") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestReaderFromConfig_DisabledIsError(t *testing.T) {
	_, err := ReaderFromConfig(config.ArchiveConfig{Enabled: false})
	if !errors.Is(err, core.ErrConfigInvalid) {
		t.Fatalf("expected CONFIG_INVALID, got %v", err)
	}
}

func TestReaderFromConfig_LocalFS(t *testing.T) {
	r, err := ReaderFromConfig(config.ArchiveConfig{
		Enabled: true,
		Type:    "localfs",
		Path:    t.TempDir(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r == nil {
		t.Fatal("expected a reader")
	}
}
