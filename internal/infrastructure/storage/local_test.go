package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/delcom/travel-log/internal/core/domain"
)

func TestLocal_RoundTrip(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "uploads")
	store := NewLocal(root)

	if err := store.Store(ctx, "cover_1.png", "image/png", strings.NewReader("png-bytes")); err != nil {
		t.Fatalf("store: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "cover_1.png")); err != nil {
		t.Fatalf("file not written under the root: %v", err)
	}

	ok, err := store.Exists(ctx, "cover_1.png")
	if err != nil || !ok {
		t.Fatalf("expected file to exist, got %v %v", ok, err)
	}

	rc, err := store.Open(ctx, "cover_1.png")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "png-bytes" {
		t.Fatalf("unexpected body %q", body)
	}

	removed, err := store.Delete(ctx, "cover_1.png")
	if err != nil || !removed {
		t.Fatalf("expected removal, got %v %v", removed, err)
	}
	removed, err = store.Delete(ctx, "cover_1.png")
	if err != nil || removed {
		t.Fatalf("second delete must report nothing removed, got %v %v", removed, err)
	}
}

func TestLocal_StoreReplaces(t *testing.T) {
	ctx := context.Background()
	store := NewLocal(t.TempDir())

	_ = store.Store(ctx, "cover_1.jpg", "", strings.NewReader("old"))
	if err := store.Store(ctx, "cover_1.jpg", "", strings.NewReader("new")); err != nil {
		t.Fatalf("store: %v", err)
	}
	rc, _ := store.Open(ctx, "cover_1.jpg")
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "new" {
		t.Fatalf("expected replaced content, got %q", body)
	}

	entries, _ := os.ReadDir(store.Dir())
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestLocal_OpenMissing(t *testing.T) {
	store := NewLocal(t.TempDir())
	if _, err := store.Open(context.Background(), "nope.png"); !errors.Is(err, domain.ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
	ok, err := store.Exists(context.Background(), "nope.png")
	if err != nil || ok {
		t.Fatalf("expected missing file, got %v %v", ok, err)
	}
}

func TestLocal_RejectsUnsafeNames(t *testing.T) {
	store := NewLocal(t.TempDir())
	for _, name := range []string{"", ".", "..", "../etc/passwd", "a/b.png", `a\b.png`, ".upload-123"} {
		if err := store.Store(context.Background(), name, "", strings.NewReader("x")); !errors.Is(err, domain.ErrInvalidFileName) {
			t.Errorf("Store(%q): expected ErrInvalidFileName, got %v", name, err)
		}
		if _, err := store.Delete(context.Background(), name); !errors.Is(err, domain.ErrInvalidFileName) {
			t.Errorf("Delete(%q): expected ErrInvalidFileName, got %v", name, err)
		}
	}
}
