package componentcache

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/fluorfn/runtime/pkg/function"
)

func TestLoadMissingFileIsInternal(t *testing.T) {
	c := New(zap.NewNop())
	err := c.Load(context.Background(), "ghost", "/nonexistent/path/ghost.wasm")
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
	if !function.IsInternal(err) {
		t.Fatalf("expected Internal kind, got %v", err)
	}
}

func TestLoadInvalidBytesIsBadBinary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "junk.wasm")
	if err := os.WriteFile(path, []byte("not a wasm component"), 0o600); err != nil {
		t.Fatal(err)
	}

	c := New(zap.NewNop())
	err := c.Load(context.Background(), "junk", path)
	if err == nil {
		t.Fatalf("expected error for invalid bytes")
	}
	if !function.IsBadBinary(err) {
		t.Fatalf("expected BadBinary kind, got %v", err)
	}
	if _, ok := c.Get("junk"); ok {
		t.Fatalf("failed load must not install a cache entry")
	}
}

func TestGetMissOnEmptyCache(t *testing.T) {
	c := New(zap.NewNop())
	if _, ok := c.Get("nope"); ok {
		t.Fatalf("expected miss on empty cache")
	}
	if c.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", c.Len())
	}
}

func TestEvictOnEmptyCacheIsNoop(t *testing.T) {
	c := New(zap.NewNop())
	c.Evict("nope")
}
