package tle

import (
	"errors"
	"os"
	"testing"
	"time"
)

func TestCacheWriteAndLoadLatest(t *testing.T) {
	c := NewCache(t.TempDir(), 2)

	base := time.Unix(1_700_000_000, 0)
	for i := 0; i < 4; i++ {
		if err := c.Write([]byte{byte('a' + i)}, base.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("Write %d: %v", i, err)
		}
	}

	data, ts, err := c.LoadLatest()
	if err != nil {
		t.Fatalf("LoadLatest: %v", err)
	}
	if string(data) != "d" {
		t.Errorf("latest data = %q, want %q", data, "d")
	}
	if !ts.Equal(base.Add(3 * time.Hour)) {
		t.Errorf("latest ts = %v, want %v", ts, base.Add(3*time.Hour))
	}

	files, err := os.ReadDir(c.dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Errorf("kept %d files, want 2 after pruning", len(files))
	}
}

func TestCacheEmpty(t *testing.T) {
	c := NewCache(t.TempDir()+"/missing", 3)
	if _, _, err := c.LoadLatest(); !errors.Is(err, ErrNoSnapshot) {
		t.Errorf("LoadLatest on empty cache = %v, want ErrNoSnapshot", err)
	}
}
