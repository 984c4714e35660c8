package cache

import (
	"testing"
	"time"
)

func TestGetSet(t *testing.T) {
	c := New(time.Minute)

	if _, ok := c.Get("left-pad"); ok {
		t.Error("Get on empty cache should miss")
	}

	c.Set("left-pad", "1.3.0", "/a/package.json")
	version, ok := c.Get("left-pad")
	if !ok {
		t.Fatal("Get after Set should hit")
	}
	if version != "1.3.0" {
		t.Errorf("version = %q, want %q", version, "1.3.0")
	}
}

func TestSetReplacesVersion(t *testing.T) {
	c := New(time.Minute)
	c.Set("react", "18.2.0", "/a/package.json")
	c.Set("react", "18.3.1", "/b/package.json")

	version, _ := c.Get("react")
	if version != "18.3.1" {
		t.Errorf("version = %q, want %q", version, "18.3.1")
	}

	stats := c.Stats()
	if stats.Packages != 1 {
		t.Errorf("Packages = %d, want 1", stats.Packages)
	}
	if stats.Files != 2 {
		t.Errorf("Files = %d, want 2", stats.Files)
	}
}

func TestGetEvictsExpired(t *testing.T) {
	c := New(30 * time.Millisecond)
	c.Set("left-pad", "1.3.0", "/a/package.json")

	time.Sleep(50 * time.Millisecond)

	if _, ok := c.Get("left-pad"); ok {
		t.Error("Get should miss after TTL")
	}
	// The expired entry must be gone, not just hidden.
	if stats := c.Stats(); stats.Packages != 0 {
		t.Errorf("Packages = %d, want 0 after lazy eviction", stats.Packages)
	}
}

func TestClearForFile(t *testing.T) {
	c := New(time.Minute)
	c.Set("shared", "1.0.0", "/a/package.json")
	c.Set("shared", "1.0.0", "/b/package.json")
	c.Set("only-a", "2.0.0", "/a/package.json")

	removed := c.ClearForFile("/a/package.json")
	if len(removed) != 1 || removed[0] != "only-a" {
		t.Errorf("removed = %v, want [only-a]", removed)
	}

	if _, ok := c.Get("only-a"); ok {
		t.Error("entry with empty file set must be deleted")
	}
	if _, ok := c.Get("shared"); !ok {
		t.Error("entry still referenced by another file must survive")
	}
}

func TestClearPackage(t *testing.T) {
	c := New(time.Minute)
	c.Set("left-pad", "1.3.0", "/a/package.json")
	c.ClearPackage("left-pad")

	if _, ok := c.Get("left-pad"); ok {
		t.Error("Get after ClearPackage should miss")
	}
}

func TestMarkStale(t *testing.T) {
	c := New(time.Minute)
	c.Set("left-pad", "1.3.0", "/a/package.json")
	c.MarkStale([]string{"left-pad", "not-cached"})

	if _, ok := c.Get("left-pad"); ok {
		t.Error("Get after MarkStale should miss")
	}

	c.Set("left-pad", "1.4.0", "/a/package.json")
	version, ok := c.Get("left-pad")
	if !ok || version != "1.4.0" {
		t.Errorf("Get after refetch = %q, %v, want 1.4.0, true", version, ok)
	}
}

func TestMarkStaleKeepsConsumingFiles(t *testing.T) {
	c := New(time.Minute)
	c.Set("shared", "1.0.0", "/a/package.json")
	c.Set("shared", "1.0.0", "/b/package.json")

	c.MarkStale([]string{"shared"})

	// The dedupe read during a refresh must not evict the entry.
	if _, ok := c.Get("shared"); ok {
		t.Error("Get after MarkStale should miss")
	}

	// Refetch lands through the refreshing file only.
	c.Set("shared", "1.1.0", "/a/package.json")

	// /b's association survived the whole cycle.
	if removed := c.ClearForFile("/a/package.json"); len(removed) != 0 {
		t.Errorf("removed = %v, want none while /b still declares shared", removed)
	}
	if _, ok := c.Get("shared"); !ok {
		t.Error("entry still declared by /b must survive")
	}
}

func TestSweepSparesStaleMarked(t *testing.T) {
	c := New(30 * time.Millisecond)
	c.Set("refreshing", "1.0.0", "/a/package.json")
	c.MarkStale([]string{"refreshing"})

	time.Sleep(50 * time.Millisecond)

	if n := c.SweepExpired(); n != 0 {
		t.Errorf("SweepExpired = %d, want 0 while a refetch is pending", n)
	}
}

func TestAddFile(t *testing.T) {
	c := New(time.Minute)
	c.Set("shared", "1.0.0", "/a/package.json")
	c.AddFile("shared", "/b/package.json")
	c.AddFile("absent", "/b/package.json")

	if removed := c.ClearForFile("/a/package.json"); len(removed) != 0 {
		t.Errorf("removed = %v, want none while /b still declares shared", removed)
	}
	if _, ok := c.Get("shared"); !ok {
		t.Error("entry added to by AddFile must survive ClearForFile")
	}
	if _, ok := c.Get("absent"); ok {
		t.Error("AddFile must not create entries")
	}
}

func TestSweepExpired(t *testing.T) {
	c := New(30 * time.Millisecond)
	c.Set("old", "1.0.0", "/a/package.json")

	time.Sleep(50 * time.Millisecond)
	c.Set("fresh", "2.0.0", "/a/package.json")

	if n := c.SweepExpired(); n != 1 {
		t.Errorf("SweepExpired = %d, want 1", n)
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Error("fresh entry must survive the sweep")
	}
	if stats := c.Stats(); stats.Packages != 1 {
		t.Errorf("Packages = %d, want 1", stats.Packages)
	}
}

func TestStatsEmpty(t *testing.T) {
	c := New(time.Minute)
	stats := c.Stats()
	if stats.Packages != 0 || stats.Files != 0 {
		t.Errorf("Stats = %+v, want zero", stats)
	}
}
