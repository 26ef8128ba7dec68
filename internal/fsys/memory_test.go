package fsys

import (
	"io"
	"io/fs"
	"testing"
	"time"
)

func TestMemoryResolveAndOpen(t *testing.T) {
	m := NewMemory()
	mt := time.Unix(1700000000, 0)
	m.AddFile("a/b/c.txt", []byte("hello"), mt)

	resolved, err := m.Resolve("/a/b/c.txt")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	f, err := m.Open(resolved)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil || string(data) != "hello" {
		t.Fatalf("data = %q, err = %v", data, err)
	}
}

func TestMemoryResolveRejectsDotDot(t *testing.T) {
	m := NewMemory()
	m.AddFile("a.txt", []byte("x"), time.Now())
	if _, err := m.Resolve("/../a.txt"); err != ErrEscapesRoot {
		t.Fatalf("err = %v, want ErrEscapesRoot", err)
	}
}

func TestMemoryResolveNotExist(t *testing.T) {
	m := NewMemory()
	if _, err := m.Resolve("/missing.txt"); err != fs.ErrNotExist {
		t.Fatalf("err = %v, want fs.ErrNotExist", err)
	}
}

func TestMemoryReadDirExcludesNestedAndListsImmediateChildren(t *testing.T) {
	m := NewMemory()
	m.AddFile("dir/one.txt", []byte("1"), time.Now())
	m.AddFile("dir/two.txt", []byte("2"), time.Now())
	m.AddFile("dir/sub/three.txt", []byte("3"), time.Now())

	resolved, err := m.Resolve("/dir")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	entries, err := m.ReadDir(resolved)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %v, want 3 immediate children", entries)
	}
}

func TestMemoryAddDir(t *testing.T) {
	m := NewMemory()
	m.AddDir("empty/nested")
	resolved, err := m.Resolve("/empty/nested")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	info, err := m.Stat(resolved)
	if err != nil || !info.IsDir() {
		t.Fatalf("Stat: info=%v err=%v", info, err)
	}
}
