package listing

import (
	"testing"
	"time"

	"github.com/caddyserver/staticweb/internal/fsys"
)

func testFS() *fsys.Memory {
	m := fsys.NewMemory()
	base := time.Unix(1700000000, 0)
	m.AddFile("b.txt", []byte("bb"), base)
	m.AddFile("a.txt", []byte("aaaaa"), base.Add(time.Hour))
	m.AddDir("zdir")
	m.AddFile(".hidden", []byte("x"), base)
	return m
}

func collectAt(t *testing.T, m *fsys.Memory, dir string, ignoreHidden bool) []Entry {
	t.Helper()
	resolved, err := m.Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	entries, err := Collect(m, resolved, ignoreHidden)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return entries
}

func TestCollectExcludesHidden(t *testing.T) {
	m := testFS()
	entries := collectAt(t, m, "/", true)
	for _, e := range entries {
		if e.Name == ".hidden" {
			t.Fatal("expected hidden file to be excluded")
		}
	}
}

func TestCollectIncludesHiddenWhenNotIgnored(t *testing.T) {
	m := testFS()
	entries := collectAt(t, m, "/", false)
	found := false
	for _, e := range entries {
		if e.Name == ".hidden" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected hidden file to be present")
	}
}

func TestOrderNameAscDirsFirst(t *testing.T) {
	m := testFS()
	entries := collectAt(t, m, "/", true)
	Order(entries, 0)
	if !entries[0].IsDir {
		t.Fatalf("first entry = %+v, want directory first", entries[0])
	}
	if entries[1].Name != "a.txt" || entries[2].Name != "b.txt" {
		t.Fatalf("order = %v, want a.txt then b.txt after the directory", entries)
	}
}

func TestOrderNameDescStillDirsFirst(t *testing.T) {
	m := testFS()
	entries := collectAt(t, m, "/", true)
	Order(entries, 1)
	if !entries[0].IsDir {
		t.Fatalf("first entry = %+v, want directory first even descending", entries[0])
	}
	if entries[1].Name != "b.txt" || entries[2].Name != "a.txt" {
		t.Fatalf("order = %v, want b.txt then a.txt", entries)
	}
}

func TestOrderByModTime(t *testing.T) {
	m := testFS()
	entries := collectAt(t, m, "/", true)
	Order(entries, 2)
	if entries[0].ModTime.After(entries[len(entries)-1].ModTime) {
		t.Fatalf("expected ascending mtime order, got %v", entries)
	}
}

func TestOrderBySizeDesc(t *testing.T) {
	m := testFS()
	entries := collectAt(t, m, "/", true)
	Order(entries, 5)
	if entries[0].Size < entries[len(entries)-1].Size {
		t.Fatalf("expected descending size order, got %v", entries)
	}
}

func TestParentLink(t *testing.T) {
	if got := ParentLink("/"); got != "" {
		t.Fatalf("ParentLink(/) = %q, want empty", got)
	}
	if got := ParentLink("/a/b/"); got != "../" {
		t.Fatalf("ParentLink(/a/b/) = %q, want ../", got)
	}
}
