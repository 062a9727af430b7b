package markdown

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestArticlePath(t *testing.T) {
	base := filepath.Join(t.TempDir(), "articles")
	p, err := NewPathBuilder(base)
	if err != nil {
		t.Fatalf("NewPathBuilder: %v", err)
	}

	date := time.Date(2026, 3, 2, 15, 4, 5, 0, time.UTC)
	path, err := p.ArticlePath("backend", "go", date)
	if err != nil {
		t.Fatalf("ArticlePath: %v", err)
	}

	want := filepath.Join(base, "backend", "go", "2026-03", "2026-03-02.md")
	if path != want {
		t.Fatalf("path = %q, want %q", path, want)
	}

	// Parent directories exist even before the file is written.
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Fatalf("parent dir not created: %v", err)
	}
}

func TestArticlePathSameDaySameFile(t *testing.T) {
	p, err := NewPathBuilder(filepath.Join(t.TempDir(), "articles"))
	if err != nil {
		t.Fatalf("NewPathBuilder: %v", err)
	}

	morning := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 3, 2, 22, 0, 0, 0, time.UTC)

	a, err := p.ArticlePath("ai", "llm", morning)
	if err != nil {
		t.Fatalf("ArticlePath: %v", err)
	}
	b, err := p.ArticlePath("ai", "llm", evening)
	if err != nil {
		t.Fatalf("ArticlePath: %v", err)
	}
	if a != b {
		t.Fatalf("same day produced different files: %q vs %q", a, b)
	}
}

func TestReadmePath(t *testing.T) {
	base := filepath.Join(t.TempDir(), "articles")
	p, err := NewPathBuilder(base)
	if err != nil {
		t.Fatalf("NewPathBuilder: %v", err)
	}

	path, err := p.ReadmePath("frontend", "react")
	if err != nil {
		t.Fatalf("ReadmePath: %v", err)
	}
	want := filepath.Join(base, "frontend", "react", "README.md")
	if path != want {
		t.Fatalf("path = %q, want %q", path, want)
	}
}

func TestCategoryDir(t *testing.T) {
	base := filepath.Join(t.TempDir(), "articles")
	p, err := NewPathBuilder(base)
	if err != nil {
		t.Fatalf("NewPathBuilder: %v", err)
	}

	if got := p.CategoryDir("backend", "go"); got != filepath.Join(base, "backend", "go") {
		t.Fatalf("dir = %q", got)
	}
	if got := p.CategoryDir("backend", ""); got != filepath.Join(base, "backend") {
		t.Fatalf("category-only dir = %q", got)
	}
}
