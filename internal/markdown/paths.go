package markdown

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// PathBuilder derives file locations under the archive base directory.
// Layout: {base}/{category}/{subcategory}/{YYYY-MM}/{YYYY-MM-DD}.md plus
// a README.md per (category, subcategory).
type PathBuilder struct {
	base string
}

func NewPathBuilder(base string) (*PathBuilder, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("create base dir %s: %w", base, err)
	}
	return &PathBuilder{base: base}, nil
}

func (p *PathBuilder) Base() string {
	return p.base
}

// ArticlePath returns the daily digest file for a pair and date, creating
// the parent directories on the way.
func (p *PathBuilder) ArticlePath(category, subcategory string, date time.Time) (string, error) {
	dir := filepath.Join(p.base, category, subcategory, date.Format("2006-01"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create article dir %s: %w", dir, err)
	}
	return filepath.Join(dir, date.Format("2006-01-02")+".md"), nil
}

// CategoryDir returns the directory for a pair; subcategory may be empty.
func (p *PathBuilder) CategoryDir(category, subcategory string) string {
	if subcategory == "" {
		return filepath.Join(p.base, category)
	}
	return filepath.Join(p.base, category, subcategory)
}

// ReadmePath returns the index file for a pair, creating the directory.
func (p *PathBuilder) ReadmePath(category, subcategory string) (string, error) {
	dir := p.CategoryDir(category, subcategory)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create category dir %s: %w", dir, err)
	}
	return filepath.Join(dir, "README.md"), nil
}
