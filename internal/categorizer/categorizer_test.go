package categorizer

import (
	"context"
	"errors"
	"strings"
	"testing"

	cohere "github.com/cohere-ai/cohere-go/v2"
	"github.com/cohere-ai/cohere-go/v2/option"

	"github.com/ktakeda/ArticleHub/internal/config"
)

type fakeChat struct {
	resp  string
	err   error
	calls int
	last  string
}

func (f *fakeChat) Chat(ctx context.Context, req *cohere.ChatRequest, opts ...option.RequestOption) (*cohere.NonStreamedChatResponse, error) {
	f.calls++
	f.last = req.Message
	if f.err != nil {
		return nil, f.err
	}
	return &cohere.NonStreamedChatResponse{Text: f.resp}, nil
}

func testTaxonomy(t *testing.T) *config.Taxonomy {
	t.Helper()
	doc := `
categories:
  frontend:
    name: Frontend
    subcategories:
      react:
        name: React
        tags: [react, nextjs]
        keywords: [react]
      vue:
        name: Vue
        tags: [vue]
        keywords: [vue]
  backend:
    name: Backend
    subcategories:
      go:
        name: Go
        tags: [go, golang]
        keywords: [golang]
      python:
        name: Python
        tags: [python]
        keywords: [python, django]
`
	tax, err := config.ParseTaxonomy([]byte(doc))
	if err != nil {
		t.Fatalf("ParseTaxonomy: %v", err)
	}
	return tax
}

func TestCategorizeByTag(t *testing.T) {
	c := New(testTaxonomy(t), nil, "")

	r := c.Categorize(context.Background(), "Some title", []string{"Go", "testing"}, "")
	if r.Category != "backend" || r.Subcategory != "go" {
		t.Fatalf("got %s/%s, want backend/go", r.Category, r.Subcategory)
	}
	if r.Method != MethodTag {
		t.Fatalf("method = %s, want tag", r.Method)
	}
}

func TestCategorizeTagCaseInsensitive(t *testing.T) {
	c := New(testTaxonomy(t), nil, "")

	r := c.Categorize(context.Background(), "title", []string{"REACT"}, "")
	if r.Category != "frontend" || r.Subcategory != "react" || r.Method != MethodTag {
		t.Fatalf("got %s/%s (%s)", r.Category, r.Subcategory, r.Method)
	}
}

func TestCategorizeByKeyword(t *testing.T) {
	c := New(testTaxonomy(t), nil, "")

	r := c.Categorize(context.Background(), "Building APIs with Django", []string{"web"}, "")
	if r.Category != "backend" || r.Subcategory != "python" {
		t.Fatalf("got %s/%s, want backend/python", r.Category, r.Subcategory)
	}
	if r.Method != MethodKeyword {
		t.Fatalf("method = %s, want keyword", r.Method)
	}
}

func TestTagPassWinsOverKeywordPass(t *testing.T) {
	c := New(testTaxonomy(t), nil, "")

	// Title matches frontend/react by keyword, but the vue tag belongs to a
	// later category entry: the whole tag pass still runs first.
	r := c.Categorize(context.Background(), "Why I moved from React", []string{"vue"}, "")
	if r.Category != "frontend" || r.Subcategory != "vue" || r.Method != MethodTag {
		t.Fatalf("got %s/%s (%s), want frontend/vue (tag)", r.Category, r.Subcategory, r.Method)
	}
}

func TestCategorizeSentinel(t *testing.T) {
	c := New(testTaxonomy(t), nil, "")

	r := c.Categorize(context.Background(), "Cooking pasta", []string{"food"}, "")
	if r.Category != SentinelCategory || r.Subcategory != SentinelSubcategory {
		t.Fatalf("got %s/%s, want sentinel", r.Category, r.Subcategory)
	}
	if r.Method != MethodFallback {
		t.Fatalf("method = %s, want fallback", r.Method)
	}
}

func TestNoAICallWhenRuleMatches(t *testing.T) {
	fake := &fakeChat{resp: "backend/go"}
	c := New(testTaxonomy(t), fake, "test-model")

	c.Categorize(context.Background(), "title", []string{"react"}, "long body text")
	if fake.calls != 0 {
		t.Fatalf("AI called %d times after a rule match", fake.calls)
	}
}

func TestNoAICallWithoutBody(t *testing.T) {
	fake := &fakeChat{resp: "backend/go"}
	c := New(testTaxonomy(t), fake, "test-model")

	r := c.Categorize(context.Background(), "Mystery post", []string{"misc"}, "")
	if fake.calls != 0 {
		t.Fatalf("AI called %d times with empty body", fake.calls)
	}
	if r.Method != MethodFallback {
		t.Fatalf("method = %s, want fallback", r.Method)
	}
}

func TestAIFallbackValidPair(t *testing.T) {
	fake := &fakeChat{resp: "backend/go\n"}
	c := New(testTaxonomy(t), fake, "test-model")

	r := c.Categorize(context.Background(), "Mystery post", []string{"misc"}, "some body about compilers")
	if fake.calls != 1 {
		t.Fatalf("AI called %d times, want 1", fake.calls)
	}
	if r.Category != "backend" || r.Subcategory != "go" || r.Method != MethodAI {
		t.Fatalf("got %s/%s (%s)", r.Category, r.Subcategory, r.Method)
	}

	// The prompt offers exactly the taxonomy's pairs.
	if !strings.Contains(fake.last, "frontend/react - React") {
		t.Fatalf("prompt missing pair labels:\n%s", fake.last)
	}
}

func TestAIFallbackUnknownPairKeepsSentinel(t *testing.T) {
	fake := &fakeChat{resp: "devops/kubernetes"}
	c := New(testTaxonomy(t), fake, "test-model")

	r := c.Categorize(context.Background(), "Mystery post", []string{"misc"}, "body")
	if r.Category != SentinelCategory || r.Subcategory != SentinelSubcategory {
		t.Fatalf("got %s/%s, want sentinel after invalid AI pair", r.Category, r.Subcategory)
	}
}

func TestAIFallbackErrorKeepsSentinel(t *testing.T) {
	fake := &fakeChat{err: errors.New("network down")}
	c := New(testTaxonomy(t), fake, "test-model")

	r := c.Categorize(context.Background(), "Mystery post", []string{"misc"}, "body")
	if r.Category != SentinelCategory || r.Method != MethodFallback {
		t.Fatalf("got %s (%s), want sentinel after AI error", r.Category, r.Method)
	}
}

func TestAIFallbackUnparseableKeepsSentinel(t *testing.T) {
	fake := &fakeChat{resp: "I think this is about Go programming."}
	c := New(testTaxonomy(t), fake, "test-model")

	r := c.Categorize(context.Background(), "Mystery post", []string{"misc"}, "body")
	if r.Category != SentinelCategory {
		t.Fatalf("got %s, want sentinel for unparseable response", r.Category)
	}
}

func TestParsePair(t *testing.T) {
	cases := []struct {
		in       string
		cat, sub string
		ok       bool
	}{
		{"backend/go", "backend", "go", true},
		{"  frontend/react  ", "frontend", "react", true},
		{"The answer is:\nbackend/python", "backend", "python", true},
		{"a/b/c", "a", "b/c", true},
		{"no separator here", "", "", false},
		{"/", "", "", false},
		{"", "", "", false},
	}

	for _, tc := range cases {
		cat, sub, ok := parsePair(tc.in)
		if ok != tc.ok || cat != tc.cat || sub != tc.sub {
			t.Fatalf("parsePair(%q) = %q/%q/%v, want %q/%q/%v",
				tc.in, cat, sub, ok, tc.cat, tc.sub, tc.ok)
		}
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := truncateRunes("héllo", 3); got != "hél" {
		t.Fatalf("truncateRunes = %q", got)
	}
	if got := truncateRunes("short", 100); got != "short" {
		t.Fatalf("truncateRunes = %q", got)
	}
}
