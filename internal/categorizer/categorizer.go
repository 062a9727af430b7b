package categorizer

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	cohere "github.com/cohere-ai/cohere-go/v2"
	"github.com/cohere-ai/cohere-go/v2/option"

	"github.com/ktakeda/ArticleHub/internal/config"
)

const (
	// The sentinel pair returned whenever no rule and no AI answer
	// applies. It intentionally lives outside the taxonomy.
	SentinelCategory    = "other"
	SentinelSubcategory = "general"

	aiRequestTimeout = 30 * time.Second
	aiMaxTokens      = 50
	bodyExcerptRunes = 1000
)

// Method records how a classification was decided.
type Method string

const (
	MethodTag      Method = "tag"      // article tag matched a subcategory tag
	MethodKeyword  Method = "keyword"  // title contained a subcategory keyword
	MethodAI       Method = "ai"       // AI fallback picked a valid pair
	MethodFallback Method = "fallback" // nothing matched, sentinel pair
)

// Result is a classification outcome. Keeping the method explicit makes
// the AI-failure-keeps-sentinel path visible to callers instead of being
// swallowed.
type Result struct {
	Category    string
	Subcategory string
	Method      Method
}

// ChatClient is the slice of the Cohere client the categorizer needs.
type ChatClient interface {
	Chat(ctx context.Context, request *cohere.ChatRequest, opts ...option.RequestOption) (*cohere.NonStreamedChatResponse, error)
}

// Categorizer classifies articles against an immutable taxonomy, first by
// rules and then, for still-unmatched articles with body text, by one AI
// request constrained to the taxonomy's pairs.
type Categorizer struct {
	tax    *config.Taxonomy
	client ChatClient
	model  string
}

// New builds a Categorizer. A nil client disables the AI fallback.
func New(tax *config.Taxonomy, client ChatClient, model string) *Categorizer {
	if client == nil {
		log.Println("categorizer: no AI client, rule-based classification only")
	}
	return &Categorizer{tax: tax, client: client, model: model}
}

// Categorize resolves (category, subcategory) for one article. The result
// is always either a pair from the taxonomy or the sentinel.
func (c *Categorizer) Categorize(ctx context.Context, title string, tags []string, body string) Result {
	r := c.ruleBased(title, tags)

	if r.Method == MethodFallback && c.client != nil && body != "" {
		if ai, ok := c.aiCategorize(ctx, title, tags, body); ok {
			return ai
		}
	}
	return r
}

// ruleBased walks the taxonomy in document order. Tag matches win over
// keyword matches for the whole taxonomy, and within each pass the first
// matching subcategory wins.
func (c *Categorizer) ruleBased(title string, tags []string) Result {
	titleLower := strings.ToLower(title)

	tagsLower := make([]string, 0, len(tags))
	for _, t := range tags {
		tagsLower = append(tagsLower, strings.ToLower(t))
	}

	for _, cat := range c.tax.Categories {
		for _, sub := range cat.Subcategories {
			for _, want := range sub.Tags {
				wantLower := strings.ToLower(want)
				for _, have := range tagsLower {
					if have == wantLower {
						return Result{Category: cat.Key, Subcategory: sub.Key, Method: MethodTag}
					}
				}
			}
		}
	}

	for _, cat := range c.tax.Categories {
		for _, sub := range cat.Subcategories {
			for _, kw := range sub.Keywords {
				if kw != "" && strings.Contains(titleLower, strings.ToLower(kw)) {
					return Result{Category: cat.Key, Subcategory: sub.Key, Method: MethodKeyword}
				}
			}
		}
	}

	return Result{Category: SentinelCategory, Subcategory: SentinelSubcategory, Method: MethodFallback}
}

// aiCategorize issues a single classification request. Any failure —
// network, parse, or a pair outside the taxonomy — is logged and reported
// as not-ok so the caller keeps the sentinel.
func (c *Categorizer) aiCategorize(ctx context.Context, title string, tags []string, body string) (Result, bool) {
	ctx, cancel := context.WithTimeout(ctx, aiRequestTimeout)
	defer cancel()

	prompt := c.buildPrompt(title, tags, body)

	model := c.model
	temperature := 0.0
	maxTokens := aiMaxTokens

	resp, err := c.client.Chat(ctx, &cohere.ChatRequest{
		Message:     prompt,
		Model:       &model,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		log.Printf("categorizer: AI classification failed: %v", err)
		return Result{}, false
	}

	category, subcategory, ok := parsePair(resp.Text)
	if !ok {
		log.Printf("categorizer: unparseable AI response: %q", resp.Text)
		return Result{}, false
	}
	if _, _, exists := c.tax.Lookup(category, subcategory); !exists {
		log.Printf("categorizer: AI picked unknown pair %s/%s", category, subcategory)
		return Result{}, false
	}

	return Result{Category: category, Subcategory: subcategory, Method: MethodAI}, true
}

func (c *Categorizer) buildPrompt(title string, tags []string, body string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Classify the following technical article into the single most appropriate category.\n\n")
	fmt.Fprintf(&b, "Title: %s\n", title)
	fmt.Fprintf(&b, "Tags: %s\n", strings.Join(tags, ", "))
	fmt.Fprintf(&b, "Body excerpt: %s\n\n", truncateRunes(body, bodyExcerptRunes))
	b.WriteString("Available categories:\n")
	for _, label := range c.tax.PairLabels() {
		b.WriteString(label)
		b.WriteByte('\n')
	}
	b.WriteString("\nRespond with exactly one line in the form category/subcategory and nothing else.\n")
	b.WriteString("Example: frontend/react\n")

	return b.String()
}

// parsePair extracts the first "category/subcategory" line from a
// response.
func parsePair(text string) (string, string, bool) {
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		if !strings.Contains(line, "/") {
			continue
		}
		parts := strings.SplitN(line, "/", 2)
		category := strings.TrimSpace(parts[0])
		subcategory := strings.TrimSpace(parts[1])
		if category == "" || subcategory == "" {
			continue
		}
		return category, subcategory, true
	}
	return "", "", false
}

func truncateRunes(s string, limit int) string {
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit])
}
