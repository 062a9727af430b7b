package summarizer

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	cohere "github.com/cohere-ai/cohere-go/v2"
	"github.com/cohere-ai/cohere-go/v2/option"

	"github.com/ktakeda/ArticleHub/internal/collector"
	"github.com/ktakeda/ArticleHub/internal/config"
)

const (
	requestTimeout = 60 * time.Second
	bodyLimitRunes = 5000

	// ErrorSummary is the sentinel stored when summarization fails; the
	// run keeps going with it.
	ErrorSummary = "Error: summary generation failed"

	sectionSummary   = "## Summary"
	sectionKeyPoints = "## Key Points"
	sectionTechStack = "## Tech Stack"
)

// Summary is the structured result of one summarization request.
type Summary struct {
	Summary   string
	KeyPoints []string
	TechStack []string
}

// ChatClient is the slice of the Cohere client the summarizer needs.
type ChatClient interface {
	Chat(ctx context.Context, request *cohere.ChatRequest, opts ...option.RequestOption) (*cohere.NonStreamedChatResponse, error)
}

// Summarizer produces an AI summary, key points and tech stack for an
// article. Failures never propagate: the caller always gets a Summary,
// possibly the error sentinel.
type Summarizer struct {
	client ChatClient
	cfg    config.SummarizerConfig
}

// New builds a Summarizer. With a nil client every request returns the
// sentinel without touching the network.
func New(client ChatClient, cfg config.SummarizerConfig) *Summarizer {
	if client == nil {
		log.Println("summarizer: no AI client, summaries disabled")
	}
	return &Summarizer{client: client, cfg: cfg}
}

// Summarize issues one request for the article and parses the
// section-delimited response.
func (s *Summarizer) Summarize(ctx context.Context, article collector.Article) Summary {
	if s.client == nil {
		return errorSummary()
	}

	log.Printf("summarizer: summarizing %q", article.Title)

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	model := s.cfg.Model
	temperature := s.cfg.Temperature
	maxTokens := s.cfg.MaxTokens

	resp, err := s.client.Chat(ctx, &cohere.ChatRequest{
		Message:     buildPrompt(article),
		Model:       &model,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		log.Printf("summarizer: request failed for %q: %v", article.Title, err)
		return errorSummary()
	}

	return parseResponse(resp.Text)
}

func errorSummary() Summary {
	return Summary{Summary: ErrorSummary, KeyPoints: []string{}, TechStack: []string{}}
}

func buildPrompt(article collector.Article) string {
	var b strings.Builder

	b.WriteString("Summarize the following technical article.\n\n")
	b.WriteString("# Article\n")
	fmt.Fprintf(&b, "- Title: %s\n", article.Title)
	fmt.Fprintf(&b, "- Tags: %s\n\n", strings.Join(article.Tags, ", "))
	b.WriteString("# Body\n")
	b.WriteString(truncateRunes(article.Body, bodyLimitRunes))
	b.WriteString("\n\n# Required format\n")
	b.WriteString("Respond in exactly this structure:\n\n")
	b.WriteString(sectionSummary + "\n(3-4 sentences describing the article)\n\n")
	b.WriteString(sectionKeyPoints + "\n- (important point 1)\n- (important point 2)\n- (important point 3)\n\n")
	b.WriteString(sectionTechStack + "\n- (technology 1)\n- (technology 2)\n\n")
	b.WriteString("Notes:\n")
	b.WriteString("- Keep technical terms as-is\n")
	b.WriteString("- Focus on what the article enables or solves, not implementation detail\n")
	b.WriteString("- Do not include code snippets\n")

	return b.String()
}

// parseResponse scans for the three section markers and buckets the lines
// that follow each one. Bullet lines feed the list sections, plain lines
// feed the summary, and anything outside a detected section is dropped.
func parseResponse(text string) Summary {
	var (
		summary   []string
		keyPoints []string
		techStack []string
		section   string
	)

	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, sectionSummary):
			section = "summary"
			continue
		case strings.HasPrefix(line, sectionKeyPoints):
			section = "key_points"
			continue
		case strings.HasPrefix(line, sectionTechStack):
			section = "tech_stack"
			continue
		}

		// Other headings reset nothing but are never content.
		if strings.HasPrefix(line, "#") {
			continue
		}

		bullet := strings.HasPrefix(line, "-") || strings.HasPrefix(line, "•")

		switch section {
		case "summary":
			if !bullet {
				summary = append(summary, line)
			}
		case "key_points":
			if bullet {
				keyPoints = append(keyPoints, trimBullet(line))
			}
		case "tech_stack":
			if bullet {
				techStack = append(techStack, trimBullet(line))
			}
		}
	}

	out := Summary{
		Summary:   strings.Join(summary, " "),
		KeyPoints: keyPoints,
		TechStack: techStack,
	}
	if out.Summary == "" {
		out.Summary = "No summary available"
	}
	if out.KeyPoints == nil {
		out.KeyPoints = []string{}
	}
	if out.TechStack == nil {
		out.TechStack = []string{}
	}
	return out
}

func trimBullet(line string) string {
	return strings.TrimSpace(strings.TrimLeft(line, "-•"))
}

func truncateRunes(s string, limit int) string {
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit])
}
