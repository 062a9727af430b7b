package collector

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ktakeda/ArticleHub/internal/config"
)

const zennFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:dc="http://purl.org/dc/elements/1.1/">
<channel>
<title>Zenn</title>
<link>https://zenn.dev</link>
<item>
  <title>Goroutine leaks and how to find them</title>
  <link>https://zenn.dev/alice/articles/goroutine-leaks</link>
  <pubDate>Mon, 02 Mar 2026 10:00:00 +0000</pubDate>
  <dc:creator>alice</dc:creator>
  <description><![CDATA[<p>A walk through <b>pprof</b> output.</p>]]></description>
  <category>Go</category>
  <category>debugging</category>
</item>
<item>
  <title>Old news</title>
  <link>https://zenn.dev/bob/articles/old-news</link>
  <pubDate>Fri, 20 Feb 2026 10:00:00 +0000</pubDate>
  <dc:creator>bob</dc:creator>
  <description>stale</description>
</item>
<item>
  <title>Not an article page</title>
  <link>https://zenn.dev/carol/books/some-book</link>
  <pubDate>Mon, 02 Mar 2026 11:00:00 +0000</pubDate>
  <dc:creator>carol</dc:creator>
  <description>book link, no article id</description>
</item>
<item>
  <title>No tags here</title>
  <link>https://zenn.dev/dave/articles/plain-entry</link>
  <pubDate>Mon, 02 Mar 2026 12:00:00 +0000</pubDate>
  <dc:creator>dave</dc:creator>
  <description>plain</description>
</item>
</channel>
</rss>`

func testZennFetcher(t *testing.T, feedXML string, cfg config.ZennConfig) *ZennFetcher {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(feedXML))
	}))
	t.Cleanup(srv.Close)

	cfg.RSSURL = srv.URL
	f := NewZennFetcher(cfg)
	f.now = func() time.Time {
		return time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC)
	}
	return f
}

func TestZennFetch(t *testing.T) {
	cfg := config.ZennConfig{Enabled: true, DaysBack: 2, MaxArticles: 50}
	f := testZennFetcher(t, zennFeedXML, cfg)

	articles, err := f.Fetch()
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	// The stale item and the non-article link are dropped.
	if len(articles) != 2 {
		t.Fatalf("got %d articles, want 2: %+v", len(articles), articles)
	}

	a := articles[0]
	if a.Source != "zenn" || a.ArticleID != "goroutine-leaks" {
		t.Fatalf("identity = %s/%s", a.Source, a.ArticleID)
	}
	if a.Author != "alice" {
		t.Fatalf("author = %q", a.Author)
	}
	if a.AuthorURL != "https://zenn.dev/alice" {
		t.Fatalf("author url = %q", a.AuthorURL)
	}
	if len(a.Tags) != 2 || a.Tags[0] != "Go" {
		t.Fatalf("tags = %v", a.Tags)
	}
	if a.Body != "A walk through pprof output." {
		t.Fatalf("body not stripped of markup: %q", a.Body)
	}

	// No categories on the entry: the default tag applies.
	b := articles[1]
	if b.ArticleID != "plain-entry" {
		t.Fatalf("second article = %q", b.ArticleID)
	}
	if len(b.Tags) != 1 || b.Tags[0] != "Zenn" {
		t.Fatalf("default tags = %v", b.Tags)
	}
}

func TestZennFetchMaxArticles(t *testing.T) {
	cfg := config.ZennConfig{Enabled: true, DaysBack: 30, MaxArticles: 1}
	f := testZennFetcher(t, zennFeedXML, cfg)

	articles, err := f.Fetch()
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("got %d articles, want 1 (capped)", len(articles))
	}
}

func TestZennFetchFeedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewZennFetcher(config.ZennConfig{DaysBack: 1, RSSURL: srv.URL})
	if _, err := f.Fetch(); err == nil {
		t.Fatal("expected feed error")
	}
}

func TestStripHTML(t *testing.T) {
	cases := []struct{ in, want string }{
		{"<p>hello <b>world</b></p>", "hello world"},
		{"no markup", "no markup"},
		{"  <div>\ntrim me\n</div>  ", "trim me"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := stripHTML(tc.in); got != tc.want {
			t.Fatalf("stripHTML(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.QiitaToken = "tok"

	fetchers, err := FromConfig(cfg)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if len(fetchers) != 2 {
		t.Fatalf("got %d fetchers, want 2", len(fetchers))
	}
	if fetchers[0].Name() != "qiita" || fetchers[1].Name() != "zenn" {
		t.Fatalf("names = %s/%s", fetchers[0].Name(), fetchers[1].Name())
	}

	// Qiita enabled without a token is a startup error.
	cfg.QiitaToken = ""
	if _, err := FromConfig(cfg); err == nil {
		t.Fatal("expected error for missing token")
	}

	cfg.Qiita.Enabled = false
	fetchers, err = FromConfig(cfg)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if len(fetchers) != 1 || fetchers[0].Name() != "zenn" {
		t.Fatalf("fetchers = %v", fetchers)
	}
}
