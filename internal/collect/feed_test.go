package collect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const rssFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Health Tech</title>
  <item>
    <title>Ambient scribes reach the clinic</title>
    <link>https://example.com/scribes</link>
    <pubDate>Mon, 02 Jun 2025 10:00:00 GMT</pubDate>
    <description>&lt;p&gt;Doctors &lt;b&gt;spend less&lt;/b&gt; time typing.&lt;/p&gt;</description>
  </item>
  <item>
    <title></title>
    <link>https://example.com/untitled</link>
  </item>
  <item>
    <title>Hospital data breach</title>
    <guid>https://example.com/breach</guid>
  </item>
  <item>
    <title>Third story</title>
    <link>https://example.com/third</link>
  </item>
</channel>
</rss>`

func feedServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(rssFeed))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLatest(t *testing.T) {
	srv := feedServer(t)
	r := NewFeedReader(5*time.Second, nil)

	entries, err := r.Latest(context.Background(), FeedConfig{URL: srv.URL, Name: "Test"}, 10)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries (untitled skipped), got %d", len(entries))
	}

	first := entries[0]
	if first.URL != "https://example.com/scribes" {
		t.Errorf("unexpected URL: %s", first.URL)
	}
	if first.PublishedDate != "2025-06-02" {
		t.Errorf("unexpected date: %s", first.PublishedDate)
	}
	if first.Summary != "Doctors spend less time typing." {
		t.Errorf("unexpected summary: %q", first.Summary)
	}
	if first.Source != "Test" {
		t.Errorf("unexpected source: %s", first.Source)
	}
	if entries[1].URL != "https://example.com/breach" {
		t.Errorf("expected GUID fallback, got %s", entries[1].URL)
	}
}

func TestLatestLimit(t *testing.T) {
	srv := feedServer(t)
	r := NewFeedReader(5*time.Second, nil)

	entries, err := r.Latest(context.Background(), FeedConfig{URL: srv.URL}, 1)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
}

func TestLatestBadFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	r := NewFeedReader(5*time.Second, nil)
	if _, err := r.Latest(context.Background(), FeedConfig{URL: srv.URL}, 3); err == nil {
		t.Fatal("expected error for failing feed")
	}
}

func TestSourceName(t *testing.T) {
	tests := map[string]string{
		"https://www.statnews.com/feed/":     "Statnews",
		"https://feeds.arstechnica.com/rss":  "Arstechnica",
		"https://blog.example.org/index.xml": "Example",
		"not a url":                          "not a url",
	}
	for in, want := range tests {
		if got := SourceName(in); got != want {
			t.Errorf("SourceName(%q) = %q, want %q", in, got, want)
		}
	}
}
