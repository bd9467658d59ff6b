package arxiv_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"daybrief/internal/sources"
	"daybrief/internal/sources/arxiv"
)

const listingHTML = `<!DOCTYPE html>
<html><body>
<dl>
<dt><a href="/abs/2603.01001">arXiv:2603.01001</a></dt>
<dd>
  <div class="list-title">Title: Sparse Attention at Scale</div>
  <p class="mathjax">Abstract: We study sparse attention kernels.</p>
  <div class="list-date">Mon, 9 Mar 2026</div>
</dd>
<dt><a href="/abs/2603.01002">arXiv:2603.01002</a></dt>
<dd>
  <div class="list-title">Title: Old Result Revisited</div>
  <p class="mathjax">Abstract: A much older paper.</p>
  <div class="list-date">Mon, 2 Feb 2026</div>
</dd>
</dl>
</body></html>`

func newTestConnector(t *testing.T, handler http.HandlerFunc) *arxiv.Connector {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return arxiv.New([]string{"cs.AI"},
		arxiv.WithBaseURL(server.URL),
		arxiv.WithHTTPClient(server.Client()),
	)
}

func TestFetchParsesListing(t *testing.T) {
	var requestedPath string
	connector := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		requestedPath = r.URL.Path
		w.Write([]byte(listingHTML))
	})

	items, err := connector.Fetch(context.Background(), sources.FetchRequest{})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if requestedPath != "/list/cs.AI/recent" {
		t.Fatalf("unexpected path %q", requestedPath)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	first := items[0]
	if first.Type != "article" {
		t.Fatalf("unexpected type %q", first.Type)
	}
	if first.Fields["article_id"] != "arXiv:2603.01001" {
		t.Fatalf("unexpected id %v", first.Fields["article_id"])
	}
	if first.Fields["title"] != "Sparse Attention at Scale" {
		t.Fatalf("unexpected title %v", first.Fields["title"])
	}
	if first.Fields["summary"] != "We study sparse attention kernels." {
		t.Fatalf("unexpected summary %v", first.Fields["summary"])
	}
	if first.Fields["category"] != "cs.AI" {
		t.Fatalf("unexpected category %v", first.Fields["category"])
	}
}

func TestFetchFiltersBySince(t *testing.T) {
	connector := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(listingHTML))
	})

	since := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	items, err := connector.Fetch(context.Background(), sources.FetchRequest{Since: since})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected the February paper filtered out, got %d items", len(items))
	}
	if items[0].Fields["article_id"] != "arXiv:2603.01001" {
		t.Fatalf("wrong survivor: %v", items[0].Fields["article_id"])
	}
}

func TestFetchHonorsLimit(t *testing.T) {
	connector := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(listingHTML))
	})

	items, err := connector.Fetch(context.Background(), sources.FetchRequest{Limit: 1})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
}

func TestFetchReportsServerError(t *testing.T) {
	connector := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	})

	if _, err := connector.Fetch(context.Background(), sources.FetchRequest{}); err == nil {
		t.Fatal("expected fetch error for 502 response")
	}
}

func TestFetchWithoutCategoriesIsUnavailable(t *testing.T) {
	connector := arxiv.New(nil)
	if _, err := connector.Fetch(context.Background(), sources.FetchRequest{}); err == nil {
		t.Fatal("expected unavailable error with no categories")
	}
}
