// Package arxiv scrapes recent listings from arxiv.org category pages and
// emits them as raw article items.
package arxiv

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"daybrief/internal/services"
	"daybrief/internal/sources"
)

const defaultBaseURL = "https://arxiv.org"

var dateExpr = regexp.MustCompile(`\d{1,2} [A-Za-z]{3} \d{4}`)

// Connector fetches recent papers from the /list/<category>/recent pages.
type Connector struct {
	client     *http.Client
	baseURL    string
	categories []string
}

// Option customizes a connector.
type Option func(*Connector)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Connector) {
		if client != nil {
			c.client = client
		}
	}
}

// WithBaseURL points the connector at a different host (used in tests).
func WithBaseURL(baseURL string) Option {
	return func(c *Connector) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// New builds a connector over the given categories (e.g. "cs.AI").
func New(categories []string, opts ...Option) *Connector {
	c := &Connector{
		client:     &http.Client{Timeout: 20 * time.Second},
		baseURL:    defaultBaseURL,
		categories: categories,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name identifies the connector inside the registry.
func (c *Connector) Name() string {
	return "arxiv"
}

// Fetch pulls the recent listing for each configured category and returns
// papers published at or after req.Since.
func (c *Connector) Fetch(ctx context.Context, req sources.FetchRequest) ([]sources.RawItem, error) {
	if len(c.categories) == 0 {
		return nil, services.Wrap(services.ErrSourceUnavailable, "fetch", "arxiv", "no categories configured", nil)
	}

	var items []sources.RawItem
	seen := map[string]struct{}{}
	for _, category := range c.categories {
		listed, err := c.fetchCategory(ctx, category, req.Since)
		if err != nil {
			return nil, err
		}
		for _, item := range listed {
			id, _ := item.Fields["article_id"].(string)
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			items = append(items, item)
			if req.Limit > 0 && len(items) >= req.Limit {
				return items, nil
			}
		}
	}
	return items, nil
}

func (c *Connector) fetchCategory(ctx context.Context, category string, since time.Time) ([]sources.RawItem, error) {
	pageURL := fmt.Sprintf("%s/list/%s/recent", c.baseURL, category)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrSourceFetch, "fetch", "arxiv", "build request", err)
	}
	httpReq.Header.Set("User-Agent", "daybrief/1.0")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, services.Wrap(services.ErrSourceFetch, "fetch", "arxiv", "request listing", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrSourceFetch, "fetch", "arxiv",
			fmt.Sprintf("listing for %s returned %s", category, resp.Status), nil)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrSourceFetch, "fetch", "arxiv", "parse listing", err)
	}

	var items []sources.RawItem
	doc.Find("dl > dt").Each(func(_ int, dt *goquery.Selection) {
		item, publishedAt, ok := parseEntry(dt, dt.Next(), category)
		if !ok {
			return
		}
		if !since.IsZero() && publishedAt.Before(since) {
			return
		}
		items = append(items, item)
	})
	return items, nil
}

func parseEntry(dt, dd *goquery.Selection, category string) (sources.RawItem, time.Time, bool) {
	link := dt.Find(`a[href*="/abs/"]`).First()
	id := strings.TrimSpace(link.Text())
	href, _ := link.Attr("href")
	if id == "" {
		id = strings.TrimPrefix(href, "/abs/")
	}
	if id == "" {
		return sources.RawItem{}, time.Time{}, false
	}
	if href != "" && !strings.HasPrefix(href, "http") {
		href = defaultBaseURL + href
	}

	title := strings.TrimSpace(strings.TrimPrefix(
		strings.TrimSpace(dd.Find(".list-title").First().Text()), "Title:"))
	abstract := strings.TrimSpace(strings.TrimPrefix(
		strings.TrimSpace(dd.Find(".mathjax").First().Text()), "Abstract:"))

	dateText := strings.TrimSpace(dd.Find(".list-date").First().Text())
	if dateText == "" {
		dateText = strings.TrimSpace(dd.Find(".list-dateline").First().Text())
	}
	publishedAt := time.Now().UTC()
	if match := dateExpr.FindString(dateText); match != "" {
		if parsed, err := time.Parse("2 Jan 2006", match); err == nil {
			publishedAt = parsed
		}
	}

	return sources.RawItem{
		Type: "article",
		Fields: map[string]any{
			"article_id":   id,
			"title":        title,
			"summary":      abstract,
			"url":          href,
			"category":     category,
			"published_at": publishedAt.Format(time.RFC3339),
		},
	}, publishedAt, true
}
