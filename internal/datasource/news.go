package datasource

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/sbalaji92/investlens/pkg/models"
	"github.com/sbalaji92/investlens/pkg/utils"
)

const yahooNewsFeedURL = "https://feeds.finance.yahoo.com/rss/2.0/headline?s=%s&region=US&lang=en-US"

// News fetches per-ticker headlines from the Yahoo Finance RSS feed.
type News struct {
	feedURL string
	cache   *Cache
	limiter *RateLimiter
	parser  *gofeed.Parser
}

// NewNews creates a news data source.
func NewNews() *News {
	return &News{
		feedURL: yahooNewsFeedURL,
		cache:   NewCache(10 * time.Minute),
		limiter: NewRateLimiter(2, time.Second), // conservative: 2 req/s
		parser:  gofeed.NewParser(),
	}
}

// NewNewsWithFeedURL creates a news source against a custom feed URL
// template (must contain one %s for the ticker). Used by tests.
func NewNewsWithFeedURL(feedURL string) *News {
	n := NewNews()
	n.feedURL = feedURL
	return n
}

// Name returns the data source name.
func (n *News) Name() string { return "Yahoo Finance News" }

// GetCompanyNews returns recent headlines for a ticker, newest first,
// capped at limit (0 means all).
func (n *News) GetCompanyNews(ctx context.Context, ticker string, limit int) ([]models.NewsItem, error) {
	symbol := utils.NormalizeTicker(ticker)

	cacheKey := "news:" + symbol
	if cached, ok := n.cache.Get(cacheKey); ok {
		return capItems(cached.([]models.NewsItem), limit), nil
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf(n.feedURL, symbol)
	body, _, err := doGet(ctx, url, map[string]string{"Accept": "application/rss+xml, application/xml, text/xml"})
	if err != nil {
		return nil, fmt.Errorf("news feed %s: %w", symbol, err)
	}
	defer body.Close()

	feed, err := n.parser.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse news feed %s: %w", symbol, err)
	}

	items := make([]models.NewsItem, 0, len(feed.Items))
	for _, item := range feed.Items {
		ni := models.NewsItem{
			Title:       strings.TrimSpace(item.Title),
			Link:        item.Link,
			Source:      feed.Title,
			Description: stripHTML(item.Description),
		}
		if item.PublishedParsed != nil {
			ni.Published = item.PublishedParsed.UTC().Format(time.RFC3339)
		}
		items = append(items, ni)
	}

	n.cache.Set(cacheKey, items)
	return capItems(items, limit), nil
}

// stripHTML reduces an RSS description to its text content. Feed
// descriptions routinely embed markup and tracking anchors.
func stripHTML(s string) string {
	if !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(doc.Text())
}

func capItems(items []models.NewsItem, limit int) []models.NewsItem {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
