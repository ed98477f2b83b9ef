// internal/news/fetcher.go
package news

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// Item - одна новость из RSS ленты
type Item struct {
	ID        string // Ссылка статьи служит уникальным идентификатором
	Title     string
	Link      string
	Published time.Time
}

// Fetcher читает новостную RSS ленту
type Fetcher struct {
	parser   *gofeed.Parser
	feedURL  string
	maxItems int
}

// NewFetcher создает читателя новостной ленты
func NewFetcher(feedURL string, maxItems int) *Fetcher {
	if maxItems <= 0 {
		maxItems = 5
	}
	return &Fetcher{
		parser:   gofeed.NewParser(),
		feedURL:  feedURL,
		maxItems: maxItems,
	}
}

// FetchLatest возвращает свежие записи ленты (не более maxItems)
func (f *Fetcher) FetchLatest(ctx context.Context) ([]Item, error) {
	feed, err := f.parser.ParseURLWithContext(f.feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching news feed: %w", err)
	}

	items := make([]Item, 0, f.maxItems)
	for _, entry := range feed.Items {
		if len(items) >= f.maxItems {
			break
		}

		link := strings.TrimSpace(entry.Link)
		if link == "" {
			continue
		}

		published := time.Now()
		if entry.PublishedParsed != nil {
			published = *entry.PublishedParsed
		}

		items = append(items, Item{
			ID:        link,
			Title:     strings.TrimSpace(entry.Title),
			Link:      link,
			Published: published,
		})
	}

	return items, nil
}
