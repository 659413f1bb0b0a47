// Package news fetches Google News headlines and swaps their links for
// short local redirects.
package news

import (
	"context"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/theogognf/toi/internal/storage"
	"github.com/theogognf/toi/pkg/types"
)

const DefaultFeedURL = "https://news.google.com"

// Feed reads the Google News RSS feed.
type Feed struct {
	client *resty.Client
}

// NewFeed creates a feed client. An empty baseURL uses Google News.
func NewFeed(baseURL, userAgent string, timeout time.Duration) *Feed {
	if baseURL == "" {
		baseURL = DefaultFeedURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/rss+xml, application/xml").
		SetTimeout(timeout)
	return &Feed{client: client}
}

type rss struct {
	Channel struct {
		Items []struct {
			Title   string `xml:"title"`
			Link    string `xml:"link"`
			PubDate string `xml:"pubDate"`
			Source  string `xml:"source"`
		} `xml:"item"`
	} `xml:"channel"`
}

// searchTerms builds the feed's search expression, or "" for top stories.
func searchTerms(req types.NewsRequest) string {
	var terms []string
	if q := strings.TrimSpace(req.Query); q != "" {
		terms = append(terms, q)
	}
	if req.When != nil {
		terms = append(terms, "when:"+strconv.Itoa(*req.When)+"h")
	}
	return strings.Join(terms, " ")
}

// Headlines returns the feed's items with their original links.
func (f *Feed) Headlines(ctx context.Context, req types.NewsRequest) ([]types.NewsItem, error) {
	if req.When != nil && (*req.When < 1 || *req.When > 24) {
		return nil, types.Validation("when must be between 1 and 24 hours")
	}

	r := f.client.R().SetContext(ctx)
	path := "/rss"
	if q := searchTerms(req); q != "" {
		path = "/rss/search"
		r.SetQueryParam("q", q)
	}
	resp, err := r.Get(path)
	if err != nil {
		return nil, types.UpstreamConnection(fmt.Errorf("news: GET %s: %w", path, err))
	}
	if resp.IsError() {
		return nil, types.UpstreamConnection(fmt.Errorf("news: GET %s: %s", path, resp.Status()))
	}

	var feed rss
	if err := xml.Unmarshal(resp.Body(), &feed); err != nil {
		return nil, types.UpstreamParse(fmt.Errorf("news: malformed feed: %w", err))
	}

	items := make([]types.NewsItem, 0, len(feed.Channel.Items))
	for _, it := range feed.Channel.Items {
		item := types.NewsItem{
			Title:  strings.TrimSpace(it.Title),
			Source: strings.TrimSpace(it.Source),
			URL:    strings.TrimSpace(it.Link),
		}
		if published, ok := parsePubDate(it.PubDate); ok {
			item.PublishedAt = &published
		}
		if item.URL == "" {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func parsePubDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC1123, time.RFC1123Z} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// Headliner fetches headlines.
type Headliner interface {
	Headlines(ctx context.Context, req types.NewsRequest) ([]types.NewsItem, error)
}

// Service serves headlines whose links are short local redirects.
type Service struct {
	feed  Headliner
	links storage.NewsLinks
}

func NewService(feed Headliner, links storage.NewsLinks) *Service {
	return &Service{feed: feed, links: links}
}

// Latest fetches headlines and allocates a redirect per headline. When
// the alias ring runs out, the remaining headlines are dropped.
func (s *Service) Latest(ctx context.Context, req types.NewsRequest) ([]types.NewsItem, error) {
	items, err := s.feed.Headlines(ctx, req)
	if err != nil {
		return nil, err
	}
	aliased, err := s.links.Allocate(ctx, items)
	if err != nil {
		return nil, err
	}
	log.Ctx(ctx).Debug().Int("headlines", len(items)).Int("aliased", len(aliased)).Msg("served news")
	return aliased, nil
}

// Resolve returns the article URL behind an alias.
func (s *Service) Resolve(ctx context.Context, alias string) (string, error) {
	return s.links.Resolve(ctx, alias)
}
