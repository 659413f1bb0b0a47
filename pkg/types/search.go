package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// OrderBy selects chronological ordering instead of relevance ordering.
// The zero value means relevance (or natural order without a query).
type OrderBy string

const (
	OrderOldest OrderBy = "oldest"
	OrderNewest OrderBy = "newest"
)

// UnmarshalText accepts any casing of the known values.
func (o *OrderBy) UnmarshalText(text []byte) error {
	switch v := OrderBy(strings.ToLower(strings.TrimSpace(string(text)))); v {
	case "", OrderOldest, OrderNewest:
		*o = v
		return nil
	case "relevance":
		*o = ""
		return nil
	default:
		return fmt.Errorf("invalid order_by %q: expected oldest or newest", string(text))
	}
}

// FallsOn is the calendar span a date filter covers.
type FallsOn string

const (
	FallsOnDay   FallsOn = "day"
	FallsOnWeek  FallsOn = "week"
	FallsOnMonth FallsOn = "month"
)

// UnmarshalText accepts any casing of the known values.
func (f *FallsOn) UnmarshalText(text []byte) error {
	switch v := FallsOn(strings.ToLower(strings.TrimSpace(string(text)))); v {
	case "", FallsOnDay, FallsOnWeek, FallsOnMonth:
		*f = v
		return nil
	default:
		return fmt.Errorf("invalid falls_on %q: expected day, week, or month", string(text))
	}
}

// Scope restricts a search to rows that have a property (include) or to
// rows that do not (exclude).
type Scope string

const (
	ScopeInclude Scope = "include"
	ScopeExclude Scope = "exclude"
)

// UnmarshalText accepts any casing of the known values.
func (s *Scope) UnmarshalText(text []byte) error {
	switch v := Scope(strings.ToLower(strings.TrimSpace(string(text)))); v {
	case "", ScopeInclude, ScopeExclude:
		*s = v
		return nil
	default:
		return fmt.Errorf("invalid scope %q: expected include or exclude", string(text))
	}
}

const dateLayout = "2006-01-02"

// Date is a calendar date without a time of day, encoded as YYYY-MM-DD.
type Date struct {
	time.Time
}

// NewDate returns the date portion of t in UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	return d.Time.Format(dateLayout)
}

// MarshalJSON encodes the date as a YYYY-MM-DD string.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a YYYY-MM-DD string. Full RFC 3339 timestamps are
// accepted and truncated to their date.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid date: %w", err)
	}
	return d.UnmarshalText([]byte(s))
}

// UnmarshalText decodes a YYYY-MM-DD string or an RFC 3339 timestamp.
func (d *Date) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if t, err := time.Parse(dateLayout, s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	*d = NewDate(t.Year(), t.Month(), t.Day())
	return nil
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan implements sql.Scanner for DATE columns.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = NewDate(v.Year(), v.Month(), v.Day())
		return nil
	case string:
		return d.UnmarshalText([]byte(v))
	case []byte:
		return d.UnmarshalText(v)
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}

// SearchParams are the search inputs shared by every dated entity.
type SearchParams struct {
	// Select rows by database-generated id in addition to searching.
	IDs []int64 `json:"ids,omitempty"`
	// Natural-language query compared against stored embeddings.
	Query string `json:"query,omitempty"`
	// Rerank candidates against the query and drop weak matches.
	UseRerankingFilter bool `json:"use_reranking_filter,omitempty"`
	// Per-request override of the configured cosine distance threshold.
	DistanceThreshold *float64 `json:"distance_threshold,omitempty"`
	// Per-request override of the configured reranker score threshold.
	SimilarityThreshold *float64 `json:"similarity_threshold,omitempty"`
	CreatedFrom         *time.Time `json:"created_from,omitempty"`
	CreatedTo           *time.Time `json:"created_to,omitempty"`
	OrderBy             OrderBy    `json:"order_by,omitempty"`
	// Max number of rows to return; zero means no limit.
	Limit int64 `json:"limit,omitempty"`
}

// Selector picks the single row targeted by an update.
type Selector struct {
	ID                  *int64     `json:"id,omitempty"`
	Query               string     `json:"query,omitempty"`
	UseRerankingFilter  bool       `json:"use_reranking_filter,omitempty"`
	DistanceThreshold   *float64   `json:"distance_threshold,omitempty"`
	SimilarityThreshold *float64   `json:"similarity_threshold,omitempty"`
	CreatedFrom         *time.Time `json:"created_from,omitempty"`
	CreatedTo           *time.Time `json:"created_to,omitempty"`
	OrderBy             OrderBy    `json:"order_by,omitempty"`
}

// SearchParams converts the selector into a limit-1 search. An explicit id
// takes precedence over every other criterion.
func (s Selector) SearchParams() SearchParams {
	if s.ID != nil {
		return SearchParams{IDs: []int64{*s.ID}, Limit: 1}
	}
	return SearchParams{
		Query:               s.Query,
		UseRerankingFilter:  s.UseRerankingFilter,
		DistanceThreshold:   s.DistanceThreshold,
		SimilarityThreshold: s.SimilarityThreshold,
		CreatedFrom:         s.CreatedFrom,
		CreatedTo:           s.CreatedTo,
		OrderBy:             s.OrderBy,
		Limit:               1,
	}
}

// Validate rejects inverted ranges and negative limits.
func (p SearchParams) Validate() error {
	if p.Limit < 0 {
		return Validation("limit must not be negative")
	}
	if p.CreatedFrom != nil && p.CreatedTo != nil && p.CreatedFrom.After(*p.CreatedTo) {
		return Validation("created_from must not be after created_to")
	}
	if p.DistanceThreshold != nil && (*p.DistanceThreshold <= 0 || *p.DistanceThreshold > 2) {
		return Validation("distance_threshold must be in (0, 2]")
	}
	if p.SimilarityThreshold != nil && (*p.SimilarityThreshold < 0 || *p.SimilarityThreshold > 1) {
		return Validation("similarity_threshold must be in [0, 1]")
	}
	return nil
}
