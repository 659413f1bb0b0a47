package postgres

import (
	"bufio"
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/theogognf/toi/pkg/types"
)

// AliasTTL is how long an alias keeps pointing at its article.
const AliasTTL = 24 * time.Hour

//go:embed aliases.txt
var aliasFile string

// Aliases returns the closed alias set: one per non-blank line, deduplicated,
// in file order.
func Aliases() []string {
	var aliases []string
	seen := make(map[string]bool)
	sc := bufio.NewScanner(strings.NewReader(aliasFile))
	for sc.Scan() {
		alias := strings.TrimSpace(sc.Text())
		if alias == "" || seen[alias] {
			continue
		}
		seen[alias] = true
		aliases = append(aliases, alias)
	}
	return aliases
}

// NewsRing hands out short redirect aliases for news links. The alias set
// is fixed at startup. An alias stops resolving once its article is older
// than AliasTTL, and allocation overwrites the least recently updated
// aliases first.
type NewsRing struct {
	db      *sql.DB
	baseURL string
	now     func() time.Time
}

// Seed inserts the alias set. Existing aliases keep their articles.
func (n *NewsRing) Seed(ctx context.Context) error {
	aliases := Aliases()
	_, err := n.db.ExecContext(ctx,
		`INSERT INTO news (alias) SELECT unnest($1::text[]) ON CONFLICT DO NOTHING`, pq.Array(aliases))
	if err != nil {
		return fmt.Errorf("postgres: failed to seed news aliases: %w", err)
	}
	log.Debug().Int("aliases", len(aliases)).Msg("news aliases seeded")
	return nil
}

func (n *NewsRing) reclaim(ctx context.Context, q execer) error {
	_, err := q.ExecContext(ctx,
		`UPDATE news SET title = NULL, url = NULL, updated_at = NULL WHERE updated_at < $1`,
		n.now().Add(-AliasTTL))
	if err != nil {
		return fmt.Errorf("postgres: failed to reclaim news aliases: %w", err)
	}
	return nil
}

// Allocate assigns an alias to each item and returns the items with their
// links replaced by redirect URLs. Never-used aliases go first, then the
// least recently updated ones. When there are more items than aliases,
// only the leading items are returned.
func (n *NewsRing) Allocate(ctx context.Context, items []types.NewsItem) ([]types.NewsItem, error) {
	if len(items) == 0 {
		return []types.NewsItem{}, nil
	}
	tx, err := n.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := n.reclaim(ctx, tx); err != nil {
		return nil, err
	}
	rows, err := tx.QueryContext(ctx,
		`SELECT alias FROM news ORDER BY updated_at ASC NULLS FIRST, alias LIMIT $1 FOR UPDATE SKIP LOCKED`, len(items))
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to lock news aliases: %w", err)
	}
	var aliases []string
	for rows.Next() {
		var alias string
		if err := rows.Scan(&alias); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("postgres: failed to scan news alias: %w", err)
		}
		aliases = append(aliases, alias)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to read news aliases: %w", err)
	}

	now := n.now()
	out := make([]types.NewsItem, 0, len(aliases))
	for i, alias := range aliases {
		item := items[i]
		_, err := tx.ExecContext(ctx,
			`UPDATE news SET title = $1, url = $2, updated_at = $3 WHERE alias = $4`,
			item.Title, item.URL, now, alias)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to assign news alias: %w", err)
		}
		item.URL = n.baseURL + alias
		out = append(out, item)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("postgres: failed to commit transaction: %w", err)
	}
	if len(out) < len(items) {
		log.Ctx(ctx).Warn().Int("requested", len(items)).Int("allocated", len(out)).Msg("news alias ring exhausted")
	}
	return out, nil
}

// Resolve returns the article URL behind alias.
func (n *NewsRing) Resolve(ctx context.Context, alias string) (string, error) {
	if err := n.reclaim(ctx, n.db); err != nil {
		return "", err
	}
	var url string
	err := n.db.QueryRowContext(ctx,
		`SELECT url FROM news WHERE alias = $1 AND url IS NOT NULL`, alias).Scan(&url)
	if errors.Is(err, sql.ErrNoRows) {
		return "", types.NotFound("news article not found")
	}
	if err != nil {
		return "", fmt.Errorf("postgres: failed to resolve news alias: %w", err)
	}
	return url, nil
}
