package postgres

import (
	"context"
	"fmt"
	"strings"

	"horae/internal/store"
)

// SearchTurns matches turn bodies by substring. Every positive term must
// appear; OR alternatives widen the previous term.
func (c *Client) SearchTurns(ctx context.Context, chat, query string) ([]store.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	q := store.ParseQuery(query)
	if q.FirstPositive() == "" {
		return nil, fmt.Errorf("query needs at least one term that is not negated")
	}

	where, args := conditions(q, []any{chat})
	args = append(args, 50)
	sql := `
SELECT c.name, t.idx, t.is_user, t.body
FROM turns t
JOIN chats c ON c.id = t.chat_id
WHERE ($1 = '' OR c.name = $1)` + where + fmt.Sprintf(`
ORDER BY c.name ASC, t.idx ASC
LIMIT $%d
`, len(args))

	rows, err := c.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("searching turns: %w", err)
	}
	defer rows.Close()

	term := q.FirstPositive()
	results := []store.SearchResult{}
	for rows.Next() {
		var r store.SearchResult
		var body string
		if err := rows.Scan(&r.Chat, &r.Turn, &r.IsUser, &body); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		r.Score = float64(strings.Count(body, term))
		r.Snippet = store.Snippet(body, term)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}
	return results, nil
}

// conditions renders q as strpos predicates with numbered placeholders
// following args.
func conditions(q store.Query, args []any) (string, []any) {
	var b strings.Builder
	var group []string
	closeGroup := func() {
		if len(group) > 0 {
			b.WriteString(" AND (" + strings.Join(group, " OR ") + ")")
			group = nil
		}
	}
	for _, term := range q.Terms {
		args = append(args, term.Text)
		placeholder := fmt.Sprintf("$%d", len(args))
		if term.Negated {
			closeGroup()
			b.WriteString(" AND strpos(t.body, " + placeholder + ") = 0")
			continue
		}
		if !term.Or {
			closeGroup()
		}
		group = append(group, "strpos(t.body, "+placeholder+") > 0")
	}
	closeGroup()
	return b.String(), args
}
