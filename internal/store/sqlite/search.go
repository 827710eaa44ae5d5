package sqlite

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"horae/internal/store"
)

// trigramMin is the shortest term the trigram tokenizer can match.
const trigramMin = 3

const searchLimit = 50

// SearchTurns runs a full-text query over turn bodies. An empty chat searches
// every chat. Queries holding a term too short for the trigram index fall
// back to substring matching, where every term is required.
func (c *Client) SearchTurns(ctx context.Context, chat, query string) ([]store.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}

	q := store.ParseQuery(query)
	if short(q) {
		return c.searchLike(ctx, chat, q)
	}

	rows, err := c.db.QueryContext(ctx, `
	SELECT c.name, t.idx, t.is_user,
		   -bm25(turns_fts) AS score,
		   snippet(turns_fts, 0, '**', '**', '...', 16) AS snippet
	FROM turns_fts
	JOIN turns t ON turns_fts.rowid = t.rowid
	JOIN chats c ON c.id = t.chat_id
	WHERE turns_fts MATCH ?
	  AND (? = '' OR c.name = ?)
	ORDER BY score DESC, c.name ASC, t.idx ASC
	LIMIT ?
	`, fts5(q), chat, chat, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("searching turns: %w", err)
	}
	defer rows.Close()

	results := []store.SearchResult{}
	for rows.Next() {
		var r store.SearchResult
		if err := rows.Scan(&r.Chat, &r.Turn, &r.IsUser, &r.Score, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}
	return results, nil
}

func (c *Client) searchLike(ctx context.Context, chat string, q store.Query) ([]store.SearchResult, error) {
	var where strings.Builder
	args := []any{chat, chat}
	for _, term := range q.Terms {
		if term.Negated {
			where.WriteString(" AND instr(t.body, ?) = 0")
		} else {
			where.WriteString(" AND instr(t.body, ?) > 0")
		}
		args = append(args, term.Text)
	}
	args = append(args, searchLimit)

	rows, err := c.db.QueryContext(ctx, `
	SELECT c.name, t.idx, t.is_user, t.body
	FROM turns t
	JOIN chats c ON c.id = t.chat_id
	WHERE (? = '' OR c.name = ?)`+where.String()+`
	ORDER BY c.name ASC, t.idx ASC
	LIMIT ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("searching turns: %w", err)
	}
	defer rows.Close()

	results := []store.SearchResult{}
	for rows.Next() {
		var r store.SearchResult
		var body string
		if err := rows.Scan(&r.Chat, &r.Turn, &r.IsUser, &body); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		r.Snippet = store.Snippet(body, q.FirstPositive())
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}
	return results, nil
}

// short reports whether the trigram index cannot answer q: a term is too
// short or nothing positive is asked for.
func short(q store.Query) bool {
	if q.FirstPositive() == "" {
		return true
	}
	for _, term := range q.Terms {
		if utf8.RuneCountInString(term.Text) < trigramMin {
			return true
		}
	}
	return false
}

// fts5 renders the query with every term quoted, so punctuation inside
// chat text never reaches the FTS5 grammar. FTS5 has no unary NOT, so
// negated terms trail the positive ones.
func fts5(q store.Query) string {
	var b strings.Builder
	quote := func(text string) {
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(text, `"`, `""`))
		b.WriteByte('"')
	}
	for _, term := range q.Terms {
		if term.Negated {
			continue
		}
		if b.Len() > 0 {
			if term.Or {
				b.WriteString(" OR ")
			} else {
				b.WriteString(" AND ")
			}
		}
		quote(term.Text)
	}
	for _, term := range q.Terms {
		if term.Negated {
			b.WriteString(" NOT ")
			quote(term.Text)
		}
	}
	return b.String()
}
