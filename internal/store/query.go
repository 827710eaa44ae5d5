package store

import (
	"strings"
	"unicode/utf8"
)

type Term struct {
	Text    string
	Negated bool
	// Or joins the term to the previous one with OR instead of AND.
	Or bool
}

type Query struct {
	Terms []Term
}

// ParseQuery reads websearch-style syntax: bare words and "quoted phrases"
// are ANDed, OR joins alternatives and a leading - or NOT negates.
func ParseQuery(query string) Query {
	var q Query
	var current strings.Builder
	var inQuote, pendingOr, pendingNot bool

	flush := func(quoted bool) {
		token := current.String()
		current.Reset()
		if token == "" {
			return
		}
		if !quoted {
			switch strings.ToUpper(token) {
			case "OR":
				pendingOr = len(q.Terms) > 0
				return
			case "AND":
				return
			case "NOT":
				pendingNot = true
				return
			}
			if strings.HasPrefix(token, "-") && len(token) > 1 {
				pendingNot = true
				token = token[1:]
			}
		}
		q.Terms = append(q.Terms, Term{Text: token, Negated: pendingNot, Or: pendingOr && !pendingNot})
		pendingOr, pendingNot = false, false
	}

	for _, ch := range query {
		switch {
		case ch == '"':
			flush(inQuote)
			inQuote = !inQuote
		case inQuote:
			current.WriteRune(ch)
		case ch == ' ' || ch == '\t' || ch == '　':
			flush(false)
		default:
			current.WriteRune(ch)
		}
	}
	flush(inQuote)
	return q
}

// FirstPositive returns the first term not negated, or "".
func (q Query) FirstPositive() string {
	for _, term := range q.Terms {
		if !term.Negated {
			return term.Text
		}
	}
	return ""
}

// Snippet cuts a window of body around the first occurrence of term and
// marks the match with **.
func Snippet(body, term string) string {
	const radius = 16
	runes := []rune(body)
	at, n := 0, 0
	i := -1
	if term != "" {
		i = strings.Index(body, term)
	}
	if i >= 0 {
		at = utf8.RuneCountInString(body[:i])
		n = utf8.RuneCountInString(term)
	}
	start := max(at-radius, 0)
	end := min(at+n+radius, len(runes))

	var b strings.Builder
	if start > 0 {
		b.WriteString("...")
	}
	if i >= 0 {
		b.WriteString(string(runes[start:at]))
		b.WriteString("**" + term + "**")
		b.WriteString(string(runes[at+n : end]))
	} else {
		b.WriteString(string(runes[start:end]))
	}
	if end < len(runes) {
		b.WriteString("...")
	}
	return b.String()
}
