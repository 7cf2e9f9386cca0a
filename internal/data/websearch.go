package data

import (
	"strings"
	"unicode"
)

// searchTerm is a single word or quoted phrase of a web-style query.
type searchTerm struct {
	text    string
	negated bool
}

// searchQuery is a parsed web-style query: every group must match, and a group
// matches when any of its alternatives does. Negated terms always stand alone.
type searchQuery struct {
	groups  [][]searchTerm
	exclude []searchTerm
}

// parseWebSearch parses the syntax accepted by search boxes:
// bare words are ANDed, "quoted text" is a phrase, `or` joins the terms on
// either side, and a leading '-' excludes a word or phrase.
func parseWebSearch(input string) searchQuery {
	var (
		q       searchQuery
		pending bool // an "or" was seen since the last positive term
	)
	runes := []rune(input)
	for i := 0; i < len(runes); {
		r := runes[i]
		if unicode.IsSpace(r) {
			i++
			continue
		}

		negated := false
		if r == '-' && i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			negated = true
			i++
		}

		var text string
		quoted := false
		if runes[i] == '"' {
			quoted = true
			end := i + 1
			for end < len(runes) && runes[end] != '"' {
				end++
			}
			text = string(runes[i+1 : end])
			i = end + 1
		} else {
			end := i
			for end < len(runes) && !unicode.IsSpace(runes[end]) && runes[end] != '"' {
				end++
			}
			text = string(runes[i:end])
			i = end
		}

		text = normalizeTerm(text)
		if text == "" {
			continue
		}
		if !quoted && !negated && strings.EqualFold(text, "or") {
			pending = len(q.groups) > 0
			continue
		}

		term := searchTerm{text: text, negated: negated}
		switch {
		case negated:
			q.exclude = append(q.exclude, term)
		case pending:
			last := len(q.groups) - 1
			q.groups[last] = append(q.groups[last], term)
		default:
			q.groups = append(q.groups, []searchTerm{term})
		}
		pending = false
	}
	return q
}

// normalizeTerm drops characters that would break out of a quoted term and
// collapses inner whitespace. Terms without a letter or digit are dropped.
func normalizeTerm(s string) string {
	if strings.IndexFunc(s, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }) < 0 {
		return ""
	}
	s = strings.Map(func(r rune) rune {
		if r == '"' {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// empty reports whether the query has nothing that could match.
func (q searchQuery) empty() bool {
	return len(q.groups) == 0
}

// fts5 renders the query as an SQLite FTS5 MATCH expression.
func (q searchQuery) fts5() string {
	if q.empty() {
		return ""
	}
	parts := make([]string, 0, len(q.groups))
	for _, group := range q.groups {
		alts := make([]string, 0, len(group))
		for _, t := range group {
			alts = append(alts, quoteTerm(t.text))
		}
		if len(alts) == 1 {
			parts = append(parts, alts[0])
		} else {
			parts = append(parts, "("+strings.Join(alts, " OR ")+")")
		}
	}
	expr := strings.Join(parts, " AND ")
	for _, t := range q.exclude {
		expr += " NOT " + quoteTerm(t.text)
	}
	return expr
}

// booleanMode renders the query for MySQL MATCH ... AGAINST (... IN BOOLEAN MODE).
func (q searchQuery) booleanMode() string {
	if q.empty() {
		return ""
	}
	parts := make([]string, 0, len(q.groups)+len(q.exclude))
	for _, group := range q.groups {
		if len(group) == 1 {
			parts = append(parts, "+"+quoteTerm(group[0].text))
			continue
		}
		alts := make([]string, 0, len(group))
		for _, t := range group {
			alts = append(alts, quoteTerm(t.text))
		}
		parts = append(parts, "+("+strings.Join(alts, " ")+")")
	}
	for _, t := range q.exclude {
		parts = append(parts, "-"+quoteTerm(t.text))
	}
	return strings.Join(parts, " ")
}

func quoteTerm(s string) string {
	return `"` + s + `"`
}
