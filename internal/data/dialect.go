package data

import (
	"mcp-directory/internal/config"

	"github.com/jmoiron/sqlx"
)

// searchIndex names one of the two text indexes kept over listings.
type searchIndex int

const (
	// titleIndex covers the listing title only.
	titleIndex searchIndex = iota
	// contentIndex covers title, tagline and description.
	contentIndex
)

// dialect hides the store-specific parts of listing queries.
type dialect interface {
	// textMatch returns a WHERE fragment restricting l.id to listings whose
	// index matches q, together with its bind argument.
	textMatch(idx searchIndex, q searchQuery) (string, interface{})
}

func dialectFor(db *sqlx.DB) dialect {
	if db.DriverName() == config.DriverMySQL {
		return mysqlDialect{}
	}
	return sqliteDialect{}
}

type sqliteDialect struct{}

func (sqliteDialect) textMatch(idx searchIndex, q searchQuery) (string, interface{}) {
	table := "listing_title_fts"
	if idx == contentIndex {
		table = "listing_fts"
	}
	return "l.id IN (SELECT listing_id FROM " + table + " WHERE " + table + " MATCH ?)", q.fts5()
}

type mysqlDialect struct{}

func (mysqlDialect) textMatch(idx searchIndex, q searchQuery) (string, interface{}) {
	columns := "l.title"
	if idx == contentIndex {
		columns = "l.title, l.tagline, l.description"
	}
	return "MATCH(" + columns + ") AGAINST (? IN BOOLEAN MODE)", q.booleanMode()
}
