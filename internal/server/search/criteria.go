// Package search builds the listing filters used by category browsing and
// keyword search. A Criteria is evaluated in memory with Matches or handed to
// a store, which translates it into its own query language.
package search

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/rentals/internal/server/models"
)

// Wildcard is the search term that selects every listing.
const Wildcard = "all"

// TermFields are the listing fields a keyword is matched against.
var TermFields = []string{"category", "title", "city", "province", "country"}

// Kind tells which predicate a Criteria carries.
type Kind int

const (
	KindAll Kind = iota
	KindCategory
	KindTerm
)

// Criteria is an immutable listing predicate.
type Criteria struct {
	kind  Kind
	value string
}

// All selects every listing.
func All() Criteria {
	return Criteria{kind: KindAll}
}

// ByCategory selects listings whose category equals category exactly.
// An empty category selects everything.
func ByCategory(category string) Criteria {
	if category == "" {
		return All()
	}
	return Criteria{kind: KindCategory, value: category}
}

// ByTerm selects listings where term is a case-insensitive substring of at
// least one of TermFields. The Wildcard term and the empty term select
// everything.
func ByTerm(term string) Criteria {
	if term == Wildcard || term == "" {
		return All()
	}
	return Criteria{kind: KindTerm, value: term}
}

func (c Criteria) Kind() Kind { return c.kind }

func (c Criteria) Value() string { return c.value }

// Matches evaluates the predicate against l.
func (c Criteria) Matches(l *models.Listing) bool {
	switch c.kind {
	case KindCategory:
		return l.Category == c.value
	case KindTerm:
		needle := strings.ToLower(c.value)
		for _, f := range TermFields {
			if strings.Contains(strings.ToLower(FieldValue(l, f)), needle) {
				return true
			}
		}
		return false
	default:
		return true
	}
}

// SQL renders the predicate as a PostgreSQL boolean expression whose single
// placeholder is $argIndex. It returns an empty expression for KindAll.
func (c Criteria) SQL(argIndex int) (string, []any) {
	ph := fmt.Sprintf("$%d", argIndex)

	switch c.kind {
	case KindCategory:
		return "category = " + ph, []any{c.value}
	case KindTerm:
		parts := make([]string, len(TermFields))
		for i, f := range TermFields {
			parts[i] = f + " ILIKE " + ph
		}
		return "(" + strings.Join(parts, " OR ") + ")", []any{"%" + EscapeLike(c.value) + "%"}
	default:
		return "", nil
	}
}

// EscapeLike escapes the LIKE metacharacters in s using the default
// backslash escape.
func EscapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// FieldValue returns the value of one of TermFields on l.
func FieldValue(l *models.Listing, field string) string {
	switch field {
	case "category":
		return l.Category
	case "title":
		return l.Title
	case "city":
		return l.City
	case "province":
		return l.Province
	case "country":
		return l.Country
	default:
		return ""
	}
}

// Filter returns the listings of in that match c, preserving order.
func Filter(in []*models.Listing, c Criteria) []*models.Listing {
	out := make([]*models.Listing, 0, len(in))
	for _, l := range in {
		if c.Matches(l) {
			out = append(out, l)
		}
	}
	return out
}
