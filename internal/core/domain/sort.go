package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidSortKey = errors.New("invalid sort key")

const (
	SortByDate               = "date"
	SortByCarbonImpact       = "carbon_impact"
	SortByCreatedDate        = "created_date"
	SortByPotentialReduction = "potential_reduction"
)

var (
	ActivitySortFields   = []string{SortByDate, SortByCarbonImpact, SortByCreatedDate}
	SuggestionSortFields = []string{SortByCreatedDate, SortByPotentialReduction}
)

// SortKey is a field name, descending when written with a leading "-".
type SortKey struct {
	Field      string
	Descending bool
}

func ParseSortKey(raw string, allowed ...string) (SortKey, error) {
	raw = strings.TrimSpace(raw)

	key := SortKey{Field: raw}
	if strings.HasPrefix(raw, "-") {
		key = SortKey{Field: raw[1:], Descending: true}
	}

	for _, field := range allowed {
		if key.Field == field {
			return key, nil
		}
	}
	return SortKey{}, fmt.Errorf("%w: %q", ErrInvalidSortKey, raw)
}

func (k SortKey) String() string {
	if k.Descending {
		return "-" + k.Field
	}
	return k.Field
}

type ListOptions struct {
	Sort  SortKey
	Limit int
}
