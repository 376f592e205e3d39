package repository

import (
	"fmt"

	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/core/domain"
)

var activityColumns = map[string]string{
	domain.SortByDate:         "activity_date",
	domain.SortByCarbonImpact: "carbon_impact",
	domain.SortByCreatedDate:  "created_at",
}

var suggestionColumns = map[string]string{
	domain.SortByCreatedDate:        "created_at",
	domain.SortByPotentialReduction: "potential_reduction",
}

// orderClause renders ORDER BY from a whitelisted column map. The created_at
// tiebreaker keeps pages stable for equal keys.
func orderClause(key domain.SortKey, columns map[string]string) (string, error) {
	column, ok := columns[key.Field]
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidSortKey, key.Field)
	}

	direction := "ASC"
	if key.Descending {
		direction = "DESC"
	}

	if column == "created_at" {
		return fmt.Sprintf("ORDER BY created_at %s, id %s", direction, direction), nil
	}
	return fmt.Sprintf("ORDER BY %s %s, created_at %s", column, direction, direction), nil
}

func limitClause(limit int) string {
	if limit <= 0 {
		return ""
	}
	return fmt.Sprintf(" LIMIT %d", limit)
}
