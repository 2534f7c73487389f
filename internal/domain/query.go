package domain

import (
	"fmt"
	"strings"
)

// SortOption selects the ordering of search results
type SortOption string

const (
	SortNone        SortOption = ""
	SortPopularity  SortOption = "popularity"
	SortHealthiness SortOption = "healthiness"
	SortCalories    SortOption = "calories"
)

// ParseSortOption validates a sort option coming from user input.
// "none" and the empty string both mean no sorting.
func ParseSortOption(s string) (SortOption, error) {
	switch opt := SortOption(strings.ToLower(strings.TrimSpace(s))); opt {
	case SortNone, SortPopularity, SortHealthiness, SortCalories:
		return opt, nil
	case "none":
		return SortNone, nil
	default:
		return SortNone, fmt.Errorf("%w: unknown sort option %q", ErrInvalidRequest, s)
	}
}

// Diet tags understood by the recipe API
const (
	DietVegetarian = "vegetarian"
	DietVegan      = "vegan"
	DietGlutenFree = "gluten free"
)

// DietFilters is the set of enabled diet restrictions
type DietFilters struct {
	Vegetarian bool `json:"vegetarian"`
	Vegan      bool `json:"vegan"`
	GlutenFree bool `json:"glutenFree"`
}

// Tags returns the enabled diet tags in a stable order
func (f DietFilters) Tags() []string {
	var tags []string
	if f.Vegetarian {
		tags = append(tags, DietVegetarian)
	}
	if f.Vegan {
		tags = append(tags, DietVegan)
	}
	if f.GlutenFree {
		tags = append(tags, DietGlutenFree)
	}
	return tags
}

// SearchQuery is the snapshot of user input a fetch is issued with
type SearchQuery struct {
	Term  string      `json:"term"`
	Diets DietFilters `json:"diets"`
	Sort  SortOption  `json:"sort"`
}

// Valid reports whether the query has a non-empty term
func (q SearchQuery) Valid() bool {
	return strings.TrimSpace(q.Term) != ""
}
