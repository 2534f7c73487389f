package usecase

import "github.com/mealquest/backend/internal/domain"

// mergePage folds a fetched page into the current items. A replacing merge
// starts from an empty list. Ids already present are skipped, so the first
// occurrence keeps its position.
func mergePage(current, page []domain.RecipeSummary, appendPage bool) []domain.RecipeSummary {
	var base []domain.RecipeSummary
	if appendPage {
		base = current
	}

	out := make([]domain.RecipeSummary, 0, len(base)+len(page))
	seen := make(map[int]struct{}, len(base)+len(page))
	for _, items := range [][]domain.RecipeSummary{base, page} {
		for _, r := range items {
			if _, dup := seen[r.ID]; dup {
				continue
			}
			seen[r.ID] = struct{}{}
			out = append(out, r)
		}
	}
	return out
}

// indexOfRecipe returns the position of id in items, or -1
func indexOfRecipe(items []domain.RecipeSummary, id int) int {
	for i, r := range items {
		if r.ID == id {
			return i
		}
	}
	return -1
}
