package domain

// RecipeSummary is a single search hit as shown in the result grid
type RecipeSummary struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	ImageURL string `json:"imageUrl"`
}

// RecipeDetail is the full recipe fetched when the user selects a result
type RecipeDetail struct {
	ID               int          `json:"id"`
	Title            string       `json:"title"`
	ImageURL         string       `json:"imageUrl"`
	SummaryHTML      string       `json:"summaryHtml"`
	Ingredients      []Ingredient `json:"ingredients"`
	InstructionsHTML string       `json:"instructionsHtml,omitempty"`
	Nutrition        *Nutrition   `json:"nutrition,omitempty"`
	ReadyInMinutes   int          `json:"readyInMinutes,omitempty"`
	Servings         int          `json:"servings,omitempty"`
	SourceURL        string       `json:"sourceUrl,omitempty"`
}

// Ingredient is one line of a recipe's ingredient list
type Ingredient struct {
	ID           int    `json:"id"`
	OriginalText string `json:"originalText"`
}

// Nutrition holds the per-serving nutrient breakdown of a recipe
type Nutrition struct {
	Nutrients []Nutrient `json:"nutrients"`
}

// Nutrient is a single named nutrient amount
type Nutrient struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

// Summary projects the detail onto the fields kept in favorites
func (d *RecipeDetail) Summary() RecipeSummary {
	return RecipeSummary{ID: d.ID, Title: d.Title, ImageURL: d.ImageURL}
}

// ResultPage is one page of search results as returned by the recipe API
type ResultPage struct {
	Items             []RecipeSummary `json:"items"`
	Offset            int             `json:"offset"`
	RequestedPageSize int             `json:"requestedPageSize"`
	TotalResults      int             `json:"totalResults"`
}

// ResultSet is the accumulated, deduplicated result list of a search
type ResultSet struct {
	Items   []RecipeSummary `json:"items"`
	Offset  int             `json:"offset"` // offset of the last page requested
	HasMore bool            `json:"hasMore"`
}
