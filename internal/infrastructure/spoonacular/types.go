package spoonacular

// searchResponse is the complexSearch payload
type searchResponse struct {
	Results      []searchResult `json:"results"`
	Offset       int            `json:"offset"`
	Number       int            `json:"number"`
	TotalResults int            `json:"totalResults"`
}

// searchResult is a single complexSearch hit
type searchResult struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Image     string `json:"image"`
	ImageType string `json:"imageType,omitempty"`
}

// recipeInformation is the /recipes/{id}/information payload
type recipeInformation struct {
	ID                  int                  `json:"id"`
	Title               string               `json:"title"`
	Image               string               `json:"image"`
	ImageType           string               `json:"imageType,omitempty"`
	Summary             string               `json:"summary"`
	Instructions        string               `json:"instructions,omitempty"`
	ReadyInMinutes      int                  `json:"readyInMinutes"`
	Servings            int                  `json:"servings"`
	SourceURL           string               `json:"sourceUrl,omitempty"`
	ExtendedIngredients []extendedIngredient `json:"extendedIngredients"`
	Nutrition           *nutrition           `json:"nutrition,omitempty"`
}

type extendedIngredient struct {
	ID       int    `json:"id"`
	Original string `json:"original"`
}

type nutrition struct {
	Nutrients []nutrient `json:"nutrients"`
}

type nutrient struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}
