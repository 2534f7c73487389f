package spoonacular

import (
	"fmt"

	"github.com/mealquest/backend/internal/domain"
)

// imageBaseURL is where Spoonacular serves recipe images when a payload omits the full URL
const imageBaseURL = "https://img.spoonacular.com/recipes"

// mapSearchResponse converts a complexSearch payload to a domain result page
func mapSearchResponse(resp *searchResponse, offset, pageSize int) *domain.ResultPage {
	items := make([]domain.RecipeSummary, 0, len(resp.Results))
	for _, r := range resp.Results {
		items = append(items, domain.RecipeSummary{
			ID:       r.ID,
			Title:    r.Title,
			ImageURL: imageURL(r.ID, r.Image, r.ImageType),
		})
	}

	return &domain.ResultPage{
		Items:             items,
		Offset:            offset,
		RequestedPageSize: pageSize,
		TotalResults:      resp.TotalResults,
	}
}

// mapRecipeInformation converts a recipe information payload to a domain detail
func mapRecipeInformation(info *recipeInformation) *domain.RecipeDetail {
	detail := &domain.RecipeDetail{
		ID:               info.ID,
		Title:            info.Title,
		ImageURL:         imageURL(info.ID, info.Image, info.ImageType),
		SummaryHTML:      info.Summary,
		InstructionsHTML: info.Instructions,
		ReadyInMinutes:   info.ReadyInMinutes,
		Servings:         info.Servings,
		SourceURL:        info.SourceURL,
		Ingredients:      make([]domain.Ingredient, 0, len(info.ExtendedIngredients)),
	}

	for _, ing := range info.ExtendedIngredients {
		detail.Ingredients = append(detail.Ingredients, domain.Ingredient{
			ID:           ing.ID,
			OriginalText: ing.Original,
		})
	}

	if info.Nutrition != nil {
		detail.Nutrition = &domain.Nutrition{
			Nutrients: make([]domain.Nutrient, 0, len(info.Nutrition.Nutrients)),
		}
		for _, n := range info.Nutrition.Nutrients {
			detail.Nutrition.Nutrients = append(detail.Nutrition.Nutrients, domain.Nutrient{
				Name:   n.Name,
				Amount: n.Amount,
				Unit:   n.Unit,
			})
		}
	}

	return detail
}

// imageURL returns the payload's image or builds the CDN URL from id and type
func imageURL(id int, image, imageType string) string {
	if image != "" {
		return image
	}
	if imageType == "" {
		return ""
	}
	return fmt.Sprintf("%s/%d-312x231.%s", imageBaseURL, id, imageType)
}
