package graphstore

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kitchenwise/recipechat/internal/extract"
)

func intPtr(v int) *int { return &v }

func TestUpsertParams(t *testing.T) {
	recipe := extract.Recipe{
		Title:        "  Iced Coconut Latte ",
		URL:          "https://site.test/recipe/iced-coconut-latte",
		Image:        "https://site.test/img/latte.jpg",
		Ingredients:  []string{"2 tsp Instant Coffee", "200 ml Coconut Milk", "Ice"},
		Instructions: []string{"Mix the coconut milk and coffee", "Add ice to the top"},
		SkillLevel:   "Beginner",
		Servings:     intPtr(1),
		TimeMinutes:  intPtr(5),
		Tags:         []string{"Drinks", " Summer "},
	}

	params := UpsertParams(recipe, "doc-1")

	require.Equal(t, "doc-1", params["id"])
	require.Equal(t, "iced coconut latte", params["title"])
	require.Equal(t, "https://site.test/recipe/iced-coconut-latte", params["url"])
	require.Equal(t, "Mix the coconut milk and coffee\nAdd ice to the top", params["instructions"])
	require.Equal(t, "beginner", params["skill_level"])
	require.Equal(t, 1, params["servings"])
	require.Equal(t, 5, params["time"])
	require.Equal(t, []any{"drinks", "summer"}, params["tags"])

	ingredients, ok := params["ingredients"].([]any)
	require.True(t, ok)
	require.Len(t, ingredients, 3)
	require.Equal(t, map[string]any{"name": "instant coffee", "amount": "2 tsp"}, ingredients[0])
	require.Equal(t, map[string]any{"name": "coconut milk", "amount": "200 ml"}, ingredients[1])
	require.Equal(t, map[string]any{"name": "ice", "amount": extract.Sentinel}, ingredients[2])
}

func TestUpsertParamsDefaults(t *testing.T) {
	recipe := extract.Recipe{
		Title: "Mystery Dish",
		URL:   "https://site.test/recipe/mystery",
	}

	params := UpsertParams(recipe, "doc-2")

	require.Equal(t, "unknown", params["skill_level"])
	require.Equal(t, 0, params["servings"])
	require.Equal(t, 0, params["time"])
	require.Equal(t, []any{}, params["tags"])
	require.Equal(t, []any{}, params["ingredients"])
}

func TestUpsertParamsFiltersUnusableIngredients(t *testing.T) {
	recipe := extract.Recipe{
		Title:       "Filtered",
		Ingredients: []string{"", "   ", "1/2 cup sugar"},
	}

	params := UpsertParams(recipe, "doc-3")

	ingredients, ok := params["ingredients"].([]any)
	require.True(t, ok)
	require.Len(t, ingredients, 1)
	require.Equal(t, map[string]any{"name": "sugar", "amount": "1/2 cup"}, ingredients[0])
}

func TestEnsureReadOnly(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantErr bool
	}{
		{
			name:  "plain match",
			query: "MATCH (r:Recipe)-[:HAS_INGREDIENT]->(i:Ingredient) WHERE toLower(i.name) CONTAINS 'garlic' RETURN r.title",
		},
		{
			name:  "clause keyword inside identifier",
			query: "MATCH (r:Recipe) WHERE r.created_at > 0 RETURN r.title",
		},
		{
			name:  "clause keyword inside string-ish token",
			query: "MATCH (t:Tag) WHERE toLower(t.name) CONTAINS 'dessert' RETURN t.name",
		},
		{
			name:    "merge",
			query:   "MERGE (r:Recipe {id: 'x'}) RETURN r",
			wantErr: true,
		},
		{
			name:    "lowercase delete",
			query:   "match (r:Recipe) detach delete r",
			wantErr: true,
		},
		{
			name:    "set property",
			query:   "MATCH (r:Recipe) SET r.title = 'pwned' RETURN r",
			wantErr: true,
		},
		{
			name:    "load csv",
			query:   "LOAD CSV FROM 'file:///etc/passwd' AS row RETURN row",
			wantErr: true,
		},
		{
			name:    "drop index",
			query:   "DROP INDEX recipe_id",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := EnsureReadOnly(tc.query)
			if tc.wantErr {
				require.Error(t, err)
				require.ErrorAs(t, err, &ErrNotReadOnly{})
			} else {
				require.NoError(t, err)
			}
		})
	}
}
