package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const recipeHTML = `<html>
<head><meta property="og:image" content="https://site.test/img/latte.jpg"></head>
<body>
<header><p>Promo banner</p></header>
<main>
  <h1>Iced Coconut Latte</h1>
  <div class="field--name-field-ingredient-fullname">2 tsp Instant Coffee</div>
  <div class="field--name-field-ingredient-fullname">200 ml Coconut Milk</div>
  <div class="field--name-field-ingredient-fullname">200 ml Coconut Milk</div>
  <div class="field--name-field-ingredient-fullname">Ice</div>
  <p class="coh-paragraph">Mix the coconut milk and coffee</p>
  <p class="coh-paragraph">Add ice to the top</p>
  <p class="coh-paragraph">Add ice to the top</p>
  <span class="skill-level-value">Beginner</span>
  <span class="serving-value">1</span>
  <span class="stat-prep-time">0</span>
  <span class="stat-cook-time">5</span>
  <div class="field__item"><a href="/tags/drinks">Drinks</a></div>
  <div class="field__item"><a href="/tags/summer">Summer</a></div>
</main>
</body></html>`

func TestParseRecipe(t *testing.T) {
	r, err := ParseRecipe([]byte(recipeHTML), "https://site.test/recipe/iced-coconut-latte")
	require.NoError(t, err)

	require.Equal(t, "Iced Coconut Latte", r.Title)
	require.Equal(t, "https://site.test/img/latte.jpg", r.Image)
	// Duplicated DOM fragments collapse, first-seen order preserved.
	require.Equal(t, []string{"2 tsp Instant Coffee", "200 ml Coconut Milk", "Ice"}, r.Ingredients)
	require.Equal(t, []string{"Mix the coconut milk and coffee", "Add ice to the top"}, r.Instructions)
	require.Equal(t, "Beginner", r.SkillLevel)
	require.NotNil(t, r.Servings)
	require.Equal(t, 1, *r.Servings)
	require.NotNil(t, r.TimeMinutes)
	require.Equal(t, 5, *r.TimeMinutes)
	require.Equal(t, []string{"Drinks", "Summer"}, r.Tags)
}

func TestParseRecipeMissingOptionals(t *testing.T) {
	html := `<html><body><h1>Mystery Dish</h1>
	<div class="field--name-field-ingredient-fullname">Salt</div>
	<p class="coh-paragraph">Season to taste</p>
	</body></html>`

	r, err := ParseRecipe([]byte(html), "https://site.test/recipe/mystery")
	require.NoError(t, err)
	require.Empty(t, r.SkillLevel)
	require.Nil(t, r.Servings)
	require.Nil(t, r.TimeMinutes)
	require.Empty(t, r.Tags)
}

func TestCanonicalText(t *testing.T) {
	r, err := ParseRecipe([]byte(recipeHTML), "https://site.test/recipe/iced-coconut-latte")
	require.NoError(t, err)

	want := "Recipe: Iced Coconut Latte\n\n" +
		"Ingredients:\n2 tsp Instant Coffee\n200 ml Coconut Milk\nIce\n\n" +
		"Instructions:\nMix the coconut milk and coffee\nAdd ice to the top\n\n" +
		"Skill Level: Beginner\n" +
		"Servings: 1\n" +
		"Time: 5\n" +
		"Link: https://site.test/recipe/iced-coconut-latte\n" +
		"Tags: Drinks, Summer"
	require.Equal(t, want, r.CanonicalText())
}

func TestCanonicalTextSentinels(t *testing.T) {
	r := Recipe{
		Title:        "Mystery Dish",
		URL:          "https://site.test/recipe/mystery",
		Ingredients:  []string{"Salt"},
		Instructions: []string{"Season to taste"},
	}
	text := r.CanonicalText()
	require.Contains(t, text, "Skill Level: N/A\n")
	require.Contains(t, text, "Servings: N/A\n")
	require.Contains(t, text, "Time: N/A\n")
	require.Contains(t, text, "Tags: N/A")
}

func TestGenericText(t *testing.T) {
	html := `<html><body>
	<header><h1>Site Chrome</h1></header>
	<nav><li>Menu</li></nav>
	<main><h1>About Us</h1><p>We make recipes.</p><li>Since 1990</li></main>
	<script>var tracking = true;</script>
	<footer><p>Legal</p></footer>
	</body></html>`

	text, err := GenericText([]byte(html), "https://site.test/about")
	require.NoError(t, err)
	require.Equal(t, "Link: https://site.test/about\nAbout Us\nWe make recipes.\nSince 1990", text)
}

func TestGenericTextEmptyPage(t *testing.T) {
	// A page whose content is all chrome still yields a usable document body.
	html := `<html><body><header><p>Only chrome</p></header></body></html>`
	text, err := GenericText([]byte(html), "https://site.test/empty")
	require.NoError(t, err)
	require.Equal(t, "Link: https://site.test/empty\n", text)
}
