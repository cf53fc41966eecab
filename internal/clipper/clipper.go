package clipper

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Clipper fetches a recipe web page and extracts its title and ingredient
// lines so the result can be saved as a custom recipe.
type Clipper struct {
	client *http.Client
}

// ClippedRecipe is the structured extraction result.
type ClippedRecipe struct {
	Title       string
	Ingredients []string
}

// NewClipper creates a new Clipper instance.
func NewClipper() *Clipper {
	return &Clipper{client: &http.Client{Timeout: 15 * time.Second}}
}

// ClipURL fetches the URL and extracts the recipe title and ingredients.
func (c *Clipper) ClipURL(url string) (*ClippedRecipe, error) {
	doc, err := c.fetchDocument(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch content: %w", err)
	}

	title := extractTitle(doc)
	ingredients := extractIngredients(doc)
	if len(ingredients) == 0 {
		return nil, fmt.Errorf("no ingredients found at %s", url)
	}

	return &ClippedRecipe{Title: title, Ingredients: ingredients}, nil
}

func (c *Clipper) fetchDocument(url string) (*goquery.Document, error) {
	resp, err := c.client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	// Remove noise before extraction
	doc.Find("script, style, nav, footer, iframe, ads, .ads, #ads").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})
	return doc, nil
}

func extractTitle(doc *goquery.Document) string {
	if t := strings.TrimSpace(doc.Find("h1").First().Text()); t != "" {
		return t
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// extractIngredients tries schema.org recipe markup first, then common
// ingredient-list class names. Lines are whitespace-collapsed and
// deduplicated.
func extractIngredients(doc *goquery.Document) []string {
	selectors := []string{
		`[itemprop="recipeIngredient"]`,
		`[itemprop="ingredients"]`,
		`.recipe-ingredients li`,
		`.ingredients li`,
		`ul.ingredients li`,
	}

	for _, sel := range selectors {
		var lines []string
		seen := make(map[string]bool)
		doc.Find(sel).Each(func(i int, s *goquery.Selection) {
			line := strings.Join(strings.Fields(s.Text()), " ")
			if line == "" || seen[line] {
				return
			}
			seen[line] = true
			lines = append(lines, line)
		})
		if len(lines) > 0 {
			return lines
		}
	}
	return nil
}
