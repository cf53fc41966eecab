// Package household names the shared document collections every feature
// reads and writes. All clients of one household converge on the same data.
package household

const (
	// ColItems holds one document per distinct list item, keyed by slug.
	ColItems = "items"
	// ColRecipes holds user-authored recipe definitions, keyed by slug.
	ColRecipes = "recipes"
	// ColStores holds store definitions with their section orderings.
	ColStores = "stores"
	// ColMeta holds singleton documents such as the shared UI state.
	ColMeta = "meta"

	// DocUIState is the shared state document: active meals, ready meals and
	// the active store id.
	DocUIState = "uiState"
)
