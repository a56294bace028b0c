package chow

import "sort"

// Loc is a geographic location.
type Loc struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// MenuItem is a single orderable item on an eatery menu.  Category is
// attached during flattening; it is empty on raw input items.
type MenuItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Details  string  `json:"details,omitempty"`
	Category string  `json:"category,omitempty"`
}

// EateryDef is the raw external form of an eatery as it appears in
// bulk-load JSON: the menu still nests items under categories.
type EateryDef struct {
	ID      string                `json:"id"`
	Name    string                `json:"name"`
	Cuisine string                `json:"cuisine"`
	Loc     Loc                   `json:"loc"`
	Menu    map[string][]MenuItem `json:"menu"`
}

// Eatery is the flattened form used throughout the application: the
// categorized menu is replaced by a flat itemId index plus a
// category -> itemIds index.  Item ids are unique within an eatery.
type Eatery struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	Cuisine        string              `json:"cuisine"`
	Loc            Loc                 `json:"loc"`
	MenuCategories []string            `json:"menuCategories"`
	FlatMenu       map[string]MenuItem `json:"flatMenu"`
	Menu           map[string][]string `json:"menu"`
}

// EaterySummary is the per-row result of a geo search.  Dist is the
// great-circle distance from the search origin in miles.
type EaterySummary struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Loc  Loc     `json:"loc"`
	Dist float64 `json:"dist"`
}

// Flatten builds the flattened eatery from a raw definition: every item
// gets its category attached, FlatMenu maps itemId to item, and Menu is
// reduced to category -> itemIds.  Categories are sorted so the
// flattened form is deterministic.
func (d EateryDef) Flatten() Eatery {
	categories := make([]string, 0, len(d.Menu))
	for category := range d.Menu {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	flat := make(map[string]MenuItem)
	menu := make(map[string][]string, len(d.Menu))
	for _, category := range categories {
		ids := make([]string, 0, len(d.Menu[category]))
		for _, item := range d.Menu[category] {
			item.Category = category
			flat[item.ID] = item
			ids = append(ids, item.ID)
		}
		menu[category] = ids
	}

	return Eatery{
		ID:             d.ID,
		Name:           d.Name,
		Cuisine:        d.Cuisine,
		Loc:            d.Loc,
		MenuCategories: categories,
		FlatMenu:       flat,
		Menu:           menu,
	}
}
