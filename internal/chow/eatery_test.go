package chow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatten(t *testing.T) {
	def := EateryDef{
		ID:      "e1",
		Name:    "Trattoria",
		Cuisine: "Italian",
		Menu: map[string][]MenuItem{
			"pasta": {
				{ID: "p1", Name: "Carbonara", Price: 12.5},
				{ID: "p2", Name: "Amatriciana", Price: 11},
			},
			"drinks": {
				{ID: "d1", Name: "Espresso", Price: 2},
			},
		},
	}

	eatery := def.Flatten()

	assert.Equal(t, []string{"drinks", "pasta"}, eatery.MenuCategories)
	require.Len(t, eatery.FlatMenu, 3)
	assert.Equal(t, "pasta", eatery.FlatMenu["p1"].Category)
	assert.Equal(t, "drinks", eatery.FlatMenu["d1"].Category)
	assert.Equal(t, 12.5, eatery.FlatMenu["p1"].Price)
	assert.Equal(t, []string{"p1", "p2"}, eatery.Menu["pasta"])
	assert.Equal(t, []string{"d1"}, eatery.Menu["drinks"])
}

func TestFlatten_EmptyMenu(t *testing.T) {
	eatery := EateryDef{ID: "e1", Menu: map[string][]MenuItem{}}.Flatten()

	assert.Empty(t, eatery.MenuCategories)
	assert.Empty(t, eatery.FlatMenu)
	assert.Empty(t, eatery.Menu)
}
