package chow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEatery() Eatery {
	return EateryDef{
		ID:      "e1",
		Name:    "Golden Wok",
		Cuisine: "Chinese",
		Loc:     Loc{Lat: 42.09, Lng: -75.97},
		Menu: map[string][]MenuItem{
			"mains": {
				{ID: "A", Name: "Fried Rice", Price: 3},
				{ID: "B", Name: "Lo Mein", Price: 5},
			},
		},
	}.Flatten()
}

func testEateryPtr() *Eatery {
	e := testEatery()
	return &e
}

func TestEnrich_Total(t *testing.T) {
	eatery := testEateryPtr()
	order := &Order{ID: "1_23", EateryID: "e1", Items: map[string]int{"A": 2, "B": 1}}

	enriched, errs := Enrich(eatery, order)
	require.Nil(t, errs)

	assert.Equal(t, 11.0, enriched.Total)
	assert.Equal(t, "Golden Wok", enriched.Name)
	assert.Equal(t, "Chinese", enriched.Cuisine)
	require.Len(t, enriched.Items, 2)

	// line items come back in sorted item-id order
	assert.Equal(t, "A", enriched.Items[0].ID)
	assert.Equal(t, 2, enriched.Items[0].Quantity)
	assert.Equal(t, 6.0, enriched.Items[0].QuantityPrice)
	assert.Equal(t, "B", enriched.Items[1].ID)
	assert.Equal(t, 1, enriched.Items[1].Quantity)
	assert.Equal(t, 5.0, enriched.Items[1].QuantityPrice)
}

func TestEnrich_EmptyOrder(t *testing.T) {
	enriched, errs := Enrich(testEateryPtr(), &Order{ID: "1_23", EateryID: "e1", Items: map[string]int{}})
	require.Nil(t, errs)
	assert.Empty(t, enriched.Items)
	assert.Equal(t, 0.0, enriched.Total)
}

func TestEnrich_EateryMismatch(t *testing.T) {
	order := &Order{ID: "1_23", EateryID: "other", Items: map[string]int{}}

	_, errs := Enrich(testEateryPtr(), order)
	require.Len(t, errs, 1)
	assert.Equal(t, CodeBadReq, errs[0].Code)
}

func TestEnrich_UnknownItemsAccumulate(t *testing.T) {
	order := &Order{
		ID:       "1_23",
		EateryID: "e1",
		Items:    map[string]int{"A": 1, "nope1": 2, "nope2": 3},
	}

	_, errs := Enrich(testEateryPtr(), order)
	require.Len(t, errs, 2)
	for _, e := range errs {
		assert.Equal(t, CodeNotFound, e.Code)
	}
}
