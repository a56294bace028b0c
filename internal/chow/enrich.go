package chow

import (
	"fmt"
	"sort"
)

// Enrich joins a raw order with its eatery's flattened menu, producing
// priced line items and a grand total.
//
// An order whose eateryId does not match the eatery signals an internal
// consistency bug in the caller and yields a BAD_REQ.  Every order item
// missing from the eatery's flat menu accumulates its own NOT_FOUND
// error; validation does not stop at the first unknown item.  Line
// items are emitted in sorted item-id order so responses are
// deterministic.
func Enrich(eatery *Eatery, order *Order) (*EateryOrder, Errors) {
	if order.EateryID != eatery.ID {
		msg := fmt.Sprintf("order eateryId %q does not match that of provided eatery %q",
			order.EateryID, eatery.ID)
		return nil, BadReq(msg)
	}

	itemIDs := make([]string, 0, len(order.Items))
	for itemID := range order.Items {
		itemIDs = append(itemIDs, itemID)
	}
	sort.Strings(itemIDs)

	var errs Errors
	for _, itemID := range itemIDs {
		if _, ok := eatery.FlatMenu[itemID]; !ok {
			msg := fmt.Sprintf("unknown item-id %q in order %q", itemID, order.ID)
			errs = append(errs, &Error{Message: msg, Code: CodeNotFound})
		}
	}
	if errs != nil {
		return nil, errs
	}

	items := make([]LineItem, 0, len(itemIDs))
	var total float64
	for _, itemID := range itemIDs {
		item := eatery.FlatMenu[itemID]
		quantity := order.Items[itemID]
		quantityPrice := float64(quantity) * item.Price
		items = append(items, LineItem{
			MenuItem:      item,
			Quantity:      quantity,
			QuantityPrice: quantityPrice,
		})
		total += quantityPrice
	}

	return &EateryOrder{
		ID:       order.ID,
		EateryID: order.EateryID,
		Name:     eatery.Name,
		Loc:      eatery.Loc,
		Cuisine:  eatery.Cuisine,
		Items:    items,
		Total:    total,
	}, nil
}
