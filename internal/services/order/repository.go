package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"chow-down/internal/chow"
	"chow-down/internal/database"
	"chow-down/internal/logger"
)

const (
	insertOrderSQL = `
		INSERT INTO orders (id, eatery_id, items)
		VALUES ($1, $2, $3)`

	getOrderSQL = `
		SELECT eatery_id, items FROM orders WHERE id = $1`

	updateOrderItemsSQL = `
		UPDATE orders SET items = $2 WHERE id = $1`

	deleteOrderSQL = `
		DELETE FROM orders WHERE id = $1`

	deleteAllOrdersSQL = `
		DELETE FROM orders`

	nextIDBaseSQL = `
		UPDATE order_id_counter SET base = base + 1 WHERE id = 1 RETURNING base`

	resetIDBaseSQL = `
		UPDATE order_id_counter SET base = 0 WHERE id = 1`
)

// pgCounter persists the id-generator base in the order_id_counter
// singleton row.  The increment-and-fetch is a single atomic UPDATE so
// correctness survives multiple server instances.
type pgCounter struct {
	db *database.DB
}

func (c *pgCounter) Next(ctx context.Context) (int64, error) {
	var base int64
	if err := c.db.QueryRow(ctx, nextIDBaseSQL).Scan(&base); err != nil {
		return 0, err
	}
	return base, nil
}

func (c *pgCounter) Reset(ctx context.Context) error {
	return c.db.Exec(ctx, resetIDBaseSQL)
}

// Repository stores orders in PostgreSQL.  All operations return either
// the requested value or a tagged error list; they never panic across
// the repository boundary.
type Repository struct {
	db     *database.DB
	ids    *IDGen
	logger *logger.Logger
}

// NewRepository creates an order repository over the shared pool.
func NewRepository(db *database.DB, log *logger.Logger) *Repository {
	return &Repository{
		db:     db,
		ids:    NewIDGen(&pgCounter{db: db}),
		logger: log,
	}
}

// Create allocates a fresh order id and persists an empty order for the
// given eatery.
func (r *Repository) Create(ctx context.Context, eateryID string) (*chow.Order, chow.Errors) {
	id, err := r.ids.NextID(ctx)
	if err != nil {
		return nil, chow.DBErr(fmt.Sprintf("cannot create new order: %v", err))
	}

	order := &chow.Order{ID: id, EateryID: eateryID, Items: map[string]int{}}
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return nil, chow.Internal(fmt.Sprintf("cannot create new order: %v", err))
	}

	tag, err := r.db.Pool.Exec(ctx, insertOrderSQL, order.ID, order.EateryID, itemsJSON)
	if err != nil {
		return nil, chow.DBErr(fmt.Sprintf("cannot create new order: %v", err))
	}
	if n := tag.RowsAffected(); n != 1 {
		return nil, chow.DBErr(fmt.Sprintf("order create: expected 1 insert, got %d", n))
	}
	return order, nil
}

// Get returns the order identified by orderID.
func (r *Repository) Get(ctx context.Context, orderID string) (*chow.Order, chow.Errors) {
	var (
		eateryID  string
		itemsJSON []byte
	)
	err := r.db.QueryRow(ctx, getOrderSQL, orderID).Scan(&eateryID, &itemsJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, chow.NotFound(fmt.Sprintf("no order with orderId %s", orderID))
	}
	if err != nil {
		return nil, chow.DBErr(fmt.Sprintf("cannot read order %s: %v", orderID, err))
	}

	items := map[string]int{}
	if err := json.Unmarshal(itemsJSON, &items); err != nil {
		return nil, chow.DBErr(fmt.Sprintf("cannot read order %s: %v", orderID, err))
	}
	return &chow.Order{ID: orderID, EateryID: eateryID, Items: items}, nil
}

// EditItem sets the quantity for itemID in order orderID to exactly
// quantity.  Quantity 0 removes the item; a negative quantity is a
// BAD_REQ.  The item map is written as a full replace, so repeating the
// same edit leaves the order unchanged; a write that would not change
// the stored state is elided entirely.
func (r *Repository) EditItem(ctx context.Context, orderID, itemID string, quantity int) (*chow.Order, chow.Errors) {
	order, errs := r.Get(ctx, orderID)
	if errs != nil {
		return nil, errs
	}
	if quantity < 0 {
		return nil, chow.BadReq(fmt.Sprintf("cannot have a negative quantity %d", quantity))
	}

	edited, changed := editedItems(order.Items, itemID, quantity)
	if changed {
		itemsJSON, err := json.Marshal(edited)
		if err != nil {
			return nil, chow.Internal(fmt.Sprintf("cannot edit order %s: %v", orderID, err))
		}
		tag, err := r.db.Pool.Exec(ctx, updateOrderItemsSQL, orderID, itemsJSON)
		if err != nil {
			return nil, chow.DBErr(fmt.Sprintf("cannot edit order %s: %v", orderID, err))
		}
		if n := tag.RowsAffected(); n != 1 {
			return nil, chow.DBErr(fmt.Sprintf("order item edit: got %d replacements; expected 1", n))
		}
	}

	order.Items = edited
	return order, nil
}

// editedItems computes the item map that results from setting itemID to
// quantity, and whether that differs from the current stored state.
// Quantity 0 removes the key.  The input map is never mutated.
func editedItems(items map[string]int, itemID string, quantity int) (map[string]int, bool) {
	current, present := items[itemID]
	changed := (quantity == 0 && present) || (quantity > 0 && (!present || current != quantity))

	edited := make(map[string]int, len(items)+1)
	for id, n := range items {
		edited[id] = n
	}
	if quantity == 0 {
		delete(edited, itemID)
	} else {
		edited[itemID] = quantity
	}
	return edited, changed
}

// Remove deletes the order identified by orderID.
func (r *Repository) Remove(ctx context.Context, orderID string) chow.Errors {
	tag, err := r.db.Pool.Exec(ctx, deleteOrderSQL, orderID)
	if err != nil {
		return chow.DBErr(fmt.Sprintf("cannot remove order %s: %v", orderID, err))
	}
	if n := tag.RowsAffected(); n != 1 {
		return chow.NotFound(fmt.Sprintf("got %d deletions", n))
	}
	return nil
}

// Clear deletes every order and resets the id generator's base.
func (r *Repository) Clear(ctx context.Context) chow.Errors {
	if err := r.db.Exec(ctx, deleteAllOrdersSQL); err != nil {
		return chow.DBErr(fmt.Sprintf("cannot clear orders: %v", err))
	}
	if err := r.ids.Reset(ctx); err != nil {
		return chow.DBErr(fmt.Sprintf("cannot reset order id base: %v", err))
	}
	return nil
}
