package eatery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"chow-down/internal/chow"
	"chow-down/internal/database"
	"chow-down/internal/logger"
)

const (
	getEaterySQL = `
		SELECT doc FROM eateries WHERE id = $1`

	// Matching uses the precomputed lowercase cuisine key; ranking and
	// paging happen inside the geo-indexed query, never in process.
	// ST_Distance on geography is meters; dist is reported in miles.
	locateEateriesSQL = `
		SELECT doc->>'id', doc->>'name',
		       (doc->'loc'->>'lat')::float8, (doc->'loc'->>'lng')::float8,
		       ST_Distance(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) / 1609.344 AS dist
		FROM eateries
		WHERE cuisine_key = $3
		ORDER BY dist
		LIMIT $4 OFFSET $5`

	deleteAllEateriesSQL = `
		DELETE FROM eateries`

	insertEaterySQL = `
		INSERT INTO eateries (id, cuisine_key, location, doc)
		VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography, $5)`
)

// Repository stores eateries in PostgreSQL with a precomputed cuisine
// key and a geospatial index.  An optional cache fronts GetByID.
type Repository struct {
	db     *database.DB
	cache  *Cache
	logger *logger.Logger
}

// NewRepository creates an eatery repository over the shared pool.
// cache may be nil.
func NewRepository(db *database.DB, cache *Cache, log *logger.Logger) *Repository {
	return &Repository{
		db:     db,
		cache:  cache,
		logger: log,
	}
}

// GetByID returns the flattened eatery identified by eateryID.
func (r *Repository) GetByID(ctx context.Context, eateryID string) (*chow.Eatery, chow.Errors) {
	if r.cache != nil {
		if eatery, ok := r.cache.Get(ctx, eateryID); ok {
			return eatery, nil
		}
	}

	var doc []byte
	err := r.db.QueryRow(ctx, getEaterySQL, eateryID).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, chow.NotFound(fmt.Sprintf("cannot find eatery %q", eateryID))
	}
	if err != nil {
		return nil, chow.DBErr(fmt.Sprintf("cannot find eatery %q: %v", eateryID, err))
	}

	eatery := &chow.Eatery{}
	if err := json.Unmarshal(doc, eatery); err != nil {
		return nil, chow.DBErr(fmt.Sprintf("cannot find eatery %q: %v", eateryID, err))
	}

	if r.cache != nil {
		r.cache.Put(ctx, eatery)
	}
	return eatery, nil
}

// Locate returns summaries of the eateries matching cuisine
// (case-insensitively), ranked by great-circle distance in miles from
// origin, with offset rows skipped and at most count rows returned.
// An unmatched cuisine yields an empty slice, not an error.
func (r *Repository) Locate(ctx context.Context, cuisine string, origin chow.Loc, offset, count int) ([]chow.EaterySummary, chow.Errors) {
	rows, err := r.db.Query(ctx, locateEateriesSQL,
		origin.Lng, origin.Lat, strings.ToLower(cuisine), count, offset)
	if err != nil {
		return nil, chow.DBErr(r.locateErrMsg(cuisine, origin, err))
	}
	defer rows.Close()

	summaries := make([]chow.EaterySummary, 0, count)
	for rows.Next() {
		var s chow.EaterySummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Loc.Lat, &s.Loc.Lng, &s.Dist); err != nil {
			return nil, chow.DBErr(r.locateErrMsg(cuisine, origin, err))
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, chow.DBErr(r.locateErrMsg(cuisine, origin, err))
	}
	return summaries, nil
}

func (r *Repository) locateErrMsg(cuisine string, origin chow.Loc, err error) string {
	return fmt.Sprintf("cannot locate %q eateries at (%v, %v): %v",
		cuisine, origin.Lat, origin.Lng, err)
}

// LoadAll replaces the whole eatery set.  The load is deliberately not
// transactional: a failed insert aborts the load and may leave the
// repository holding a prefix of the new set, so callers must retry the
// entire load on failure.
func (r *Repository) LoadAll(ctx context.Context, defs []chow.EateryDef) chow.Errors {
	if err := r.db.Exec(ctx, deleteAllEateriesSQL); err != nil {
		return chow.DBErr(fmt.Sprintf("cannot load eateries: %v", err))
	}

	for _, def := range defs {
		eatery := def.Flatten()
		doc, err := json.Marshal(eatery)
		if err != nil {
			return chow.Internal(fmt.Sprintf("cannot load eateries: %v", err))
		}
		tag, err := r.db.Pool.Exec(ctx, insertEaterySQL,
			eatery.ID, strings.ToLower(eatery.Cuisine), eatery.Loc.Lng, eatery.Loc.Lat, doc)
		if err != nil {
			return chow.DBErr(fmt.Sprintf("cannot load eateries: %v", err))
		}
		if n := tag.RowsAffected(); n != 1 {
			return chow.DBErr(fmt.Sprintf("inserted %d eateries for %s", n, eatery.ID))
		}
	}

	if r.cache != nil {
		if err := r.cache.InvalidateAll(ctx); err != nil {
			r.logger.Error("cache_invalidate_failed", "Failed to invalidate eatery cache", "", err, nil)
		}
	}
	return nil
}
