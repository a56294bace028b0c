// Package eateries reads external eatery JSON used to bulk-load the
// eatery repository.
package eateries

import (
	"encoding/json"
	"fmt"
	"os"

	"chow-down/internal/chow"
)

// LoadFile parses a JSON array of raw eatery definitions.
func LoadFile(path string) ([]chow.EateryDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", path, err)
	}

	var defs []chow.EateryDef
	if err := json.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("unable to parse JSON from %s: %w", path, err)
	}
	return defs, nil
}
