package game

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"coinmap.ai/spatial"
)

// DefaultStateKey is the store key the game state is saved under
const DefaultStateKey = "gameState"

const stateVersion = 1

var ErrInvalidState = errors.New("invalid saved state")

// State is everything that survives a restart
type State struct {
	Position  spatial.GeoPoint
	Inventory []spatial.Coin
	Trail     []spatial.GeoPoint
	// Caches holds the stacks of caches changed by a transfer
	Caches map[spatial.CellID][]spatial.Coin
}

// stateDoc is the persisted schema
type stateDoc struct {
	Version   int                       `json:"version"`
	Position  *spatial.GeoPoint         `json:"position"`
	Inventory []spatial.Coin            `json:"inventory"`
	Trail     []spatial.GeoPoint        `json:"movementTrail"`
	Caches    map[string][]spatial.Coin `json:"caches,omitempty"`
}

// Encode serializes the state
func Encode(s State) ([]byte, error) {
	doc := stateDoc{
		Version:   stateVersion,
		Position:  &s.Position,
		Inventory: s.Inventory,
		Trail:     s.Trail,
	}
	if doc.Inventory == nil {
		doc.Inventory = []spatial.Coin{}
	}
	if len(s.Caches) > 0 {
		doc.Caches = make(map[string][]spatial.Coin, len(s.Caches))
		for cell, coins := range s.Caches {
			if coins == nil {
				coins = []spatial.Coin{}
			}
			doc.Caches[cell.Key()] = coins
		}
	}

	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return b, nil
}

// Decode parses and validates a saved state. Any deviation from the
// schema is an error wrapping ErrInvalidState.
func Decode(b []byte) (State, error) {
	var doc stateDoc

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if dec.More() {
		return State{}, fmt.Errorf("%w: trailing data", ErrInvalidState)
	}

	if doc.Version != stateVersion {
		return State{}, fmt.Errorf("%w: unsupported version %d", ErrInvalidState, doc.Version)
	}
	if doc.Position == nil || !doc.Position.Valid() {
		return State{}, fmt.Errorf("%w: missing or non-finite position", ErrInvalidState)
	}
	if doc.Inventory == nil {
		return State{}, fmt.Errorf("%w: missing inventory", ErrInvalidState)
	}
	if len(doc.Trail) == 0 {
		return State{}, fmt.Errorf("%w: empty movement trail", ErrInvalidState)
	}
	for i, p := range doc.Trail {
		if !p.Valid() {
			return State{}, fmt.Errorf("%w: non-finite trail point %d", ErrInvalidState, i)
		}
	}

	s := State{
		Position:  *doc.Position,
		Inventory: doc.Inventory,
		Trail:     doc.Trail,
	}

	seen := make(map[spatial.Coin]bool)
	claim := func(coin spatial.Coin) error {
		if seen[coin] {
			return fmt.Errorf("%w: coin %s held twice", ErrInvalidState, coin)
		}
		seen[coin] = true
		return nil
	}
	for _, coin := range s.Inventory {
		if err := claim(coin); err != nil {
			return State{}, err
		}
	}

	if len(doc.Caches) > 0 {
		// visit cells in a fixed order so errors are reproducible
		keys := make([]string, 0, len(doc.Caches))
		for key := range doc.Caches {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		s.Caches = make(map[spatial.CellID][]spatial.Coin, len(keys))
		for _, key := range keys {
			cell, err := spatial.ParseCellID(key)
			if err != nil {
				return State{}, fmt.Errorf("%w: %v", ErrInvalidState, err)
			}
			if cell.Key() != key {
				return State{}, fmt.Errorf("%w: cell key %q is not canonical", ErrInvalidState, key)
			}
			coins := doc.Caches[key]
			for _, coin := range coins {
				if err := claim(coin); err != nil {
					return State{}, err
				}
			}
			if coins == nil {
				coins = []spatial.Coin{}
			}
			s.Caches[cell] = coins
		}
	}

	return s, nil
}
