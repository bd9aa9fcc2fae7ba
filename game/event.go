package game

import (
	"coinmap.ai/spatial"
)

// EventType names what changed
type EventType string

const (
	EventCacheSpawned     EventType = "cache.spawned"
	EventCacheUpdated     EventType = "cache.updated"
	EventPlayerMoved      EventType = "player.moved"
	EventInventoryUpdated EventType = "inventory.updated"
	EventNotice           EventType = "notice"
)

// Event is what collaborators such as a map see of the session.
// Only the fields relevant to the type are set.
type Event struct {
	Type      EventType          `json:"type"`
	Cache     *CacheView         `json:"cache,omitempty"`
	Position  *spatial.GeoPoint  `json:"position,omitempty"`
	Trail     []spatial.GeoPoint `json:"trail,omitempty"`
	Inventory []spatial.Coin     `json:"inventory,omitempty"`
	Text      string             `json:"text,omitempty"`
}

// CacheView is a read-only description of a cache
type CacheView struct {
	Cell     spatial.CellID   `json:"cell"`
	Label    string           `json:"label"`
	Position spatial.GeoPoint `json:"position"`
	Coins    int              `json:"coins"`
	Initial  int              `json:"initial"`
}
