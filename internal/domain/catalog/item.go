package catalog

import (
	"fmt"
	"strings"
)

// Item is a single catalog entry. Its position in the catalog is its matrix index.
type Item struct {
	id         int64
	title      string
	externalID string
}

// NewItem validates and creates an Item.
func NewItem(id int64, title, externalID string) (Item, error) {
	if strings.TrimSpace(title) == "" {
		return Item{}, fmt.Errorf("item %d: title is required", id)
	}
	if strings.TrimSpace(externalID) == "" {
		return Item{}, fmt.Errorf("item %d (%q): external id is required", id, title)
	}
	return Item{id: id, title: title, externalID: externalID}, nil
}

// ID returns the catalog identifier.
func (i Item) ID() int64 { return i.id }

// Title returns the user-facing lookup key.
func (i Item) Title() string { return i.title }

// ExternalID returns the identifier used for metadata lookups.
func (i Item) ExternalID() string { return i.externalID }
