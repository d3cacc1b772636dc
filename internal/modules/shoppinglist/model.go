package shoppinglist

import (
	"time"
)

// Store is a named category, usually a supermarket, that groups items.
type Store struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Color string `json:"color" yaml:"color"`
}

// Item is a single purchasable entry. Its id is the creation time in
// milliseconds since the epoch.
type Item struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// ShoppingLists maps a store id to its items in display order.
type ShoppingLists map[string][]Item

// Document is the full persisted snapshot. It is replaced wholesale on every save.
type Document struct {
	Stores        []Store       `json:"stores"`
	ShoppingLists ShoppingLists `json:"shoppingLists"`
	LastUpdated   time.Time     `json:"lastUpdated"`
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	out := &Document{
		Stores:        make([]Store, len(d.Stores)),
		ShoppingLists: make(ShoppingLists, len(d.ShoppingLists)),
		LastUpdated:   d.LastUpdated,
	}
	copy(out.Stores, d.Stores)
	for id, items := range d.ShoppingLists {
		cp := make([]Item, len(items))
		copy(cp, items)
		out.ShoppingLists[id] = cp
	}
	return out
}

// normalize fills in missing pieces so every store has a (possibly empty)
// list and no list is nil. Lists without a store are kept as they are.
func (d *Document) normalize() {
	if d.Stores == nil {
		d.Stores = []Store{}
	}
	if d.ShoppingLists == nil {
		d.ShoppingLists = ShoppingLists{}
	}
	for id, items := range d.ShoppingLists {
		if items == nil {
			d.ShoppingLists[id] = []Item{}
		}
	}
	for _, s := range d.Stores {
		if _, ok := d.ShoppingLists[s.ID]; !ok {
			d.ShoppingLists[s.ID] = []Item{}
		}
	}
}

func (d *Document) storeIndex(id string) int {
	for i, s := range d.Stores {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func (d *Document) maxItemID() int64 {
	var highest int64
	for _, items := range d.ShoppingLists {
		for _, it := range items {
			if it.ID > highest {
				highest = it.ID
			}
		}
	}
	return highest
}
