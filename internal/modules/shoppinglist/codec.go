package shoppinglist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// DecodeDocument parses a persisted document. It fails only when data is not
// a JSON object. Malformed stores fall back to the default stores; within
// shoppingLists only the malformed lists and items are dropped.
func DecodeDocument(data []byte, defaults Defaults) (*Document, error) {
	var raw struct {
		Stores        json.RawMessage `json:"stores"`
		ShoppingLists json.RawMessage `json:"shoppingLists"`
		LastUpdated   json.RawMessage `json:"lastUpdated"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}

	doc := &Document{}

	var stores []Store
	if err := json.Unmarshal(raw.Stores, &stores); err != nil || stores == nil {
		stores = defaults.Document().Stores
	}
	doc.Stores = stores

	doc.ShoppingLists = decodeLists(raw.ShoppingLists)

	var ts time.Time
	if err := json.Unmarshal(raw.LastUpdated, &ts); err == nil {
		doc.LastUpdated = ts
	}

	doc.normalize()
	return doc, nil
}

// decodeLists decodes each store's list and each item on its own. A list
// that is not an array becomes empty and an item that does not decode is
// dropped; the rest of the lists are kept.
func decodeLists(data json.RawMessage) ShoppingLists {
	var rawLists map[string]json.RawMessage
	if err := json.Unmarshal(data, &rawLists); err != nil || rawLists == nil {
		return ShoppingLists{}
	}

	lists := make(ShoppingLists, len(rawLists))
	for storeID, rawList := range rawLists {
		var rawItems []json.RawMessage
		if err := json.Unmarshal(rawList, &rawItems); err != nil {
			lists[storeID] = []Item{}
			continue
		}
		items := make([]Item, 0, len(rawItems))
		for _, rawItem := range rawItems {
			var it *Item
			if err := json.Unmarshal(rawItem, &it); err != nil || it == nil {
				continue
			}
			items = append(items, *it)
		}
		lists[storeID] = items
	}
	return lists
}

// EncodeDocument renders doc as indented JSON without HTML escaping, so item
// text such as "M&M" is stored verbatim.
func EncodeDocument(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return buf.Bytes(), nil
}
