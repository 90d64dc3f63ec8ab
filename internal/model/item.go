// Package model defines data structures used throughout the application.
package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Well-known item field names.
const (
	FieldID       = "id"
	FieldName     = "name"
	FieldPrice    = "price"
	FieldCategory = "category"
)

// Decoding errors for Item.
var (
	ErrInvalidItemID   = errors.New("item id must be an integer")
	ErrInvalidItemName = errors.New("item name must be a string")
)

// Item represents a catalog record. Besides the identity and name every
// other attribute (price, category and any caller-supplied field) is kept
// verbatim in Fields so that records round-trip through storage unchanged.
type Item struct {
	ID     int64
	Name   string
	Fields map[string]json.RawMessage
}

// Price returns the numeric price of the item, if it has one.
func (i *Item) Price() (float64, bool) {
	raw, ok := i.Fields[FieldPrice]
	if !ok {
		return 0, false
	}

	var price float64
	if err := json.Unmarshal(raw, &price); err != nil {
		return 0, false
	}

	return price, true
}

// Category returns the category of the item, or "" when it has none.
func (i *Item) Category() string {
	raw, ok := i.Fields[FieldCategory]
	if !ok {
		return ""
	}

	var category string
	if err := json.Unmarshal(raw, &category); err != nil {
		return ""
	}

	return category
}

// Clone returns a deep copy of the item.
func (i Item) Clone() Item {
	clone := Item{ID: i.ID, Name: i.Name}
	if i.Fields != nil {
		clone.Fields = make(map[string]json.RawMessage, len(i.Fields))
		for k, v := range i.Fields {
			clone.Fields[k] = append(json.RawMessage(nil), v...)
		}
	}
	return clone
}

// MatchesName reports whether the lower-cased name contains the lower-cased needle.
func (i *Item) MatchesName(needle string) bool {
	return strings.Contains(strings.ToLower(i.Name), strings.ToLower(needle))
}

// MarshalJSON encodes the item as a flat object: id, name, price and
// category first, remaining fields in key order.
func (i Item) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	if err := writeField(&buf, FieldID, i.ID, true); err != nil {
		return nil, err
	}
	if err := writeField(&buf, FieldName, i.Name, false); err != nil {
		return nil, err
	}

	for _, key := range i.fieldOrder() {
		if err := writeField(&buf, key, i.Fields[key], false); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a flat item object.
func (i *Item) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	item, err := ItemFromFields(raw)
	if err != nil {
		return err
	}

	*i = item
	return nil
}

// ItemFromFields builds an Item from a decoded JSON object. A missing id
// yields ID 0 and a missing name yields "".
func ItemFromFields(raw map[string]json.RawMessage) (Item, error) {
	item := Item{Fields: make(map[string]json.RawMessage, len(raw))}

	for key, value := range raw {
		switch key {
		case FieldID:
			id, err := decodeID(value)
			if err != nil {
				return Item{}, err
			}
			item.ID = id
		case FieldName:
			if err := json.Unmarshal(value, &item.Name); err != nil {
				return Item{}, ErrInvalidItemName
			}
		default:
			item.Fields[key] = value
		}
	}

	return item, nil
}

// decodeID accepts any JSON number with an integral value.
func decodeID(value json.RawMessage) (int64, error) {
	trimmed := bytes.TrimSpace(value)
	if len(trimmed) == 0 || trimmed[0] == '"' {
		return 0, fmt.Errorf("%w: %s", ErrInvalidItemID, string(value))
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var num json.Number
	if err := dec.Decode(&num); err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidItemID, string(value))
	}

	if id, err := num.Int64(); err == nil {
		return id, nil
	}

	f, err := num.Float64()
	if err != nil || f != float64(int64(f)) {
		return 0, fmt.Errorf("%w: %s", ErrInvalidItemID, string(value))
	}

	return int64(f), nil
}

func (i *Item) fieldOrder() []string {
	keys := make([]string, 0, len(i.Fields))
	for _, key := range []string{FieldPrice, FieldCategory} {
		if _, ok := i.Fields[key]; ok {
			keys = append(keys, key)
		}
	}

	rest := make([]string, 0, len(i.Fields))
	for key := range i.Fields {
		if key != FieldPrice && key != FieldCategory {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)

	return append(keys, rest...)
}

func writeField(buf *bytes.Buffer, key string, value any, first bool) error {
	if !first {
		buf.WriteByte(',')
	}

	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')

	v, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding field %s: %w", key, err)
	}
	buf.Write(v)

	return nil
}

// Pagination describes the page returned inside an envelope.
type Pagination struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"pageSize"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasMore    bool `json:"hasMore"`
}

// ItemPage is the {data, pagination} envelope.
type ItemPage struct {
	Data       []Item      `json:"data"`
	Pagination *Pagination `json:"pagination"`
}

// Stats summarizes the item collection.
type Stats struct {
	Total        int     `json:"total"`
	AveragePrice float64 `json:"averagePrice"`
}

// ErrorResponse represents an error response structure.
type ErrorResponse struct {
	Error string `json:"error"`
}
