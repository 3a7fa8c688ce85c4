package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Meta carries the optional count block of a list response.
type Meta struct {
	TotalCount  int `json:"total_count"`
	FilterCount int `json:"filter_count"`
}

// Envelope is the uniform wire shape of every successful CMS response.
type Envelope struct {
	Data json.RawMessage `json:"data"`
	Meta *Meta           `json:"meta,omitempty"`
}

// Filter is a tagged equality or nested-path filter fragment. The zero
// value means "no filter". Building filters through Eq and Rel keeps
// malformed construction a compile-time problem instead of a wire one.
type Filter struct {
	field string
	value any
}

// Eq matches records whose field equals value.
func Eq(field string, value any) Filter {
	return Filter{field: field, value: value}
}

// Rel matches through a related entity, e.g.
// Rel("category_id", Eq("id", id)) serializes to {"category_id":{"id":id}}.
func Rel(field string, inner Filter) Filter {
	return Filter{field: field, value: inner}
}

// IsZero reports whether the filter is empty.
func (f Filter) IsZero() bool {
	return f.field == ""
}

// MarshalJSON serializes the filter to the CMS's nested-object form.
func (f Filter) MarshalJSON() ([]byte, error) {
	if f.IsZero() {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]any{f.field: f.value})
}

// Params describes the query portion of a request descriptor. A fresh value
// is constructed per call; nothing here is reused or mutated.
type Params struct {
	// Fields is the projection list; dot notation reaches related entities.
	Fields []string

	// Filter is serialized to JSON in the filter query parameter.
	Filter Filter

	// Sort lists field names; a "-" prefix means descending.
	Sort []string

	// Limit caps the result count. Zero omits the parameter.
	Limit int

	// Offset skips that many records. Zero omits the parameter.
	Offset int

	// Meta requests count blocks: "total_count", "filter_count".
	Meta []string
}

// Values encodes the descriptor as URL query parameters.
func (p Params) Values() (url.Values, error) {
	values := url.Values{}

	if len(p.Fields) > 0 {
		values.Set("fields", strings.Join(p.Fields, ","))
	}
	if !p.Filter.IsZero() {
		data, err := json.Marshal(p.Filter)
		if err != nil {
			return nil, fmt.Errorf("marshal filter: %w", err)
		}
		values.Set("filter", string(data))
	}
	for _, s := range p.Sort {
		values.Add("sort[]", s)
	}
	if p.Limit > 0 {
		values.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		values.Set("offset", strconv.Itoa(p.Offset))
	}
	if len(p.Meta) > 0 {
		values.Set("meta", strings.Join(p.Meta, ","))
	}

	return values, nil
}
