package model

import (
	"encoding/json"
	"fmt"
	"slices"
)

// HydraView is the hydra:view block of a paginated collection, linking to neighbouring pages.
type HydraView struct {
	ID       string `json:"@id,omitempty"`
	Type     string `json:"@type,omitempty"`
	First    string `json:"hydra:first,omitempty"`
	Last     string `json:"hydra:last,omitempty"`
	Previous string `json:"hydra:previous,omitempty"`
	Next     string `json:"hydra:next,omitempty"`
}

// LinkedCollection is a single page of a hydra collection. It is a read-only view over an
// already fetched document; constructing one never performs I/O.
type LinkedCollection[T any] struct {
	items []T
	total int
	view  *HydraView
}

// MessageIntros is a page of the messages collection.
type MessageIntros = LinkedCollection[Message]

// Domains is a page of the domains collection.
type Domains = LinkedCollection[Domain]

// NewLinkedCollection builds a page from its parts.
func NewLinkedCollection[T any](items []T, total int, view *HydraView) *LinkedCollection[T] {
	items = slices.Clone(items)
	if items == nil {
		items = []T{}
	}
	return &LinkedCollection[T]{items: items, total: total, view: view}
}

// DecodeCollection parses one page response. hydra:member and hydra:totalItems are required.
func DecodeCollection[T any](data []byte) (*LinkedCollection[T], error) {
	if _, err := requireFields("collection", data, "hydra:member", "hydra:totalItems"); err != nil {
		return nil, err
	}
	var w struct {
		Members    []T        `json:"hydra:member"`
		TotalItems int        `json:"hydra:totalItems"`
		View       *HydraView `json:"hydra:view"`
	}
	if err := decodeInto("collection", data, &w); err != nil {
		return nil, err
	}
	if w.TotalItems < 0 {
		return nil, &ValidationError{
			Model: "collection",
			Err:   fmt.Errorf("hydra:totalItems %d is negative", w.TotalItems),
		}
	}
	return NewLinkedCollection(w.Members, w.TotalItems, w.View), nil
}

// Items returns the items on this page in server order.
func (c *LinkedCollection[T]) Items() []T {
	return slices.Clone(c.items)
}

// Item returns the i-th item on this page.
func (c *LinkedCollection[T]) Item(i int) T {
	return c.items[i]
}

// Len returns the number of items on this page.
func (c *LinkedCollection[T]) Len() int {
	return len(c.items)
}

// TotalCount returns the number of items across all pages.
func (c *LinkedCollection[T]) TotalCount() int {
	return c.total
}

// HasNext reports whether the server linked a following page.
func (c *LinkedCollection[T]) HasNext() bool {
	return c.view != nil && c.view.Next != ""
}

// NextPath returns the link to the following page, or "" on the last page.
func (c *LinkedCollection[T]) NextPath() string {
	if c.view == nil {
		return ""
	}
	return c.view.Next
}

// MarshalJSON renders the page in its hydra wire shape.
func (c *LinkedCollection[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Members    []T        `json:"hydra:member"`
		TotalItems int        `json:"hydra:totalItems"`
		View       *HydraView `json:"hydra:view,omitempty"`
	}{c.items, c.total, c.view})
}
