package client

import (
	"context"
	"net/http"

	"github.com/mailtm/mailtm/pkg/rest/model"
	"github.com/rs/zerolog/log"
)

// CursorState is the position of a LinkedCollectionIterator.
type CursorState int

const (
	// NotStarted means no page has been requested yet.
	NotStarted CursorState = iota
	// WithinPage means the iterator holds a page and an index into it.
	WithinPage
	// Exhausted is terminal.
	Exhausted
)

func (s CursorState) String() string {
	switch s {
	case NotStarted:
		return "NotStarted"
	case WithinPage:
		return "WithinPage"
	case Exhausted:
		return "Exhausted"
	}
	return "CursorState(?)"
}

// LinkedCollectionIterator walks every item of a paginated collection, fetching the next page
// only once the current one has been consumed. It is forward-only: create a new iterator to
// start over from the first page.
//
// A page that cannot be fetched (non-200 status) or that holds no items ends the sequence
// without an error, since an inbox with no more messages is a normal state. Transport and
// decode failures also end the sequence and are reported by Err.
type LinkedCollectionIterator[T any] struct {
	conn     ConnectionManager
	endpoint string
	token    model.Token

	state   CursorState
	page    *model.LinkedCollection[T]
	pageNum int
	index   int // next item to yield from page
	item    T
	err     error
}

// NewLinkedCollectionIterator returns an iterator over the collection at endpoint.
func NewLinkedCollectionIterator[T any](
	conn ConnectionManager, endpoint string, token model.Token,
) *LinkedCollectionIterator[T] {
	return &LinkedCollectionIterator[T]{
		conn:     conn,
		endpoint: endpoint,
		token:    token,
	}
}

// Next advances to the next item, fetching a page when required. It returns false once the
// collection is exhausted.
func (it *LinkedCollectionIterator[T]) Next(ctx context.Context) bool {
	switch it.state {
	case Exhausted:
		return false
	case NotStarted:
		if !it.fetch(ctx, 1) {
			return false
		}
	case WithinPage:
		if it.index >= it.page.Len() {
			if !it.page.HasNext() {
				it.exhaust()
				return false
			}
			if !it.fetch(ctx, it.pageNum+1) {
				return false
			}
		}
	}
	it.item = it.page.Item(it.index)
	it.index++
	return true
}

// Item returns the item Next advanced to.
func (it *LinkedCollectionIterator[T]) Item() T {
	return it.item
}

// Err returns the transport or decode error that ended the sequence, if any.
func (it *LinkedCollectionIterator[T]) Err() error {
	return it.err
}

// State returns the cursor state.
func (it *LinkedCollectionIterator[T]) State() CursorState {
	return it.state
}

// PageNumber returns the number of the page currently held, 0 before the first fetch.
func (it *LinkedCollectionIterator[T]) PageNumber() int {
	return it.pageNum
}

// Collect drains the iterator into a slice.
func (it *LinkedCollectionIterator[T]) Collect(ctx context.Context) ([]T, error) {
	var items []T
	for it.Next(ctx) {
		items = append(items, it.Item())
	}
	return items, it.Err()
}

// fetch loads page n and positions the cursor at its first item. It exhausts the cursor and
// returns false if the page is unavailable or empty.
func (it *LinkedCollectionIterator[T]) fetch(ctx context.Context, n int) bool {
	logger := log.With().Str("module", "rest").Str("endpoint", it.endpoint).Int("page", n).Logger()
	resp, err := it.conn.Get(ctx, it.endpoint, map[string]any{"page": n}, it.token)
	if err != nil {
		it.err = err
		it.exhaust()
		return false
	}
	if resp.StatusCode != http.StatusOK {
		logger.Debug().Int("status", resp.StatusCode).Msg("Page unavailable, collection exhausted")
		it.exhaust()
		return false
	}
	page, err := model.DecodeCollection[T](resp.Body)
	if err != nil {
		it.err = err
		it.exhaust()
		return false
	}
	if page.Len() == 0 {
		logger.Debug().Msg("Empty page, collection exhausted")
		it.exhaust()
		return false
	}
	it.page = page
	it.pageNum = n
	it.index = 0
	it.state = WithinPage
	return true
}

func (it *LinkedCollectionIterator[T]) exhaust() {
	var zero T
	it.state = Exhausted
	it.page = nil
	it.item = zero
}
