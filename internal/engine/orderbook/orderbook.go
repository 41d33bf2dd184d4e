// Package orderbook tracks the bids and asks for a tokenID.
package orderbook

import (
	"fmt"
	"time"

	"github.com/google/btree"

	"github.com/daszybak/btc15m-watcher/internal/price"
)

type Side string

const (
	Bids Side = "bids"
	Asks Side = "asks"
)

// Level represents a price level in the order book.
type Level struct {
	Price     price.Price
	Size      price.Size
	UpdatedAt time.Time // When this level was last updated (event time from source)
}

// lessAsc compares levels by price ascending (for asks: lowest first).
func lessAsc(a, b Level) bool {
	return a.Price < b.Price
}

// lessDesc compares levels by price descending (for bids: highest first).
func lessDesc(a, b Level) bool {
	return a.Price > b.Price
}

// Orderbook maintains sorted bid and ask levels using btrees.
// Bids are sorted descending (highest price first).
// Asks are sorted ascending (lowest price first).
type Orderbook struct {
	bids *btree.BTreeG[Level]
	asks *btree.BTreeG[Level]
}

// New creates a new empty order book.
func New() *Orderbook {
	return &Orderbook{
		bids: btree.NewG(32, lessDesc),
		asks: btree.NewG(32, lessAsc),
	}
}

// Replace drops every level on side and loads levels from a snapshot.
// Snapshot entries are live levels, so they are kept whatever their size.
// Zero prices carry no information and are skipped.
func (ob *Orderbook) Replace(side Side, levels []Level) error {
	tree, err := ob.getTree(side)
	if err != nil {
		return err
	}

	tree.Clear(false)
	for _, lvl := range levels {
		if lvl.Price.IsZero() {
			continue
		}
		tree.ReplaceOrInsert(lvl)
	}
	return nil
}

// Best returns the top of side: highest bid or lowest ask.
func (ob *Orderbook) Best(side Side) (Level, bool) {
	tree, err := ob.getTree(side)
	if err != nil {
		return Level{}, false
	}
	return tree.Min()
}

// Len returns the number of levels on a side.
func (ob *Orderbook) Len(side Side) int {
	tree, _ := ob.getTree(side)
	if tree == nil {
		return 0
	}
	return tree.Len()
}

func (ob *Orderbook) getTree(side Side) (*btree.BTreeG[Level], error) {
	switch side {
	case Bids:
		return ob.bids, nil
	case Asks:
		return ob.asks, nil
	default:
		return nil, fmt.Errorf("invalid side: %s", side)
	}
}
