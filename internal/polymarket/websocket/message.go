package websocket

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/daszybak/btc15m-watcher/internal/price"
)

const (
	Level1Event      = "level1"
	PriceChangeEvent = "price_change"
	BookEvent        = "book"
)

// Message is one decoded market event. Exactly one of the payload pointers is
// set for a known EventType; all are nil for an unrecognized one.
type Message struct {
	EventType   string `json:"event_type"`
	Level1      *Level1
	PriceChange *PriceChangeBatch
	Book        *Book
}

// Recognized reports whether the message carries one of the known payloads.
func (m Message) Recognized() bool {
	return m.Level1 != nil || m.PriceChange != nil || m.Book != nil
}

// Level1 is a best bid/ask update for one asset.
type Level1 struct {
	AssetID string      `json:"asset_id"`
	Market  string      `json:"market"`
	BestBid price.Price `json:"best_bid"`
	BestAsk price.Price `json:"best_ask"`
}

type PriceChangeBatch struct {
	Market       string        `json:"market"`
	PriceChanges []PriceChange `json:"price_changes"`
	Timestamp    string        `json:"timestamp"`
}

type PriceChange struct {
	AssetID string      `json:"asset_id"`
	Price   price.Price `json:"price"`
	Size    price.Size  `json:"size"`
	Side    string      `json:"side"`
	Hash    string      `json:"hash"`
	BestBid price.Price `json:"best_bid"`
	BestAsk price.Price `json:"best_ask"`
}

type Book struct {
	AssetID   string         `json:"asset_id"`
	Market    string         `json:"market"`
	Timestamp string         `json:"timestamp"`
	Hash      string         `json:"hash"`
	Bids      []OrderSummary `json:"bids"`
	Asks      []OrderSummary `json:"asks"`
}

type OrderSummary struct {
	Price price.Price `json:"price"`
	Size  price.Size  `json:"size"`
}

// ParseMessages decodes a frame holding either one event object or an array
// of them. Array elements are decoded independently.
func ParseMessages(raw []byte) ([]Message, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty message")
	}

	switch trimmed[0] {
	case '{':
		msg, err := ParseMessage(trimmed)
		if err != nil {
			return nil, err
		}
		return []Message{msg}, nil
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("couldn't parse message batch: %w", err)
		}
		msgs := make([]Message, 0, len(items))
		var errs []error
		for i, item := range items {
			msg, err := ParseMessage(item)
			if err != nil {
				errs = append(errs, fmt.Errorf("item %d: %w", i, err))
				continue
			}
			msgs = append(msgs, msg)
		}
		return msgs, errors.Join(errs...)
	default:
		// Plain text frames such as "PONG" or "INVALID OPERATION".
		return []Message{{}}, nil
	}
}

// ParseMessage decodes a single event object by its event_type.
func ParseMessage(msg []byte) (Message, error) {
	var base struct {
		EventType string `json:"event_type"`
	}
	if err := json.Unmarshal(msg, &base); err != nil {
		return Message{}, fmt.Errorf("couldn't parse base message: %w", err)
	}

	switch base.EventType {
	case Level1Event:
		l1 := &Level1{}
		if err := json.Unmarshal(msg, l1); err != nil {
			return Message{}, fmt.Errorf("couldn't parse level1 event: %w", err)
		}
		return Message{EventType: Level1Event, Level1: l1}, nil
	case PriceChangeEvent:
		pc := &PriceChangeBatch{}
		if err := json.Unmarshal(msg, pc); err != nil {
			return Message{}, fmt.Errorf("couldn't parse price change event: %w", err)
		}
		return Message{EventType: PriceChangeEvent, PriceChange: pc}, nil
	case BookEvent:
		book := &Book{}
		if err := json.Unmarshal(msg, book); err != nil {
			return Message{}, fmt.Errorf("couldn't parse book event: %w", err)
		}
		return Message{EventType: BookEvent, Book: book}, nil
	default:
		return Message{EventType: base.EventType}, nil
	}
}
