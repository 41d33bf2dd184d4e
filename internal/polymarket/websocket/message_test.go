package websocket

import (
	"testing"

	"github.com/daszybak/btc15m-watcher/internal/price"
)

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, m Message)
	}{
		{
			name:  "level1",
			input: `{"event_type":"level1","asset_id":"A","best_bid":"0.60","best_ask":"0.62"}`,
			check: func(t *testing.T, m Message) {
				if m.Level1 == nil {
					t.Fatal("Level1 is nil")
				}
				if m.Level1.AssetID != "A" || m.Level1.BestAsk != price.MustParse("0.62") {
					t.Errorf("Level1 = %+v", m.Level1)
				}
			},
		},
		{
			name:  "price change",
			input: `{"event_type":"price_change","market":"0xc","price_changes":[{"asset_id":"A","best_ask":"0.55","best_bid":"0.54"},{"asset_id":"B"}]}`,
			check: func(t *testing.T, m Message) {
				if m.PriceChange == nil {
					t.Fatal("PriceChange is nil")
				}
				changes := m.PriceChange.PriceChanges
				if len(changes) != 2 {
					t.Fatalf("len = %d, want 2", len(changes))
				}
				if changes[0].BestAsk != price.MustParse("0.55") || changes[0].BestBid != price.MustParse("0.54") {
					t.Errorf("changes[0] = %+v", changes[0])
				}
				if !changes[1].BestAsk.IsZero() {
					t.Errorf("missing best_ask should be zero, got %v", changes[1].BestAsk)
				}
			},
		},
		{
			name:  "book",
			input: `{"event_type":"book","asset_id":"B","asks":[{"price":"0.41","size":"10"},{"price":"0.45","size":"3"}],"bids":[]}`,
			check: func(t *testing.T, m Message) {
				if m.Book == nil {
					t.Fatal("Book is nil")
				}
				if m.Book.AssetID != "B" || len(m.Book.Asks) != 2 || m.Book.Asks[0].Price != price.MustParse("0.41") {
					t.Errorf("Book = %+v", m.Book)
				}
			},
		},
		{
			name:  "unrecognized",
			input: `{"event_type":"tick_size_change","asset_id":"A"}`,
			check: func(t *testing.T, m Message) {
				if m.Recognized() {
					t.Errorf("message should not be recognized: %+v", m)
				}
				if m.EventType != "tick_size_change" {
					t.Errorf("EventType = %q", m.EventType)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseMessage([]byte(tt.input))
			if err != nil {
				t.Fatalf("ParseMessage: %v", err)
			}
			tt.check(t, m)
		})
	}
}

func TestParseMessage_Malformed(t *testing.T) {
	inputs := []string{
		`{"event_type":`,
		`{"event_type":"level1","asset_id":"A","best_ask":"abc"}`,
		`{"event_type":"book","asset_id":"A","asks":"nope"}`,
	}
	for _, in := range inputs {
		if _, err := ParseMessage([]byte(in)); err == nil {
			t.Errorf("ParseMessage(%s) expected error", in)
		}
	}
}

func TestParseMessages(t *testing.T) {
	t.Run("single object", func(t *testing.T) {
		msgs, err := ParseMessages([]byte(` {"event_type":"level1","asset_id":"A","best_ask":"0.5"}`))
		if err != nil {
			t.Fatalf("ParseMessages: %v", err)
		}
		if len(msgs) != 1 || msgs[0].Level1 == nil {
			t.Fatalf("msgs = %+v", msgs)
		}
	})

	t.Run("batch keeps order and skips bad items", func(t *testing.T) {
		raw := `[
			{"event_type":"book","asset_id":"A","asks":[{"price":"0.3"}]},
			{"event_type":"level1","asset_id":"A","best_ask":"bad"},
			{"event_type":"level1","asset_id":"B","best_ask":"0.7"}
		]`
		msgs, err := ParseMessages([]byte(raw))
		if err == nil {
			t.Error("expected error for malformed item")
		}
		if len(msgs) != 2 {
			t.Fatalf("len = %d, want 2", len(msgs))
		}
		if msgs[0].Book == nil || msgs[1].Level1 == nil || msgs[1].Level1.AssetID != "B" {
			t.Errorf("msgs = %+v", msgs)
		}
	})

	t.Run("text frame", func(t *testing.T) {
		msgs, err := ParseMessages([]byte("PONG"))
		if err != nil {
			t.Fatalf("ParseMessages: %v", err)
		}
		if len(msgs) != 1 || msgs[0].Recognized() {
			t.Errorf("msgs = %+v", msgs)
		}
	})

	t.Run("empty", func(t *testing.T) {
		if _, err := ParseMessages([]byte("  ")); err == nil {
			t.Error("expected error for empty frame")
		}
	})
}
