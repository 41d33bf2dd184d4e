package gamma

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"
)

func TestTokenIDsUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"double encoded", `"[\"111\", \"222\"]"`, []string{"111", "222"}},
		{"plain array", `["111","222"]`, []string{"111", "222"}},
		{"empty string", `""`, nil},
		{"garbage string", `"not json"`, nil},
		{"null", `null`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got TokenIDs
			if err := json.Unmarshal([]byte(tt.input), &got); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClientSearch(t *testing.T) {
	const body = `{
		"events": [{
			"id": "1",
			"title": "Bitcoin Up or Down - November 22, 10:15PM ET",
			"startTime": "2025-11-23T03:00:00Z",
			"endDate": "2025-11-23T03:30:00Z",
			"markets": [{
				"eventStartTime": "2025-11-23T03:15:00Z",
				"endDate": "2025-11-23T03:30:00Z",
				"clobTokenIds": "[\"yes-token\", \"no-token\"]",
				"conditionId": "0xcond",
				"questionID": "0xq"
			}]
		}]
	}`

	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/public-search" {
			t.Errorf("path = %s, want /public-search", r.URL.Path)
		}
		gotQuery = r.URL.RawQuery
		w.Write([]byte(body))
	}))
	defer srv.Close()

	c := New(srv.URL, WithHTTPClient(srv.Client()))
	res, err := c.Search(context.Background(), "Bitcoin Up or Down - November 22, 10:15PM ET")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if want := "q=Bitcoin+Up+or+Down+-+November+22%2C+10%3A15PM+ET"; gotQuery != want {
		t.Errorf("query = %q, want %q", gotQuery, want)
	}
	if len(res.Events) != 1 || len(res.Events[0].Markets) != 1 {
		t.Fatalf("unexpected result shape: %+v", res)
	}
	m := res.Events[0].Markets[0]
	if !slices.Equal(m.ClobTokenIDs, []string{"yes-token", "no-token"}) {
		t.Errorf("ClobTokenIDs = %q", m.ClobTokenIDs)
	}
	if m.ConditionID != "0xcond" || m.QuestionID != "0xq" {
		t.Errorf("ids = %q/%q", m.ConditionID, m.QuestionID)
	}
	if m.EventStartTime != "2025-11-23T03:15:00Z" {
		t.Errorf("EventStartTime = %q", m.EventStartTime)
	}
}

func TestClientSearch_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New(srv.URL, WithHTTPClient(srv.Client()))
	if _, err := c.Search(context.Background(), "x"); err == nil {
		t.Error("expected error for 429")
	}
}

func TestNewOptions(t *testing.T) {
	c := New(DefaultBaseURL)
	if c.httpClient.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, DefaultTimeout)
	}

	c = New(DefaultBaseURL, WithTimeout(5*time.Second))
	if c.httpClient.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", c.httpClient.Timeout)
	}

	c = New(DefaultBaseURL, WithHTTPClient(nil), WithTimeout(5*time.Second))
	if c.httpClient == nil || c.httpClient.Timeout != 5*time.Second {
		t.Errorf("nil client with timeout: got %+v", c.httpClient)
	}
}

func TestWithTimeoutLeavesSharedClient(t *testing.T) {
	shared := &http.Client{Timeout: time.Minute}

	c := New(DefaultBaseURL, WithHTTPClient(shared), WithTimeout(5*time.Second))
	if shared.Timeout != time.Minute {
		t.Errorf("shared client Timeout = %v, want 1m", shared.Timeout)
	}
	if c.httpClient == shared {
		t.Error("client with timeout should not reuse the shared *http.Client")
	}
	if c.httpClient.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", c.httpClient.Timeout)
	}

	c = New(DefaultBaseURL, WithHTTPClient(shared))
	if c.httpClient != shared {
		t.Error("client without timeout should use the shared *http.Client as is")
	}
}
