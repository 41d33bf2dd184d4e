// Package httpclient fetches JSON resources over HTTP.
package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
)

// ErrUnexpectedStatus is returned when the response status is not one of the
// accepted codes.
var ErrUnexpectedStatus = errors.New("unexpected status")

const maxErrorBody = 512

// GetResource issues a GET to baseURL+endpoint and decodes the JSON body into T.
func GetResource[T any](ctx context.Context, client *http.Client, baseURL, endpoint string, okCodes []int) (T, error) {
	var res T

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+endpoint, nil)
	if err != nil {
		return res, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return res, fmt.Errorf("get %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if !slices.Contains(okCodes, resp.StatusCode) {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return res, fmt.Errorf("get %s: %w %d: %s", endpoint, ErrUnexpectedStatus, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return res, fmt.Errorf("decode %s: %w", endpoint, err)
	}

	return res, nil
}
