package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lox/tablegames/internal/game"
)

// WaitForTables polls baseURL (e.g. "http://localhost:8080") until /health
// answers and /tables lists at least n tables, returning that listing.
func WaitForTables(ctx context.Context, baseURL string, n int) ([]*game.Snapshot, error) {
	client := &http.Client{Timeout: time.Second}

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	var lastErr error
	for {
		tables, err := listTables(ctx, client, baseURL)
		if err == nil && len(tables) >= n {
			return tables, nil
		}
		if err == nil {
			err = fmt.Errorf("%d of %d tables open", len(tables), n)
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w (last: %v)", ctx.Err(), lastErr)
		case <-ticker.C:
		}
	}
}

func listTables(ctx context.Context, client *http.Client, baseURL string) ([]*game.Snapshot, error) {
	for _, path := range []string{"/health", "/tables"} {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+path, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("%s: %s", path, resp.Status)
		}
		if path == "/health" {
			resp.Body.Close()
			continue
		}
		var list TableListData
		err = json.NewDecoder(resp.Body).Decode(&list)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return list.Tables, nil
	}
	return nil, nil
}
