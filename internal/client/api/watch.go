package api

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/mkrasovska/nutritrack/internal/client/models"
)

// Watch opens the change-event stream for one collection and returns a
// channel of events plus a cancel function. The channel is closed when the
// stream ends or cancel is called. Each SSE data line carries one
// JSON-encoded change event.
func (c *Client) Watch(ctx context.Context, collection string) (<-chan models.ChangeEvent, func(), error) {
	ctx, cancel := context.WithCancel(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/watch?collection="+url.QueryEscape(collection), nil)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	if access, _ := c.Tokens(); access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}

	// The stream outlives any per-request timeout, so use a bare client.
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("error opening watch stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		err := decodeErrorBody(resp)
		resp.Body.Close()
		cancel()
		return nil, nil, err
	}

	out := make(chan models.ChangeEvent)

	go func() {
		defer close(out)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var event models.ChangeEvent
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event); err != nil {
				continue
			}
			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, cancel, nil
}
