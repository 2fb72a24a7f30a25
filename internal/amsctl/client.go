package amsctl

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"amsd/pkg/types"
)

// Client is a thin HTTP client for the amsd API.
type Client struct {
	base string
	http *http.Client
	log  zerolog.Logger
}

func NewClient(addr string) *Client {
	base := strings.TrimRight(addr, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Client{base: base, http: &http.Client{Timeout: 10 * time.Second}, log: zerolog.Nop()}
}

// apiError converts a non-2xx response body into an error, preferring the
// operator-facing message and remedy when the daemon supplied them.
func apiError(resp *http.Response) error {
	var e types.ErrorResponse
	if json.NewDecoder(resp.Body).Decode(&e) != nil || e.Error == "" {
		return fmt.Errorf("%s", resp.Status)
	}
	msg := e.Error
	if e.UserMessage != "" {
		msg = e.UserMessage
	}
	if e.Remedy != "" {
		return fmt.Errorf("%s (%s)", msg, e.Remedy)
	}
	return fmt.Errorf("%s", msg)
}

func (c *Client) get(path string, dst any) error {
	c.log.Debug().Str("method", "GET").Str("path", path).Msg("request")
	resp, err := c.http.Get(c.base + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

func (c *Client) send(method, path string, body any) (types.OpAccepted, error) {
	c.log.Debug().Str("method", method).Str("path", path).Msg("request")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return types.OpAccepted{}, err
		}
	}
	req, err := http.NewRequest(method, c.base+path, &buf)
	if err != nil {
		return types.OpAccepted{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return types.OpAccepted{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return types.OpAccepted{}, apiError(resp)
	}
	var op types.OpAccepted
	if err := json.NewDecoder(resp.Body).Decode(&op); err != nil {
		return types.OpAccepted{}, err
	}
	return op, nil
}

func (c *Client) Status() (types.StatusResponse, error) {
	var s types.StatusResponse
	err := c.get("/status", &s)
	return s, err
}

func (c *Client) Gates() ([]types.Gate, error) {
	var r types.GatesResponse
	err := c.get("/gates", &r)
	return r.Gates, err
}

func (c *Client) Gate(index int) (types.Gate, error) {
	var g types.Gate
	err := c.get(fmt.Sprintf("/gates/%d", index), &g)
	return g, err
}

func (c *Client) Load(gate int) (types.OpAccepted, error) {
	return c.send(http.MethodPost, "/ops/load", types.LoadRequest{Gate: gate})
}

func (c *Client) Unload() (types.OpAccepted, error) {
	return c.send(http.MethodPost, "/ops/unload", nil)
}

func (c *Client) Select(gate int) (types.OpAccepted, error) {
	return c.send(http.MethodPost, "/ops/select", types.SelectRequest{Gate: gate})
}

func (c *Client) Tool(tool int) (types.OpAccepted, error) {
	return c.send(http.MethodPost, "/ops/tool", types.ToolRequest{Tool: tool})
}

func (c *Client) Bypass(enabled bool) (types.OpAccepted, error) {
	return c.send(http.MethodPost, "/ops/bypass", types.BypassRequest{Enabled: enabled})
}

func (c *Client) Recover() (types.OpAccepted, error) {
	return c.send(http.MethodPost, "/ops/recover", nil)
}

func (c *Client) Reset() (types.OpAccepted, error) {
	return c.send(http.MethodPost, "/ops/reset", nil)
}

func (c *Client) Cancel() (types.OpAccepted, error) {
	return c.send(http.MethodPost, "/ops/cancel", nil)
}

func (c *Client) MapTool(tool, gate int) (types.OpAccepted, error) {
	return c.send(http.MethodPut, fmt.Sprintf("/toolmap/%d", tool), types.ToolMapRequest{Gate: gate})
}

func (c *Client) UpdateGate(index int, update types.GateUpdateRequest) (types.OpAccepted, error) {
	return c.send(http.MethodPut, fmt.Sprintf("/gates/%d", index), update)
}

// Watch consumes the SSE stream and invokes fn per event until the context
// is cancelled, the stream ends, or fn returns an error.
func (c *Client) Watch(ctx context.Context, fn func(types.Event) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/events", nil)
	if err != nil {
		return err
	}
	// No client timeout on the stream itself.
	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev types.Event
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			continue
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
	if ctx.Err() != nil {
		return nil
	}
	return scanner.Err()
}
