package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Tropical8818/iProTalk/auth"
	"github.com/Tropical8818/iProTalk/domain"
	"github.com/Tropical8818/iProTalk/errors"
	"github.com/Tropical8818/iProTalk/repositories"
	"github.com/Tropical8818/iProTalk/services"
	"github.com/Tropical8818/iProTalk/sink"
)

// APIError is a non-2xx answer from the relay.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("relay: %d %s", e.Status, e.Message)
}

// HTTP talks to a relay over its JSON API. Token, when set, is sent as a
// bearer credential on every call.
type HTTP struct {
	Base  string
	Token string
	HTTP  *http.Client
}

func NewHTTP(base, token string) *HTTP {
	return &HTTP{Base: strings.TrimRight(base, "/"), Token: token, HTTP: http.DefaultClient}
}

func (c *HTTP) Register(ctx context.Context, req auth.RegisterRequest) (services.Session, error) {
	var out services.Session
	return out, c.do(ctx, http.MethodPost, "/api/auth/register", req, &out)
}

func (c *HTTP) Login(ctx context.Context, req auth.LoginRequest) (services.Session, error) {
	var out services.Session
	return out, c.do(ctx, http.MethodPost, "/api/auth/login", req, &out)
}

// Send submits an already encrypted payload and returns the message id.
func (c *HTTP) Send(ctx context.Context, payload domain.Payload) (string, error) {
	var id string
	return id, c.do(ctx, http.MethodPost, "/api/messages", payload, &id)
}

func (c *HTTP) SendToGroup(ctx context.Context, groupID string, payload domain.Payload) (string, error) {
	var id string
	return id, c.do(ctx, http.MethodPost, "/api/messages/group/"+url.PathEscape(groupID), payload, &id)
}

func (c *HTTP) GetMessage(ctx context.Context, id string) (domain.Message, error) {
	var out domain.Message
	return out, c.do(ctx, http.MethodGet, "/api/messages/"+url.PathEscape(id), nil, &out)
}

func (c *HTTP) UploadKeys(ctx context.Context, req auth.KeyUploadRequest) error {
	return c.do(ctx, http.MethodPost, "/api/users/keys", req, nil)
}

func (c *HTTP) GetKeys(ctx context.Context, userID string) (repositories.KeyBundle, error) {
	var out repositories.KeyBundle
	return out, c.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(userID)+"/keys", nil, &out)
}

// StreamItem is one thing read from the live stream: either an event or a
// lag notice wrapping errors.ErrOverflow.
type StreamItem struct {
	Event sink.WireEvent
	Lag   error
}

// Tail follows the SSE stream and calls fn for every event or lag notice
// until ctx is cancelled, the server ends the stream or fn returns an error.
func (c *HTTP) Tail(ctx context.Context, fn func(StreamItem) error) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/messages/events", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode/100 != 2 {
		return readAPIError(resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		data, ok := strings.CutPrefix(scanner.Text(), "data: ")
		if !ok {
			// blank separators and ": keep-alive" comments
			continue
		}
		item, err := parseStreamData([]byte(data))
		if err != nil {
			return err
		}
		if err := fn(item); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func parseStreamData(data []byte) (StreamItem, error) {
	var marker sink.LagMarker
	if err := json.Unmarshal(data, &marker); err == nil && sink.IsLagMarker(marker) {
		return StreamItem{Lag: fmt.Errorf("%w: %d events dropped", errors.ErrOverflow, marker.Dropped)}, nil
	}
	var evt sink.WireEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return StreamItem{}, fmt.Errorf("malformed stream data: %w", err)
	}
	return StreamItem{Event: evt}, nil
}

func (c *HTTP) newRequest(ctx context.Context, method, path string, in any) (*http.Request, error) {
	var body io.Reader
	if in != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(in); err != nil {
			return nil, err
		}
		body = buf
	}
	req, err := http.NewRequestWithContext(ctx, method, c.Base+path, body)
	if err != nil {
		return nil, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	return req, nil
}

func (c *HTTP) do(ctx context.Context, method, path string, in, out any) error {
	req, err := c.newRequest(ctx, method, path, in)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode/100 != 2 {
		return readAPIError(resp)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func readAPIError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error == "" {
		return &APIError{Status: resp.StatusCode, Message: resp.Status}
	}
	return &APIError{Status: resp.StatusCode, Message: body.Error}
}
