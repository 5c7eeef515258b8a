// Package client is a typed Go client for the locator HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type User struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name"`
}

type Location struct {
	ID     int64   `json:"id,omitempty"`
	UserID string  `json:"userId"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Elev   float64 `json:"elev"`
	Ts     float64 `json:"ts"`
}

type Group struct {
	ID    int64    `json:"id,omitempty"`
	Name  string   `json:"name"`
	Users []string `json:"users"`
}

// MarshalJSON sends a nil Users as an empty array, since the server requires
// the key on create and replace.
func (g Group) MarshalJSON() ([]byte, error) {
	type group Group
	if g.Users == nil {
		g.Users = []string{}
	}
	return json.Marshal(group(g))
}

// APIError is returned for every non-2xx response. Title and Detail come
// from the server's problem document when one was sent.
type APIError struct {
	StatusCode int
	Title      string `json:"title"`
	Detail     string `json:"detail"`
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("locator: %d %s: %s", e.StatusCode, e.Title, e.Detail)
	}
	return fmt.Sprintf("locator: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsBadRequest reports whether err is a 400 from the API.
func IsBadRequest(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

type Client struct {
	baseURL string
	http    *http.Client

	Users     *Collection[User]
	Locations *Collection[Location]
	Groups    *Collection[Group]
}

// New creates a Client for the server at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Users = &Collection[User]{c: c, path: "/users"}
	c.Locations = &Collection[Location]{c: c, path: "/locations"}
	c.Groups = &Collection[Group]{c: c, path: "/groups"}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		_ = json.Unmarshal(data, apiErr)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Collection is the set of operations on one record type.
type Collection[T any] struct {
	c    *Client
	path string
}

func (col *Collection[T]) item(id int64) string {
	return col.path + "/" + strconv.FormatInt(id, 10)
}

// List returns every record in id order.
func (col *Collection[T]) List(ctx context.Context) ([]T, error) {
	var out []T
	if err := col.c.do(ctx, http.MethodGet, col.path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create stores rec and returns it with its assigned id.
func (col *Collection[T]) Create(ctx context.Context, rec T) (T, error) {
	var out T
	err := col.c.do(ctx, http.MethodPost, col.path, rec, &out)
	return out, err
}

func (col *Collection[T]) Get(ctx context.Context, id int64) (T, error) {
	var out T
	err := col.c.do(ctx, http.MethodGet, col.item(id), nil, &out)
	return out, err
}

// Update changes only the given fields, keyed by their JSON names.
func (col *Collection[T]) Update(ctx context.Context, id int64, fields map[string]any) (T, error) {
	var out T
	err := col.c.do(ctx, http.MethodPatch, col.item(id), fields, &out)
	return out, err
}

// Replace overwrites every field of the record with those of rec.
func (col *Collection[T]) Replace(ctx context.Context, id int64, rec T) (T, error) {
	var out T
	err := col.c.do(ctx, http.MethodPut, col.item(id), rec, &out)
	return out, err
}

func (col *Collection[T]) Delete(ctx context.Context, id int64) error {
	return col.c.do(ctx, http.MethodDelete, col.item(id), nil, nil)
}

// Clear deletes every record of the collection.
func (col *Collection[T]) Clear(ctx context.Context) error {
	return col.c.do(ctx, http.MethodDelete, col.path, nil, nil)
}
