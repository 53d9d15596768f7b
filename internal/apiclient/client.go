// Package apiclient wraps the clubs, assignments and documents services.
//
// Every call carries the caller's bearer token. A non 2xx answer comes back as
// an *APIError. Nothing is retried.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client talks to the three backend services. The zero token sends no
// Authorization header.
type Client struct {
	ClubBase       string
	AssignmentBase string
	DocumentBase   string
	HTTP           *http.Client

	token string
}

func New(clubBase, assignmentBase, documentBase string, timeout time.Duration) *Client {
	return &Client{
		ClubBase:       strings.TrimSuffix(clubBase, "/"),
		AssignmentBase: strings.TrimSuffix(assignmentBase, "/"),
		DocumentBase:   strings.TrimSuffix(documentBase, "/"),
		HTTP:           &http.Client{Timeout: timeout},
	}
}

// WithToken returns a copy of c that authenticates as the token's owner.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// APIError is a failed call. Message is the server's "error" field, or a
// generic text when the server sent none.
type APIError struct {
	Status  int
	Code    string
	Message string
	Fields  map[string]string

	Method string
	URL    string
	Err    error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %s", e.Method, e.URL, e.Message)
	}
	return fmt.Sprintf("%s %s -> %d: %s", e.Method, e.URL, e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// StatusOf returns the HTTP status carried by err, 0 if none.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

func fallbackMessage(status int) string {
	if text := http.StatusText(status); text != "" {
		return "request failed: " + strings.ToLower(text)
	}
	return fmt.Sprintf("request failed with status %d", status)
}

type errorBody struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields"`
}

func (c *Client) send(ctx context.Context, method, target string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Method: method, URL: target, Message: "could not reach the server", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

		apiErr := &APIError{Status: resp.StatusCode, Method: method, URL: target}
		var eb errorBody
		if json.Unmarshal(b, &eb) == nil && eb.Error != "" {
			apiErr.Message, apiErr.Code, apiErr.Fields = eb.Error, eb.Code, eb.Fields
		} else {
			apiErr.Message = fallbackMessage(resp.StatusCode)
		}
		return nil, apiErr
	}
	return resp, nil
}

func (c *Client) doJSON(ctx context.Context, method, target string, in, out any) error {
	var (
		body        io.Reader
		contentType string
	)
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body, contentType = bytes.NewReader(b), "application/json"
	}

	resp, err := c.send(ctx, method, target, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{Status: resp.StatusCode, Method: method, URL: target, Message: "unreadable response", Err: err}
	}
	return nil
}

func (c *Client) doRaw(ctx context.Context, method, target string, in any) ([]byte, error) {
	b, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	resp, err := c.send(ctx, method, target, bytes.NewReader(b), "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// upload posts r as the multipart field "file".
func (c *Client) upload(ctx context.Context, target, fileName string, r io.Reader, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, r); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	resp, err := c.send(ctx, http.MethodPost, target, &buf, mw.FormDataContentType())
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func withQuery(base string, q url.Values) string {
	if len(q) == 0 {
		return base
	}
	return base + "?" + q.Encode()
}

type ItemsResponse[T any] struct {
	Items      []T  `json:"items"`
	Limit      int  `json:"limit,omitempty"`
	Offset     int  `json:"offset,omitempty"`
	HasMore    bool `json:"hasMore,omitempty"`
	LeaderView bool `json:"leaderView"`
}

const pageSize = 200

// listAll follows offset paging until the server reports no more items.
func listAll[T any](ctx context.Context, c *Client, base string) (ItemsResponse[T], error) {
	var all ItemsResponse[T]
	for offset := 0; ; {
		var page ItemsResponse[T]
		q := url.Values{"limit": {strconv.Itoa(pageSize)}, "offset": {strconv.Itoa(offset)}}
		if err := c.doJSON(ctx, http.MethodGet, withQuery(base, q), nil, &page); err != nil {
			return all, err
		}
		if offset == 0 {
			all.LeaderView = page.LeaderView
			all.Limit = page.Limit
		}
		all.Items = append(all.Items, page.Items...)
		if !page.HasMore || len(page.Items) == 0 {
			return all, nil
		}
		offset += len(page.Items)
	}
}

type Created struct {
	Status string `json:"status"`
	ID     int64  `json:"id"`
}

// ValidationError is a request refused before it was sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}
