package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
)

// Client talks to a hosted row API: /rest/v1/<table> for rows (PostgREST
// filter syntax), /auth/v1/* for sessions, and a websocket change feed (see
// realtime.go). Every request carries the service apikey; authenticated
// requests add the session bearer token.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client

	mu       sync.Mutex
	session  *Session
	realtime *realtimeConn
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// RestoreSession installs a previously persisted session (e.g. from the
// state dir) without a fresh sign-in.
func (c *Client) RestoreSession(s *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
}

func (c *Client) currentSession() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if method == http.MethodPost || method == http.MethodPatch {
		// Ask the row API to echo the affected row back.
		req.Header.Set("Prefer", "return=representation")
	}
	if s := c.currentSession(); s.Valid() {
		req.Header.Set("Authorization", "Bearer "+s.AccessToken)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Op: method, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Op: method, Message: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{Op: method, Status: resp.StatusCode, Message: apiErrorMessage(raw, resp.StatusCode)}
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return &Error{Op: method, Message: "bad response: " + err.Error()}
		}
	}
	return nil
}

func apiErrorMessage(body []byte, status int) string {
	var e struct {
		Message string `json:"message"`
		Msg     string `json:"msg"`
		Error   string `json:"error_description"`
	}
	if json.Unmarshal(body, &e) == nil {
		for _, m := range []string{e.Message, e.Msg, e.Error} {
			if strings.TrimSpace(m) != "" {
				return m
			}
		}
	}
	return http.StatusText(status)
}

func tablePath(table string, filter Filter) string {
	q := url.Values{}
	// Stable ordering keeps request URLs deterministic for tests and logs.
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		q.Set(k, "eq."+filter[k])
	}
	q.Set("order", "created_at.desc")
	return "/rest/v1/" + url.PathEscape(table) + "?" + q.Encode()
}

func (c *Client) FetchRows(ctx context.Context, table string, filter Filter) ([]json.RawMessage, error) {
	var rows []json.RawMessage
	if err := c.do(ctx, http.MethodGet, tablePath(table, filter), nil, &rows); err != nil {
		if be, ok := err.(*Error); ok {
			be.Table = table
		}
		return nil, err
	}
	return rows, nil
}

func (c *Client) InsertRow(ctx context.Context, table string, fields map[string]any) (json.RawMessage, error) {
	var rows []json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/rest/v1/"+url.PathEscape(table), fields, &rows); err != nil {
		if be, ok := err.(*Error); ok {
			be.Table = table
		}
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &Error{Op: "insert", Table: table, Message: "no row returned"}
	}
	return rows[0], nil
}

func (c *Client) UpdateRow(ctx context.Context, table, id string, fields map[string]any) (json.RawMessage, error) {
	path := fmt.Sprintf("/rest/v1/%s?id=eq.%s", url.PathEscape(table), url.QueryEscape(id))
	var rows []json.RawMessage
	if err := c.do(ctx, http.MethodPatch, path, fields, &rows); err != nil {
		if be, ok := err.(*Error); ok {
			be.Table = table
		}
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &Error{Op: "update", Table: table, Status: http.StatusNotFound, Message: "row not found: " + id}
	}
	return rows[0], nil
}

func (c *Client) DeleteRow(ctx context.Context, table, id string) error {
	path := fmt.Sprintf("/rest/v1/%s?id=eq.%s", url.PathEscape(table), url.QueryEscape(id))
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		if be, ok := err.(*Error); ok {
			be.Table = table
		}
		return err
	}
	return nil
}

func (c *Client) GetSession(ctx context.Context) (*Session, error) {
	s := c.currentSession()
	if !s.Valid() {
		return nil, nil
	}
	return s, nil
}

type authResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

func (c *Client) installSession(a authResponse) *Session {
	s := &Session{
		AccessToken:  a.AccessToken,
		RefreshToken: a.RefreshToken,
		UserID:       a.User.ID,
		Email:        a.User.Email,
	}
	if a.ExpiresIn > 0 {
		s.ExpiresAt = time.Now().Add(time.Duration(a.ExpiresIn) * time.Second)
	}
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
	return s
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var a authResponse
	body := map[string]any{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", body, &a); err != nil {
		return nil, err
	}
	if a.AccessToken == "" {
		return nil, &Error{Op: "sign-in", Message: "no access token in response"}
	}
	return c.installSession(a), nil
}

func (c *Client) SignUp(ctx context.Context, email, password, username string) (*Session, error) {
	var a authResponse
	body := map[string]any{
		"email":    email,
		"password": password,
		"data":     map[string]any{"username": username},
	}
	if err := c.do(ctx, http.MethodPost, "/auth/v1/signup", body, &a); err != nil {
		return nil, err
	}
	if a.AccessToken == "" {
		// Email confirmation flows return no session until confirmed.
		return nil, nil
	}
	return c.installSession(a), nil
}

func (c *Client) SignOut(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/v1/logout", nil, nil)
	c.mu.Lock()
	c.session = nil
	rt := c.realtime
	c.realtime = nil
	c.mu.Unlock()
	if rt != nil {
		rt.close()
	}
	return err
}

func (c *Client) ResetPassword(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/v1/recover", map[string]any{"email": email}, nil)
}

func (c *Client) UpdatePassword(ctx context.Context, newPassword string) error {
	return c.do(ctx, http.MethodPut, "/auth/v1/user", map[string]any{"password": newPassword}, nil)
}
