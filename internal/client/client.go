// Package client talks to a dayplan server over its JSON API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dayplan/internal/planner"
)

// Client is a bearer-token API client. It satisfies the remote side of
// the sync gate.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Health reports whether the server answers its health probe.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check: status %d", resp.StatusCode)
	}
	return nil
}

// Login exchanges credentials for a token and stores it on the client.
func (c *Client) Login(ctx context.Context, email, password string) (userID string, err error) {
	body := map[string]string{"email": email, "password": password}
	var out struct {
		Token  string `json:"token"`
		UserID string `json:"userId"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &out); err != nil {
		return "", err
	}
	c.Token = out.Token
	return out.UserID, nil
}

func (c *Client) PushPlanner(ctx context.Context, user planner.User, doc planner.Document) error {
	body := map[string]any{
		"user": map[string]string{
			"email": user.Email,
			"name":  user.Name,
			"image": user.Image,
		},
		"planner": doc,
	}
	return c.do(ctx, http.MethodPost, "/sync", body, nil)
}

func (c *Client) FetchPlanner(ctx context.Context, userID string) (planner.Document, error) {
	var out planner.Document
	if err := c.do(ctx, http.MethodGet, "/planner/"+userID, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) FetchGoals(ctx context.Context, userID string) (planner.Goals, error) {
	var out planner.Goals
	if err := c.do(ctx, http.MethodGet, "/goals/"+userID, nil, &out); err != nil {
		return planner.Goals{}, err
	}
	return out, nil
}

func (c *Client) UpdateGoals(ctx context.Context, userID string, textGoal *string, numericGoal *int) (planner.Goals, error) {
	body := map[string]any{}
	if textGoal != nil {
		body["weeklyTextGoal"] = *textGoal
	}
	if numericGoal != nil {
		body["weeklyNumericGoal"] = *numericGoal
	}
	var out planner.Goals
	if err := c.do(ctx, http.MethodPut, "/goals/"+userID, body, &out); err != nil {
		return planner.Goals{}, err
	}
	return out, nil
}

// do runs one JSON round trip. 404 maps to planner.ErrNotFound and 429
// to *planner.CooldownError so callers branch on the same errors the
// server service produces.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return planner.ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		var cd struct {
			RemainingHours int `json:"remainingHours"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&cd)
		return &planner.CooldownError{Remaining: time.Duration(cd.RemainingHours) * time.Hour}
	case resp.StatusCode >= 400:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%s %s: decode: %w", method, path, err)
		}
	}
	return nil
}
