// Package client talks to the skin tracker HTTP API and holds the client-side
// browsing and editing state.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"skintracker/internal/deadline"
	"skintracker/internal/models"
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// LoadoutPayload is the body of loadout create and update calls.
type LoadoutPayload struct {
	Name    string             `json:"name"`
	Icon    *string            `json:"icon"`
	Entries map[string]*string `json:"entries"`
}

// SyncReport is the answer of a catalog sync trigger.
type SyncReport struct {
	Success bool `json:"success"`
	Stats   struct {
		New      int    `json:"new"`
		Updated  int    `json:"updated"`
		Skipped  int    `json:"skipped"`
		Total    int    `json:"total"`
		Duration string `json:"duration"`
	} `json:"stats"`
	Timestamp time.Time `json:"timestamp"`
}

// Client is a thin API client. The zero Token makes anonymous calls.
type Client struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// New creates a Client for baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), Timeout: timeout}
}

func (c *Client) agent(a *fiber.Agent, bearer string) *fiber.Agent {
	if bearer != "" {
		a = a.Set(fiber.HeaderAuthorization, "Bearer "+bearer)
	}
	return a
}

// do sends the request and decodes a 2xx body into out when out is non-nil.
func (c *Client) do(ctx context.Context, a *fiber.Agent, out any) ([]byte, error) {
	timeout, err := deadline.Bound(ctx, c.Timeout)
	if err != nil {
		fiber.ReleaseAgent(a)
		return nil, err
	}
	code, body, errs := a.Timeout(timeout).Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("request failed: %w", errs[0])
	}
	if code < 200 || code > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return nil, &APIError{Status: code, Message: msg}
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return body, nil
}

// Login exchanges credentials for a session token and keeps it on the client.
func (c *Client) Login(ctx context.Context, identifier, password string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	a := c.agent(fiber.Post(c.BaseURL+"/auth/login"), "").
		JSON(map[string]string{"identifier": identifier, "password": password})
	if _, err := c.do(ctx, a, &out); err != nil {
		return "", err
	}
	c.Token = out.Token
	return out.Token, nil
}

// Skins returns one catalog page.
func (c *Client) Skins(ctx context.Context, filter models.SkinFilter) ([]models.SkinSummary, error) {
	q := url.Values{}
	if filter.Weapon != "" {
		q.Set("weapon", filter.Weapon)
	}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}
	if filter.Page > 0 {
		q.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	var skins []models.SkinSummary
	a := c.agent(fiber.Get(c.BaseURL+"/skins"), c.Token).QueryString(q.Encode())
	_, err := c.do(ctx, a, &skins)
	return skins, err
}

// Loadout fetches one owned loadout.
func (c *Client) Loadout(ctx context.Context, id string) (*models.LoadoutView, error) {
	var v models.LoadoutView
	if _, err := c.do(ctx, c.agent(fiber.Get(c.BaseURL+"/loadouts/"+url.PathEscape(id)), c.Token), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// CreateLoadout stores a new loadout.
func (c *Client) CreateLoadout(ctx context.Context, p LoadoutPayload) (*models.LoadoutView, error) {
	var v models.LoadoutView
	a := c.agent(fiber.Post(c.BaseURL+"/loadouts"), c.Token).JSON(p)
	if _, err := c.do(ctx, a, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// UpdateLoadout replaces a loadout with p.
func (c *Client) UpdateLoadout(ctx context.Context, id string, p LoadoutPayload) (*models.LoadoutView, error) {
	var v models.LoadoutView
	a := c.agent(fiber.Put(c.BaseURL+"/loadouts/"+url.PathEscape(id)), c.Token).JSON(p)
	if _, err := c.do(ctx, a, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// ExportLoadout returns the interchange JSON of a loadout.
func (c *Client) ExportLoadout(ctx context.Context, id string) ([]byte, error) {
	return c.do(ctx, c.agent(fiber.Get(c.BaseURL+"/loadouts/"+url.PathEscape(id)+"/export"), c.Token), nil)
}

// ImportLoadout creates a loadout from interchange JSON.
func (c *Client) ImportLoadout(ctx context.Context, payload []byte) (*models.LoadoutView, error) {
	var v models.LoadoutView
	a := c.agent(fiber.Post(c.BaseURL+"/loadouts/import"), c.Token).
		ContentType(fiber.MIMEApplicationJSON).
		Body(payload)
	if _, err := c.do(ctx, a, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Sync triggers a catalog sync with the shared secret.
func (c *Client) Sync(ctx context.Context, secret string) (*SyncReport, error) {
	var report SyncReport
	if _, err := c.do(ctx, c.agent(fiber.Post(c.BaseURL+"/sync/skins"), secret), &report); err != nil {
		return nil, err
	}
	return &report, nil
}
