// Package skinsource reads the public weapon skin catalog.
package skinsource

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"skintracker/internal/deadline"
	"skintracker/internal/models"
)

// Weapon is a weapon category and the ids of its skins.
type Weapon struct {
	Name  string `json:"displayName"`
	Skins []struct {
		ID string `json:"uuid"`
	} `json:"skins"`
}

// Skin is an upstream skin record.
type Skin struct {
	ID          string          `json:"uuid"`
	Name        string          `json:"displayName"`
	ContentTier *string         `json:"contentTierUuid"`
	Chromas     []models.Chroma `json:"chromas"`
	Levels      []models.Level  `json:"levels"`
}

type envelope[T any] struct {
	Status int `json:"status"`
	Data   []T `json:"data"`
}

// Client fetches the catalog over HTTP.
type Client struct {
	baseURL string
	timeout time.Duration
}

// NewClient creates a Client rooted at baseURL, for example
// "https://valorant-api.com/v1".
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{baseURL: baseURL, timeout: timeout}
}

func get[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	timeout, err := deadline.Bound(ctx, c.timeout)
	if err != nil {
		return nil, err
	}
	var out envelope[T]
	code, _, errs := fiber.Get(c.baseURL+path).Timeout(timeout).Struct(&out)
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to fetch %s: %w", path, errs[0])
	}
	if code != fiber.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: status %d", path, code)
	}
	return out.Data, nil
}

// Weapons returns every weapon with its skin ids.
func (c *Client) Weapons(ctx context.Context) ([]Weapon, error) {
	return get[Weapon](ctx, c, "/weapons")
}

// Skins returns every skin record.
func (c *Client) Skins(ctx context.Context) ([]Skin, error) {
	return get[Skin](ctx, c, "/weapons/skins")
}
