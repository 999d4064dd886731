package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"time"

	"github.com/gofiber/fiber/v2"
	_ "golang.org/x/image/webp"

	"skintracker/internal/deadline"
)

// HTTPFetcher downloads images with the fiber client.
type HTTPFetcher struct {
	timeout time.Duration
}

// NewHTTPFetcher creates an HTTPFetcher.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{timeout: timeout}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (image.Image, error) {
	timeout, err := deadline.Bound(ctx, f.timeout)
	if err != nil {
		return nil, err
	}
	agent := fiber.Get(url).Timeout(timeout)
	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, errs[0])
	}
	if code != fiber.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: status %d", url, code)
	}
	img, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", url, err)
	}
	return img, nil
}
