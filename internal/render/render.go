// Package render draws loadouts as shareable PNG images.
package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Tile is one weapon slot. A nil ImageURL draws an empty slot.
type Tile struct {
	Label    string
	ImageURL *string
}

// Group is a labelled row of tiles.
type Group struct {
	Label string
	Tiles []Tile
}

// Fetcher downloads and decodes an image.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (image.Image, error)
}

const (
	tileWidth    = 200
	tileHeight   = 100
	labelHeight  = 18
	headerHeight = 22
	titleHeight  = 40
	padding      = 10
	maxColumns   = 6
)

var (
	background = color.RGBA{R: 0x0f, G: 0x19, B: 0x23, A: 0xff}
	slot       = color.RGBA{R: 0x1f, G: 0x2a, B: 0x36, A: 0xff}
	accent     = color.RGBA{R: 0xff, G: 0x46, B: 0x55, A: 0xff}
	text       = color.RGBA{R: 0xec, G: 0xe8, B: 0xe1, A: 0xff}
	muted      = color.RGBA{R: 0x8b, G: 0x97, B: 0x8f, A: 0xff}
)

// Renderer lays tiles out in rows of at most six per group.
type Renderer struct {
	fetch  Fetcher
	logger *zap.Logger
}

// NewRenderer creates a Renderer.
func NewRenderer(fetch Fetcher, logger *zap.Logger) *Renderer {
	return &Renderer{fetch: fetch, logger: logger}
}

func rowsFor(tiles int) int {
	if tiles == 0 {
		return 0
	}
	return (tiles + maxColumns - 1) / maxColumns
}

// Size returns the canvas size for the groups.
func Size(groups []Group) image.Point {
	height := titleHeight + padding
	for _, g := range groups {
		height += headerHeight + rowsFor(len(g.Tiles))*(tileHeight+labelHeight+padding)
	}
	width := padding + maxColumns*(tileWidth+padding)
	return image.Pt(width, height)
}

// Render draws the title followed by each group. Images that fail to load
// leave their slot empty.
func (r *Renderer) Render(ctx context.Context, title string, groups []Group) ([]byte, error) {
	size := Size(groups)
	canvas := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	drawText(canvas, padding, 26, strings.ToUpper(title), text)
	draw.Draw(canvas, image.Rect(padding, titleHeight-4, size.X-padding, titleHeight-2), image.NewUniform(accent), image.Point{}, draw.Src)

	y := titleHeight + padding
	for _, g := range groups {
		drawText(canvas, padding, y+14, g.Label, muted)
		y += headerHeight
		for i, tile := range g.Tiles {
			col, row := i%maxColumns, i/maxColumns
			x := padding + col*(tileWidth+padding)
			ty := y + row*(tileHeight+labelHeight+padding)
			r.drawTile(ctx, canvas, image.Rect(x, ty, x+tileWidth, ty+tileHeight), tile)
		}
		y += rowsFor(len(g.Tiles)) * (tileHeight + labelHeight + padding)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("failed to encode loadout image: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) drawTile(ctx context.Context, canvas *image.RGBA, rect image.Rectangle, tile Tile) {
	draw.Draw(canvas, rect, image.NewUniform(slot), image.Point{}, draw.Src)
	drawText(canvas, rect.Min.X, rect.Max.Y+13, truncate(tile.Label, tileWidth/7), text)

	if tile.ImageURL == nil || r.fetch == nil {
		return
	}
	img, err := r.fetch.Fetch(ctx, *tile.ImageURL)
	if err != nil {
		r.logger.Warn("Failed to load tile image", zap.String("url", *tile.ImageURL), zap.Error(err))
		return
	}
	draw.CatmullRom.Scale(canvas, fit(img.Bounds(), rect.Inset(6)), img, img.Bounds(), draw.Over, nil)
}

// fit returns the largest rectangle with src's aspect ratio centered in dst.
func fit(src, dst image.Rectangle) image.Rectangle {
	sw, sh := src.Dx(), src.Dy()
	dw, dh := dst.Dx(), dst.Dy()
	if sw == 0 || sh == 0 {
		return dst
	}
	w, h := dw, sh*dw/sw
	if h > dh {
		w, h = sw*dh/sh, dh
	}
	x := dst.Min.X + (dw-w)/2
	y := dst.Min.Y + (dh-h)/2
	return image.Rect(x, y, x+w, y+h)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

func drawText(dst draw.Image, x, y int, s string, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
