package qr

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"qrd/internal/models"
)

const (
	defaultPadding     = 40
	defaultTextHeight  = 60
	defaultBorderWidth = 2
)

var (
	defaultForeground color.Color = color.Black
	defaultBackground color.Color = color.White
)

// ComposeTemplate decorates a base code raster according to the template:
// background, optional border, the code centered within the padding and an
// optional caption underneath. Pure function of its inputs.
func ComposeTemplate(base image.Image, tpl *models.TemplateDescriptor) (image.Image, error) {
	if base == nil {
		return nil, errors.New("nil base raster")
	}
	if tpl == nil {
		return nil, errors.New("nil template descriptor")
	}

	padding := tpl.Padding
	if padding <= 0 {
		padding = defaultPadding
	}
	textHeight := 0
	if tpl.ShowText && tpl.TextContent != "" {
		textHeight = tpl.TextHeight
		if textHeight <= 0 {
			textHeight = defaultTextHeight
		}
	}

	baseW := base.Bounds().Dx()
	baseH := base.Bounds().Dy()
	canvasW := baseW + padding
	canvasH := baseH + padding + textHeight

	canvas := image.NewRGBA(image.Rect(0, 0, canvasW, canvasH))

	bg := parseColor(tpl.BackgroundColor, color.White)
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	if tpl.Border {
		bw := tpl.BorderWidth
		if bw <= 0 {
			bw = defaultBorderWidth
		}
		drawBorder(canvas, parseColor(tpl.BorderColor, color.Black), bw)
	}

	codeX := (canvasW - baseW) / 2
	codeY := padding / 2
	codeRect := image.Rect(codeX, codeY, codeX+baseW, codeY+baseH)
	draw.Draw(canvas, codeRect, base, base.Bounds().Min, draw.Src)

	if textHeight > 0 {
		drawCaption(canvas, tpl.TextContent, parseColor(tpl.TextColor, color.Black), codeY+baseH+textHeight/2)
	}

	return canvas, nil
}

func drawBorder(img *image.RGBA, col color.Color, width int) {
	b := img.Bounds()
	src := image.NewUniform(col)
	// Top, bottom, left, right strips.
	draw.Draw(img, image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+width), src, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(b.Min.X, b.Max.Y-width, b.Max.X, b.Max.Y), src, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(b.Min.X, b.Min.Y, b.Min.X+width, b.Max.Y), src, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(b.Max.X-width, b.Min.Y, b.Max.X, b.Max.Y), src, image.Point{}, draw.Src)
}

func drawCaption(img *image.RGBA, text string, col color.Color, baselineY int) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
	}
	width := d.MeasureString(text)
	d.Dot = fixed.Point26_6{
		X: fixed.I(img.Bounds().Dx()/2) - width/2,
		Y: fixed.I(baselineY),
	}
	d.DrawString(text)
}

// parseColor parses a #RRGGBB hex string, falling back when empty or invalid.
func parseColor(s string, fallback color.Color) color.Color {
	if len(s) != 7 || s[0] != '#' {
		return fallback
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &r, &g, &b); err != nil {
		return fallback
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
