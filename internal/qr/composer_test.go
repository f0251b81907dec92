package qr

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"

	"qrd/internal/models"
)

func TestComposeTemplate_Dimensions(t *testing.T) {
	base := uniformImage(color.White, 100, 100)
	tpl := &models.TemplateDescriptor{
		ID: "t", Padding: 20,
		ShowText: true, TextContent: "VERIFY", TextHeight: 30,
	}

	out, err := ComposeTemplate(base, tpl)
	assert.NoError(t, err)
	assert.Equal(t, 120, out.Bounds().Dx())
	assert.Equal(t, 150, out.Bounds().Dy())
}

func TestComposeTemplate_DefaultsApply(t *testing.T) {
	base := uniformImage(color.White, 100, 100)
	tpl := &models.TemplateDescriptor{ID: "t", ShowText: true, TextContent: "X"}

	out, err := ComposeTemplate(base, tpl)
	assert.NoError(t, err)
	assert.Equal(t, 100+defaultPadding, out.Bounds().Dx())
	assert.Equal(t, 100+defaultPadding+defaultTextHeight, out.Bounds().Dy())
}

func TestComposeTemplate_NoTextNoStrip(t *testing.T) {
	base := uniformImage(color.White, 100, 100)
	tpl := &models.TemplateDescriptor{ID: "t", Padding: 10}

	out, err := ComposeTemplate(base, tpl)
	assert.NoError(t, err)
	assert.Equal(t, 110, out.Bounds().Dy())
}

func TestComposeTemplate_BorderDrawn(t *testing.T) {
	base := uniformImage(color.White, 50, 50)
	tpl := &models.TemplateDescriptor{
		ID: "t", Padding: 20,
		Border: true, BorderColor: "#FF0000", BorderWidth: 3,
		BackgroundColor: "#FFFFFF",
	}

	out, err := ComposeTemplate(base, tpl)
	assert.NoError(t, err)

	r, g, b, _ := out.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xFFFF), r)
	assert.Equal(t, uint32(0), g)
	assert.Equal(t, uint32(0), b)
}

func TestComposeTemplate_NilInputs(t *testing.T) {
	_, err := ComposeTemplate(nil, &models.TemplateDescriptor{})
	assert.Error(t, err)

	_, err = ComposeTemplate(image.NewRGBA(image.Rect(0, 0, 1, 1)), nil)
	assert.Error(t, err)
}

func TestParseColor(t *testing.T) {
	assert.Equal(t, color.RGBA{R: 26, G: 26, B: 46, A: 255}, parseColor("#1A1A2E", color.Black))
	assert.Equal(t, color.Black, parseColor("", color.Black))
	assert.Equal(t, color.White, parseColor("zzz", color.White))
}
