package models

// TemplateDescriptor is the read-only appearance description the encoder
// consumes. Descriptors are owned by the template collaborator; the core never
// mutates one.
type TemplateDescriptor struct {
	ID          string
	Version     int
	DisplayName string

	// Base render defaults. Empty values mean "no opinion".
	Foreground string
	Background string
	Level      string

	// Custom composition applied on top of the base raster.
	CustomDesign    bool
	Padding         int
	Border          bool
	BorderColor     string
	BorderWidth     int
	BackgroundColor string
	ShowText        bool
	TextContent     string
	TextColor       string
	TextHeight      int
}
