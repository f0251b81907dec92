package qr

import (
	"sync"

	"qrd/internal/models"
	"qrd/internal/structures"
)

// TemplateProvider resolves template references for the encoder. A nil result
// means the reference is unresolvable.
type TemplateProvider interface {
	Resolve(templateID string) *models.TemplateDescriptor
}

// configTemplateProvider serves descriptors seeded from the config file.
// Template administration is owned by a separate service; this provider only
// satisfies the encoder's read contract and keeps a private use counter.
type configTemplateProvider struct {
	mu       sync.Mutex
	byID     map[string]models.TemplateDescriptor
	useCount map[string]int
}

func NewTemplateProvider(conf *structures.Config) TemplateProvider {
	p := &configTemplateProvider{
		byID:     make(map[string]models.TemplateDescriptor, len(conf.Templates)),
		useCount: make(map[string]int),
	}
	for _, t := range conf.Templates {
		p.byID[t.ID] = models.TemplateDescriptor{
			ID:              t.ID,
			Version:         t.Version,
			DisplayName:     t.DisplayName,
			Foreground:      t.Foreground,
			Background:      t.Background,
			Level:           t.Level,
			CustomDesign:    t.CustomDesign,
			Padding:         t.Padding,
			Border:          t.Border,
			BorderColor:     t.BorderColor,
			BorderWidth:     t.BorderWidth,
			BackgroundColor: t.BackgroundColor,
			ShowText:        t.ShowText,
			TextContent:     t.TextContent,
			TextColor:       t.TextColor,
			TextHeight:      t.TextHeight,
		}
	}
	return p
}

func (p *configTemplateProvider) Resolve(templateID string) *models.TemplateDescriptor {
	p.mu.Lock()
	defer p.mu.Unlock()
	tpl, ok := p.byID[templateID]
	if !ok {
		return nil
	}
	p.useCount[templateID]++
	cp := tpl
	return &cp
}
