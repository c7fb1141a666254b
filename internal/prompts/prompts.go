package prompts

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Placeholder is the token replaced with the caller's style description.
const Placeholder = "{haircut}"

type template struct {
	Template string `toml:"template"`
}

type promptFile struct {
	FrontView        template `toml:"front_view"`
	SideAndBackViews template `toml:"side_and_back_views"`
}

// Prompts renders generation instructions from templates loaded once at
// startup. Rendering is a single literal substring replacement: the style
// description is spliced in verbatim, no escaping. Keeping prompt injection
// in check is the request validator's job, not this package's.
type Prompts struct {
	frontView        string
	sideAndBackViews string
}

// Load reads and parses the TOML template file. Any failure here is meant to
// abort startup; a service without templates cannot serve a single request.
func Load(path string) (*Prompts, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt templates: %w", err)
	}
	var file promptFile
	if err := toml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse prompt templates: %w", err)
	}
	if strings.TrimSpace(file.FrontView.Template) == "" {
		return nil, fmt.Errorf("prompt templates: front_view.template is missing or empty")
	}
	if strings.TrimSpace(file.SideAndBackViews.Template) == "" {
		return nil, fmt.Errorf("prompt templates: side_and_back_views.template is missing or empty")
	}
	return &Prompts{
		frontView:        file.FrontView.Template,
		sideAndBackViews: file.SideAndBackViews.Template,
	}, nil
}

// FrontView renders the single-view instruction.
func (p *Prompts) FrontView(styleDescription string) string {
	return strings.ReplaceAll(p.frontView, Placeholder, styleDescription)
}

// SideAndBackViews renders the combined side+back instruction.
func (p *Prompts) SideAndBackViews(styleDescription string) string {
	return strings.ReplaceAll(p.sideAndBackViews, Placeholder, styleDescription)
}
