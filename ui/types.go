// Package ui provides a descriptor-driven UI system for the simulation.
// Instead of hard-coding field names and layouts, UI elements are defined
// through metadata that can be updated alongside the underlying systems.
package ui

import rl "github.com/gen2brain/raylib-go/raylib"

// WidgetType specifies how a field should be rendered.
type WidgetType int

const (
	WidgetText    WidgetType = iota // Plain text with format string
	WidgetBar                       // Progress bar over Range
	WidgetSlider                    // Editable value over Range
	WidgetToggle                    // Editable checkbox
	WidgetSection                   // Section header
	WidgetSpacer                    // Vertical spacing
)

// FieldRange defines the value range for bar and slider widgets.
type FieldRange struct {
	Min float32
	Max float32
}

// DefaultRange returns a [0, 1] range.
func DefaultRange() FieldRange {
	return FieldRange{Min: 0, Max: 1}
}

// FieldDescriptor defines how to display a single piece of data.
type FieldDescriptor struct {
	ID         string             // Unique identifier for the field
	Label      string             // Display label
	Widget     WidgetType         // How to render
	Format     string             // Printf format for text (e.g., "%.2f")
	Range      FieldRange         // Value range for bars and sliders
	Visible    func(any) bool     // Optional visibility check (nil = always visible)
	Getter     func(any) float32  // Value extractor (for numeric fields)
	TextGetter func(any) string   // Value extractor (for text fields)
	Setter     func(any, float32) // Receives slider edits
	BoolGetter func(any) bool     // Toggle state
	BoolSetter func(any, bool)    // Receives toggle edits
}

// SectionDescriptor defines a group of fields with a header.
type SectionDescriptor struct {
	ID      string            // Unique identifier
	Title   string            // Section header text
	Fields  []FieldDescriptor // Fields in this section
	Visible func(any) bool    // Optional visibility check for entire section
}

// PanelDescriptor defines a complete panel layout.
type PanelDescriptor struct {
	ID       string              // Unique identifier
	Title    string              // Panel title (optional)
	Sections []SectionDescriptor // Sections in order
	Width    int32               // Panel width (0 = auto)
}

// Height returns the pixel height needed to draw every visible row.
func (p PanelDescriptor) Height(theme Theme, data any) int32 {
	h := theme.Padding * 2
	if p.Title != "" {
		h += theme.LineHeight + 4
	}
	for _, sd := range p.Sections {
		if sd.Visible != nil && !sd.Visible(data) {
			continue
		}
		if sd.Title != "" {
			h += theme.LineHeight
		}
		for _, fd := range sd.Fields {
			if fd.Visible != nil && !fd.Visible(data) {
				continue
			}
			h += theme.rowHeight(fd.Widget)
		}
		h += 4
	}
	return h
}

// Theme holds UI styling constants.
type Theme struct {
	PanelBg        rl.Color
	PanelBorder    rl.Color
	SectionHeader  rl.Color
	LabelColor     rl.Color
	ValueColor     rl.Color
	BarBg          rl.Color
	BarFill        rl.Color
	BarFillHigh    rl.Color
	Padding        int32
	LineHeight     int32
	LabelWidth     int32
	BarHeight      int32
	FontSize       int32
	HeaderFontSize int32
}

// DefaultTheme returns the default UI theme.
func DefaultTheme() Theme {
	return Theme{
		PanelBg:        rl.Color{R: 20, G: 25, B: 30, A: 240},
		PanelBorder:    rl.Color{R: 60, G: 70, B: 80, A: 255},
		SectionHeader:  rl.Yellow,
		LabelColor:     rl.LightGray,
		ValueColor:     rl.LightGray,
		BarBg:          rl.Color{R: 40, G: 40, B: 40, A: 255},
		BarFill:        rl.Color{R: 100, G: 150, B: 200, A: 255},
		BarFillHigh:    rl.Color{R: 200, G: 100, B: 100, A: 255},
		Padding:        10,
		LineHeight:     16,
		LabelWidth:     96,
		BarHeight:      12,
		FontSize:       12,
		HeaderFontSize: 14,
	}
}

func (t Theme) rowHeight(w WidgetType) int32 {
	switch w {
	case WidgetBar:
		return t.LineHeight + 2
	case WidgetSlider, WidgetToggle:
		return t.LineHeight + 4
	case WidgetSpacer:
		return 6
	}
	return t.LineHeight
}
