package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Renderer handles all UI drawing with consistent styling.
type Renderer struct {
	Theme Theme
}

// NewRenderer creates a renderer with the default theme.
func NewRenderer() *Renderer {
	return &Renderer{Theme: DefaultTheme()}
}

// DrawPanel draws a panel background with border.
func (r *Renderer) DrawPanel(x, y, width, height int32) {
	rl.DrawRectangle(x, y, width, height, r.Theme.PanelBg)
	rl.DrawRectangleLines(x, y, width, height, r.Theme.PanelBorder)
}

// DrawSectionHeader draws a section header and returns the new Y position.
func (r *Renderer) DrawSectionHeader(x, y int32, title string) int32 {
	rl.DrawText(title, x, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
	return y + r.Theme.LineHeight
}

// DrawLabelValue draws a label and value on the same line.
func (r *Renderer) DrawLabelValue(x, y int32, label, value string) int32 {
	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawText(value, x+r.Theme.LabelWidth, y, r.Theme.FontSize, r.Theme.ValueColor)
	return y + r.Theme.LineHeight
}

// DrawBar draws a progress bar for value within rng.
func (r *Renderer) DrawBar(x, y int32, label string, value float32, rng FieldRange, width int32) int32 {
	frac := float32(0)
	if rng.Max > rng.Min {
		frac = (value - rng.Min) / (rng.Max - rng.Min)
	}
	frac = max(0, min(1, frac))

	barX := x + r.Theme.LabelWidth
	barWidth := width - r.Theme.LabelWidth - 50

	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawRectangle(barX, y+2, barWidth, r.Theme.BarHeight, r.Theme.BarBg)

	fill := r.Theme.BarFill
	if frac >= 0.999 {
		fill = r.Theme.BarFillHigh
	}
	rl.DrawRectangle(barX, y+2, int32(float32(barWidth)*frac), r.Theme.BarHeight, fill)
	rl.DrawText(fmt.Sprintf("%.2f", value), barX+barWidth+5, y, r.Theme.FontSize, r.Theme.ValueColor)

	return y + r.Theme.LineHeight + 2
}

// DrawSlider draws an editable slider and returns the new Y position and value.
func (r *Renderer) DrawSlider(x, y int32, label, format string, value float32, rng FieldRange, width int32) (int32, float32) {
	rl.DrawText(label+":", x, y+2, r.Theme.FontSize, r.Theme.LabelColor)

	sliderX := float32(x + r.Theme.LabelWidth)
	sliderW := float32(width - r.Theme.LabelWidth - 50)
	next := gui.SliderBar(
		rl.Rectangle{X: sliderX, Y: float32(y), Width: sliderW, Height: float32(r.Theme.LineHeight)},
		"", "",
		value, rng.Min, rng.Max,
	)
	if format == "" {
		format = "%.1f"
	}
	rl.DrawText(fmt.Sprintf(format, next), int32(sliderX+sliderW)+5, y+2, r.Theme.FontSize, r.Theme.ValueColor)
	return y + r.Theme.LineHeight + 4, next
}

// DrawToggle draws an editable checkbox and returns the new Y position and state.
func (r *Renderer) DrawToggle(x, y int32, label string, checked bool) (int32, bool) {
	size := float32(r.Theme.LineHeight - 4)
	next := gui.CheckBox(rl.Rectangle{X: float32(x), Y: float32(y + 2), Width: size, Height: size}, label, checked)
	return y + r.Theme.LineHeight + 4, next
}

// DrawField renders a field based on its descriptor, applying edits through its setters.
func (r *Renderer) DrawField(x, y int32, fd FieldDescriptor, data any, width int32) int32 {
	switch fd.Widget {
	case WidgetText:
		var text string
		if fd.TextGetter != nil {
			text = fd.TextGetter(data)
		} else if fd.Getter != nil {
			text = fmt.Sprintf(fd.Format, fd.Getter(data))
		}
		return r.DrawLabelValue(x, y, fd.Label, text)

	case WidgetBar:
		value := float32(0)
		if fd.Getter != nil {
			value = fd.Getter(data)
		}
		return r.DrawBar(x, y, fd.Label, value, fd.Range, width)

	case WidgetSlider:
		value := float32(0)
		if fd.Getter != nil {
			value = fd.Getter(data)
		}
		ny, next := r.DrawSlider(x, y, fd.Label, fd.Format, value, fd.Range, width)
		if next != value && fd.Setter != nil {
			fd.Setter(data, next)
		}
		return ny

	case WidgetToggle:
		checked := fd.BoolGetter != nil && fd.BoolGetter(data)
		ny, next := r.DrawToggle(x, y, fd.Label, checked)
		if next != checked && fd.BoolSetter != nil {
			fd.BoolSetter(data, next)
		}
		return ny

	case WidgetSection:
		return r.DrawSectionHeader(x, y, fd.Label)

	case WidgetSpacer:
		return y + 6
	}

	return y
}

// DrawSection renders a section with header and fields.
func (r *Renderer) DrawSection(x, y int32, sd SectionDescriptor, data any, width int32) int32 {
	// Check section visibility
	if sd.Visible != nil && !sd.Visible(data) {
		return y
	}

	// Header
	if sd.Title != "" {
		y = r.DrawSectionHeader(x, y, sd.Title)
	}

	// Fields
	for _, fd := range sd.Fields {
		// Check field visibility
		if fd.Visible != nil && !fd.Visible(data) {
			continue
		}
		y = r.DrawField(x, y, fd, data, width)
	}

	return y + 4 // Small gap after section
}
