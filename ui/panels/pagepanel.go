package panels

import (
	"fmt"
	"strconv"

	"printlayout/internal/app"
	"printlayout/internal/paper"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// PagePanel edits the page: paper size, orientation, media, and margins.
type PagePanel struct {
	state     *app.State
	container fyne.CanvasObject

	sizeSelect  *widget.Select
	orientation *widget.RadioGroup
	mediaSelect *widget.Select
	borderless  *widget.Check
	sizeLabel   *widget.Label

	marginTop    *widget.Entry
	marginBottom *widget.Entry
	marginLeft   *widget.Entry
	marginRight  *widget.Entry
	marginStatus *widget.Label
}

var mediaTypes = []paper.Type{
	paper.TypePlain, paper.TypeMattePhoto, paper.TypeGlossPhoto,
	paper.TypePhotoPaper, paper.TypeSatin, paper.TypeCanvas,
	paper.TypeRicePaper, paper.TypeCardstock, paper.TypeTransparency,
}

// NewPagePanel creates the page panel.
func NewPagePanel(state *app.State) *PagePanel {
	pp := &PagePanel{state: state}

	pp.sizeLabel = widget.NewLabel("")

	sizes := paper.StandardSizes()
	names := make([]string, len(sizes))
	for i, s := range sizes {
		names[i] = s.String()
	}
	pp.sizeSelect = widget.NewSelect(names, func(selected string) {
		for _, s := range sizes {
			if s.String() == selected {
				if s != state.Layout.Page.Size {
					state.SetPaperSize(s)
				}
				return
			}
		}
	})

	pp.orientation = widget.NewRadioGroup([]string{"Portrait", "Landscape"}, func(selected string) {
		o := paper.Portrait
		if selected == "Landscape" {
			o = paper.Landscape
		}
		if o != state.Layout.Page.Orientation {
			state.SetOrientation(o)
		}
	})
	pp.orientation.Horizontal = true

	mediaNames := make([]string, len(mediaTypes))
	for i, t := range mediaTypes {
		mediaNames[i] = t.String()
	}
	pp.mediaSelect = widget.NewSelect(mediaNames, func(selected string) {
		for _, t := range mediaTypes {
			if t.String() == selected {
				if t != state.Layout.Page.Media {
					state.Layout.Page.Media = t
					state.SetModified(true)
					state.Emit(app.EventPageChanged, nil)
				}
				return
			}
		}
	})

	pp.marginTop = widget.NewEntry()
	pp.marginBottom = widget.NewEntry()
	pp.marginLeft = widget.NewEntry()
	pp.marginRight = widget.NewEntry()
	pp.marginStatus = widget.NewLabel("")
	applyMargins := widget.NewButton("Apply Margins", func() {
		pp.onApplyMargins()
	})

	pp.borderless = widget.NewCheck("Borderless", func(checked bool) {
		if checked != state.Layout.Page.Borderless {
			state.Layout.Page.ToggleBorderless()
			state.SetModified(true)
			state.Emit(app.EventPageChanged, nil)
		}
	})

	marginGrid := container.NewGridWithColumns(2,
		widget.NewLabel("Top (mm)"), pp.marginTop,
		widget.NewLabel("Bottom (mm)"), pp.marginBottom,
		widget.NewLabel("Left (mm)"), pp.marginLeft,
		widget.NewLabel("Right (mm)"), pp.marginRight,
	)

	pp.container = container.NewVBox(
		widget.NewCard("Paper", "", container.NewVBox(
			pp.sizeSelect,
			pp.orientation,
			pp.sizeLabel,
			widget.NewLabel("Media:"),
			pp.mediaSelect,
		)),
		widget.NewCard("Margins", "", container.NewVBox(
			marginGrid,
			applyMargins,
			pp.borderless,
			pp.marginStatus,
		)),
	)

	state.On(app.EventPageChanged, func(interface{}) { pp.sync() })
	state.On(app.EventProjectLoaded, func(interface{}) { pp.sync() })
	pp.sync()

	return pp
}

// Container returns the panel container.
func (pp *PagePanel) Container() fyne.CanvasObject {
	return pp.container
}

func (pp *PagePanel) onApplyMargins() {
	top, err1 := strconv.ParseFloat(pp.marginTop.Text, 64)
	bottom, err2 := strconv.ParseFloat(pp.marginBottom.Text, 64)
	left, err3 := strconv.ParseFloat(pp.marginLeft.Text, 64)
	right, err4 := strconv.ParseFloat(pp.marginRight.Text, 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		pp.marginStatus.SetText("Margins must be numbers")
		return
	}
	if err := pp.state.Layout.Page.SetMargins(top, bottom, left, right); err != nil {
		pp.marginStatus.SetText("Margins do not fit the page")
		return
	}
	pp.marginStatus.SetText("")
	pp.state.SetModified(true)
	pp.state.Emit(app.EventPageChanged, nil)
}

// sync refreshes the widgets from the page without firing their callbacks
// into the state again.
func (pp *PagePanel) sync() {
	page := pp.state.Layout.Page

	pp.sizeSelect.Selected = page.Size.String()
	pp.sizeSelect.Refresh()
	pp.orientation.Selected = page.Orientation.String()
	pp.orientation.Refresh()
	pp.mediaSelect.Selected = page.Media.String()
	pp.mediaSelect.Refresh()
	pp.borderless.Checked = page.Borderless
	pp.borderless.Refresh()

	pp.sizeLabel.SetText(fmt.Sprintf("%.1f x %.1f mm", page.WidthMM, page.HeightMM))
	pp.marginTop.SetText(formatMM(page.MarginTopMM))
	pp.marginBottom.SetText(formatMM(page.MarginBottomMM))
	pp.marginLeft.SetText(formatMM(page.MarginLeftMM))
	pp.marginRight.SetText(formatMM(page.MarginRightMM))
}

func formatMM(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
