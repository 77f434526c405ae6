package dialogs

import (
	"strconv"

	"printlayout/internal/app"
	"printlayout/internal/config"
	"printlayout/internal/paper"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// PreferencesDialog edits the persisted application preferences.
type PreferencesDialog struct {
	state  *app.State
	window fyne.Window

	sizeSelect    *widget.Select
	orientation   *widget.RadioGroup
	marginEntry   *widget.Entry
	gridCheck     *widget.Check
	snapCheck     *widget.Check
	spacingEntry  *widget.Entry
	dpiWarnCheck  *widget.Check
	autoSaveCheck *widget.Check
	intervalEntry *widget.Entry
}

// NewPreferencesDialog creates the preferences dialog.
func NewPreferencesDialog(state *app.State, window fyne.Window) *PreferencesDialog {
	return &PreferencesDialog{state: state, window: window}
}

// Show displays the dialog.
func (d *PreferencesDialog) Show() {
	prefs := d.state.Config.Get()

	sizes := paper.StandardSizes()
	names := make([]string, len(sizes))
	for i, s := range sizes {
		names[i] = s.String()
	}
	d.sizeSelect = widget.NewSelect(names, nil)
	d.sizeSelect.SetSelected(prefs.DefaultPaperSize.String())

	d.orientation = widget.NewRadioGroup([]string{"Portrait", "Landscape"}, nil)
	d.orientation.Horizontal = true
	d.orientation.SetSelected(prefs.DefaultOrientation.String())

	d.marginEntry = widget.NewEntry()
	d.marginEntry.SetText(strconv.FormatFloat(prefs.DefaultMarginMM, 'f', -1, 64))

	d.gridCheck = widget.NewCheck("Show grid", nil)
	d.gridCheck.SetChecked(prefs.ShowGrid)
	d.snapCheck = widget.NewCheck("Snap to grid", nil)
	d.snapCheck.SetChecked(prefs.SnapToGrid)
	d.spacingEntry = widget.NewEntry()
	d.spacingEntry.SetText(strconv.FormatFloat(prefs.GridSpacingMM, 'f', -1, 64))

	d.dpiWarnCheck = widget.NewCheck("Warn on low print resolution", nil)
	d.dpiWarnCheck.SetChecked(prefs.ShowDPIWarnings)

	d.autoSaveCheck = widget.NewCheck("Auto-save", nil)
	d.autoSaveCheck.SetChecked(prefs.AutoSaveEnabled)
	d.intervalEntry = widget.NewEntry()
	d.intervalEntry.SetText(strconv.Itoa(prefs.AutoSaveSec))

	content := container.NewVBox(
		widget.NewCard("New Documents", "", widget.NewForm(
			widget.NewFormItem("Paper size", d.sizeSelect),
			widget.NewFormItem("Orientation", d.orientation),
			widget.NewFormItem("Margin (mm)", d.marginEntry),
		)),
		widget.NewCard("Grid", "", container.NewVBox(
			d.gridCheck,
			d.snapCheck,
			widget.NewForm(widget.NewFormItem("Spacing (mm)", d.spacingEntry)),
		)),
		widget.NewCard("Behavior", "", container.NewVBox(
			d.dpiWarnCheck,
			d.autoSaveCheck,
			widget.NewForm(widget.NewFormItem("Interval (sec)", d.intervalEntry)),
		)),
	)

	dlg := dialog.NewCustomConfirm("Preferences", "Save", "Cancel", content,
		func(save bool) {
			if save {
				d.apply()
			}
		}, d.window)
	dlg.Resize(fyne.NewSize(420, 520))
	dlg.Show()
}

func (d *PreferencesDialog) apply() {
	err := d.state.Config.Update(func(p *config.Preferences) {
		for _, s := range paper.StandardSizes() {
			if s.String() == d.sizeSelect.Selected {
				p.DefaultPaperSize = s
				break
			}
		}
		p.DefaultOrientation = paper.Portrait
		if d.orientation.Selected == "Landscape" {
			p.DefaultOrientation = paper.Landscape
		}
		if v, err := strconv.ParseFloat(d.marginEntry.Text, 64); err == nil {
			p.DefaultMarginMM = v
		}
		p.ShowGrid = d.gridCheck.Checked
		p.SnapToGrid = d.snapCheck.Checked
		if v, err := strconv.ParseFloat(d.spacingEntry.Text, 64); err == nil {
			p.GridSpacingMM = v
		}
		p.ShowDPIWarnings = d.dpiWarnCheck.Checked
		p.AutoSaveEnabled = d.autoSaveCheck.Checked
		if v, err := strconv.Atoi(d.intervalEntry.Text); err == nil {
			p.AutoSaveSec = v
		}
	})
	if err != nil {
		dialog.ShowError(err, d.window)
		return
	}

	d.state.ApplySnapSettings()
	d.state.StopAutoSave()
	d.state.StartAutoSave()
	d.state.Emit(app.EventLayoutChanged, nil)
}
