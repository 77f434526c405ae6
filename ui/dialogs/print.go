// Package dialogs provides application dialogs.
package dialogs

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"printlayout/internal/app"
	"printlayout/internal/printing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// printQueryTimeout bounds the CUPS discovery and capability queries.
const printQueryTimeout = 10 * time.Second

// PrintDialog queries the local CUPS printers and submits the composed
// page as a print job.
type PrintDialog struct {
	state  *app.State
	window fyne.Window

	printerSelect *widget.Select
	mediaSelect   *widget.Select
	copiesEntry   *widget.Entry
	fitCheck      *widget.Check
	statusLabel   *widget.Label

	printers []printing.Printer
}

// NewPrintDialog creates the print dialog.
func NewPrintDialog(state *app.State, window fyne.Window) *PrintDialog {
	return &PrintDialog{state: state, window: window}
}

// Show displays the dialog and starts printer discovery.
func (d *PrintDialog) Show() {
	last := d.state.Config.Get().LastPrint

	d.statusLabel = widget.NewLabel("Querying printers...")
	d.statusLabel.Wrapping = fyne.TextWrapWord

	d.mediaSelect = widget.NewSelect(nil, nil)
	d.printerSelect = widget.NewSelect(nil, func(selected string) {
		d.loadCapabilities(selected, last.Media)
	})

	d.copiesEntry = widget.NewEntry()
	copies := last.Copies
	if copies < 1 {
		copies = 1
	}
	d.copiesEntry.SetText(strconv.Itoa(copies))

	d.fitCheck = widget.NewCheck("Fit to page", nil)
	d.fitCheck.SetChecked(last.FitToPage)

	content := container.NewVBox(
		widget.NewForm(
			widget.NewFormItem("Printer", d.printerSelect),
			widget.NewFormItem("Media", d.mediaSelect),
			widget.NewFormItem("Copies", d.copiesEntry),
		),
		d.fitCheck,
		d.statusLabel,
	)

	dlg := dialog.NewCustomConfirm("Print", "Print", "Cancel", content,
		func(confirmed bool) {
			if confirmed {
				d.submit()
			}
		}, d.window)
	dlg.Resize(fyne.NewSize(400, 300))
	dlg.Show()

	go d.discover(last.Printer)
}

// discover lists the available printers and preselects the remembered or
// default destination.
func (d *PrintDialog) discover(preferred string) {
	ctx, cancel := context.WithTimeout(context.Background(), printQueryTimeout)
	defer cancel()

	printers, err := d.state.Printer.Printers(ctx)
	if err != nil {
		if errors.Is(err, printing.ErrNoPrinters) {
			d.statusLabel.SetText("No printers found")
		} else {
			d.statusLabel.SetText(fmt.Sprintf("Printer query failed: %v", err))
		}
		return
	}
	d.printers = printers

	names := make([]string, len(printers))
	selected := ""
	for i, p := range printers {
		names[i] = p.Name
		if p.Name == preferred {
			selected = p.Name
		}
		if selected == "" && p.IsDefault {
			selected = p.Name
		}
	}
	if selected == "" {
		selected = names[0]
	}

	d.printerSelect.Options = names
	d.printerSelect.SetSelected(selected)
	d.statusLabel.SetText("")
}

// loadCapabilities fills the media choices for the chosen printer.
func (d *PrintDialog) loadCapabilities(printer, preferredMedia string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), printQueryTimeout)
		defer cancel()

		caps, err := d.state.Printer.Capabilities(ctx, printer)
		if err != nil {
			d.statusLabel.SetText(fmt.Sprintf("Capability query failed: %v", err))
			return
		}

		sizes := caps.MediaSizes()
		d.mediaSelect.Options = sizes
		if len(sizes) == 0 {
			d.mediaSelect.ClearSelected()
			d.mediaSelect.Refresh()
			return
		}

		selected := sizes[0]
		for _, s := range sizes {
			if s == preferredMedia {
				selected = s
				break
			}
		}
		if o, ok := caps.Option("PageSize"); ok && o.Default != "" && preferredMedia == "" {
			selected = o.Default
		}
		d.mediaSelect.SetSelected(selected)
	}()
}

// submit renders the page at print resolution and hands it to CUPS.
func (d *PrintDialog) submit() {
	printer := d.printerSelect.Selected
	if printer == "" {
		dialog.ShowError(fmt.Errorf("no printer selected"), d.window)
		return
	}

	copies, err := strconv.Atoi(d.copiesEntry.Text)
	if err != nil || copies < 1 {
		copies = 1
	}

	settings := printing.Settings{
		Printer:   printer,
		Media:     d.mediaSelect.Selected,
		Copies:    copies,
		FitToPage: d.fitCheck.Checked,
	}

	progress := dialog.NewCustomWithoutButtons("Printing",
		container.NewVBox(widget.NewLabel("Rendering page...")), d.window)
	progress.Show()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		job, err := d.state.Print(ctx, settings)
		progress.Hide()
		if err != nil {
			dialog.ShowError(fmt.Errorf("print failed: %w", err), d.window)
			return
		}
		dialog.ShowInformation("Print",
			fmt.Sprintf("Submitted job %s to %s", job.ID, job.Printer), d.window)
	}()
}
