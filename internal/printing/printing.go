// Package printing talks to CUPS through its command line tools: lpstat
// for discovery, lpoptions for capabilities, lp for submission. Jobs are
// handed over as flattened PNG files; CUPS spools a copy, so the
// temporary file is removed as soon as lp returns.
package printing

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"os/exec"
)

var (
	// ErrNoPrinters means discovery succeeded but found no destinations.
	ErrNoPrinters = errors.New("printing: no printers found")
	// ErrQuery wraps failures of lpstat or lpoptions.
	ErrQuery = errors.New("printing: query failed")
	// ErrSubmit wraps failures of lp.
	ErrSubmit = errors.New("printing: job submission failed")
)

// State is a coarse printer state derived from lpstat output.
type State int

const (
	StateUnknown State = iota
	StateIdle
	StatePrinting
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePrinting:
		return "printing"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// Printer is one CUPS destination.
type Printer struct {
	Name      string
	State     State
	IsDefault bool
}

// Option is one printer option with its choices; Default is the choice
// lpoptions marks with an asterisk.
type Option struct {
	Keyword string
	Label   string
	Choices []string
	Default string
}

// Capabilities is the option set a printer reports.
type Capabilities struct {
	Options []Option
}

// Option returns the option with the given keyword.
func (c Capabilities) Option(keyword string) (Option, bool) {
	for _, o := range c.Options {
		if o.Keyword == keyword {
			return o, true
		}
	}
	return Option{}, false
}

// MediaSizes returns the media choices (the PageSize option), or nil.
func (c Capabilities) MediaSizes() []string {
	if o, ok := c.Option("PageSize"); ok {
		return o.Choices
	}
	return nil
}

// Settings selects the destination and job options for a submission.
type Settings struct {
	Printer   string
	Media     string
	Copies    int
	FitToPage bool

	// Extra is passed through as additional -o name=value options.
	Extra map[string]string
}

// Job identifies a submitted print job.
type Job struct {
	ID      string
	Printer string
}

// runner executes one external command and returns its combined output.
// Swapped out in tests.
type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Client is the CUPS port.
type Client struct {
	run runner
}

// NewClient creates a client using the system lpstat, lpoptions, and lp.
func NewClient() *Client {
	return &Client{run: execRunner}
}

// Printers lists the available destinations and marks the system default.
func (c *Client) Printers(ctx context.Context) ([]Printer, error) {
	out, err := c.run(ctx, "lpstat", "-p", "-d")
	if err != nil {
		return nil, fmt.Errorf("%w: lpstat: %v", ErrQuery, err)
	}
	printers := parseLpstat(string(out))
	if len(printers) == 0 {
		return nil, ErrNoPrinters
	}
	return printers, nil
}

// Capabilities queries the option set of one printer.
func (c *Client) Capabilities(ctx context.Context, printer string) (Capabilities, error) {
	out, err := c.run(ctx, "lpoptions", "-p", printer, "-l")
	if err != nil {
		return Capabilities{}, fmt.Errorf("%w: lpoptions -p %s: %v", ErrQuery, printer, err)
	}
	return Capabilities{Options: parseLpoptions(string(out))}, nil
}

// Submit hands a spool file to lp.
func (c *Client) Submit(ctx context.Context, path string, s Settings) (Job, error) {
	args := []string{"-d", s.Printer}
	if s.Copies > 1 {
		args = append(args, "-n", fmt.Sprintf("%d", s.Copies))
	}
	if s.Media != "" {
		args = append(args, "-o", "media="+s.Media)
	}
	if s.FitToPage {
		args = append(args, "-o", "fit-to-page")
	}
	for name, value := range s.Extra {
		args = append(args, "-o", name+"="+value)
	}
	args = append(args, path)

	out, err := c.run(ctx, "lp", args...)
	if err != nil {
		return Job{}, fmt.Errorf("%w: lp: %v: %s", ErrSubmit, err, out)
	}
	id, ok := parseJobID(string(out))
	if !ok {
		return Job{}, fmt.Errorf("%w: unrecognized lp output: %q", ErrSubmit, string(out))
	}
	return Job{ID: id, Printer: s.Printer}, nil
}

// PrintImage encodes the composite to a temporary PNG and submits it.
// The file is removed once lp returns, on success and on failure.
func (c *Client) PrintImage(ctx context.Context, img *image.RGBA, s Settings) (Job, error) {
	f, err := os.CreateTemp("", "printlayout-*.png")
	if err != nil {
		return Job{}, fmt.Errorf("%w: spool file: %v", ErrSubmit, err)
	}
	path := f.Name()
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("printing: leaking spool file %s: %v", path, err)
		}
	}()

	if err := png.Encode(f, img); err != nil {
		f.Close()
		return Job{}, fmt.Errorf("%w: encode: %v", ErrSubmit, err)
	}
	if err := f.Close(); err != nil {
		return Job{}, fmt.Errorf("%w: %v", ErrSubmit, err)
	}
	if err := ctx.Err(); err != nil {
		return Job{}, err
	}
	return c.Submit(ctx, path, s)
}
