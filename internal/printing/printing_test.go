package printing

import (
	"context"
	"errors"
	"image"
	"os"
	"strings"
	"testing"
)

const lpstatFixture = `printer Brother_HL_L2350DW is idle.  enabled since Mon 11 Aug 2025 09:12:03 AM
printer Deskjet_3630 now printing Deskjet_3630-42.  enabled since Mon 11 Aug 2025 10:01:55 AM
printer Old_Laser disabled since Tue 07 Jan 2025 02:15:00 PM -
	Paused
system default destination: Brother_HL_L2350DW
`

const lpoptionsFixture = `PageSize/Media Size: Custom.WIDTHxHEIGHT Letter Legal Executive *A4 A5 B5
Resolution/Print Quality: 300dpi *600dpi 1200x600dpi
Duplex/Two-Sided Printing: *None DuplexNoTumble DuplexTumble
MediaType/Media Type: *Plain Thin Thick
`

func TestParseLpstat(t *testing.T) {
	printers := parseLpstat(lpstatFixture)
	if len(printers) != 3 {
		t.Fatalf("got %d printers, want 3", len(printers))
	}

	want := []struct {
		name      string
		state     State
		isDefault bool
	}{
		{"Brother_HL_L2350DW", StateIdle, true},
		{"Deskjet_3630", StatePrinting, false},
		{"Old_Laser", StateStopped, false},
	}
	for i, w := range want {
		p := printers[i]
		if p.Name != w.name || p.State != w.state || p.IsDefault != w.isDefault {
			t.Errorf("printer %d = %+v, want %+v", i, p, w)
		}
	}
}

func TestParseLpstatEmpty(t *testing.T) {
	if got := parseLpstat("lpstat: No destinations added.\n"); len(got) != 0 {
		t.Errorf("got %d printers from empty output", len(got))
	}
}

func TestParseLpoptions(t *testing.T) {
	opts := parseLpoptions(lpoptionsFixture)
	if len(opts) != 4 {
		t.Fatalf("got %d options, want 4", len(opts))
	}

	page := opts[0]
	if page.Keyword != "PageSize" || page.Label != "Media Size" {
		t.Errorf("head = %q/%q", page.Keyword, page.Label)
	}
	if page.Default != "A4" {
		t.Errorf("default = %q, want A4", page.Default)
	}
	if len(page.Choices) != 7 || page.Choices[1] != "Letter" {
		t.Errorf("choices = %v", page.Choices)
	}

	if d := opts[2]; d.Default != "None" {
		t.Errorf("duplex default = %q, want None", d.Default)
	}
}

func TestParseJobID(t *testing.T) {
	id, ok := parseJobID("request id is Brother_HL_L2350DW-127 (1 file(s))\n")
	if !ok || id != "Brother_HL_L2350DW-127" {
		t.Errorf("got %q ok=%v", id, ok)
	}
	if _, ok := parseJobID("lp: Error - no default destination available.\n"); ok {
		t.Error("matched an error message")
	}
}

// fakeRunner records invocations and replays canned output keyed by
// command name.
type fakeRunner struct {
	calls  [][]string
	output map[string][]byte
	errs   map[string]error
}

func (f *fakeRunner) run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	return f.output[name], f.errs[name]
}

func TestPrintersDiscovery(t *testing.T) {
	fake := &fakeRunner{output: map[string][]byte{"lpstat": []byte(lpstatFixture)}}
	c := &Client{run: fake.run}

	printers, err := c.Printers(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(printers) != 3 || !printers[0].IsDefault {
		t.Errorf("printers = %+v", printers)
	}
	if got := fake.calls[0]; strings.Join(got, " ") != "lpstat -p -d" {
		t.Errorf("command = %v", got)
	}
}

func TestPrintersNoneFound(t *testing.T) {
	fake := &fakeRunner{output: map[string][]byte{"lpstat": []byte("lpstat: No destinations added.\n")}}
	c := &Client{run: fake.run}

	if _, err := c.Printers(context.Background()); !errors.Is(err, ErrNoPrinters) {
		t.Errorf("err = %v, want ErrNoPrinters", err)
	}
}

func TestPrintersQueryError(t *testing.T) {
	fake := &fakeRunner{errs: map[string]error{"lpstat": errors.New("exec: not found")}}
	c := &Client{run: fake.run}

	if _, err := c.Printers(context.Background()); !errors.Is(err, ErrQuery) {
		t.Errorf("err = %v, want ErrQuery", err)
	}
}

func TestSubmitBuildsLpArguments(t *testing.T) {
	fake := &fakeRunner{output: map[string][]byte{"lp": []byte("request id is P-9 (1 file(s))\n")}}
	c := &Client{run: fake.run}

	job, err := c.Submit(context.Background(), "/tmp/out.png", Settings{
		Printer:   "P",
		Media:     "A4",
		Copies:    3,
		FitToPage: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if job.ID != "P-9" || job.Printer != "P" {
		t.Errorf("job = %+v", job)
	}

	got := strings.Join(fake.calls[0], " ")
	for _, want := range []string{"lp ", "-d P", "-n 3", "-o media=A4", "-o fit-to-page", "/tmp/out.png"} {
		if !strings.Contains(got, want) {
			t.Errorf("command %q missing %q", got, want)
		}
	}
}

func TestSubmitFailure(t *testing.T) {
	fake := &fakeRunner{
		output: map[string][]byte{"lp": []byte("lp: Error - unknown destination\n")},
		errs:   map[string]error{"lp": errors.New("exit status 1")},
	}
	c := &Client{run: fake.run}

	if _, err := c.Submit(context.Background(), "/tmp/out.png", Settings{Printer: "nope"}); !errors.Is(err, ErrSubmit) {
		t.Errorf("err = %v, want ErrSubmit", err)
	}
}

func TestPrintImageSpoolsAndCleansUp(t *testing.T) {
	fake := &fakeRunner{output: map[string][]byte{"lp": []byte("request id is P-1 (1 file(s))\n")}}
	c := &Client{run: fake.run}

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	job, err := c.PrintImage(context.Background(), img, Settings{Printer: "P"})
	if err != nil {
		t.Fatal(err)
	}
	if job.ID != "P-1" {
		t.Errorf("job = %+v", job)
	}

	// The last lp argument is the spool path; it must be gone.
	call := fake.calls[0]
	path := call[len(call)-1]
	if !strings.Contains(path, "printlayout-") {
		t.Errorf("spool path = %q", path)
	}
	if _, err := os.Stat(path); err == nil {
		t.Errorf("spool file %s still exists", path)
	}
}

func TestPrintImageCancelledBeforeSubmit(t *testing.T) {
	fake := &fakeRunner{}
	c := &Client{run: fake.run}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	if _, err := c.PrintImage(ctx, img, Settings{Printer: "P"}); err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if len(fake.calls) != 0 {
		t.Errorf("lp ran despite cancellation: %v", fake.calls)
	}
}
