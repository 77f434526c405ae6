package scene

import (
	"math"
	"testing"

	"printlayout/internal/paper"
)

func TestPrintableAreaA4(t *testing.T) {
	p := NewPage(paper.SizeA4)
	if err := p.SetMargins(10, 10, 10, 10); err != nil {
		t.Fatalf("SetMargins: %v", err)
	}
	area := p.PrintableArea()
	if math.Abs(area.Width-190) > 1e-9 || math.Abs(area.Height-277) > 1e-9 {
		t.Errorf("printable area = %vx%v, want 190x277", area.Width, area.Height)
	}
	if area.X != 10 || area.Y != 10 {
		t.Errorf("printable origin = (%v,%v), want (10,10)", area.X, area.Y)
	}
}

func TestSetMarginsRejectsInvalid(t *testing.T) {
	tests := []struct {
		name                     string
		top, bottom, left, right float64
	}{
		{"negative", -1, 0, 0, 0},
		{"vertical overflow", 150, 150, 0, 0},
		{"horizontal overflow", 0, 0, 105, 105},
	}
	for _, tt := range tests {
		p := NewPage(paper.SizeA4)
		before := *p
		if err := p.SetMargins(tt.top, tt.bottom, tt.left, tt.right); err != ErrInvalidMargins {
			t.Errorf("%s: err = %v, want ErrInvalidMargins", tt.name, err)
		}
		if *p != before {
			t.Errorf("%s: page mutated on rejected margins", tt.name)
		}
	}
}

func TestPrintableAreaPositiveForValidMargins(t *testing.T) {
	p := NewPage(paper.SizeA4)
	margins := [][4]float64{
		{0, 0, 0, 0},
		{25.4, 25.4, 25.4, 25.4},
		{148, 148, 104, 104},
	}
	for _, m := range margins {
		if err := p.SetMargins(m[0], m[1], m[2], m[3]); err != nil {
			t.Fatalf("SetMargins(%v): %v", m, err)
		}
		area := p.PrintableArea()
		if area.Width <= 0 || area.Height <= 0 {
			t.Errorf("margins %v: printable area not positive: %vx%v", m, area.Width, area.Height)
		}
	}
}

func TestBorderlessToggleRestoresMargins(t *testing.T) {
	p := NewPage(paper.SizeA4)
	if err := p.SetMargins(10, 10, 10, 10); err != nil {
		t.Fatal(err)
	}

	p.ToggleBorderless()
	if !p.Borderless {
		t.Fatal("borderless not enabled")
	}
	if p.MarginTopMM != 0 || p.MarginBottomMM != 0 || p.MarginLeftMM != 0 || p.MarginRightMM != 0 {
		t.Error("borderless did not zero margins")
	}

	p.ToggleBorderless()
	if p.Borderless {
		t.Fatal("borderless not disabled")
	}
	got := [4]float64{p.MarginTopMM, p.MarginBottomMM, p.MarginLeftMM, p.MarginRightMM}
	if got != [4]float64{10, 10, 10, 10} {
		t.Errorf("restored margins = %v, want (10,10,10,10)", got)
	}
}

func TestOrientationSwapIsIdempotent(t *testing.T) {
	p := NewPage(paper.SizeA4)
	p.SetOrientation(paper.Landscape)
	if p.WidthMM != 297 || p.HeightMM != 210 {
		t.Fatalf("landscape A4 = %vx%v, want 297x210", p.WidthMM, p.HeightMM)
	}
	p.SetOrientation(paper.Landscape)
	if p.WidthMM != 297 || p.HeightMM != 210 {
		t.Errorf("second landscape swap changed page to %vx%v", p.WidthMM, p.HeightMM)
	}
	p.SetOrientation(paper.Portrait)
	if p.WidthMM != 210 || p.HeightMM != 297 {
		t.Errorf("portrait restore = %vx%v, want 210x297", p.WidthMM, p.HeightMM)
	}
}

func TestSetPaperSizeKeepsOrientation(t *testing.T) {
	p := NewPage(paper.SizeA4)
	p.SetOrientation(paper.Landscape)
	p.SetPaperSize(paper.SizeLetter)
	if p.WidthMM != 279.4 || p.HeightMM != 215.9 {
		t.Errorf("landscape Letter = %vx%v, want 279.4x215.9", p.WidthMM, p.HeightMM)
	}
}
