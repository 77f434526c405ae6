// Package paper provides physical paper size and media definitions.
package paper

// Size identifies a paper size. Dimensions are defined in millimeters;
// SizeCustom carries explicit dimensions supplied by the caller.
type Size int

const (
	// ISO 216 A-series
	SizeA0 Size = iota
	SizeA1
	SizeA2
	SizeA3
	SizeA4
	SizeA5
	SizeA6
	SizeA7
	SizeA8
	SizeA9
	SizeA10
	// ISO 216 B-series
	SizeB0
	SizeB1
	SizeB2
	SizeB3
	SizeB4
	SizeB5
	SizeB6
	SizeB7
	SizeB8
	SizeB9
	SizeB10
	// North American
	SizeLetter
	SizeLegal
	SizeTabloid
	SizeLedger
	// Named photo sizes
	SizePhoto4x6
	SizePhoto5x7
	SizePhoto8x10
	SizePhoto11x17
	SizePhoto13x19
	// Caller-supplied dimensions
	SizeCustom
)

// dimension holds a portrait width/height pair in millimeters.
type dimension struct {
	widthMM  float64
	heightMM float64
}

var sizeTable = map[Size]dimension{
	SizeA0:  {841, 1189},
	SizeA1:  {594, 841},
	SizeA2:  {420, 594},
	SizeA3:  {297, 420},
	SizeA4:  {210, 297},
	SizeA5:  {148, 210},
	SizeA6:  {105, 148},
	SizeA7:  {74, 105},
	SizeA8:  {52, 74},
	SizeA9:  {37, 52},
	SizeA10: {26, 37},
	SizeB0:  {1000, 1414},
	SizeB1:  {707, 1000},
	SizeB2:  {500, 707},
	SizeB3:  {353, 500},
	SizeB4:  {250, 353},
	SizeB5:  {176, 250},
	SizeB6:  {125, 176},
	SizeB7:  {88, 125},
	SizeB8:  {62, 88},
	SizeB9:  {44, 62},
	SizeB10: {31, 44},
	// North American sizes in exact inch conversions.
	SizeLetter:  {215.9, 279.4}, // 8.5 x 11 in
	SizeLegal:   {215.9, 355.6}, // 8.5 x 14 in
	SizeTabloid: {279.4, 431.8}, // 11 x 17 in
	SizeLedger:  {431.8, 279.4}, // 17 x 11 in
	SizePhoto4x6:   {101.6, 152.4},
	SizePhoto5x7:   {127.0, 177.8},
	SizePhoto8x10:  {203.2, 254.0},
	SizePhoto11x17: {279.4, 431.8},
	SizePhoto13x19: {330.2, 482.6},
}

var sizeNames = map[Size]string{
	SizeA0: "A0", SizeA1: "A1", SizeA2: "A2", SizeA3: "A3", SizeA4: "A4",
	SizeA5: "A5", SizeA6: "A6", SizeA7: "A7", SizeA8: "A8", SizeA9: "A9",
	SizeA10: "A10",
	SizeB0: "B0", SizeB1: "B1", SizeB2: "B2", SizeB3: "B3", SizeB4: "B4",
	SizeB5: "B5", SizeB6: "B6", SizeB7: "B7", SizeB8: "B8", SizeB9: "B9",
	SizeB10: "B10",
	SizeLetter: "Letter", SizeLegal: "Legal", SizeTabloid: "Tabloid",
	SizeLedger: "Ledger",
	SizePhoto4x6: "Photo 4x6", SizePhoto5x7: "Photo 5x7",
	SizePhoto8x10: "Photo 8x10", SizePhoto11x17: "Photo 11x17",
	SizePhoto13x19: "Photo 13x19",
	SizeCustom: "Custom",
}

func (s Size) String() string {
	if name, ok := sizeNames[s]; ok {
		return name
	}
	return "Unknown"
}

// Dimensions returns the portrait width and height in millimeters.
// SizeCustom has no fixed dimensions and returns ok=false; callers carry
// explicit dimensions for it.
func (s Size) Dimensions() (widthMM, heightMM float64, ok bool) {
	d, found := sizeTable[s]
	if !found {
		return 0, 0, false
	}
	return d.widthMM, d.heightMM, true
}

// StandardSizes lists every fixed size in display order.
func StandardSizes() []Size {
	sizes := make([]Size, 0, len(sizeTable))
	for s := SizeA0; s < SizeCustom; s++ {
		sizes = append(sizes, s)
	}
	return sizes
}

// Type identifies the physical print medium.
type Type int

const (
	TypePlain Type = iota
	TypeMattePhoto
	TypeGlossPhoto
	TypePhotoPaper
	TypeSatin
	TypeCanvas
	TypeRicePaper
	TypeCardstock
	TypeTransparency
)

func (t Type) String() string {
	switch t {
	case TypePlain:
		return "Plain Paper"
	case TypeMattePhoto:
		return "Matte Photo"
	case TypeGlossPhoto:
		return "Gloss Photo"
	case TypePhotoPaper:
		return "Photo Paper"
	case TypeSatin:
		return "Satin"
	case TypeCanvas:
		return "Canvas"
	case TypeRicePaper:
		return "Rice Paper"
	case TypeCardstock:
		return "Cardstock"
	case TypeTransparency:
		return "Transparency"
	default:
		return "Unknown"
	}
}

// Orientation describes the page orientation.
type Orientation int

const (
	Portrait Orientation = iota
	Landscape
)

func (o Orientation) String() string {
	if o == Landscape {
		return "Landscape"
	}
	return "Portrait"
}

// Oriented returns width and height arranged for the orientation: portrait
// keeps the shorter side as width, landscape the longer. Applying it twice
// with the same orientation yields the same result.
func (o Orientation) Oriented(widthMM, heightMM float64) (float64, float64) {
	switch o {
	case Landscape:
		if widthMM < heightMM {
			return heightMM, widthMM
		}
	default:
		if widthMM > heightMM {
			return heightMM, widthMM
		}
	}
	return widthMM, heightMM
}
