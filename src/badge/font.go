package badge

import (
	"fmt"
	"os"

	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// Metrics measures text and describes the font used for rendering.
type Metrics interface {
	TextWidth(s string) float64
	FontName() string
	FontSize() float64
	// FontData returns raw TTF/OTF bytes for SVG embedding, or nil when
	// the badge should rely on viewer-side fonts.
	FontData() []byte
}

// FontMetrics holds measured glyph widths and font data for SVG embedding.
type FontMetrics struct {
	name     string           // font family name
	size     float64          // point size
	data     []byte           // raw TTF/OTF bytes for base64 embedding
	advances map[rune]float64 // measured glyph advances (printable ASCII)
	fallback float64          // average width for unmapped runes
}

// TextWidth returns the pixel width of s using measured glyph advances.
func (m *FontMetrics) TextWidth(s string) float64 {
	var w float64
	for _, r := range s {
		if adv, ok := m.advances[r]; ok {
			w += adv
		} else {
			w += m.fallback
		}
	}
	return w
}

func (m *FontMetrics) FontData() []byte  { return m.data }
func (m *FontMetrics) FontName() string  { return m.name }
func (m *FontMetrics) FontSize() float64 { return m.size }

// LoadFontFile reads a TTF/OTF from disk and measures it at the given size.
func LoadFontFile(name, path string, size float64) (*FontMetrics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading font %s: %w", path, err)
	}
	return LoadFont(name, data, size)
}

// LoadFont parses raw TTF/OTF bytes and measures glyph advances at the
// given size.
func LoadFont(name string, data []byte, size float64) (*FontMetrics, error) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing font %s: %w", name, err)
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size: size,
		DPI:  72,
	})
	if err != nil {
		return nil, fmt.Errorf("creating face for %s: %w", name, err)
	}
	defer face.Close()

	advances := make(map[rune]float64, 95)
	var total float64
	var count int

	for r := rune(32); r <= 126; r++ {
		adv, ok := face.GlyphAdvance(r)
		if !ok {
			continue
		}
		w := float64(adv) / 64 // 26.6 fixed point
		advances[r] = w
		total += w
		count++
	}

	m := &FontMetrics{
		name:     name,
		size:     size,
		data:     data,
		advances: advances,
	}
	if count > 0 {
		m.fallback = total / float64(count)
	} else {
		m.fallback = size * 0.6
	}
	return m, nil
}

// ApproxMetrics estimates text width from an average glyph ratio. Used when
// no font file is configured: the badge then renders with the viewer's
// Verdana fallback, which these ratios approximate.
type ApproxMetrics struct {
	Name string
	Size float64
}

func (m ApproxMetrics) TextWidth(s string) float64 {
	var w float64
	for _, r := range s {
		switch {
		case r == 'i' || r == 'l' || r == 'j' || r == '.' || r == ' ':
			w += m.Size * 0.35
		case r >= 'A' && r <= 'Z':
			w += m.Size * 0.72
		case r >= '0' && r <= '9':
			w += m.Size * 0.64
		default:
			w += m.Size * 0.60
		}
	}
	return w
}

func (m ApproxMetrics) FontName() string {
	if m.Name != "" {
		return m.Name
	}
	return "Verdana"
}

func (m ApproxMetrics) FontSize() float64 { return m.Size }
func (m ApproxMetrics) FontData() []byte  { return nil }
