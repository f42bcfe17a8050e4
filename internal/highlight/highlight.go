// Package highlight renders commands and sandbox verdicts for the terminal
// via Chroma and Lip Gloss.
package highlight

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// DefaultTheme is used when no theme is given.
const DefaultTheme = "monokai"

// Command returns an ANSI-highlighted version of a shell command using the
// given Chroma theme. On any lexer or formatter failure cmd is returned as is.
func Command(cmd, theme string) string {
	lex := lexers.Get("bash")
	if lex == nil {
		return cmd
	}
	lex = chroma.Coalesce(lex)
	sty := styles.Get(themeOrDefault(theme))
	fmtr := formatters.Get("terminal16m")
	if fmtr == nil {
		fmtr = formatters.Fallback
	}
	it, err := lex.Tokenise(nil, cmd)
	if err != nil {
		return cmd
	}
	var buf strings.Builder
	if err := fmtr.Format(&buf, sty, it); err != nil {
		return cmd
	}
	return strings.TrimRight(buf.String(), "\n")
}

func themeOrDefault(theme string) string {
	if theme == "" {
		return DefaultTheme
	}
	return theme
}

// Palette holds verdict colors derived deterministically from a Chroma theme.
// Dim is interpolated from bg to fg; the accent is the most saturated token
// color; error comes from the Error token.
type Palette struct {
	Bg     string
	Fg     string
	Dim    string // 45% bg→fg
	Accent string
	Error  string
}

// ThemePalette derives a palette from a Chroma theme name, falling back to
// fixed defaults for unknown themes.
func ThemePalette(theme string) Palette {
	sty := styles.Get(themeOrDefault(theme))
	if sty == nil {
		return defaultPalette()
	}
	entry := sty.Get(chroma.Background)
	bg := "#000000"
	fg := "#c8c8c8"
	if entry.Background.IsSet() {
		bg = entry.Background.String()
	}
	if entry.Colour.IsSet() {
		fg = entry.Colour.String()
	}

	return Palette{
		Bg:     bg,
		Fg:     fg,
		Dim:    lerpHex(bg, fg, 0.45),
		Accent: pickAccent(sty, fg),
		Error:  pickError(sty, fg),
	}
}

func defaultPalette() Palette {
	return Palette{
		Bg: "#000000", Fg: "#c8c8c8",
		Dim:    "#5a5a5a",
		Accent: "#00dfff", Error: "#ff5f5f",
	}
}

// pickAccent returns the most saturated foreground color across all tokens.
func pickAccent(sty *chroma.Style, fallback string) string {
	best := fallback
	bestSat := 0.0
	for tt := chroma.TokenType(0); tt < 2000; tt++ {
		e := sty.Get(tt)
		if !e.Colour.IsSet() {
			continue
		}
		hex := e.Colour.String()
		r, g, b := hexToRGBf(hex)
		mx := max(r, g, b)
		mn := min(r, g, b)
		if mx == 0 {
			continue
		}
		if sat := (mx - mn) / mx; sat > bestSat {
			bestSat = sat
			best = hex
		}
	}
	return best
}

// pickError returns the Error token color, or a fixed red when the theme
// leaves it unset. A block has to stand out.
func pickError(sty *chroma.Style, fg string) string {
	e := sty.Get(chroma.Error)
	if !e.Colour.IsSet() || e.Colour.String() == fg {
		return "#ff5f5f"
	}
	return e.Colour.String()
}

// lerpHex linearly interpolates between two hex colors at fraction t.
func lerpHex(a, b string, t float64) string {
	ar, ag, ab := hexToRGBf(a)
	br, bg, bb := hexToRGBf(b)
	return fmt.Sprintf("#%02x%02x%02x",
		clampByte(ar+(br-ar)*t),
		clampByte(ag+(bg-ag)*t),
		clampByte(ab+(bb-ab)*t),
	)
}

func hexToRGBf(hex string) (float64, float64, float64) {
	if len(hex) != 7 || hex[0] != '#' {
		return 0, 0, 0
	}
	return float64(hexByte(hex[1], hex[2])),
		float64(hexByte(hex[3], hex[4])),
		float64(hexByte(hex[5], hex[6]))
}

func hexByte(hi, lo byte) int {
	return hexNibble(hi)<<4 | hexNibble(lo)
}

func hexNibble(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return 0
}

func clampByte(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return int(v + 0.5)
}
