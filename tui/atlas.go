package tui

import "github.com/chazu/semigrafx/vm"

// The tile atlas is the 16x16 code page 437 sheet: glyph code c sits at
// column c%16, row c/16. Codes outside the sheet have no glyph.
const (
	atlasRows = 16
	noGlyph   = '?'
)

const (
	cp437Low  = " ☺☻♥♦♣♠•◘○◙♂♀♪♫☼►◄↕‼¶§▬↨↑↓→←∟↔▲▼"
	cp437Del  = '⌂'
	cp437High = "ÇüéâäàåçêëèïîìÄÅÉæÆôöòûùÿÖÜ¢£¥₧ƒáíóúñÑªº¿⌐¬½¼¡«»" +
		"░▒▓│┤╡╢╖╕╣║╗╝╜╛┐└┴┬├─┼╞╟╚╔╩╦╠═╬╧╨╤╥╙╘╒╓╫╪┘┌█▄▌▐▀" +
		"αßΓπΣσµτΦΘΩδ∞φε∩≡±≥≤⌠⌡÷≈°∙·√ⁿ²■ "
)

var cp437 [vm.AtlasColumns * atlasRows]rune

func init() {
	low := []rune(cp437Low)
	high := []rune(cp437High)
	copy(cp437[:32], low)
	for c := 32; c < 127; c++ {
		cp437[c] = rune(c)
	}
	cp437[127] = cp437Del
	copy(cp437[128:], high)
}

// Glyph returns the rune drawn for an atlas position.
func Glyph(at vm.Atlas) rune {
	if at.Col < 0 || at.Col >= vm.AtlasColumns || at.Row < 0 || at.Row >= atlasRows {
		return noGlyph
	}
	return cp437[at.Row*vm.AtlasColumns+at.Col]
}
