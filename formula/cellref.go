package formula

import (
	"strconv"
	"strings"
)

// parsedRef is a single A1-style reference component parsed out of
// identifier text, with its absolute/relative flags intact.
type parsedRef struct {
	row, col       int32
	rowAbs, colAbs bool
}

// parseCellRef recognizes "$A$1", "A1", "A$1", "$A1" and returns the
// zero-based row/column plus which axes were written with a leading
// "$" (absolute). ok is false for anything that isn't a bare cell
// reference (so the caller can fall back to treating it as a named
// expression).
func parseCellRef(text string) (parsedRef, bool) {
	i := 0
	colAbs := false
	if i < len(text) && text[i] == '$' {
		colAbs = true
		i++
	}
	letterStart := i
	for i < len(text) && isColLetter(text[i]) {
		i++
	}
	if i == letterStart {
		return parsedRef{}, false
	}
	letters := text[letterStart:i]

	rowAbs := false
	if i < len(text) && text[i] == '$' {
		rowAbs = true
		i++
	}
	digitStart := i
	for i < len(text) && text[i] >= '0' && text[i] <= '9' {
		i++
	}
	if i == digitStart || i != len(text) {
		return parsedRef{}, false
	}

	col := colFromLetters(letters)
	row, err := strconv.Atoi(text[digitStart:i])
	if err != nil || row < 1 {
		return parsedRef{}, false
	}
	return parsedRef{row: int32(row - 1), col: col, rowAbs: rowAbs, colAbs: colAbs}, true
}

func isColLetter(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

// colFromLetters converts a base-26 column label ("A" -> 0, "Z" -> 25,
// "AA" -> 26) into a zero-based column index.
func colFromLetters(letters string) int32 {
	letters = strings.ToUpper(letters)
	var col int32
	for i := 0; i < len(letters); i++ {
		col = col*26 + int32(letters[i]-'A'+1)
	}
	return col - 1
}

// lettersFromCol is colFromLetters' inverse, used when rendering a
// token stream back to source text.
func lettersFromCol(col int32) string {
	col++
	var b []byte
	for col > 0 {
		col--
		b = append([]byte{byte('A' + col%26)}, b...)
		col /= 26
	}
	return string(b)
}
