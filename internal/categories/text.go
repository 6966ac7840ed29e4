package categories

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// ErrNonASCII is returned in strict mode when a label keeps non-ASCII runes
var ErrNonASCII = errors.New("non-ASCII text remaining")

const nbsp = '\u00a0'

// punctuation maps typographic marks found on the dictionary pages to ASCII
var punctuation = map[rune]rune{
	'\u2013': '-',  // en dash
	'\u2014': '-',  // em dash
	'\u2018': '\'', // left single quotation mark
	'\u2019': '\'', // right single quotation mark
	'\u201c': '"',
	'\u201d': '"',
}

var punctuationMapper = runes.Map(func(r rune) rune {
	if ascii, ok := punctuation[r]; ok {
		return ascii
	}
	return r
})

// NormalizeText replaces known non-ASCII punctuation with ASCII equivalents.
// A no-break space becomes a plain space unless it sits next to another
// space, in which case it is dropped.
func NormalizeText(s string) string {
	mapped, _, err := transform.String(punctuationMapper, s)
	if err != nil {
		mapped = s
	}
	if !strings.ContainsRune(mapped, nbsp) {
		return mapped
	}
	return replaceNBSP(mapped)
}

func replaceNBSP(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	rs := []rune(s)
	var last rune
	for i, r := range rs {
		if r == nbsp {
			nextSpace := i+1 < len(rs) && rs[i+1] == ' '
			if last == ' ' || nextSpace {
				continue
			}
			r = ' '
		}
		b.WriteRune(r)
		last = r
	}
	return b.String()
}

// CheckASCII fails with ErrNonASCII if s holds any non-ASCII rune
func CheckASCII(s string) error {
	for i, r := range s {
		if r >= utf8.RuneSelf {
			return fmt.Errorf("%w: %q at byte %d in %q", ErrNonASCII, r, i, s)
		}
	}
	return nil
}
