package recognizer

import (
	"bufio"
	"os"
	"strings"

	"github.com/fakturo/glyph/internal/ocrerr"
)

// Dictionary maps CTC class indices to characters. Index 0 is reserved for
// the blank token.
type Dictionary []rune

// LoadDictionary reads a one-character-per-line dictionary file. The blank
// token is prepended automatically, so line 1 of the file becomes class 1.
// Blank lines map to U+FFFD rather than being skipped, keeping every class
// index aligned with its file position.
func LoadDictionary(path string) (Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ocrerr.Wrap(ocrerr.KindModelLoad, err, "loading dictionary %s", path)
	}
	defer f.Close()

	dict := Dictionary{' '} // CTC blank
	scanner := bufio.NewScanner(f)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
			first = false
		}
		// A blank line still occupies a class index; map it to the
		// replacement character so later indices stay aligned with the
		// model's output classes.
		r := '\ufffd'
		for _, c := range line {
			r = c
			break
		}
		dict = append(dict, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, ocrerr.Wrap(ocrerr.KindModelLoad, err, "reading dictionary %s", path)
	}
	return dict, nil
}

// DefaultLatinDictionary returns the built-in character set covering digits,
// ASCII letters, Polish diacritics, punctuation, and currency glyphs.
func DefaultLatinDictionary() Dictionary {
	dict := Dictionary{' '} // CTC blank

	for c := '0'; c <= '9'; c++ {
		dict = append(dict, c)
	}
	for c := 'A'; c <= 'Z'; c++ {
		dict = append(dict, c)
	}
	for c := 'a'; c <= 'z'; c++ {
		dict = append(dict, c)
	}

	dict = append(dict, []rune("ĄąĆćĘęŁłŃńÓóŚśŹźŻż")...)
	dict = append(dict, []rune(`.,;:!?-_/\()[]{}<>@#$%^&*+=|~`+"`"+`'" `)...)
	dict = append(dict, []rune("€£¥§©®°²³½¼¾")...)

	return dict
}
