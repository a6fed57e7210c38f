// Package moderation masks blacklisted words in chat content before it is
// persisted and broadcast. Matching runs on a normalized view of the text
// (lowercased, leet speak folded, separators stripped) so trivial
// obfuscations like "b.a.d" or "b4d" still match.
package moderation

import (
	"bufio"
	"bytes"
	"embed"
	"io/fs"
	"strings"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

//go:embed words/*.txt
var wordFiles embed.FS

// Filter holds the Aho-Corasick automaton built from the word list.
// Safe for concurrent use once built.
type Filter struct {
	matcher     *goahocorasick.Machine
	maskingRune rune
}

// NewFilter builds the automaton from the given words, each normalized the
// same way inbound content is.
func NewFilter(words []string, maskingRune rune) (*Filter, error) {
	patterns := make([][]rune, len(words))
	for i, word := range words {
		patterns[i] = normalize([]rune(word)).folded
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &Filter{matcher: m, maskingRune: maskingRune}, nil
}

// NewEmbeddedFilter builds a filter from the word lists shipped with the
// binary, one .txt file per language.
func NewEmbeddedFilter(maskingRune rune) (*Filter, error) {
	words, err := loadEmbeddedWords()
	if err != nil {
		return nil, err
	}
	return NewFilter(words, maskingRune)
}

// Mask replaces every character of a matched span with the masking rune,
// preserving the original length and spacing of the text.
func (f *Filter) Mask(original string) string {
	view := normalize([]rune(original))
	if len(view.folded) == 0 {
		return original
	}

	spans := f.matcher.MultiPatternSearch(view.folded, false)
	if len(spans) == 0 {
		return original
	}

	masked := []rune(original)
	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(view.sourceIdx) {
			continue
		}
		// Map the span back to positions in the original text.
		for i := view.sourceIdx[start]; i <= view.sourceIdx[end-1]; i++ {
			masked[i] = f.maskingRune
		}
	}
	return string(masked)
}

// textView is a folded copy of the input plus, for each folded rune, the
// index of the rune it came from.
type textView struct {
	folded    []rune
	sourceIdx []int
}

func normalize(input []rune) textView {
	view := textView{
		folded:    make([]rune, 0, len(input)),
		sourceIdx: make([]int, 0, len(input)),
	}
	for i, r := range input {
		clean := foldLeet(r)
		if isSeparator(clean) {
			continue
		}
		view.folded = append(view.folded, unicode.ToLower(clean))
		view.sourceIdx = append(view.sourceIdx, i)
	}
	return view
}

// foldLeet maps common leet speak characters back to their alphabet
// counterparts.
func foldLeet(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

func isSeparator(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}

func loadEmbeddedWords() ([]string, error) {
	entries, err := fs.ReadDir(wordFiles, "words")
	if err != nil {
		return nil, err
	}

	unique := make(map[string]struct{})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := wordFiles.ReadFile("words/" + entry.Name())
		if err != nil {
			return nil, err
		}
		// Scanner handles both \n and \r\n line endings.
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			unique[line] = struct{}{}
		}
		if err = scanner.Err(); err != nil {
			return nil, err
		}
	}

	words := make([]string, 0, len(unique))
	for w := range unique {
		words = append(words, w)
	}
	return words, nil
}
