// Package chunker splits long text into pieces small enough for a single
// translation call.
package chunker

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxLength is the default maximum chunk length in runes.
// The free translation services reject or truncate much longer queries.
const DefaultMaxLength = 400

// Separator joins translated chunks back together.
const Separator = "\n"

const (
	sentenceDelim = ". "
	wordDelim     = " "
)

// Length returns the length of text in runes.
func Length(text string) int {
	return utf8.RuneCountInString(text)
}

// Split splits text into chunks of at most maxLength runes.
//
// Text that already fits is returned unchanged as the only chunk. Otherwise
// paragraphs are packed greedily; a paragraph that is too long on its own is
// packed sentence by sentence, and a sentence that is still too long word by
// word. A single word longer than maxLength becomes its own chunk.
func Split(text string, maxLength int) []string {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	if Length(text) <= maxLength {
		return []string{text}
	}

	p := &packer{max: maxLength}
	for _, paragraph := range strings.Split(text, "\n") {
		if Length(paragraph) <= maxLength {
			p.add(paragraph, "\n")
			continue
		}

		// Oversized paragraph: start fresh and pack its sentences
		p.flush()
		for _, sentence := range strings.SplitAfter(paragraph, sentenceDelim) {
			if Length(sentence) <= maxLength {
				p.add(sentence, "")
				continue
			}

			p.flush()
			for _, word := range strings.SplitAfter(sentence, wordDelim) {
				if Length(word) > maxLength {
					// Unsplittable: gets its own chunk
					p.flush()
					p.emit(word)
					continue
				}
				p.add(word, "")
			}
			p.flush()
		}
		p.flush()
	}
	p.flush()

	return p.chunks
}

// Join rejoins chunks in order with Separator.
func Join(chunks []string) string {
	return strings.Join(chunks, Separator)
}

// packer accumulates pieces into a running chunk.
type packer struct {
	max     int
	current strings.Builder
	size    int
	chunks  []string
}

// add appends piece to the running chunk, closing it first when the piece
// would overflow. sep is placed between the running chunk and piece.
func (p *packer) add(piece, sep string) {
	if p.current.Len() > 0 {
		if p.size+Length(sep)+Length(piece) > p.max {
			p.flush()
		} else {
			p.current.WriteString(sep)
			p.size += Length(sep)
		}
	}
	p.current.WriteString(piece)
	p.size += Length(piece)
}

// flush closes the running chunk, if any.
func (p *packer) flush() {
	if p.current.Len() > 0 {
		p.emit(p.current.String())
	}
	p.current.Reset()
	p.size = 0
}

// emit appends a trimmed chunk, dropping empty ones.
func (p *packer) emit(chunk string) {
	chunk = strings.TrimSpace(chunk)
	if chunk != "" {
		p.chunks = append(p.chunks, chunk)
	}
}
