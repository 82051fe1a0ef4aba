// Package vocab is the canonical word store. Every distinct word is stored
// once and referred to by a WordRef handle, so the inverted index and the
// per-document maps key on small integers instead of repeated strings.
package vocab

import "strings"

// WordRef identifies an interned word. It stays valid for the lifetime of
// the Vocabulary that issued it.
type WordRef uint32

// Vocabulary is not safe for concurrent mutation. Concurrent Lookup and Word
// calls are safe while no Intern is in progress.
type Vocabulary struct {
	refs  map[string]WordRef
	words []string
}

func New() *Vocabulary {
	return &Vocabulary{
		refs: make(map[string]WordRef),
	}
}

// Intern returns the existing ref for word or stores a private copy of it
// and returns a new ref.
func (v *Vocabulary) Intern(word string) WordRef {
	if ref, ok := v.refs[word]; ok {
		return ref
	}
	owned := strings.Clone(word)
	ref := WordRef(len(v.words))
	v.words = append(v.words, owned)
	v.refs[owned] = ref
	return ref
}

// Lookup returns the ref for word without interning it.
func (v *Vocabulary) Lookup(word string) (WordRef, bool) {
	ref, ok := v.refs[word]
	return ref, ok
}

// Word returns the canonical text for ref. It panics on a ref this
// vocabulary never issued.
func (v *Vocabulary) Word(ref WordRef) string {
	return v.words[ref]
}

func (v *Vocabulary) Len() int {
	return len(v.words)
}
