package index

import (
	"iter"
	"slices"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/vocab"
)

// MemoryIndex is the inverted index together with the document store and
// the ordered set of live ids. It carries no lock of its own: readers may
// run concurrently, but every mutation must be serialised against them by
// the caller. RemovePosting is the one exception, see its comment.
type MemoryIndex struct {
	postings map[vocab.WordRef]Postings
	docs     map[int]*DocumentData
	ids      []int
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		postings: make(map[vocab.WordRef]Postings),
		docs:     make(map[int]*DocumentData),
	}
}

// AddDocument stores a document whose non-stop words, in order and with
// repeats, are words. Each occurrence adds 1/len(words) to the word's term
// frequency. A document without words is stored with no postings.
func (m *MemoryIndex) AddDocument(id int, words []vocab.WordRef, status Status, rating int) {
	doc := &DocumentData{
		Rating: rating,
		Status: status,
		Words:  make(map[vocab.WordRef]float64),
	}
	if len(words) > 0 {
		inv := 1.0 / float64(len(words))
		for _, ref := range words {
			p, exists := m.postings[ref]
			if !exists {
				p = make(Postings)
				m.postings[ref] = p
			}
			p[id] += inv
			doc.Words[ref] += inv
		}
	}
	m.docs[id] = doc
	pos, _ := slices.BinarySearch(m.ids, id)
	m.ids = slices.Insert(m.ids, pos, id)
}

func (m *MemoryIndex) Has(id int) bool {
	_, ok := m.docs[id]
	return ok
}

// Document returns the store entry for id. The Words map is shared and
// must not be modified.
func (m *MemoryIndex) Document(id int) (DocumentData, bool) {
	doc, ok := m.docs[id]
	if !ok {
		return DocumentData{}, false
	}
	return *doc, true
}

// Postings returns the documents containing ref, or nil.
func (m *MemoryIndex) Postings(ref vocab.WordRef) Postings {
	return m.postings[ref]
}

// Contains reports whether document id contains ref.
func (m *MemoryIndex) Contains(ref vocab.WordRef, id int) bool {
	doc, ok := m.docs[id]
	if !ok {
		return false
	}
	_, ok = doc.Words[ref]
	return ok
}

func (m *MemoryIndex) DocCount() int {
	return len(m.docs)
}

// Terms is the number of words with at least one posting.
func (m *MemoryIndex) Terms() int {
	return len(m.postings)
}

// IDs yields live document ids in ascending order.
func (m *MemoryIndex) IDs() iter.Seq[int] {
	return slices.Values(m.ids)
}

// RemovePosting deletes the (ref, id) posting. Calls for distinct refs may
// run concurrently with each other, provided nothing else mutates the index
// meanwhile: each call writes only the postings map of its own word.
func (m *MemoryIndex) RemovePosting(ref vocab.WordRef, id int) {
	if p := m.postings[ref]; p != nil {
		delete(p, id)
	}
}

// DropDocument removes id from the document store and the id set, and
// prunes words left without postings. Postings must already be removed.
func (m *MemoryIndex) DropDocument(id int) {
	doc, ok := m.docs[id]
	if !ok {
		return
	}
	for ref := range doc.Words {
		if len(m.postings[ref]) == 0 {
			delete(m.postings, ref)
		}
	}
	delete(m.docs, id)
	if pos, found := slices.BinarySearch(m.ids, id); found {
		m.ids = slices.Delete(m.ids, pos, pos+1)
	}
}

// RemoveDocument removes every trace of id. It reports whether id was live.
func (m *MemoryIndex) RemoveDocument(id int) bool {
	doc, ok := m.docs[id]
	if !ok {
		return false
	}
	for ref := range doc.Words {
		m.RemovePosting(ref, id)
	}
	m.DropDocument(id)
	return true
}
