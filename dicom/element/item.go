package element

import (
	"fmt"

	"github.com/codeninja55/go-dicom/dicom/pixel"
	"github.com/codeninja55/go-dicom/dicom/tag"
)

// Item is an ordered, duplicate-free collection of Elements.
//
// Both a top-level dataset and a Sequence's items share this exact shape:
// DICOM has no distinction between "the elements of a file" and "the
// elements of a sequence item" other than where they sit in the stream.
// Keeping the container here (rather than in the root dicom package) lets
// a Sequence value hold nested Items without an import cycle back to the
// package that owns the top-level dataset.
type Item struct {
	order    []tag.Tag
	elements map[tag.Tag]*Element

	// UndefinedLength records whether this item was delimited by
	// (FFFE,E00D) on the wire rather than carrying an explicit length.
	// Pure bookkeeping: it does not affect equality or lookup.
	UndefinedLength bool
}

// NewItem creates an empty, insertion-ordered Item.
func NewItem() *Item {
	return &Item{elements: make(map[tag.Tag]*Element)}
}

// Add appends an element to the item.
//
// Returns an error if elem is nil or if an element with the same tag is
// already present: DICOM data sets never contain a tag twice.
func (it *Item) Add(elem *Element) error {
	if elem == nil {
		return fmt.Errorf("cannot add nil element")
	}
	if _, exists := it.elements[elem.Tag()]; exists {
		return fmt.Errorf("duplicate tag %s", elem.Tag())
	}
	it.elements[elem.Tag()] = elem
	it.order = append(it.order, elem.Tag())
	return nil
}

// Get retrieves an element by tag.
func (it *Item) Get(t tag.Tag) (*Element, bool) {
	e, ok := it.elements[t]
	return e, ok
}

// Len returns the number of elements in the item.
func (it *Item) Len() int {
	return len(it.order)
}

// Elements returns the elements in insertion order. The returned slice is
// a copy; mutating it does not affect the item.
func (it *Item) Elements() []*Element {
	out := make([]*Element, len(it.order))
	for i, t := range it.order {
		out[i] = it.elements[t]
	}
	return out
}

// Tags returns the tags present, in insertion order.
func (it *Item) Tags() []tag.Tag {
	out := make([]tag.Tag, len(it.order))
	copy(out, it.order)
	return out
}

// Equals compares two Items by their elements, in order.
func (it *Item) Equals(other *Item) bool {
	if other == nil {
		return false
	}
	if len(it.order) != len(other.order) {
		return false
	}
	for i, t := range it.order {
		if !t.Equals(other.order[i]) {
			return false
		}
		if !it.elements[t].Equals(other.elements[other.order[i]]) {
			return false
		}
	}
	return true
}

// PixelSequence represents encapsulated (compressed) Pixel Data: a Basic
// Offset Table followed by one or more opaque fragments, each delimited
// on the wire by an Item tag (FFFE,E000) and terminated by a Sequence
// Delimiter (FFFE,E0DD).
type PixelSequence struct {
	// OffsetTable holds the Basic Offset Table entries (frame start
	// offsets in bytes, relative to the first fragment). Empty when the
	// encoder omitted the table, which is legal when there is one
	// fragment per frame.
	OffsetTable []uint32

	// Fragments holds each fragment's raw bytes, in stream order.
	Fragments [][]byte
}

// asEncapsulated adapts the tree-shaped fragment list built by the parser
// into the flat, offset-annotated form the pixel package's frame-grouping
// logic expects.
func (p *PixelSequence) asEncapsulated() *pixel.EncapsulatedPixelData {
	frags := make([]pixel.Fragment, len(p.Fragments))
	offset := 0
	for i, data := range p.Fragments {
		frags[i] = pixel.Fragment{Data: data, Offset: offset}
		offset += len(data)
	}
	return &pixel.EncapsulatedPixelData{
		BasicOffsetTable: pixel.BasicOffsetTable{Offsets: p.OffsetTable},
		Fragments:        frags,
	}
}

// NumFrames returns the number of frames represented, using the offset
// table when present and falling back to one fragment per frame otherwise.
func (p *PixelSequence) NumFrames() int {
	return p.asEncapsulated().NumFrames()
}

// Frame reassembles the complete byte content of the frameIndex'th frame,
// grouping and concatenating fragments via the Basic Offset Table when one
// is present, or treating each fragment as a whole frame otherwise.
func (p *PixelSequence) Frame(frameIndex int) ([]byte, error) {
	frags, err := p.asEncapsulated().GetFrameFragments(frameIndex)
	if err != nil {
		return nil, fmt.Errorf("frame %d: %w", frameIndex, err)
	}
	return pixel.ConcatenateFragments(frags), nil
}

// Equals compares two PixelSequences by offset table and fragment bytes.
func (p *PixelSequence) Equals(other *PixelSequence) bool {
	if other == nil {
		return false
	}
	if len(p.OffsetTable) != len(other.OffsetTable) {
		return false
	}
	for i, off := range p.OffsetTable {
		if off != other.OffsetTable[i] {
			return false
		}
	}
	if len(p.Fragments) != len(other.Fragments) {
		return false
	}
	for i, frag := range p.Fragments {
		if len(frag) != len(other.Fragments[i]) {
			return false
		}
		for j, b := range frag {
			if b != other.Fragments[i][j] {
				return false
			}
		}
	}
	return true
}
