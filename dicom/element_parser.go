// Package dicom provides DICOM file parsing and manipulation.
package dicom

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/encoding"

	"github.com/codeninja55/go-dicom/dicom/element"
	"github.com/codeninja55/go-dicom/dicom/tag"
	"github.com/codeninja55/go-dicom/dicom/value"
	"github.com/codeninja55/go-dicom/dicom/vr"
)

// specificCharacterSetTag is (0008,0005), whose value selects the active
// text codec for all charset-sensitive string VRs that follow it.
var specificCharacterSetTag = tag.New(0x0008, 0x0005)

// Delimiter tags used throughout sequence, item, and encapsulated pixel
// data parsing. These are not ordinary data elements: they have no VR and
// their 4-byte length field is either 0 or 0xFFFFFFFF.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.5
const (
	itemTag                 = uint32(0xFFFEE000)
	itemDelimitationTag     = uint32(0xFFFEE00D)
	sequenceDelimitationTag = uint32(0xFFFEE0DD)
)

// ElementParser reads individual DICOM data elements from a binary stream.
//
// It handles both Explicit VR and Implicit VR encoding based on the Transfer Syntax.
// Element structure varies by VR:
//   - Explicit VR (most VRs): Tag(4) + VR(2) + Length(2) + Value(n)
//   - Explicit VR (OB/OW/SQ/etc): Tag(4) + VR(2) + Reserved(2) + Length(4) + Value(n)
//   - Implicit VR: Tag(4) + Length(4) + Value(n), VR looked up in dictionary
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1.2
type ElementParser struct {
	reader *Reader
	ts     *TransferSyntax

	// charset is the active text codec for charset-sensitive string VRs,
	// installed by installCharacterSet on observing (0008,0005). nil
	// means the default repertoire (or UTF-8 source bytes): no transcoding.
	charset encoding.Encoding
}

// NewElementParser creates a new element parser with the specified reader and transfer syntax.
func NewElementParser(reader *Reader, ts *TransferSyntax) *ElementParser {
	return &ElementParser{
		reader: reader,
		ts:     ts,
	}
}

// ReadElement reads the next data element from the stream.
//
// Sequences (VR SQ) are parsed recursively into nested Items, and
// encapsulated Pixel Data (OB/OW with undefined length) is parsed into its
// Basic Offset Table and fragment list. Every other VR produces a
// primitive value.
//
// Returns an error if the element cannot be parsed or if the stream ends unexpectedly.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1
func (p *ElementParser) ReadElement() (*element.Element, error) {
	t, err := p.readTag()
	if err != nil {
		return nil, fmt.Errorf("failed to read tag: %w", err)
	}

	return p.readElementBody(t)
}

// readElementBody reads the VR, length, and value of an element whose tag
// has already been consumed. Split out from ReadElement so that item
// parsing (which must read a tag before knowing whether it is a nested
// element or a delimiter) can resume decoding mid-element.
func (p *ElementParser) readElementBody(t tag.Tag) (*element.Element, error) {
	var v vr.VR
	var length uint32
	var err error

	if p.ts.ExplicitVR {
		// Explicit VR: VR is in the file
		v, err = p.readVRExplicit()
		if err != nil {
			return nil, fmt.Errorf("failed to read VR for tag %s: %w", t, err)
		}

		// Read length (2 or 4 bytes depending on VR)
		length, err = p.readLength(v)
		if err != nil {
			return nil, fmt.Errorf("failed to read length for tag %s: %w", t, err)
		}
	} else {
		// Implicit VR: VR must be looked up from tag dictionary
		v, err = p.readVRImplicit(t)
		if err != nil {
			return nil, fmt.Errorf("failed to look up VR for tag %s: %w", t, err)
		}

		// For Implicit VR, length is always 4 bytes
		length, err = p.reader.ReadUint32()
		if err != nil {
			return nil, fmt.Errorf("failed to read length for tag %s: %w", t, err)
		}
	}

	if v == vr.SequenceOfItems {
		items, undefinedLength, err := p.readSequence(t, length)
		if err != nil {
			return nil, fmt.Errorf("failed to read sequence %s: %w", t, err)
		}
		return element.NewSequenceElement(t, items, undefinedLength), nil
	}

	if isEncapsulatedPixelData(t, v, length) {
		seq, err := p.readPixelSequence(t)
		if err != nil {
			return nil, fmt.Errorf("failed to read encapsulated pixel data %s: %w", t, err)
		}
		return element.NewPixelSequenceElement(t, v, seq), nil
	}

	val, err := p.readValue(t, v, length)
	if err != nil {
		return nil, fmt.Errorf("failed to read value for tag %s: %w", t, err)
	}

	elem, err := element.NewElement(t, v, val)
	if err != nil {
		return nil, fmt.Errorf("failed to create element for tag %s: %w", t, err)
	}

	if t.Equals(specificCharacterSetTag) {
		if sv, ok := val.(*value.StringValue); ok {
			p.installCharacterSet(sv.Strings())
		}
	}

	return elem, nil
}

// isEncapsulatedPixelData reports whether a tag/VR/length combination is
// the start of encapsulated (compressed) Pixel Data rather than a
// conventional undefined-length error.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_A.4
func isEncapsulatedPixelData(t tag.Tag, v vr.VR, length uint32) bool {
	return length == 0xFFFFFFFF &&
		(v == vr.OtherByte || v == vr.OtherWord) &&
		t.Group == 0x7FE0 && t.Element == 0x0010
}

// readTag reads a DICOM tag (group and element).
func (p *ElementParser) readTag() (tag.Tag, error) {
	// Read group (2 bytes)
	group, err := p.reader.ReadUint16()
	if err != nil {
		return tag.Tag{}, fmt.Errorf("failed to read tag group: %w", err)
	}

	// Read element (2 bytes)
	elem, err := p.reader.ReadUint16()
	if err != nil {
		return tag.Tag{}, fmt.Errorf("failed to read tag element: %w", err)
	}

	return tag.New(group, elem), nil
}

// readVRExplicit reads a 2-byte VR in Explicit VR encoding.
func (p *ElementParser) readVRExplicit() (vr.VR, error) {
	// Read 2-byte VR string
	vrStr, err := p.reader.ReadString(2)
	if err != nil {
		return 0, fmt.Errorf("failed to read VR: %w", err)
	}

	// Parse VR string
	v, err := vr.Parse(vrStr)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidVR, vrStr)
	}

	return v, nil
}

// readVRImplicit looks up the VR for a tag from the DICOM data dictionary.
// This is used for Implicit VR transfer syntaxes where VR is not encoded in the file.
//
// For tags with multiple possible VRs (e.g., PixelData can be "OB or OW"),
// this returns the first VR in the list as the default.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1.2
func (p *ElementParser) readVRImplicit(t tag.Tag) (vr.VR, error) {
	// Look up tag in dictionary
	info, err := tag.Find(t)
	if err != nil {
		// Tag not in dictionary - use UN (Unknown) as fallback
		return vr.Unknown, nil
	}

	// Return first VR (for tags with multiple VRs like "OB or OW", use the first one)
	if len(info.VRs) == 0 {
		return vr.Unknown, nil
	}

	return info.VRs[0], nil
}

// readLength reads the value length field.
//
// Length encoding depends on VR:
//   - Most VRs: 2-byte uint16
//   - OB, OD, OF, OL, OV, OW, SQ, UC, UN, UR, UT: 2-byte reserved (0x0000) + 4-byte uint32
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1.2
func (p *ElementParser) readLength(v vr.VR) (uint32, error) {
	// Check if this VR uses 32-bit length field
	if v.UsesExplicitLength32() {
		// Read 2-byte reserved field (must be 0x0000 per standard, but not
		// all implementations honor this, so it is read and discarded).
		if _, err := p.reader.ReadUint16(); err != nil {
			return 0, fmt.Errorf("failed to read reserved field: %w", err)
		}

		// Read 4-byte length
		length, err := p.reader.ReadUint32()
		if err != nil {
			return 0, fmt.Errorf("failed to read 32-bit length: %w", err)
		}

		return length, nil
	}

	// Read 2-byte length for standard VRs
	length16, err := p.reader.ReadUint16()
	if err != nil {
		return 0, fmt.Errorf("failed to read 16-bit length: %w", err)
	}

	return uint32(length16), nil
}

// readValue reads and parses the value field of a primitive (non-Sequence,
// non-encapsulated-Pixel-Data) element based on VR type.
func (p *ElementParser) readValue(t tag.Tag, v vr.VR, length uint32) (value.Value, error) {
	// Handle empty values
	if length == 0 {
		return p.createEmptyValue(v)
	}

	// Undefined length is only legal for Sequences and encapsulated Pixel
	// Data, both of which are intercepted before readValue is called.
	if length == 0xFFFFFFFF {
		return nil, &UndefinedValueLengthError{Tag: t.String(), VR: v.String()}
	}

	// Dispatch to VR-specific reader
	// Check float types before numeric types (floats are also numeric)
	switch {
	case v.IsStringType():
		return p.readStringValue(v, length)
	case v == vr.FloatingPointSingle || v == vr.FloatingPointDouble:
		return p.readFloatValue(v, length)
	case v.IsNumericType():
		return p.readIntValue(v, length)
	case v.IsBinaryType():
		return p.readBytesValue(v, length)
	default:
		// Unknown VR, read as bytes
		return p.readBytesValue(vr.Unknown, length)
	}
}

// createEmptyValue creates an empty value for the given VR.
func (p *ElementParser) createEmptyValue(v vr.VR) (value.Value, error) {
	switch {
	case v.IsStringType():
		return value.NewStringValue(v, []string{})
	case v == vr.FloatingPointSingle || v == vr.FloatingPointDouble:
		return value.NewFloatValue(v, []float64{})
	case v.IsNumericType():
		return value.NewIntValue(v, []int64{})
	case v.IsBinaryType():
		return value.NewBytesValue(v, []byte{})
	default:
		return value.NewBytesValue(vr.Unknown, []byte{})
	}
}

// readStringValue reads a string-based VR value.
//
// DICOM strings may contain multiple values separated by backslash (\).
// String values are space-padded for even length and may have trailing nulls for UI.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_6.2
func (p *ElementParser) readStringValue(v vr.VR, length uint32) (*value.StringValue, error) {
	// Read raw bytes
	data, err := p.reader.ReadBytes(int(length))
	if err != nil {
		return nil, fmt.Errorf("failed to read string data: %w", err)
	}

	// VRs outside the charset-sensitive set always use the default
	// repertoire regardless of the active Specific Character Set.
	codec := p.charset
	if defaultCharsetVRs[v] {
		codec = nil
	}
	str := decodeText(codec, data)

	// Trim trailing null and space padding
	str = strings.TrimRight(str, "\x00 ")

	// Split by backslash for multi-valued elements
	var values []string
	if str == "" {
		values = []string{}
	} else {
		values = strings.Split(str, "\\")
	}

	// Create string value
	val, err := value.NewStringValue(v, values)
	if err != nil {
		return nil, fmt.Errorf("failed to create string value: %w", err)
	}

	return val, nil
}

// readIntValue reads an integer VR value.
//
// Handles: SS (int16), US (uint16), SL (int32), UL (uint32), SV (int64), UV (uint64), AT (tag)
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_6.2
func (p *ElementParser) readIntValue(v vr.VR, length uint32) (*value.IntValue, error) {
	var values []int64

	// Determine bytes per value
	var bytesPerValue int
	switch v {
	case vr.SignedShort, vr.UnsignedShort:
		bytesPerValue = 2
	case vr.SignedLong, vr.UnsignedLong, vr.AttributeTag:
		bytesPerValue = 4
	case vr.SignedVeryLong, vr.UnsignedVeryLong:
		bytesPerValue = 8
	default:
		return nil, fmt.Errorf("unsupported integer VR: %s", v.String())
	}

	// Calculate number of values
	numValues := int(length) / bytesPerValue
	if int(length)%bytesPerValue != 0 {
		return nil, fmt.Errorf("invalid length %d for VR %s (not multiple of %d)", length, v.String(), bytesPerValue)
	}

	// Read each value
	for i := 0; i < numValues; i++ {
		var val int64

		switch v {
		case vr.SignedShort:
			u16, err := p.reader.ReadUint16()
			if err != nil {
				return nil, err
			}
			val = int64(int16(u16))

		case vr.UnsignedShort:
			u16, err := p.reader.ReadUint16()
			if err != nil {
				return nil, err
			}
			val = int64(u16)

		case vr.SignedLong:
			u32, err := p.reader.ReadUint32()
			if err != nil {
				return nil, err
			}
			val = int64(int32(u32))

		case vr.UnsignedLong:
			u32, err := p.reader.ReadUint32()
			if err != nil {
				return nil, err
			}
			val = int64(u32)

		case vr.AttributeTag:
			u32, err := p.reader.ReadUint32()
			if err != nil {
				return nil, err
			}
			val = int64(u32)

		case vr.SignedVeryLong:
			data, err := p.reader.ReadBytes(8)
			if err != nil {
				return nil, err
			}
			val = int64(p.ts.ByteOrder.Uint64(data))

		case vr.UnsignedVeryLong:
			data, err := p.reader.ReadBytes(8)
			if err != nil {
				return nil, err
			}
			val = int64(p.ts.ByteOrder.Uint64(data))
		}

		values = append(values, val)
	}

	// Create int value
	intVal, err := value.NewIntValue(v, values)
	if err != nil {
		return nil, fmt.Errorf("failed to create int value: %w", err)
	}

	return intVal, nil
}

// readFloatValue reads a floating-point VR value.
//
// Handles: FL (float32), FD (float64)
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_6.2
func (p *ElementParser) readFloatValue(v vr.VR, length uint32) (*value.FloatValue, error) {
	var values []float64

	// Determine bytes per value
	var bytesPerValue int
	switch v {
	case vr.FloatingPointSingle:
		bytesPerValue = 4
	case vr.FloatingPointDouble:
		bytesPerValue = 8
	default:
		return nil, fmt.Errorf("unsupported float VR: %s", v.String())
	}

	// Calculate number of values
	numValues := int(length) / bytesPerValue
	if int(length)%bytesPerValue != 0 {
		return nil, fmt.Errorf("invalid length %d for VR %s (not multiple of %d)", length, v.String(), bytesPerValue)
	}

	// Read each value
	for i := 0; i < numValues; i++ {
		if v == vr.FloatingPointSingle {
			// Read float32
			data, err := p.reader.ReadBytes(4)
			if err != nil {
				return nil, err
			}
			bits := p.ts.ByteOrder.Uint32(data)
			f32 := math.Float32frombits(bits)
			values = append(values, float64(f32))
		} else {
			// Read float64
			data, err := p.reader.ReadBytes(8)
			if err != nil {
				return nil, err
			}
			bits := p.ts.ByteOrder.Uint64(data)
			f64 := math.Float64frombits(bits)
			values = append(values, f64)
		}
	}

	// Create float value
	floatVal, err := value.NewFloatValue(v, values)
	if err != nil {
		return nil, fmt.Errorf("failed to create float value: %w", err)
	}

	return floatVal, nil
}

// readBytesValue reads a binary VR value.
//
// Handles: OB, OD, OF, OL, OV, OW, UN
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_6.2
func (p *ElementParser) readBytesValue(v vr.VR, length uint32) (*value.BytesValue, error) {
	pos := p.reader.Position()
	// Read raw bytes
	data, err := p.reader.ReadBytes(int(length))
	if err != nil {
		return nil, &ReadValueDataError{Position: pos, Tag: v.String(), Err: err}
	}

	// Create bytes value
	bytesVal, err := value.NewBytesValue(v, data)
	if err != nil {
		return nil, fmt.Errorf("failed to create bytes value: %w", err)
	}

	return bytesVal, nil
}

// readSequence reads the Items of a Sequence (SQ) element, dispatching on
// whether the sequence carries a defined or undefined length.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.5
func (p *ElementParser) readSequence(seqTag tag.Tag, length uint32) ([]*element.Item, bool, error) {
	if length == 0xFFFFFFFF {
		items, err := p.readItemsUntilSequenceDelimiter(seqTag)
		return items, true, err
	}

	items, err := p.readItemsForLength(seqTag, length)
	return items, false, err
}

// readItemsForLength reads Items from a defined-length Sequence: the
// number of items is not known up front, only the total byte span they
// occupy, so items are read until that many bytes have been consumed.
func (p *ElementParser) readItemsForLength(seqTag tag.Tag, length uint32) ([]*element.Item, error) {
	start := p.reader.Position()
	var items []*element.Item

	for uint32(p.reader.Position()-start) < length {
		t, err := p.readTag()
		if err != nil {
			return nil, fmt.Errorf("unexpected EOF reading sequence %s: %w", seqTag, err)
		}
		if t.Uint32() != itemTag {
			return nil, fmt.Errorf("expected item tag in sequence %s, got %s", seqTag, t)
		}

		itemLength, err := p.reader.ReadUint32()
		if err != nil {
			return nil, fmt.Errorf("failed to read item length in sequence %s: %w", seqTag, err)
		}

		item, err := p.readItem(itemLength)
		if err != nil {
			return nil, fmt.Errorf("failed to read item in sequence %s: %w", seqTag, err)
		}
		items = append(items, item)
	}

	return items, nil
}

// readItemsUntilSequenceDelimiter reads Items from an undefined-length
// Sequence, stopping at the Sequence Delimitation Item (FFFE,E0DD).
func (p *ElementParser) readItemsUntilSequenceDelimiter(seqTag tag.Tag) ([]*element.Item, error) {
	var items []*element.Item

	for {
		t, err := p.readTag()
		if err != nil {
			return nil, fmt.Errorf("unexpected EOF reading sequence %s: %w", seqTag, err)
		}

		if t.Uint32() == sequenceDelimitationTag {
			if _, err := p.reader.ReadUint32(); err != nil {
				return nil, fmt.Errorf("failed to read sequence delimitation length: %w", err)
			}
			return items, nil
		}

		if t.Uint32() != itemTag {
			return nil, fmt.Errorf("expected item tag in sequence %s, got %s", seqTag, t)
		}

		itemLength, err := p.reader.ReadUint32()
		if err != nil {
			return nil, fmt.Errorf("failed to read item length in sequence %s: %w", seqTag, err)
		}

		item, err := p.readItem(itemLength)
		if err != nil {
			return nil, fmt.Errorf("failed to read item in sequence %s: %w", seqTag, err)
		}
		items = append(items, item)
	}
}

// readItem reads the data elements of one Sequence item, given the item's
// length field read from the Item tag (FFFE,E000). A length of 0xFFFFFFFF
// means the item is delimiter-terminated rather than defined-length.
func (p *ElementParser) readItem(length uint32) (*element.Item, error) {
	item := element.NewItem()

	if length == 0xFFFFFFFF {
		item.UndefinedLength = true

		for {
			t, err := p.readTag()
			if err != nil {
				return nil, fmt.Errorf("unexpected EOF reading item: %w", err)
			}

			if t.Uint32() == itemDelimitationTag {
				if _, err := p.reader.ReadUint32(); err != nil {
					return nil, fmt.Errorf("failed to read item delimitation length: %w", err)
				}
				return item, nil
			}

			elem, err := p.readElementBody(t)
			if err != nil {
				return nil, err
			}
			if err := item.Add(elem); err != nil {
				return nil, fmt.Errorf("failed to add element to item: %w", err)
			}
		}
	}

	start := p.reader.Position()
	for uint32(p.reader.Position()-start) < length {
		elem, err := p.ReadElement()
		if err != nil {
			return nil, err
		}
		if err := item.Add(elem); err != nil {
			return nil, fmt.Errorf("failed to add element to item: %w", err)
		}
	}

	return item, nil
}

// readPixelSequence reads encapsulated (compressed) Pixel Data: a Basic
// Offset Table item followed by one or more fragment items, terminated by
// a Sequence Delimitation Item (FFFE,E0DD). Used for compressed transfer
// syntaxes (JPEG, JPEG 2000, RLE, etc.), where each frame's compressed
// bytes are carried as one or more opaque fragments rather than a flat
// pixel buffer.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_A.4
func (p *ElementParser) readPixelSequence(pixelDataTag tag.Tag) (*element.PixelSequence, error) {
	seq := &element.PixelSequence{}
	first := true

	for {
		t, err := p.readTag()
		if err != nil {
			return nil, fmt.Errorf("unexpected EOF reading encapsulated pixel data %s: %w", pixelDataTag, err)
		}

		tagValue := t.Uint32()
		if tagValue == sequenceDelimitationTag {
			if _, err := p.reader.ReadUint32(); err != nil {
				return nil, fmt.Errorf("failed to read sequence delimitation length: %w", err)
			}
			return seq, nil
		}

		if tagValue != itemTag {
			return nil, fmt.Errorf("unexpected tag %s in encapsulated pixel data (expected Item or Sequence Delimitation)", t)
		}

		itemLength, err := p.reader.ReadUint32()
		if err != nil {
			return nil, fmt.Errorf("failed to read item length: %w", err)
		}

		data, err := p.reader.ReadBytes(int(itemLength))
		if err != nil {
			return nil, fmt.Errorf("failed to read fragment data (%d bytes): %w", itemLength, err)
		}

		// The Basic Offset Table is always the first item. It may be
		// empty when the encoder chose not to populate it.
		if first {
			first = false
			seq.OffsetTable = decodeOffsetTable(data, p.ts.ByteOrder)
			continue
		}

		seq.Fragments = append(seq.Fragments, data)
	}
}

// decodeOffsetTable parses the Basic Offset Table's 4-byte frame offsets.
func decodeOffsetTable(data []byte, order binary.ByteOrder) []uint32 {
	n := len(data) / 4
	if n == 0 {
		return nil
	}

	table := make([]uint32, n)
	for i := 0; i < n; i++ {
		table[i] = order.Uint32(data[i*4 : i*4+4])
	}
	return table
}
