package dicom

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"

	"github.com/codeninja55/go-dicom/dicom/element"
	"github.com/codeninja55/go-dicom/dicom/tag"
	"github.com/codeninja55/go-dicom/dicom/uid"
	"github.com/codeninja55/go-dicom/dicom/value"
	"github.com/codeninja55/go-dicom/dicom/vr"
)

// writeCtx carries per-write state threaded through element/item
// recursion: whether the transfer syntax uses Explicit VR, and the
// active text codec for charset-sensitive string VRs (mirroring the
// reader's installCharacterSet behavior at write time).
type writeCtx struct {
	explicitVR bool
	charset    encoding.Encoding
}

// WriteOptions configures DICOM file writing behavior.
type WriteOptions struct {
	// TransferSyntax specifies the transfer syntax for encoding the dataset.
	// If nil, uses Explicit VR Little Endian (1.2.840.10008.1.2.1)
	TransferSyntax *uid.UID

	// Overwrite allows overwriting existing files.
	// Default: false (error if file exists)
	Overwrite bool

	// CreateDirs creates parent directories if they don't exist.
	// Default: false (the parent directory must already exist)
	CreateDirs bool

	// Atomic uses atomic write (temp file + rename) to prevent corruption on failure.
	// Default: false (the file is written in place)
	Atomic bool

	// ValidateAfterWrite re-parses the file after writing to verify integrity.
	// Default: false (for performance)
	ValidateAfterWrite bool
}

// WriteFile writes a DataSet to a DICOM file with proper Part 10 format.
//
// The function always generates the File Meta Information below; group 0002
// elements already in the dataset are not written:
//   - (0002,0001) File Meta Information Version
//   - (0002,0002) Media Storage SOP Class UID (from dataset 0008,0016)
//   - (0002,0003) Media Storage SOP Instance UID (from dataset 0008,0018)
//   - (0002,0010) Transfer Syntax UID
//   - (0002,0012) Implementation Class UID
//   - (0002,0013) Implementation Version Name
//
// The file structure follows DICOM Part 10:
//  1. 128-byte preamble (zeros)
//  2. "DICM" prefix
//  3. File Meta Information (Group 0002) - Explicit VR Little Endian
//  4. Dataset elements - encoded with specified transfer syntax
//
// Example:
//
//	err := dicom.WriteFile("/path/output.dcm", dataset)
//	if err != nil {
//	    log.Fatal(err)
//	}
func WriteFile(path string, ds *DataSet) error {
	return WriteFileWithOptions(path, ds, WriteOptions{})
}

// WriteFileWithOptions writes a DataSet to a DICOM file with configurable options.
//
// Example:
//
//	opts := dicom.WriteOptions{
//	    TransferSyntax: &uid.ExplicitVRLittleEndian,
//	    Overwrite: true,
//	    CreateDirs: true,
//	    Atomic: true,
//	}
//	err := dicom.WriteFileWithOptions("/path/output.dcm", dataset, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
func WriteFileWithOptions(path string, ds *DataSet, opts WriteOptions) error {
	if ds == nil {
		return fmt.Errorf("cannot write nil dataset")
	}

	// Apply default options
	opts = applyDefaultWriteOptions(opts)

	// Validate required elements
	if err := validateRequiredElements(ds); err != nil {
		return err
	}

	// Create parent directories if needed
	if opts.CreateDirs {
		parentDir := filepath.Dir(path)
		if err := os.MkdirAll(parentDir, 0o755); err != nil {
			return fmt.Errorf("failed to create parent directories: %w", err)
		}
	}

	// Check if file exists and handle overwrite
	if !opts.Overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("file already exists: %s (use Overwrite: true to replace)", path)
		}
	}

	// Write the file
	if opts.Atomic {
		return writeFileAtomic(path, ds, opts)
	}
	return writeFileDirect(path, ds, opts)
}

// applyDefaultWriteOptions fills in missing options with sensible defaults.
func applyDefaultWriteOptions(opts WriteOptions) WriteOptions {
	if opts.TransferSyntax == nil {
		// Default to Explicit VR Little Endian
		explicitVRLE := uid.ExplicitVRLittleEndian
		opts.TransferSyntax = &explicitVRLE
	}

	// Note: CreateDirs and Atomic are left as given; an unset field keeps its
	// zero value (false), since an explicit false cannot be told apart from an
	// unset bool field.

	return opts
}

// validateRequiredElements checks that the dataset has required UIDs for writing.
func validateRequiredElements(ds *DataSet) error {
	// SOPClassUID (0008,0016) is required
	sopClassUIDElem, err := ds.Get(tag.New(0x0008, 0x0016))
	if err != nil {
		return fmt.Errorf("missing required element SOPClassUID (0008,0016): %w", err)
	}
	sopClassUID := extractUIDString(sopClassUIDElem)
	if sopClassUID == "" {
		return fmt.Errorf("SOPClassUID (0008,0016) is empty")
	}

	// SOPInstanceUID (0008,0018) is required
	sopInstanceUIDElem, err := ds.Get(tag.New(0x0008, 0x0018))
	if err != nil {
		return fmt.Errorf("missing required element SOPInstanceUID (0008,0018): %w", err)
	}
	sopInstanceUID := extractUIDString(sopInstanceUIDElem)
	if sopInstanceUID == "" {
		return fmt.Errorf("SOPInstanceUID (0008,0018) is empty")
	}

	// Validate UID format (basic check)
	if !isValidUID(sopClassUID) {
		return fmt.Errorf("invalid SOPClassUID format: %s", sopClassUID)
	}
	if !isValidUID(sopInstanceUID) {
		return fmt.Errorf("invalid SOPInstanceUID format: %s", sopInstanceUID)
	}

	return nil
}

// extractUIDString extracts a UID string from an element value.
// Handles both string values (VR=UI) and bytes values (VR=UN/OB with ASCII text).
func extractUIDString(elem *element.Element) string {
	val := elem.Value()

	// Handle BytesValue - decode bytes to string
	if bytesVal, ok := val.(*value.BytesValue); ok {
		// UID is stored as bytes, decode to string
		data := bytesVal.Bytes()
		// Trim null padding and spaces
		uid := strings.TrimRight(string(data), "\x00 ")
		return strings.TrimSpace(uid)
	}

	// Handle normal string values
	return strings.TrimSpace(val.String())
}

// isValidUID performs basic UID validation.
// UIDs must contain only digits, dots, and be reasonable length.
func isValidUID(uidStr string) bool {
	if uidStr == "" || len(uidStr) > 64 {
		return false
	}

	// Basic validation: should contain digits and dots
	for _, ch := range uidStr {
		if ch != '.' && (ch < '0' || ch > '9') {
			return false
		}
	}

	// Should not start or end with dot
	if uidStr[0] == '.' || uidStr[len(uidStr)-1] == '.' {
		return false
	}

	return true
}

// writeFileAtomic writes the file atomically using temp file + rename pattern.
func writeFileAtomic(path string, ds *DataSet, opts WriteOptions) error {
	// Create temp file in same directory (for atomic rename)
	dir := filepath.Dir(path)
	tempFile, err := os.CreateTemp(dir, ".dicom-tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	// Ensure temp file is cleaned up on error
	defer func() {
		//nolint:errcheck // Best-effort cleanup of temp file
		// If temp file still exists (write failed), remove it
		os.Remove(tempPath)
	}()

	// Write to temp file
	if err := writeDICOMFile(tempFile, ds, opts); err != nil {
		//nolint:errcheck // Error path cleanup, primary error already captured
		tempFile.Close()
		return fmt.Errorf("failed to write DICOM data: %w", err)
	}

	// Sync to disk
	if err := tempFile.Sync(); err != nil {
		//nolint:errcheck // Error path cleanup, primary error already captured
		tempFile.Close()
		return fmt.Errorf("failed to sync file: %w", err)
	}

	// Close temp file before rename
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	// Validate after write if requested
	if opts.ValidateAfterWrite {
		if _, err := ParseFile(path); err != nil {
			return fmt.Errorf("validation failed after write: %w", err)
		}
	}

	return nil
}

// writeFileDirect writes the file directly without atomic guarantees.
func writeFileDirect(path string, ds *DataSet, opts WriteOptions) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close file: %w", closeErr)
		}
	}()

	if err := writeDICOMFile(file, ds, opts); err != nil {
		return fmt.Errorf("failed to write DICOM data: %w", err)
	}

	// Validate after write if requested
	if opts.ValidateAfterWrite {
		if _, err := ParseFile(path); err != nil {
			return fmt.Errorf("validation failed after write: %w", err)
		}
	}

	return nil
}

// writeDICOMFile writes the complete DICOM Part 10 file structure to a writer.
func writeDICOMFile(w io.Writer, ds *DataSet, opts WriteOptions) error {
	// 1. Write 128-byte preamble (null bytes)
	preamble := make([]byte, 128)
	if _, err := w.Write(preamble); err != nil {
		return fmt.Errorf("failed to write preamble: %w", err)
	}

	// 2. Write "DICM" prefix
	if _, err := w.Write([]byte("DICM")); err != nil {
		return fmt.Errorf("failed to write DICM prefix: %w", err)
	}

	// 3. Generate and write File Meta Information
	fileMetaInfo, err := generateFileMetaInformation(ds, opts.TransferSyntax)
	if err != nil {
		return fmt.Errorf("failed to generate file meta information: %w", err)
	}

	if err := writeFileMetaInformation(w, fileMetaInfo); err != nil {
		return fmt.Errorf("failed to write file meta information: %w", err)
	}

	// 4. Write dataset elements
	if err := writeDataSetElements(w, ds, opts.TransferSyntax); err != nil {
		return fmt.Errorf("failed to write dataset elements: %w", err)
	}

	return nil
}

// generateFileMetaInformation creates the File Meta Information group (0002).
func generateFileMetaInformation(ds *DataSet, transferSyntax *uid.UID) (*DataSet, error) {
	metaInfo := NewDataSet()

	// (0002,0001) File Meta Information Version - required, value is always [00\01]
	versionValue, err := value.NewBytesValue(vr.OtherByte, []byte{0x00, 0x01})
	if err != nil {
		return nil, fmt.Errorf("failed to create version value: %w", err)
	}
	versionElem, err := element.NewElement(tag.New(0x0002, 0x0001), vr.OtherByte, versionValue)
	if err != nil {
		return nil, fmt.Errorf("failed to create version element: %w", err)
	}
	if err := metaInfo.Add(versionElem); err != nil {
		return nil, fmt.Errorf("failed to add version element: %w", err)
	}

	// (0002,0002) Media Storage SOP Class UID - from dataset (0008,0016)
	sopClassUIDElem, err := ds.Get(tag.New(0x0008, 0x0016))
	if err != nil {
		return nil, fmt.Errorf("missing SOPClassUID: %w", err)
	}
	sopClassUID := sopClassUIDElem.Value().String()
	sopClassValue, err := value.NewStringValue(vr.UniqueIdentifier, []string{sopClassUID})
	if err != nil {
		return nil, fmt.Errorf("failed to create sop class value: %w", err)
	}
	mediaSOPClassElem, err := element.NewElement(tag.New(0x0002, 0x0002), vr.UniqueIdentifier, sopClassValue)
	if err != nil {
		return nil, fmt.Errorf("failed to create media sop class element: %w", err)
	}
	if err := metaInfo.Add(mediaSOPClassElem); err != nil {
		return nil, fmt.Errorf("failed to add media sop class element: %w", err)
	}

	// (0002,0003) Media Storage SOP Instance UID - from dataset (0008,0018)
	sopInstanceUIDElem, err := ds.Get(tag.New(0x0008, 0x0018))
	if err != nil {
		return nil, fmt.Errorf("missing SOPInstanceUID: %w", err)
	}
	sopInstanceUID := sopInstanceUIDElem.Value().String()
	sopInstanceValue, err := value.NewStringValue(vr.UniqueIdentifier, []string{sopInstanceUID})
	if err != nil {
		return nil, fmt.Errorf("failed to create sop instance value: %w", err)
	}
	mediaSOPInstanceElem, err := element.NewElement(tag.New(0x0002, 0x0003), vr.UniqueIdentifier, sopInstanceValue)
	if err != nil {
		return nil, fmt.Errorf("failed to create media sop instance element: %w", err)
	}
	if err := metaInfo.Add(mediaSOPInstanceElem); err != nil {
		return nil, fmt.Errorf("failed to add media sop instance element: %w", err)
	}

	// (0002,0010) Transfer Syntax UID
	transferSyntaxStr := transferSyntax.String()
	transferSyntaxValue, err := value.NewStringValue(vr.UniqueIdentifier, []string{transferSyntaxStr})
	if err != nil {
		return nil, fmt.Errorf("failed to create transfer syntax value: %w", err)
	}
	transferSyntaxElem, err := element.NewElement(tag.New(0x0002, 0x0010), vr.UniqueIdentifier, transferSyntaxValue)
	if err != nil {
		return nil, fmt.Errorf("failed to create transfer syntax element: %w", err)
	}
	if err := metaInfo.Add(transferSyntaxElem); err != nil {
		return nil, fmt.Errorf("failed to add transfer syntax element: %w", err)
	}

	// (0002,0012) Implementation Class UID
	implClassUID := "1.2.840.12345.1.1"
	implClassValue, err := value.NewStringValue(vr.UniqueIdentifier, []string{implClassUID})
	if err != nil {
		return nil, fmt.Errorf("failed to create impl class value: %w", err)
	}
	implClassElem, err := element.NewElement(tag.New(0x0002, 0x0012), vr.UniqueIdentifier, implClassValue)
	if err != nil {
		return nil, fmt.Errorf("failed to create impl class element: %w", err)
	}
	if err := metaInfo.Add(implClassElem); err != nil {
		return nil, fmt.Errorf("failed to add impl class element: %w", err)
	}

	// (0002,0013) Implementation Version Name
	implVersionName := "GO_DICOM_1.0"
	implVersionValue, err := value.NewStringValue(vr.ShortString, []string{implVersionName})
	if err != nil {
		return nil, fmt.Errorf("failed to create impl version value: %w", err)
	}
	implVersionElem, err := element.NewElement(tag.New(0x0002, 0x0013), vr.ShortString, implVersionValue)
	if err != nil {
		return nil, fmt.Errorf("failed to create impl version element: %w", err)
	}
	if err := metaInfo.Add(implVersionElem); err != nil {
		return nil, fmt.Errorf("failed to add impl version element: %w", err)
	}

	return metaInfo, nil
}

// writeFileMetaInformation writes the File Meta Information group to a writer.
// File Meta Information is always written in Explicit VR Little Endian.
func writeFileMetaInformation(w io.Writer, metaInfo *DataSet) error {
	// File Meta Information is always Explicit VR Little Endian
	// We need to write each element in the proper format

	// Get all elements from metaInfo and sort by tag
	elements := metaInfo.Elements()

	ctx := writeCtx{explicitVR: true}
	for _, elem := range elements {
		if err := writeElement(w, elem, ctx); err != nil {
			return fmt.Errorf("failed to write meta info element %s: %w", elem.Tag(), err)
		}
	}

	return nil
}

// writeDataSetElements writes all dataset elements to a writer.
func writeDataSetElements(w io.Writer, ds *DataSet, transferSyntax *uid.UID) error {
	ctx := writeCtx{explicitVR: isExplicitVRTransferSyntax(transferSyntax)}

	// Get all elements and write them
	elements := ds.Elements()

	for _, elem := range elements {
		// Skip File Meta Information group (0002) in dataset
		if elem.Tag().Group == 0x0002 {
			continue
		}

		if elem.Tag().Equals(specificCharacterSetTag) {
			if sv, ok := elem.Value().(*value.StringValue); ok {
				ctx.charset = writeCharacterSet(sv.Strings())
			}
		}

		if err := writeElement(w, elem, ctx); err != nil {
			return fmt.Errorf("failed to write element %s: %w", elem.Tag(), err)
		}
	}

	return nil
}

// writeCharacterSet resolves a (0008,0005) value to the codec that should
// encode subsequent charset-sensitive string VRs, warning (not failing)
// on an unrecognized defined term just as the reader does.
func writeCharacterSet(names []string) encoding.Encoding {
	name := ""
	if len(names) > 0 {
		name = names[0]
	}
	enc, ok := lookupCharacterSet(name)
	if !ok {
		return nil
	}
	return enc
}

// isExplicitVRTransferSyntax determines if a transfer syntax uses explicit VR.
func isExplicitVRTransferSyntax(ts *uid.UID) bool {
	if ts == nil {
		return true // Default to explicit
	}

	tsStr := ts.String()

	// Implicit VR Little Endian
	if tsStr == "1.2.840.10008.1.2" {
		return false
	}

	// Most other transfer syntaxes use Explicit VR
	return true
}

// writeElement writes a single DICOM element to a writer, dispatching on
// Kind since Sequences and encapsulated Pixel Data have wire structures
// that a flat value does not.
func writeElement(w io.Writer, elem *element.Element, ctx writeCtx) error {
	switch elem.Kind() {
	case element.KindSequence:
		return writeSequenceElement(w, elem, ctx)
	case element.KindPixelSequence:
		return writePixelSequenceElement(w, elem, ctx)
	default:
		return writePrimitiveElement(w, elem, ctx)
	}
}

// writePrimitiveElement writes a flat-value element: Tag + VR(+Length) + Value.
func writePrimitiveElement(w io.Writer, elem *element.Element, ctx writeCtx) error {
	valueBytes := elem.Value().Bytes()
	if sv, ok := elem.Value().(*value.StringValue); ok {
		valueBytes = encodeStringValueBytes(sv, elem.VR(), ctx.charset)
	}
	valueLength := uint32(len(valueBytes))

	if err := writeTagAndLengthHeader(w, elem.Tag(), elem.VR(), ctx.explicitVR, valueLength); err != nil {
		return err
	}

	if len(valueBytes) > 0 {
		if _, err := w.Write(valueBytes); err != nil {
			return fmt.Errorf("failed to write value bytes: %w", err)
		}
	}

	return nil
}

// encodeStringValueBytes re-encodes a string value's joined textual form
// under the active character-set codec. VRs outside the charset-sensitive
// set, and values with no active codec, fall back to the value's own
// default (UTF-8/ASCII passthrough, with UI's NUL padding) byte encoding.
func encodeStringValueBytes(sv *value.StringValue, v vr.VR, codec encoding.Encoding) []byte {
	if codec == nil || defaultCharsetVRs[v] {
		return sv.Bytes()
	}

	joined := strings.Join(sv.Strings(), "\\")
	encoded, err := codec.NewEncoder().Bytes([]byte(joined))
	if err != nil {
		encoded = []byte(joined)
	}
	if len(encoded)%2 == 1 {
		encoded = append(encoded, ' ')
	}
	return encoded
}

// writeTagAndLengthHeader writes Tag + VR(+reserved)+Length for any
// element, primitive or container. For Explicit VR, VRs that use a 4-byte
// length field (OB, OD, OF, OL, OV, OW, SQ, UC, UN, UR, UT) get 2 reserved
// bytes ahead of the length.
func writeTagAndLengthHeader(w io.Writer, t tag.Tag, v vr.VR, explicitVR bool, length uint32) error {
	if err := binary.Write(w, binary.LittleEndian, t.Group); err != nil {
		return fmt.Errorf("failed to write tag group: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, t.Element); err != nil {
		return fmt.Errorf("failed to write tag element: %w", err)
	}

	if !explicitVR {
		if err := binary.Write(w, binary.LittleEndian, length); err != nil {
			return fmt.Errorf("failed to write value length: %w", err)
		}
		return nil
	}

	vrBytes := []byte(v.String())
	if len(vrBytes) != 2 {
		return fmt.Errorf("invalid VR length: %s", v.String())
	}
	if _, err := w.Write(vrBytes); err != nil {
		return fmt.Errorf("failed to write VR: %w", err)
	}

	if v.UsesExplicitLength32() {
		if err := binary.Write(w, binary.LittleEndian, uint16(0)); err != nil {
			return fmt.Errorf("failed to write reserved bytes: %w", err)
		}
		if err := binary.Write(w, binary.LittleEndian, length); err != nil {
			return fmt.Errorf("failed to write value length: %w", err)
		}
		return nil
	}

	if length > 0xFFFF {
		return fmt.Errorf("value length %d exceeds 2-byte limit for VR %s", length, v.String())
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(length)); err != nil {
		return fmt.Errorf("failed to write value length: %w", err)
	}
	return nil
}

// writeSequenceElement writes a Sequence (SQ) element: its items are
// encoded first so a defined-length sequence's byte count is known before
// its header is written; an undefined-length sequence is followed by a
// Sequence Delimitation Item instead.
func writeSequenceElement(w io.Writer, elem *element.Element, ctx writeCtx) error {
	items, _ := elem.Items()
	undefinedLength := elem.SequenceUndefinedLength()

	var itemsBuf bytes.Buffer
	for _, item := range items {
		if err := writeItem(&itemsBuf, item, ctx); err != nil {
			return fmt.Errorf("failed to write item: %w", err)
		}
	}

	length := uint32(itemsBuf.Len())
	if undefinedLength {
		length = 0xFFFFFFFF
	}

	if err := writeTagAndLengthHeader(w, elem.Tag(), vr.SequenceOfItems, ctx.explicitVR, length); err != nil {
		return err
	}
	if _, err := w.Write(itemsBuf.Bytes()); err != nil {
		return fmt.Errorf("failed to write sequence items: %w", err)
	}

	if undefinedLength {
		return writeDelimiter(w, sequenceDelimitationTag)
	}
	return nil
}

// writeItem writes one Sequence item: its elements are encoded first so a
// defined-length item's byte count is known up front, matching
// writeSequenceElement's approach for the enclosing sequence.
func writeItem(w io.Writer, item *element.Item, ctx writeCtx) error {
	var buf bytes.Buffer
	for _, elem := range item.Elements() {
		if err := writeElement(&buf, elem, ctx); err != nil {
			return fmt.Errorf("failed to write item element %s: %w", elem.Tag(), err)
		}
	}

	length := uint32(buf.Len())
	if item.UndefinedLength {
		length = 0xFFFFFFFF
	}

	if err := writeItemHeader(w, length); err != nil {
		return err
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write item content: %w", err)
	}

	if item.UndefinedLength {
		return writeDelimiter(w, itemDelimitationTag)
	}
	return nil
}

// writePixelSequenceElement writes encapsulated Pixel Data: a Basic Offset
// Table fragment (possibly empty) followed by one compressed fragment per
// Item, terminated by a Sequence Delimitation Item. Always undefined
// length, per Part 5 Annex A.4.
func writePixelSequenceElement(w io.Writer, elem *element.Element, ctx writeCtx) error {
	seq, _ := elem.PixelSequence()

	if err := writeTagAndLengthHeader(w, elem.Tag(), elem.VR(), ctx.explicitVR, 0xFFFFFFFF); err != nil {
		return err
	}

	offsetBytes := make([]byte, len(seq.OffsetTable)*4)
	for i, off := range seq.OffsetTable {
		binary.LittleEndian.PutUint32(offsetBytes[i*4:i*4+4], off)
	}
	if err := writeFragment(w, offsetBytes); err != nil {
		return fmt.Errorf("failed to write basic offset table: %w", err)
	}

	for _, frag := range seq.Fragments {
		if err := writeFragment(w, frag); err != nil {
			return fmt.Errorf("failed to write pixel data fragment: %w", err)
		}
	}

	return writeDelimiter(w, sequenceDelimitationTag)
}

// writeFragment writes one Item-framed fragment (used for both the Basic
// Offset Table and compressed pixel fragments).
func writeFragment(w io.Writer, data []byte) error {
	if err := writeItemHeader(w, uint32(len(data))); err != nil {
		return err
	}
	if len(data) > 0 {
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("failed to write fragment data: %w", err)
		}
	}
	return nil
}

// writeItemHeader writes an Item tag (FFFE,E000) and its 4-byte length.
func writeItemHeader(w io.Writer, length uint32) error {
	return writeDelimiterTag(w, itemTag, length)
}

// writeDelimiter writes a delimiter tag (Item or Sequence Delimitation)
// with a zero length, as the standard requires.
func writeDelimiter(w io.Writer, tagValue uint32) error {
	return writeDelimiterTag(w, tagValue, 0)
}

// writeDelimiterTag writes one of the (FFFE,xxxx) structural tags used
// outside the regular Tag+VR+Length element grammar, reusing the packed
// uint32 form (group in the upper 16 bits) shared with the element parser.
func writeDelimiterTag(w io.Writer, tagValue uint32, length uint32) error {
	group := uint16(tagValue >> 16)
	elem := uint16(tagValue & 0xFFFF)

	if err := binary.Write(w, binary.LittleEndian, group); err != nil {
		return fmt.Errorf("failed to write delimiter tag group: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, elem); err != nil {
		return fmt.Errorf("failed to write delimiter tag element: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, length); err != nil {
		return fmt.Errorf("failed to write delimiter length: %w", err)
	}
	return nil
}
