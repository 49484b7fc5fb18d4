package tag

import "github.com/codeninja55/go-dicom/dicom/vr"

// TagDict is the standard DICOM data dictionary (PS3.6 Chapter 6), covering
// File Meta Information, identification, patient/study/series, and the
// image/pixel attributes most commonly exchanged over DIMSE.
//
// This is a hand-maintained subset rather than a full codegen of PS3.6 - it
// covers every attribute exercised by this package's parser, writer, and
// DIMSE services. Unknown tags still round-trip through DataSet; Find
// simply reports them as not found (or as a generic group length, per its
// own fallback) rather than failing to parse.
var TagDict = map[Tag]Info{
	// File Meta Information (Group 0002, always Explicit VR Little Endian)
	New(0x0002, 0x0000): {Tag: New(0x0002, 0x0000), VRs: []vr.VR{vr.UnsignedLong}, Name: "File Meta Information Group Length", Keyword: "FileMetaInformationGroupLength", VM: "1"},
	New(0x0002, 0x0001): {Tag: New(0x0002, 0x0001), VRs: []vr.VR{vr.OtherByte}, Name: "File Meta Information Version", Keyword: "FileMetaInformationVersion", VM: "1"},
	New(0x0002, 0x0002): {Tag: New(0x0002, 0x0002), VRs: []vr.VR{vr.UniqueIdentifier}, Name: "Media Storage SOP Class UID", Keyword: "MediaStorageSOPClassUID", VM: "1"},
	New(0x0002, 0x0003): {Tag: New(0x0002, 0x0003), VRs: []vr.VR{vr.UniqueIdentifier}, Name: "Media Storage SOP Instance UID", Keyword: "MediaStorageSOPInstanceUID", VM: "1"},
	New(0x0002, 0x0010): {Tag: New(0x0002, 0x0010), VRs: []vr.VR{vr.UniqueIdentifier}, Name: "Transfer Syntax UID", Keyword: "TransferSyntaxUID", VM: "1"},
	New(0x0002, 0x0012): {Tag: New(0x0002, 0x0012), VRs: []vr.VR{vr.UniqueIdentifier}, Name: "Implementation Class UID", Keyword: "ImplementationClassUID", VM: "1"},
	New(0x0002, 0x0013): {Tag: New(0x0002, 0x0013), VRs: []vr.VR{vr.ShortString}, Name: "Implementation Version Name", Keyword: "ImplementationVersionName", VM: "1"},
	New(0x0002, 0x0016): {Tag: New(0x0002, 0x0016), VRs: []vr.VR{vr.ApplicationEntity}, Name: "Source Application Entity Title", Keyword: "SourceApplicationEntityTitle", VM: "1"},

	// SOP Common / Identification (Group 0008)
	New(0x0008, 0x0005): {Tag: New(0x0008, 0x0005), VRs: []vr.VR{vr.CodeString}, Name: "Specific Character Set", Keyword: "SpecificCharacterSet", VM: "1-n"},
	New(0x0008, 0x0008): {Tag: New(0x0008, 0x0008), VRs: []vr.VR{vr.CodeString}, Name: "Image Type", Keyword: "ImageType", VM: "2-n"},
	New(0x0008, 0x0016): {Tag: New(0x0008, 0x0016), VRs: []vr.VR{vr.UniqueIdentifier}, Name: "SOP Class UID", Keyword: "SOPClassUID", VM: "1"},
	New(0x0008, 0x0018): {Tag: New(0x0008, 0x0018), VRs: []vr.VR{vr.UniqueIdentifier}, Name: "SOP Instance UID", Keyword: "SOPInstanceUID", VM: "1"},
	New(0x0008, 0x0020): {Tag: New(0x0008, 0x0020), VRs: []vr.VR{vr.Date}, Name: "Study Date", Keyword: "StudyDate", VM: "1"},
	New(0x0008, 0x0021): {Tag: New(0x0008, 0x0021), VRs: []vr.VR{vr.Date}, Name: "Series Date", Keyword: "SeriesDate", VM: "1"},
	New(0x0008, 0x0030): {Tag: New(0x0008, 0x0030), VRs: []vr.VR{vr.Time}, Name: "Study Time", Keyword: "StudyTime", VM: "1"},
	New(0x0008, 0x0050): {Tag: New(0x0008, 0x0050), VRs: []vr.VR{vr.ShortString}, Name: "Accession Number", Keyword: "AccessionNumber", VM: "1"},
	New(0x0008, 0x0060): {Tag: New(0x0008, 0x0060), VRs: []vr.VR{vr.CodeString}, Name: "Modality", Keyword: "Modality", VM: "1"},
	New(0x0008, 0x0070): {Tag: New(0x0008, 0x0070), VRs: []vr.VR{vr.LongString}, Name: "Manufacturer", Keyword: "Manufacturer", VM: "1"},
	New(0x0008, 0x0090): {Tag: New(0x0008, 0x0090), VRs: []vr.VR{vr.PersonName}, Name: "Referring Physician's Name", Keyword: "ReferringPhysicianName", VM: "1"},
	New(0x0008, 0x1030): {Tag: New(0x0008, 0x1030), VRs: []vr.VR{vr.LongString}, Name: "Study Description", Keyword: "StudyDescription", VM: "1"},
	New(0x0008, 0x103E): {Tag: New(0x0008, 0x103E), VRs: []vr.VR{vr.LongString}, Name: "Series Description", Keyword: "SeriesDescription", VM: "1"},

	// Patient (Group 0010)
	New(0x0010, 0x0010): {Tag: New(0x0010, 0x0010), VRs: []vr.VR{vr.PersonName}, Name: "Patient's Name", Keyword: "PatientName", VM: "1"},
	New(0x0010, 0x0020): {Tag: New(0x0010, 0x0020), VRs: []vr.VR{vr.LongString}, Name: "Patient ID", Keyword: "PatientID", VM: "1"},
	New(0x0010, 0x0030): {Tag: New(0x0010, 0x0030), VRs: []vr.VR{vr.Date}, Name: "Patient's Birth Date", Keyword: "PatientBirthDate", VM: "1"},
	New(0x0010, 0x0040): {Tag: New(0x0010, 0x0040), VRs: []vr.VR{vr.CodeString}, Name: "Patient's Sex", Keyword: "PatientSex", VM: "1"},
	New(0x0010, 0x1010): {Tag: New(0x0010, 0x1010), VRs: []vr.VR{vr.AgeString}, Name: "Patient's Age", Keyword: "PatientAge", VM: "1"},

	// Study / Series / Equipment (Group 0018, 0020)
	New(0x0018, 0x0050): {Tag: New(0x0018, 0x0050), VRs: []vr.VR{vr.DecimalString}, Name: "Slice Thickness", Keyword: "SliceThickness", VM: "1"},
	New(0x0018, 0x1030): {Tag: New(0x0018, 0x1030), VRs: []vr.VR{vr.LongString}, Name: "Protocol Name", Keyword: "ProtocolName", VM: "1"},
	New(0x0020, 0x000D): {Tag: New(0x0020, 0x000D), VRs: []vr.VR{vr.UniqueIdentifier}, Name: "Study Instance UID", Keyword: "StudyInstanceUID", VM: "1"},
	New(0x0020, 0x000E): {Tag: New(0x0020, 0x000E), VRs: []vr.VR{vr.UniqueIdentifier}, Name: "Series Instance UID", Keyword: "SeriesInstanceUID", VM: "1"},
	New(0x0020, 0x0010): {Tag: New(0x0020, 0x0010), VRs: []vr.VR{vr.ShortString}, Name: "Study ID", Keyword: "StudyID", VM: "1"},
	New(0x0020, 0x0011): {Tag: New(0x0020, 0x0011), VRs: []vr.VR{vr.IntegerString}, Name: "Series Number", Keyword: "SeriesNumber", VM: "1"},
	New(0x0020, 0x0013): {Tag: New(0x0020, 0x0013), VRs: []vr.VR{vr.IntegerString}, Name: "Instance Number", Keyword: "InstanceNumber", VM: "1"},
	New(0x0020, 0x0032): {Tag: New(0x0020, 0x0032), VRs: []vr.VR{vr.DecimalString}, Name: "Image Position (Patient)", Keyword: "ImagePositionPatient", VM: "3"},
	New(0x0020, 0x0037): {Tag: New(0x0020, 0x0037), VRs: []vr.VR{vr.DecimalString}, Name: "Image Orientation (Patient)", Keyword: "ImageOrientationPatient", VM: "6"},

	// Image Pixel module (Group 0028)
	New(0x0028, 0x0002): {Tag: New(0x0028, 0x0002), VRs: []vr.VR{vr.UnsignedShort}, Name: "Samples per Pixel", Keyword: "SamplesPerPixel", VM: "1"},
	New(0x0028, 0x0004): {Tag: New(0x0028, 0x0004), VRs: []vr.VR{vr.CodeString}, Name: "Photometric Interpretation", Keyword: "PhotometricInterpretation", VM: "1"},
	New(0x0028, 0x0010): {Tag: New(0x0028, 0x0010), VRs: []vr.VR{vr.UnsignedShort}, Name: "Rows", Keyword: "Rows", VM: "1"},
	New(0x0028, 0x0011): {Tag: New(0x0028, 0x0011), VRs: []vr.VR{vr.UnsignedShort}, Name: "Columns", Keyword: "Columns", VM: "1"},
	New(0x0028, 0x0100): {Tag: New(0x0028, 0x0100), VRs: []vr.VR{vr.UnsignedShort}, Name: "Bits Allocated", Keyword: "BitsAllocated", VM: "1"},
	New(0x0028, 0x0101): {Tag: New(0x0028, 0x0101), VRs: []vr.VR{vr.UnsignedShort}, Name: "Bits Stored", Keyword: "BitsStored", VM: "1"},
	New(0x0028, 0x0102): {Tag: New(0x0028, 0x0102), VRs: []vr.VR{vr.UnsignedShort}, Name: "High Bit", Keyword: "HighBit", VM: "1"},
	New(0x0028, 0x0103): {Tag: New(0x0028, 0x0103), VRs: []vr.VR{vr.UnsignedShort}, Name: "Pixel Representation", Keyword: "PixelRepresentation", VM: "1"},
	New(0x0028, 0x0106): {Tag: New(0x0028, 0x0106), VRs: []vr.VR{vr.UnsignedShort, vr.SignedShort}, Name: "Smallest Image Pixel Value", Keyword: "SmallestImagePixelValue", VM: "1"},
	New(0x0028, 0x0107): {Tag: New(0x0028, 0x0107), VRs: []vr.VR{vr.UnsignedShort, vr.SignedShort}, Name: "Largest Image Pixel Value", Keyword: "LargestImagePixelValue", VM: "1"},
	New(0x0028, 0x1050): {Tag: New(0x0028, 0x1050), VRs: []vr.VR{vr.DecimalString}, Name: "Window Center", Keyword: "WindowCenter", VM: "1-n"},
	New(0x0028, 0x1051): {Tag: New(0x0028, 0x1051), VRs: []vr.VR{vr.DecimalString}, Name: "Window Width", Keyword: "WindowWidth", VM: "1-n"},
	New(0x0028, 0x1052): {Tag: New(0x0028, 0x1052), VRs: []vr.VR{vr.DecimalString}, Name: "Rescale Intercept", Keyword: "RescaleIntercept", VM: "1"},
	New(0x0028, 0x1053): {Tag: New(0x0028, 0x1053), VRs: []vr.VR{vr.DecimalString}, Name: "Rescale Slope", Keyword: "RescaleSlope", VM: "1"},

	// Pixel Data (Group 7FE0)
	New(0x7FE0, 0x0000): {Tag: New(0x7FE0, 0x0000), VRs: []vr.VR{vr.UnsignedLong}, Name: "Group Length", Keyword: "PixelDataGroupLength", VM: "1", Retired: true},
	New(0x7FE0, 0x0010): {Tag: New(0x7FE0, 0x0010), VRs: []vr.VR{vr.OtherByte, vr.OtherWord}, Name: "Pixel Data", Keyword: "PixelData", VM: "1"},

	// Sequences used in the Directory/Structured Report scenarios
	New(0x0008, 0x1110): {Tag: New(0x0008, 0x1110), VRs: []vr.VR{vr.SequenceOfItems}, Name: "Referenced Study Sequence", Keyword: "ReferencedStudySequence", VM: "1"},
	New(0x0008, 0x1140): {Tag: New(0x0008, 0x1140), VRs: []vr.VR{vr.SequenceOfItems}, Name: "Referenced Image Sequence", Keyword: "ReferencedImageSequence", VM: "1"},
	New(0x0040, 0xA730): {Tag: New(0x0040, 0xA730), VRs: []vr.VR{vr.SequenceOfItems}, Name: "Content Sequence", Keyword: "ContentSequence", VM: "1"},

	// DICOMDIR (Group 0004)
	New(0x0004, 0x1220): {Tag: New(0x0004, 0x1220), VRs: []vr.VR{vr.SequenceOfItems}, Name: "Directory Record Sequence", Keyword: "DirectoryRecordSequence", VM: "1"},
}
