package scp

import (
	"fmt"

	"github.com/codeninja55/go-dicom/dicom"
	"github.com/codeninja55/go-dicom/dicom/tag"
	"github.com/codeninja55/go-dicom/dicom/uid"
)

// Common DICOM tags used by SCP services
var (
	TagSOPClassUID    = tag.New(0x0008, 0x0016)
	TagSOPInstanceUID = tag.New(0x0008, 0x0018)
)

// getStringFromDataSet extracts a string value from a DICOM dataset
func getStringFromDataSet(ds *dicom.DataSet, t tag.Tag) (string, error) {
	elem, err := ds.Get(t)
	if err != nil {
		return "", fmt.Errorf("get tag %s: %w", t, err)
	}

	value := elem.Value()
	if value == nil {
		return "", fmt.Errorf("tag %s has nil value", t)
	}

	return value.String(), nil
}

// getUIDFromDataSet extracts a string value from a DICOM dataset and
// validates it against the DICOM UID character-set/length rules. A
// sub-operation source dataset that carries a malformed SOP Class or
// SOP Instance UID is rejected here rather than forwarded to a peer.
func getUIDFromDataSet(ds *dicom.DataSet, t tag.Tag) (string, error) {
	s, err := getStringFromDataSet(ds, t)
	if err != nil {
		return "", err
	}
	if !uid.IsValid(s) {
		return "", fmt.Errorf("tag %s: %q is not a valid UID", t, s)
	}
	return s, nil
}
