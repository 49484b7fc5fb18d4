package dicom

import (
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/codeninja55/go-dicom/dicom/vr"
)

// defaultCharsetVRs never switch codec on (0008,0005): their content is
// always restricted to the basic graphic character repertoire regardless
// of the active Specific Character Set.
var defaultCharsetVRs = map[vr.VR]bool{
	vr.ApplicationEntity: true,
	vr.AgeString:         true,
	vr.CodeString:        true,
	vr.Date:              true,
	vr.DecimalString:     true,
	vr.DateTime:          true,
	vr.IntegerString:     true,
	vr.Time:              true,
	vr.UniqueIdentifier:  true,
}

// characterSetEncodings maps the defined terms of (0008,0005) Specific
// Character Set to a golang.org/x/text encoding. "ISO_IR 6"/"" (the
// default repertoire) and "ISO_IR 192" (UTF-8) need no transcoding and
// are absent from this table; lookupCharacterSet maps them to a nil codec,
// which installCharacterSet installs as plain pass-through decoding.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part03.html#sect_C.12.1.1.2
var characterSetEncodings = map[string]encoding.Encoding{
	"ISO_IR 100": charmap.ISO8859_1,
	"ISO_IR 101": charmap.ISO8859_2,
	"ISO_IR 109": charmap.ISO8859_3,
	"ISO_IR 110": charmap.ISO8859_4,
	"ISO_IR 144": charmap.ISO8859_5,
	"ISO_IR 127": charmap.ISO8859_6,
	"ISO_IR 126": charmap.ISO8859_7,
	"ISO_IR 138": charmap.ISO8859_8,
	"ISO_IR 148": charmap.ISO8859_9,
	"ISO_IR 13":  japanese.ShiftJIS,
	"GB18030":    simplifiedchinese.GB18030,
	"GBK":        simplifiedchinese.GBK,
}

// lookupCharacterSet resolves a (0008,0005) defined term to an encoding.
// The boolean result is false for unrecognized names, letting the caller
// log a warning and leave the active codec unchanged per §4.4/§6.
func lookupCharacterSet(name string) (encoding.Encoding, bool) {
	name = strings.TrimSpace(name)
	switch name {
	case "", "ISO_IR 6", "ISO 2022 IR 6", "ISO_IR 192":
		// Default repertoire or UTF-8: no transcoding needed.
		return nil, true
	}
	enc, ok := characterSetEncodings[name]
	return enc, ok
}

// installCharacterSet updates the parser's active text codec in response
// to a decoded (0008,0005) element. Only the first defined value is
// honored; ISO 2022 code-extension techniques (multiple values selecting
// escape-sequence-delimited character sets within one value) are not
// supported, matching this toolkit's single-active-codec model.
func (p *ElementParser) installCharacterSet(names []string) {
	name := ""
	if len(names) > 0 {
		name = names[0]
	}

	enc, ok := lookupCharacterSet(name)
	if !ok {
		logrus.WithField("specific_character_set", name).
			Warn("unsupported Specific Character Set, leaving active codec unchanged")
		return
	}
	p.charset = enc
}

// decodeText converts raw element bytes to UTF-8 using the active
// character-set codec. A nil codec (the default, or UTF-8 source data)
// passes bytes through unchanged.
func decodeText(codec encoding.Encoding, data []byte) string {
	if codec == nil {
		return string(data)
	}
	out, err := codec.NewDecoder().Bytes(data)
	if err != nil {
		// Malformed input under the declared codec: fall back to a raw
		// pass-through rather than failing the whole element read.
		return string(data)
	}
	return string(out)
}
