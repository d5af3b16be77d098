package gltf

import (
	"bytes"
	"encoding/json"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Common errors returned by the document parser.
var (
	ErrUnsupportedVersion = errors.New("gltf: unsupported asset version")
	ErrNotGLTF            = errors.New("gltf: data is neither a binary container nor a JSON document")
)

// SupportedMajorVersion is the schema major version this package reads.
const SupportedMajorVersion = 2

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseDocument decodes a JSON chunk into a Document and validates its declared version.
// Valid UTF-8 is decoded directly. Anything else is run through a BOM-sniffing decoder so
// UTF-16 payloads written by older exporters still parse.
//
// Parameters:
//   - data: the JSON text
//
// Returns:
//   - *Document: the parsed document
//   - error: error if decoding or version validation fails
func ParseDocument(data []byte) (*Document, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(text, &doc); err != nil {
		return nil, errors.Wrap(err, "gltf: decode document")
	}

	if err := checkVersion(doc.Asset.Version); err != nil {
		return nil, err
	}

	return &doc, nil
}

// decodeText returns data as UTF-8 without a byte order mark.
func decodeText(data []byte) ([]byte, error) {
	if utf8.Valid(data) {
		return bytes.TrimPrefix(data, utf8BOM), nil
	}

	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	text, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return nil, errors.Wrap(err, "gltf: decode document text")
	}
	return bytes.TrimPrefix(text, utf8BOM), nil
}

// checkVersion rejects documents declaring a version below SupportedMajorVersion. A missing
// version is tolerated.
func checkVersion(version string) error {
	if version == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(version), 32)
	if err != nil {
		return errors.Wrapf(ErrUnsupportedVersion, "asset.version %q", version)
	}
	if v < SupportedMajorVersion {
		return errors.Wrapf(ErrUnsupportedVersion, "asset.version %s", version)
	}
	return nil
}

// LooksLikeJSON reports whether the first significant byte of data opens a JSON object.
func LooksLikeJSON(data []byte) bool {
	data = bytes.TrimPrefix(data, utf8BOM)
	for _, b := range data {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '{':
			return true
		default:
			return false
		}
	}
	return false
}

// SplitAsset returns the JSON text and optional binary chunk of an asset that is either a
// binary container or a bare JSON document. Container validation follows ReadContainer,
// including its panic on chunk overflow.
//
// Parameters:
//   - data: the asset bytes
//
// Returns:
//   - []byte: the JSON text
//   - []byte: the binary chunk, or nil
//   - error: error if the data is malformed
func SplitAsset(data []byte) ([]byte, []byte, error) {
	if IsContainer(data) {
		c, err := ReadContainer(data)
		if err != nil {
			return nil, nil, err
		}
		return c.JSON(), c.BIN(), nil
	}
	if LooksLikeJSON(data) {
		return data, nil, nil
	}
	if len(data) >= 4 {
		// Report a bad magic on anything that is neither JSON nor a container so the caller
		// sees the observed value.
		return nil, nil, &FormatError{Field: "magic", Expected: Magic, Found: leUint32(data)}
	}
	return nil, nil, ErrNotGLTF
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// RequiresExtension reports whether the document lists name in extensionsRequired.
func (d *Document) RequiresExtension(name string) bool {
	return slices.Contains(d.ExtensionsRequired, name)
}

// UsesExtension reports whether the document lists name in extensionsUsed or
// extensionsRequired.
func (d *Document) UsesExtension(name string) bool {
	return slices.Contains(d.ExtensionsUsed, name) || d.RequiresExtension(name)
}

// Lights returns the punctual lights declared by the document.
func (d *Document) Lights() []Light {
	if d.Extensions == nil || d.Extensions.LightsPunctual == nil {
		return nil
	}
	return d.Extensions.LightsPunctual.Lights
}

// Variants returns the material variants declared by the document.
func (d *Document) Variants() []Variant {
	if d.Extensions == nil || d.Extensions.MaterialsVariants == nil {
		return nil
	}
	return d.Extensions.MaterialsVariants.Variants
}
