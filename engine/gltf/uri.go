package gltf

import (
	"encoding/base64"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidDataURI is returned when a data: URI cannot be decoded.
var ErrInvalidDataURI = errors.New("gltf: invalid data URI")

const dataURIPrefix = "data:"

// IsDataURI reports whether uri embeds its payload inline.
func IsDataURI(uri string) bool {
	return strings.HasPrefix(uri, dataURIPrefix)
}

// DecodeDataURI decodes an inline data: URI. Both base64 and percent-encoded payloads are
// accepted. The returned MIME type is empty when the URI omits it.
//
// Parameters:
//   - uri: the data URI
//
// Returns:
//   - []byte: the decoded payload
//   - string: the declared MIME type
//   - error: ErrInvalidDataURI if the URI is malformed
func DecodeDataURI(uri string) ([]byte, string, error) {
	if !IsDataURI(uri) {
		return nil, "", errors.Wrap(ErrInvalidDataURI, "missing data: scheme")
	}

	header, payload, ok := strings.Cut(uri[len(dataURIPrefix):], ",")
	if !ok {
		return nil, "", errors.Wrap(ErrInvalidDataURI, "missing payload separator")
	}

	params := strings.Split(header, ";")
	mime := params[0]
	encoded := false
	for _, p := range params[1:] {
		if p == "base64" {
			encoded = true
		}
	}

	if !encoded {
		raw, err := url.PathUnescape(payload)
		if err != nil {
			return nil, "", errors.Wrapf(ErrInvalidDataURI, "unescape: %v", err)
		}
		return []byte(raw), mime, nil
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// Some exporters drop the padding.
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return nil, "", errors.Wrapf(ErrInvalidDataURI, "base64: %v", err)
		}
	}
	return data, mime, nil
}
