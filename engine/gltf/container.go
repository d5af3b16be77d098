package gltf

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
)

// Binary container constants.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#glb-file-format-specification
const (
	Magic         uint32 = 0x46546C67 // "glTF" in little-endian ASCII
	Version       uint32 = 2
	ChunkJSON     uint32 = 0x4E4F534A // "JSON" in little-endian ASCII
	ChunkBIN      uint32 = 0x004E4942 // "BIN\0" in little-endian ASCII
	headerLength         = 12
	chunkHeaderLength    = 8
)

// FormatError reports a structural problem in a binary container. Field names the offending
// header field; Expected and Found carry the numeric values that did not match.
type FormatError struct {
	Field    string
	Expected uint32
	Found    uint32
	Message  string
}

func (e *FormatError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("gltf: invalid %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("gltf: invalid %s: Expected 0x%x, found 0x%x", e.Field, e.Expected, e.Found)
}

// ChunkOverflowError is raised, as a panic, when a chunk header declares more payload than the
// container holds. It is deliberately kept apart from FormatError.
type ChunkOverflowError struct {
	Chunk     int
	Offset    int
	Length    uint32
	Available int
}

func (e *ChunkOverflowError) Error() string {
	return fmt.Sprintf("gltf: chunk %d at offset %d declares %d bytes but only %d remain", e.Chunk, e.Offset, e.Length, e.Available)
}

// Chunk is one (length, type, payload) record of a binary container.
type Chunk struct {
	Length uint32
	Type   uint32
	Data   []byte
}

// Container is a parsed binary container: a header and one or two chunks.
type Container struct {
	Magic   uint32
	Version uint32
	Length  uint32
	Chunks  []Chunk
}

// JSON returns the payload of the JSON chunk.
func (c *Container) JSON() []byte {
	return c.Chunks[0].Data
}

// BIN returns the payload of the binary chunk, or nil when the container has none.
func (c *Container) BIN() []byte {
	if len(c.Chunks) < 2 {
		return nil
	}
	return c.Chunks[1].Data
}

// IsContainer reports whether data starts with the binary container magic.
func IsContainer(data []byte) bool {
	return len(data) >= 4 && binary.LittleEndian.Uint32(data[:4]) == Magic
}

// ReadContainer validates a binary container and splits it into its JSON chunk and optional
// binary chunk. Chunk payloads alias data; nothing is copied.
//
// Every structural mismatch is returned as a *FormatError naming the field and the observed
// value. The one exception is a chunk whose declared length runs past the end of data: that
// panics with a *ChunkOverflowError.
//
// Parameters:
//   - data: the full container bytes
//
// Returns:
//   - *Container: the parsed container
//   - error: a *FormatError when validation fails
func ReadContainer(data []byte) (*Container, error) {
	if len(data) < headerLength {
		return nil, &FormatError{Field: "header", Message: fmt.Sprintf("need %d bytes, have %d", headerLength, len(data))}
	}

	c := &Container{
		Magic:   binary.LittleEndian.Uint32(data[0:4]),
		Version: binary.LittleEndian.Uint32(data[4:8]),
		Length:  binary.LittleEndian.Uint32(data[8:12]),
	}

	if c.Magic != Magic {
		return nil, &FormatError{Field: "magic", Expected: Magic, Found: c.Magic}
	}
	if c.Version != Version {
		return nil, &FormatError{Field: "version", Expected: Version, Found: c.Version}
	}
	if int(c.Length) > len(data) {
		return nil, &FormatError{Field: "length", Message: fmt.Sprintf("declared length %d exceeds data length %d", c.Length, len(data))}
	}

	// Anything past the declared length is ignored.
	body := data[:c.Length]
	offset := headerLength
	for offset < len(body) {
		index := len(c.Chunks)
		if index == 2 {
			return nil, &FormatError{Field: "chunk count", Message: fmt.Sprintf("unexpected third chunk at offset %d", offset)}
		}
		if len(body)-offset < chunkHeaderLength {
			return nil, &FormatError{Field: "chunk header", Message: fmt.Sprintf("truncated header at offset %d", offset)}
		}

		length := binary.LittleEndian.Uint32(body[offset : offset+4])
		kind := binary.LittleEndian.Uint32(body[offset+4 : offset+8])
		start := offset + chunkHeaderLength
		if uint64(length) > uint64(len(body)-start) {
			panic(&ChunkOverflowError{Chunk: index, Offset: offset, Length: length, Available: len(body) - start})
		}

		switch {
		case index == 0 && kind != ChunkJSON:
			return nil, &FormatError{Field: "chunk type", Expected: ChunkJSON, Found: kind}
		case index == 1 && kind != ChunkBIN:
			return nil, &FormatError{Field: "chunk type", Expected: ChunkBIN, Found: kind}
		}

		end := start + int(length)
		c.Chunks = append(c.Chunks, Chunk{Length: length, Type: kind, Data: body[start:end:end]})
		offset = end
	}

	if len(c.Chunks) == 0 {
		return nil, errors.Wrap(&FormatError{Field: "chunk count", Message: "container has no JSON chunk"}, "read container")
	}

	return c, nil
}

// Encode writes a container around a JSON payload and an optional binary payload, padding the
// JSON chunk with spaces and the binary chunk with zeros to 4-byte boundaries.
//
// Parameters:
//   - jsonData: the JSON chunk payload
//   - bin: the binary chunk payload, or nil for none
//
// Returns:
//   - []byte: the encoded container
func Encode(jsonData, bin []byte) []byte {
	jsonLen := align4(len(jsonData))
	total := headerLength + chunkHeaderLength + jsonLen
	binLen := 0
	if bin != nil {
		binLen = align4(len(bin))
		total += chunkHeaderLength + binLen
	}

	out := make([]byte, total)
	binary.LittleEndian.PutUint32(out[0:4], Magic)
	binary.LittleEndian.PutUint32(out[4:8], Version)
	binary.LittleEndian.PutUint32(out[8:12], uint32(total))

	offset := headerLength
	binary.LittleEndian.PutUint32(out[offset:], uint32(jsonLen))
	binary.LittleEndian.PutUint32(out[offset+4:], ChunkJSON)
	offset += chunkHeaderLength
	n := copy(out[offset:], jsonData)
	for i := offset + n; i < offset+jsonLen; i++ {
		out[i] = ' '
	}
	offset += jsonLen

	if bin != nil {
		binary.LittleEndian.PutUint32(out[offset:], uint32(binLen))
		binary.LittleEndian.PutUint32(out[offset+4:], ChunkBIN)
		offset += chunkHeaderLength
		copy(out[offset:], bin)
	}

	return out
}

func align4(n int) int {
	return (n + 3) &^ 3
}
