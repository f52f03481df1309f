package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// Errors returned by the parser. All of them are wrapped in ErrMalformedAsset by the loader.
var (
	errInvalidGLTFVersion = errors.New("invalid glTF version: must be 2.x")
	errInvalidGLBMagic    = errors.New("invalid GLB magic number")
	errInvalidGLBVersion  = errors.New("invalid GLB version: must be 2")
	errMissingJSONChunk   = errors.New("GLB file missing JSON chunk")
	errInvalidBufferURI   = errors.New("invalid buffer URI")
	errBufferSizeMismatch = errors.New("buffer size mismatch")
	errAccessorBounds     = errors.New("accessor reads past the end of its buffer")
)

// gltfParserImpl is the implementation of the gltfParser interface.
type gltfParserImpl struct {
	baseDir        string
	document       *gltfDocument
	glbBinaryChunk []byte
}

// gltfParser loads a glTF/GLB document and its buffers and reads accessors as flat float data.
// This is internal to the loader package.
type gltfParser interface {
	// Parse loads and parses a glTF/GLB file from the given path.
	// The format is detected from the extension or the GLB magic number.
	//
	// Parameters:
	//   - path: path to the glTF or GLB file
	//
	// Returns:
	//   - error: error if parsing fails
	Parse(path string) error

	// ParseReader parses a glTF document from a reader. External buffer URIs resolve against the
	// working directory.
	//
	// Parameters:
	//   - r: reader containing glTF JSON or GLB data
	//   - isGLB: true if the data is in GLB format
	//
	// Returns:
	//   - error: error if parsing fails
	ParseReader(r io.Reader, isGLB bool) error

	// Document returns the parsed document, or nil before a successful parse.
	Document() *gltfDocument

	// ReadFloats reads an accessor of the given element type as a flat float slice,
	// Count * components long. FLOAT data is read as-is; normalized integer data is mapped to floats.
	//
	// Parameters:
	//   - accessorIndex: the index of the accessor
	//   - accessorType: the required element type (SCALAR, VEC3, VEC4, MAT4)
	//
	// Returns:
	//   - []float32: the flat data
	//   - error: error if the accessor is missing, of the wrong type, or out of bounds
	ReadFloats(accessorIndex int, accessorType string) ([]float32, error)
}

var _ gltfParser = &gltfParserImpl{}

// newGLTFParser creates a new glTF parser instance.
//
// Returns:
//   - gltfParser: a new parser instance
func newGLTFParser() gltfParser {
	return &gltfParserImpl{}
}

func (p *gltfParserImpl) Document() *gltfDocument {
	return p.document
}

func (p *gltfParserImpl) Parse(path string) error {
	p.baseDir = filepath.Dir(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	isGLB := strings.EqualFold(filepath.Ext(path), ".glb") ||
		(len(data) >= 4 && binary.LittleEndian.Uint32(data[:4]) == gltfGLBMagic)
	return p.decode(data, isGLB)
}

func (p *gltfParserImpl) ParseReader(r io.Reader, isGLB bool) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read data: %w", err)
	}
	return p.decode(data, isGLB)
}

// decode unpacks the GLB container if needed, then decodes the JSON document and its buffers.
func (p *gltfParserImpl) decode(data []byte, isGLB bool) error {
	jsonData := data
	if isGLB {
		var err error
		if jsonData, p.glbBinaryChunk, err = splitGLB(data); err != nil {
			return err
		}
	}

	var doc gltfDocument
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return fmt.Errorf("failed to parse glTF JSON: %w", err)
	}
	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return fmt.Errorf("%w (got %q)", errInvalidGLTFVersion, doc.Asset.Version)
	}
	if err := p.loadBuffers(&doc); err != nil {
		return fmt.Errorf("failed to load buffers: %w", err)
	}

	p.document = &doc
	return nil
}

// splitGLB returns the JSON and BIN chunks of a GLB container.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#glb-file-format-specification
func splitGLB(data []byte) (jsonChunk, binChunk []byte, err error) {
	if len(data) < 12 {
		return nil, nil, errors.New("GLB file too small")
	}
	r := bytes.NewReader(data)

	var header gltfGLBHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, nil, fmt.Errorf("failed to read GLB header: %w", err)
	}
	if header.Magic != gltfGLBMagic {
		return nil, nil, errInvalidGLBMagic
	}
	if header.Version != gltfGLBVersion {
		return nil, nil, errInvalidGLBVersion
	}

	for {
		var chunk gltfGLBChunkHeader
		if err := binary.Read(r, binary.LittleEndian, &chunk); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, fmt.Errorf("failed to read chunk header: %w", err)
		}
		if int64(chunk.ChunkLength) > int64(r.Len()) {
			return nil, nil, fmt.Errorf("chunk of %d bytes exceeds remaining %d", chunk.ChunkLength, r.Len())
		}
		body := make([]byte, chunk.ChunkLength)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, nil, fmt.Errorf("failed to read chunk data: %w", err)
		}
		switch chunk.ChunkType {
		case gltfGLBChunkJSON:
			jsonChunk = body
		case gltfGLBChunkBIN:
			binChunk = body
		}
	}

	if jsonChunk == nil {
		return nil, nil, errMissingJSONChunk
	}
	return jsonChunk, binChunk, nil
}

// loadBuffers fills every buffer from its URI, an embedded data URI, or the GLB binary chunk.
func (p *gltfParserImpl) loadBuffers(doc *gltfDocument) error {
	for i := range doc.Buffers {
		buf := &doc.Buffers[i]

		switch {
		case buf.URI == "" && i == 0 && p.glbBinaryChunk != nil:
			buf.Data = p.glbBinaryChunk
		case buf.URI == "":
			return fmt.Errorf("buffer %d has no URI and no GLB binary chunk", i)
		default:
			data, err := p.loadBufferURI(buf.URI)
			if err != nil {
				return fmt.Errorf("buffer %d: %w", i, err)
			}
			buf.Data = data
		}

		if len(buf.Data) < buf.ByteLength {
			return fmt.Errorf("buffer %d: %w: have %d bytes, declared %d", i, errBufferSizeMismatch, len(buf.Data), buf.ByteLength)
		}
	}
	return nil
}

// loadBufferURI loads buffer data from a data: URI or a file relative to the document.
func (p *gltfParserImpl) loadBufferURI(uri string) ([]byte, error) {
	if strings.HasPrefix(uri, "data:") {
		return decodeDataURI(uri)
	}

	data, err := os.ReadFile(filepath.Join(p.baseDir, uri))
	if err != nil {
		return nil, fmt.Errorf("failed to load buffer file %q: %w", uri, err)
	}
	return data, nil
}

// decodeDataURI decodes a base64 data URI of the form data:[<mediatype>];base64,<data>.
func decodeDataURI(uri string) ([]byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, errInvalidBufferURI
	}
	if !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("%w: unsupported encoding %q", errInvalidBufferURI, header)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}
	return data, nil
}

func (p *gltfParserImpl) ReadFloats(accessorIndex int, accessorType string) ([]float32, error) {
	if p.document == nil {
		return nil, errors.New("no document loaded")
	}
	doc := p.document
	if accessorIndex < 0 || accessorIndex >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor index %d out of range", accessorIndex)
	}

	acc := &doc.Accessors[accessorIndex]
	if acc.Type != accessorType {
		return nil, fmt.Errorf("accessor %d is %s, want %s", accessorIndex, acc.Type, accessorType)
	}
	if acc.Sparse != nil {
		return nil, fmt.Errorf("accessor %d: sparse accessors are not supported", accessorIndex)
	}
	if acc.BufferView == nil || *acc.BufferView < 0 || *acc.BufferView >= len(doc.BufferViews) {
		return nil, fmt.Errorf("accessor %d has no valid bufferView", accessorIndex)
	}

	bv := &doc.BufferViews[*acc.BufferView]
	if bv.Buffer < 0 || bv.Buffer >= len(doc.Buffers) {
		return nil, fmt.Errorf("bufferView %d: buffer index %d out of range", *acc.BufferView, bv.Buffer)
	}
	data := doc.Buffers[bv.Buffer].Data

	componentSize := gltfComponentTypeSize(acc.ComponentType)
	components := gltfAccessorTypeComponentCount(acc.Type)
	if componentSize == 0 || components == 0 {
		return nil, fmt.Errorf("accessor %d: unsupported layout %s/%d", accessorIndex, acc.Type, acc.ComponentType)
	}
	if acc.ComponentType != gltfComponentTypeFloat && !acc.Normalized {
		return nil, fmt.Errorf("accessor %d: component type %d is not FLOAT or normalized", accessorIndex, acc.ComponentType)
	}

	elementSize := componentSize * components
	stride := elementSize
	if bv.ByteStride != nil && *bv.ByteStride > 0 {
		stride = *bv.ByteStride
	}
	base := bv.ByteOffset + acc.ByteOffset
	if acc.Count > 0 && base+(acc.Count-1)*stride+elementSize > len(data) {
		return nil, fmt.Errorf("accessor %d: %w", accessorIndex, errAccessorBounds)
	}

	out := make([]float32, 0, acc.Count*components)
	for i := 0; i < acc.Count; i++ {
		elem := data[base+i*stride : base+i*stride+elementSize]
		for c := 0; c < components; c++ {
			out = append(out, readComponent(elem[c*componentSize:], acc.ComponentType))
		}
	}
	return out, nil
}

// readComponent decodes one little-endian component, normalizing integer types per the glTF rules.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#animations
func readComponent(b []byte, componentType int) float32 {
	switch componentType {
	case gltfComponentTypeFloat:
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	case gltfComponentTypeByte:
		return max(float32(int8(b[0]))/127, -1)
	case gltfComponentTypeUnsignedByte:
		return float32(b[0]) / 255
	case gltfComponentTypeShort:
		return max(float32(int16(binary.LittleEndian.Uint16(b)))/32767, -1)
	case gltfComponentTypeUnsignedShort:
		return float32(binary.LittleEndian.Uint16(b)) / 65535
	case gltfComponentTypeUnsignedInt:
		return float32(binary.LittleEndian.Uint32(b)) / math.MaxUint32
	}
	return 0
}

// gltfComponentTypeSize returns the byte size of a component type.
func gltfComponentTypeSize(componentType int) int {
	switch componentType {
	case gltfComponentTypeByte, gltfComponentTypeUnsignedByte:
		return 1
	case gltfComponentTypeShort, gltfComponentTypeUnsignedShort:
		return 2
	case gltfComponentTypeUnsignedInt, gltfComponentTypeFloat:
		return 4
	default:
		return 0
	}
}

// gltfAccessorTypeComponentCount returns the number of components for an accessor type.
func gltfAccessorTypeComponentCount(accessorType string) int {
	switch accessorType {
	case gltfAccessorTypeScalar:
		return 1
	case gltfAccessorTypeVec2:
		return 2
	case gltfAccessorTypeVec3:
		return 3
	case gltfAccessorTypeVec4:
		return 4
	case gltfAccessorTypeMat4:
		return 16
	default:
		return 0
	}
}
