// Package save reads and writes world snapshot files.
//
// A file is a little-endian header of eight float32 values (camera
// position, camera yaw and pitch, window centre) followed by the raw voxels
// of every chunk in row-major (z, x) window order. Files may be wrapped in a
// zstd frame; readers detect the frame magic.
package save

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/klauspost/compress/zstd"

	"github.com/voxr/voxr/rt/volume"
)

const Extension = ".vxl"

var ErrLayoutMismatch = errors.New("save: file layout does not match grid")

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

type Snapshot struct {
	CamPos mgl32.Vec3
	CamRot mgl32.Vec2
	Center mgl32.Vec3
	Chunks [][]byte
}

type header struct {
	CamPos [3]float32
	CamRot [2]float32
	Center [3]float32
}

var headerSize = binary.Size(header{})

// Size is the uncompressed length of a file for a width×width window.
func Size(width int) int {
	return headerSize + width*width*volume.ChunkVolume
}

// WithExtension appends .vxl unless name already ends in it.
func WithExtension(name string) string {
	if len(name) < len(Extension)+1 || !strings.HasSuffix(name, Extension) {
		return name + Extension
	}
	return name
}

func Encode(s Snapshot) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, headerSize+len(s.Chunks)*volume.ChunkVolume))
	h := header{CamPos: s.CamPos, CamRot: s.CamRot, Center: s.Center}
	if err := binary.Write(buf, binary.LittleEndian, &h); err != nil {
		return nil, err
	}
	for i, c := range s.Chunks {
		if len(c) != volume.ChunkVolume {
			return nil, fmt.Errorf("save: chunk %d has %d bytes, want %d", i, len(c), volume.ChunkVolume)
		}
		buf.Write(c)
	}
	return buf.Bytes(), nil
}

func Write(w io.Writer, s Snapshot, compress bool) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}
	if !compress {
		_, err = w.Write(data)
		return err
	}
	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	if _, err := zw.Write(data); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// Decode parses a file for a width×width window. The payload length must
// match exactly.
func Decode(data []byte, width int) (Snapshot, error) {
	if bytes.HasPrefix(data, zstdMagic) {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return Snapshot{}, err
		}
		defer dec.Close()
		if data, err = dec.DecodeAll(data, nil); err != nil {
			return Snapshot{}, fmt.Errorf("save: decompress: %w", err)
		}
	}
	if len(data) != Size(width) {
		return Snapshot{}, fmt.Errorf("%w: %d bytes, want %d for width %d", ErrLayoutMismatch, len(data), Size(width), width)
	}

	var h header
	if err := binary.Read(bytes.NewReader(data[:headerSize]), binary.LittleEndian, &h); err != nil {
		return Snapshot{}, err
	}
	s := Snapshot{CamPos: h.CamPos, CamRot: h.CamRot, Center: h.Center}
	body := data[headerSize:]
	s.Chunks = make([][]byte, width*width)
	for i := range s.Chunks {
		s.Chunks[i] = body[i*volume.ChunkVolume : (i+1)*volume.ChunkVolume]
	}
	return s, nil
}

func Read(r io.Reader, width int) (Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Snapshot{}, err
	}
	return Decode(data, width)
}

// WriteFile saves s to path through a temporary file so a failed write
// leaves any previous save intact.
func WriteFile(path string, s Snapshot, compress bool) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := Write(f, s, compress); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func ReadFile(path string, width int) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, err
	}
	defer f.Close()
	return Read(f, width)
}
