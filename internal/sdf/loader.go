package sdf

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/golang/glog"
	"github.com/klauspost/compress/zlib"
)

// maxVoxels bounds the sample count accepted from a volume header
const maxVoxels = 1 << 32

var (
	ErrInvalidHeader = errors.New("invalid sdf header")
	ErrTruncated     = errors.New("truncated sdf volume")
)

// Loader reads dense volumes from disk
type Loader interface {
	LoadVolume(filePath string) (*Volume, error)
}

// ZlibLoader reads volumes stored as a single zlib stream holding the header
// (dim u32x3, box_min f32x3, dx f32) followed by the little-endian u16 samples.
type ZlibLoader struct{}

func NewZlibLoader() Loader {
	return &ZlibLoader{}
}

func (l *ZlibLoader) LoadVolume(filePath string) (*Volume, error) {
	return LoadVolume(filePath)
}

// LoadVolume reads a zlib compressed volume file
func LoadVolume(filePath string) (*Volume, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	vol, err := ReadVolume(bufio.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(filePath), err)
	}

	glog.Infof("loaded sdf %s dim=%v box_min=%v dx=%f", filepath.Base(filePath), vol.Header.Dim, vol.Header.BoxMin, vol.Header.Dx)
	return vol, nil
}

// ReadVolume decodes a zlib compressed volume from r
func ReadVolume(r io.Reader) (*Volume, error) {
	zr, err := zlib.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var header Header
	if err := binary.Read(zr, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}

	n := header.NumVoxels()
	if n == 0 || n > maxVoxels {
		return nil, fmt.Errorf("%w: dim %v", ErrInvalidHeader, header.Dim)
	}
	if header.Dx <= 0 {
		return nil, fmt.Errorf("%w: dx %f", ErrInvalidHeader, header.Dx)
	}

	voxels := make([]uint16, n)
	if err := binary.Read(zr, binary.LittleEndian, voxels); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrTruncated
		}
		return nil, err
	}

	return NewVolume(header, voxels), nil
}

// SaveVolume writes a volume as a zlib compressed file
func SaveVolume(filePath string, vol *Volume) error {
	file, err := os.Create(filePath)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(file)
	if err := WriteVolume(bw, vol); err != nil {
		file.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// WriteVolume encodes a volume into w as a single zlib stream
func WriteVolume(w io.Writer, vol *Volume) error {
	if uint64(len(vol.Voxels)) != vol.Header.NumVoxels() {
		return fmt.Errorf("%w: %d samples for dim %v", ErrInvalidHeader, len(vol.Voxels), vol.Header.Dim)
	}

	zw := zlib.NewWriter(w)
	if err := binary.Write(zw, binary.LittleEndian, &vol.Header); err != nil {
		zw.Close()
		return err
	}
	if err := binary.Write(zw, binary.LittleEndian, vol.Voxels); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}
