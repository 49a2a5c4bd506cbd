package vision

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	markerTEM  = 0x01
	markerRST0 = 0xD0
	markerRST7 = 0xD7
	markerSOI  = 0xD8
	markerEOI  = 0xD9
	markerSOS  = 0xDA
)

// jpegScanner splits a stream of concatenated JPEG images by walking their
// marker segments. Bytes between images are skipped.
type jpegScanner struct {
	r   *bufio.Reader
	buf bytes.Buffer
}

func newJPEGScanner(r io.Reader) *jpegScanner {
	return &jpegScanner{r: bufio.NewReaderSize(r, 64*1024)}
}

func (s *jpegScanner) Next() ([]byte, error) {
	if err := s.seekSOI(); err != nil {
		return nil, err
	}

	s.buf.Reset()
	s.buf.Write([]byte{0xFF, markerSOI})

	marker, err := s.readMarker()
	for {
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return nil, fmt.Errorf("%w: %w", ErrInvalidJPEG, err)
		}

		s.buf.Write([]byte{0xFF, marker})
		switch {
		case marker == markerEOI:
			return bytes.Clone(s.buf.Bytes()), nil
		case marker == markerTEM, marker >= markerRST0 && marker <= markerRST7:
			marker, err = s.readMarker()
		default:
			if err = s.copySegment(); err != nil {
				continue
			}
			if marker == markerSOS {
				marker, err = s.scanEntropy()
			} else {
				marker, err = s.readMarker()
			}
		}
	}
}

func (s *jpegScanner) seekSOI() error {
	var prev byte
	for {
		b, err := s.r.ReadByte()
		if err != nil {
			return err
		}
		if prev == 0xFF && b == markerSOI {
			return nil
		}
		prev = b
	}
}

func (s *jpegScanner) readMarker() (byte, error) {
	b, err := s.r.ReadByte()
	if err != nil {
		return 0, err
	}
	if b != 0xFF {
		return 0, fmt.Errorf("expected marker, found 0x%02x", b)
	}
	for b == 0xFF {
		if b, err = s.r.ReadByte(); err != nil {
			return 0, err
		}
	}
	return b, nil
}

func (s *jpegScanner) copySegment() error {
	var size [2]byte
	if _, err := io.ReadFull(s.r, size[:]); err != nil {
		return err
	}
	n := int64(binary.BigEndian.Uint16(size[:]))
	if n < 2 {
		return fmt.Errorf("segment length %d", n)
	}
	s.buf.Write(size[:])
	_, err := io.CopyN(&s.buf, s.r, n-2)
	return err
}

// scanEntropy copies entropy-coded data up to the next real marker, which it
// returns. Stuffed 0xFF00 and restart markers belong to the scan.
func (s *jpegScanner) scanEntropy() (byte, error) {
	for {
		b, err := s.r.ReadByte()
		if err != nil {
			return 0, err
		}
		if b != 0xFF {
			s.buf.WriteByte(b)
			continue
		}

		n, err := s.r.ReadByte()
		for err == nil && n == 0xFF {
			n, err = s.r.ReadByte()
		}
		if err != nil {
			return 0, err
		}
		if n == 0x00 || (n >= markerRST0 && n <= markerRST7) {
			s.buf.Write([]byte{0xFF, n})
			continue
		}
		return n, nil
	}
}

type mjpegSource struct {
	f       *os.File
	scanner *jpegScanner
}

func openMJPEG(path string) (*mjpegSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &mjpegSource{f: f, scanner: newJPEGScanner(f)}, nil
}

func (m *mjpegSource) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.scanner.Next()
}

func (m *mjpegSource) Close() error {
	return m.f.Close()
}
