package vision

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"image/jpeg"
	"io"
	"os"
)

const (
	ivfSignature       = "DKIF"
	ivfHeaderSize      = 32
	ivfFrameHeaderSize = 12
	ivfMaxFrameSize    = 16 << 20
)

// ivfSource reads VP8 frames from an IVF container and re-encodes each key
// frame as JPEG.
type ivfSource struct {
	f       *os.File
	r       *bufio.Reader
	decoder *VP8Decoder
	quality int
	width   int
	height  int
	skipped int
}

func openIVF(path string, quality int) (*ivfSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	r := bufio.NewReader(f)
	var hdr [ivfHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		f.Close()
		return nil, fmt.Errorf("read ivf header: %w", err)
	}
	if string(hdr[0:4]) != ivfSignature {
		f.Close()
		return nil, fmt.Errorf("not an ivf file")
	}
	if fourcc := string(hdr[8:12]); fourcc != "VP80" {
		f.Close()
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCodec, fourcc)
	}

	headerLen := int(binary.LittleEndian.Uint16(hdr[6:8]))
	if headerLen > ivfHeaderSize {
		if _, err := r.Discard(headerLen - ivfHeaderSize); err != nil {
			f.Close()
			return nil, fmt.Errorf("read ivf header: %w", err)
		}
	}

	return &ivfSource{
		f:       f,
		r:       r,
		decoder: NewVP8Decoder(),
		quality: quality,
		width:   int(binary.LittleEndian.Uint16(hdr[12:14])),
		height:  int(binary.LittleEndian.Uint16(hdr[14:16])),
	}, nil
}

func (s *ivfSource) Next(ctx context.Context) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := s.readFrame()
		if err != nil {
			return nil, err
		}
		if !isKeyFrame(data) {
			s.skipped++
			continue
		}

		img, err := s.decoder.Decode(data)
		if err != nil {
			return nil, err
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: s.quality}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
		return buf.Bytes(), nil
	}
}

func (s *ivfSource) readFrame() ([]byte, error) {
	var hdr [ivfFrameHeaderSize]byte
	if _, err := io.ReadFull(s.r, hdr[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("truncated ivf frame header: %w", err)
		}
		return nil, err
	}

	size := binary.LittleEndian.Uint32(hdr[0:4])
	if size == 0 || size > ivfMaxFrameSize {
		return nil, fmt.Errorf("ivf frame size %d out of range", size)
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(s.r, data); err != nil {
		return nil, fmt.Errorf("truncated ivf frame: %w", err)
	}
	return data, nil
}

// Skipped reports how many inter frames were passed over.
func (s *ivfSource) Skipped() int {
	return s.skipped
}

func (s *ivfSource) Close() error {
	return s.f.Close()
}
