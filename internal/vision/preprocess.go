package vision

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

// CLIP image statistics used to normalize encoder inputs.
var (
	clipMean = [3]float32{0.48145466, 0.4578275, 0.40821073}
	clipStd  = [3]float32{0.26862954, 0.26130258, 0.27577711}
)

type Preprocessor struct {
	Size    int
	Quality int
}

func NewPreprocessor(size, quality int) Preprocessor {
	if size <= 0 {
		size = DefaultImageSize
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return Preprocessor{Size: size, Quality: quality}
}

// Process decodes a frame buffer, crops it to the encoder size and
// normalizes it.
func (p Preprocessor) Process(raw []byte) (Frame, error) {
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}

	crop := p.Crop(src)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, crop, &jpeg.Options{Quality: p.Quality}); err != nil {
		return Frame{}, fmt.Errorf("encode crop: %w", err)
	}

	bounds := src.Bounds()
	return Frame{
		Image:  buf.Bytes(),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Pixels: p.Normalize(crop),
	}, nil
}

// Restore rebuilds a frame from a cached crop. Crops already at the encoder
// size skip the resize.
func (p Preprocessor) Restore(stored StoredFrame) (Frame, error) {
	img, err := jpeg.Decode(bytes.NewReader(stored.Image))
	if err != nil {
		return Frame{}, fmt.Errorf("decode cached frame %d: %w", stored.Index, err)
	}

	b := img.Bounds()
	var crop *image.RGBA
	if b.Dx() == p.Size && b.Dy() == p.Size {
		crop = image.NewRGBA(image.Rect(0, 0, p.Size, p.Size))
		draw.Draw(crop, crop.Bounds(), img, b.Min, draw.Src)
	} else {
		crop = p.Crop(img)
	}

	return Frame{
		Index:  stored.Index,
		Image:  stored.Image,
		Width:  b.Dx(),
		Height: b.Dy(),
		Pixels: p.Normalize(crop),
	}, nil
}

// Crop takes the centered square of the source and scales it to a Size x
// Size RGB image in one pass, so the allocation never exceeds the output.
func (p Preprocessor) Crop(src image.Image) *image.RGBA {
	b := src.Bounds()
	side := min(b.Dx(), b.Dy())
	x0 := b.Min.X + (b.Dx()-side)/2
	y0 := b.Min.Y + (b.Dy()-side)/2
	square := image.Rect(x0, y0, x0+side, y0+side)

	out := image.NewRGBA(image.Rect(0, 0, p.Size, p.Size))
	draw.CatmullRom.Scale(out, out.Bounds(), src, square, draw.Src, nil)
	return out
}

func (p Preprocessor) Normalize(img *image.RGBA) Tensor {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	plane := w * h
	data := make([]float32, 3*plane)

	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			px := row[x*4 : x*4+3]
			for c := 0; c < 3; c++ {
				v := float32(px[c]) / 255
				data[c*plane+y*w+x] = (v - clipMean[c]) / clipStd[c]
			}
		}
	}

	return Tensor{Shape: [3]int{3, h, w}, Data: data}
}
