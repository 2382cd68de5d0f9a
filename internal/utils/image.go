package utils

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"

	"github.com/nfnt/resize"
)

var ErrNotAnImage = errors.New("not an image")

// ResizeSquareJPEG center-crops the image to a square, scales it to size x
// size and encodes it as JPEG.
func ResizeSquareJPEG(r io.Reader, size uint, quality int) ([]byte, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, errors.Join(ErrNotAnImage, err)
	}

	resized := resize.Resize(size, size, cropSquare(img), resize.Lanczos3)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

func cropSquare(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == h {
		return img
	}

	side := w
	if h < side {
		side = h
	}
	x0 := b.Min.X + (w-side)/2
	y0 := b.Min.Y + (h-side)/2

	if si, ok := img.(subImager); ok {
		return si.SubImage(image.Rect(x0, y0, x0+side, y0+side))
	}
	return img
}
