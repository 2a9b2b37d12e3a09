package surface

import (
	"fmt"
	"image"
	"sync"
)

const bytesPerPixel = 4 // RGBA

// PixelBuffer is a fixed-size RGBA pixel grid backing one window.
// Pixels are stored row-major with a top-left origin, 4 bytes per
// pixel. The zero state is fully transparent black.
//
// All methods are safe for concurrent use; a blit is atomic from the
// perspective of readers (no partial rectangle is observable).
type PixelBuffer struct {
	mu     sync.RWMutex
	width  int
	height int
	pix    []byte
}

// NewPixelBuffer allocates a zeroed width x height buffer.
func NewPixelBuffer(width, height int) *PixelBuffer {
	return &PixelBuffer{
		width:  width,
		height: height,
		pix:    make([]byte, width*height*bytesPerPixel),
	}
}

// Width returns the buffer width in pixels.
func (b *PixelBuffer) Width() int { return b.width }

// Height returns the buffer height in pixels.
func (b *PixelBuffer) Height() int { return b.height }

// Blit overwrites the rectangle [x,x+width) x [y,y+height) with the
// given RGBA pixel data. The data length must be exactly
// width*height*4 bytes and the rectangle must lie fully inside the
// buffer; otherwise the buffer is left unchanged and
// ErrMalformedPixelData or ErrOutOfBounds is returned. Pixels are
// copied verbatim, there is no alpha blending.
func (b *PixelBuffer) Blit(x, y, width, height int, pix []byte) error {
	// The rectangle is capped against the buffer size before any
	// product or sum, so none of the arithmetic below can overflow.
	if width < 0 || height < 0 || width > b.width || height > b.height {
		return fmt.Errorf("rectangle %dx%d does not fit a %dx%d buffer: %w",
			width, height, b.width, b.height, ErrOutOfBounds)
	}
	if want := width * height * bytesPerPixel; len(pix) != want {
		return fmt.Errorf("pixel data is %d bytes, expected %d for %dx%d: %w",
			len(pix), want, width, height, ErrMalformedPixelData)
	}
	if x < 0 || y < 0 || x > b.width-width || y > b.height-height {
		return fmt.Errorf("rectangle %dx%d at (%d,%d) exceeds %dx%d buffer: %w",
			width, height, x, y, b.width, b.height, ErrOutOfBounds)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for row := 0; row < height; row++ {
		dst := ((y+row)*b.width + x) * bytesPerPixel
		src := row * width * bytesPerPixel
		copy(b.pix[dst:dst+width*bytesPerPixel], pix[src:src+width*bytesPerPixel])
	}
	return nil
}

// Dirty reports whether the buffer currently contains at least one
// non-zero byte, i.e. whether anything visible has been drawn to it.
func (b *PixelBuffer) Dirty() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, v := range b.pix {
		if v != 0 {
			return true
		}
	}
	return false
}

// Pixel returns the 4 RGBA bytes at (x, y). It is intended for tests
// and panics on out-of-range coordinates.
func (b *PixelBuffer) Pixel(x, y int) [4]byte {
	b.mu.RLock()
	defer b.mu.RUnlock()
	off := (y*b.width + x) * bytesPerPixel
	return [4]byte{b.pix[off], b.pix[off+1], b.pix[off+2], b.pix[off+3]}
}

// Image returns a copy of the buffer contents as an image.RGBA,
// suitable for encoding. The copy is taken under the read lock so it
// never contains a half-applied blit.
func (b *PixelBuffer) Image() *image.RGBA {
	b.mu.RLock()
	defer b.mu.RUnlock()
	img := image.NewRGBA(image.Rect(0, 0, b.width, b.height))
	copy(img.Pix, b.pix)
	return img
}
