// Package thumbnail reads image dimensions and renders resized thumbnails
// of uploaded assets.
//
// Sources are decoded with EXIF orientation applied, so thumbnails of
// rotated JPEGs come out upright. Supported inputs are JPEG, PNG, GIF, BMP
// and WebP; output is JPEG or PNG.
package thumbnail

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"strconv"
	"strings"

	"github.com/disintegration/imageorient"
	"golang.org/x/image/draw"

	// Decoders registered for image.Decode.
	_ "image/gif"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

var (
	// ErrSourceTooLarge is returned when the source exceeds the size limit.
	ErrSourceTooLarge = errors.New("thumbnail source is too large")

	// ErrInvalidOptions is returned for unusable thumbnail options.
	ErrInvalidOptions = errors.New("invalid thumbnail options")
)

// Mode controls how the source is fitted into the requested box.
type Mode string

const (
	// ModeMax scales the image to fit inside the box, keeping its aspect ratio.
	ModeMax Mode = "max"
	// ModeCrop scales the image to cover the box and crops the overflow around the center.
	ModeCrop Mode = "crop"
)

// Format is the encoding of a thumbnail.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
)

const defaultQuality = 80

// MaxDimension bounds the width and height of a thumbnail.
const MaxDimension = 4096

// Options describes a thumbnail.
type Options struct {
	// Width and Height bound the thumbnail. With ModeMax one of them may be
	// zero to scale by the other alone.
	Width  int
	Height int

	// Mode defaults to ModeMax.
	Mode Mode

	// Format defaults to FormatJPEG.
	Format Format

	// Quality is the JPEG quality (1-100). Default: 80
	Quality int
}

// Info describes a decodable image.
type Info struct {
	Width  int
	Height int
	Format string
}

// Generator creates thumbnails. It is safe for concurrent use.
type Generator struct {
	maxSourceSize int64
}

// New creates a generator rejecting sources larger than maxSourceSize bytes.
// Zero means unlimited.
func New(maxSourceSize int64) *Generator {
	return &Generator{maxSourceSize: maxSourceSize}
}

// MaxSourceSize returns the source size limit in bytes.
func (g *Generator) MaxSourceSize() int64 {
	return g.maxSourceSize
}

// ImageInfo returns the dimensions of the image in r.
// Returns nil, nil if r does not hold a supported image.
func (g *Generator) ImageInfo(r io.Reader) (*Info, error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, nil
		}
		return nil, fmt.Errorf("read image header: %w", err)
	}

	return &Info{Width: cfg.Width, Height: cfg.Height, Format: format}, nil
}

// CreateThumbnail renders a thumbnail of src into dst.
func (g *Generator) CreateThumbnail(src io.Reader, dst io.Writer, opts Options) error {
	opts, err := normalize(opts)
	if err != nil {
		return err
	}

	data, err := g.readSource(src)
	if err != nil {
		return err
	}

	orig, _, err := imageorient.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}

	bounds := orig.Bounds()
	srcRect, width, height := layout(bounds, opts)

	thumb := image.NewRGBA(image.Rect(0, 0, width, height))
	if opts.Format == FormatJPEG {
		// JPEG has no alpha channel.
		draw.Draw(thumb, thumb.Bounds(), image.White, image.Point{}, draw.Src)
	}

	// CatmullRom is slow but looks best.
	draw.CatmullRom.Scale(thumb, thumb.Bounds(), orig, srcRect, draw.Over, nil)

	switch opts.Format {
	case FormatPNG:
		return png.Encode(dst, thumb)
	default:
		return jpeg.Encode(dst, thumb, &jpeg.Options{Quality: opts.Quality})
	}
}

func (g *Generator) readSource(src io.Reader) ([]byte, error) {
	if g.maxSourceSize <= 0 {
		return io.ReadAll(src)
	}

	data, err := io.ReadAll(io.LimitReader(src, g.maxSourceSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > g.maxSourceSize {
		return nil, ErrSourceTooLarge
	}
	return data, nil
}

func normalize(opts Options) (Options, error) {
	if opts.Mode == "" {
		opts.Mode = ModeMax
	}
	if opts.Format == "" {
		opts.Format = FormatJPEG
	}
	if opts.Quality == 0 {
		opts.Quality = defaultQuality
	}

	switch {
	case opts.Width < 0 || opts.Height < 0:
		return opts, fmt.Errorf("%w: negative size", ErrInvalidOptions)
	case opts.Width > MaxDimension || opts.Height > MaxDimension:
		return opts, fmt.Errorf("%w: size exceeds %dx%d", ErrInvalidOptions, MaxDimension, MaxDimension)
	case opts.Width == 0 && opts.Height == 0:
		return opts, fmt.Errorf("%w: width or height is required", ErrInvalidOptions)
	case opts.Mode == ModeCrop && (opts.Width == 0 || opts.Height == 0):
		return opts, fmt.Errorf("%w: crop needs width and height", ErrInvalidOptions)
	case opts.Mode != ModeMax && opts.Mode != ModeCrop:
		return opts, fmt.Errorf("%w: unknown mode %q", ErrInvalidOptions, opts.Mode)
	case opts.Format != FormatJPEG && opts.Format != FormatPNG:
		return opts, fmt.Errorf("%w: unknown format %q", ErrInvalidOptions, opts.Format)
	case opts.Quality < 1 || opts.Quality > 100:
		return opts, fmt.Errorf("%w: quality must be between 1 and 100", ErrInvalidOptions)
	}
	return opts, nil
}

// layout returns the source rectangle to sample and the thumbnail size.
func layout(bounds image.Rectangle, opts Options) (image.Rectangle, int, int) {
	w, h := bounds.Dx(), bounds.Dy()

	if opts.Mode == ModeCrop {
		// Largest centered region with the target aspect ratio.
		cropW, cropH := w, w*opts.Height/opts.Width
		if cropH > h {
			cropW, cropH = h*opts.Width/opts.Height, h
		}
		x0 := bounds.Min.X + (w-cropW)/2
		y0 := bounds.Min.Y + (h-cropH)/2
		return image.Rect(x0, y0, x0+cropW, y0+cropH), opts.Width, opts.Height
	}

	width, height := fitInside(w, h, opts.Width, opts.Height)
	return bounds, width, height
}

// fitInside scales w x h to fit inside maxW x maxH, never upscaling.
// A zero bound is unconstrained.
func fitInside(w, h, maxW, maxH int) (int, int) {
	ratio := 1.0
	if maxW > 0 && w > maxW {
		ratio = float64(maxW) / float64(w)
	}
	if maxH > 0 && h > maxH {
		if r := float64(maxH) / float64(h); r < ratio {
			ratio = r
		}
	}

	return max(1, int(float64(w)*ratio+0.5)), max(1, int(float64(h)*ratio+0.5))
}

// ParseSize parses "WIDTHxHEIGHT", e.g. "100x100". Either side may be
// omitted ("100x" or "x100").
func ParseSize(s string) (width, height int, err error) {
	ws, hs, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return 0, 0, fmt.Errorf("%w: size %q must look like 100x100", ErrInvalidOptions, s)
	}

	if ws != "" {
		if width, err = strconv.Atoi(ws); err != nil {
			return 0, 0, fmt.Errorf("%w: bad width in %q", ErrInvalidOptions, s)
		}
	}
	if hs != "" {
		if height, err = strconv.Atoi(hs); err != nil {
			return 0, 0, fmt.Errorf("%w: bad height in %q", ErrInvalidOptions, s)
		}
	}
	if width <= 0 && height <= 0 {
		return 0, 0, fmt.Errorf("%w: size %q is empty", ErrInvalidOptions, s)
	}
	return width, height, nil
}

// Suffix returns the asset suffix under which a thumbnail is stored.
func Suffix(width, height int) string {
	return fmt.Sprintf("thumbnail-%dx%d", width, height)
}
