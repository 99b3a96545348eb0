package render

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"

	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// one canvas point is one pixel
const dpi = 72

func newCanvas(width, height int) *vgimg.Canvas {
	return vgimg.NewWith(
		vgimg.UseWH(vg.Length(width), vg.Length(height)),
		vgimg.UseDPI(dpi),
		vgimg.UseBackgroundColor(color.White),
	)
}

func checkSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: invalid size %dx%d", ErrNoContext, width, height)
	}
	return nil
}

// ImageMount keeps the last rendered frame in memory.
type ImageMount struct{}

// DrawingContext returns an in-memory surface of the given size.
func (ImageMount) DrawingContext(width, height int) (Surface, error) {
	if err := checkSize(width, height); err != nil {
		return nil, err
	}
	return &ImageSurface{width: width, height: height}, nil
}

// ImageSurface renders into an in-memory image.
type ImageSurface struct {
	mu      sync.Mutex
	width   int
	height  int
	current *vgimg.Canvas
	last    image.Image
	frames  int
}

// Begin starts a new blank frame.
func (s *ImageSurface) Begin() (draw.Canvas, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = newCanvas(s.width, s.height)
	return draw.New(s.current), true
}

// Present publishes the frame.
func (s *ImageSurface) Present() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	s.last = s.current.Image()
	s.current = nil
	s.frames++
	return nil
}

// Image returns the last presented frame, nil before the first one.
func (s *ImageSurface) Image() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Frames returns the number of presented frames.
func (s *ImageSurface) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// FrameMount writes every Every-th frame as a PNG file into Dir.
type FrameMount struct {
	Dir   string
	Every int
}

// DrawingContext creates the output directory and returns a PNG frame surface.
func (m FrameMount) DrawingContext(width, height int) (Surface, error) {
	if err := checkSize(width, height); err != nil {
		return nil, err
	}
	if m.Dir == "" {
		return nil, fmt.Errorf("%w: no output directory", ErrNoContext)
	}
	if err := os.MkdirAll(m.Dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoContext, err)
	}
	every := m.Every
	if every <= 0 {
		every = 1
	}
	return &FrameSurface{dir: m.Dir, every: every, width: width, height: height}, nil
}

// FrameSurface writes frames to numbered PNG files.
type FrameSurface struct {
	dir     string
	every   int
	width   int
	height  int
	frame   int
	written int
	current *vgimg.Canvas
}

// Begin returns false for frames that are not written.
func (s *FrameSurface) Begin() (draw.Canvas, bool) {
	n := s.frame
	s.frame++
	if n%s.every != 0 {
		s.current = nil
		return draw.Canvas{}, false
	}
	s.current = newCanvas(s.width, s.height)
	return draw.New(s.current), true
}

// Present writes the current frame to disk.
func (s *FrameSurface) Present() error {
	if s.current == nil {
		return nil
	}
	c := s.current
	s.current = nil

	filename := filepath.Join(s.dir, fmt.Sprintf("frame_%06d.png", s.frame-1))
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(bw); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	s.written++
	return nil
}

// Written returns the number of frames written to disk.
func (s *FrameSurface) Written() int {
	return s.written
}
