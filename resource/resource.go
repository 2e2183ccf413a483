// Package resource provides bitmap handles and a loader that resolves named
// image resources, decoding them in the background.
package resource

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/soypat/geometry/ms2"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	// ErrResourceNotFound is returned when a named resource is not known to the loader.
	ErrResourceNotFound = errors.New("resource not found")
	errNilImage         = errors.New("nil image")
)

// Bitmap is a handle to an image that may still be decoding. The zero value is an invalid bitmap.
type Bitmap struct {
	src   string
	ready chan struct{}
	mu    sync.Mutex
	img   image.Image
	err   error
}

// NewBitmap returns a decoded bitmap identified by src.
func NewBitmap(src string, img image.Image) *Bitmap {
	b := newPendingBitmap(src)
	if img == nil {
		b.resolve(nil, errNilImage)
	} else {
		b.resolve(img, nil)
	}
	return b
}

func newPendingBitmap(src string) *Bitmap {
	return &Bitmap{src: src, ready: make(chan struct{})}
}

func (b *Bitmap) resolve(img image.Image, err error) {
	b.mu.Lock()
	b.img = img
	b.err = err
	b.mu.Unlock()
	close(b.ready)
}

// Source returns the path or URI that identifies the bitmap's content.
func (b *Bitmap) Source() string { return b.src }

// Ready returns a channel closed once decoding finishes, successfully or not.
func (b *Bitmap) Ready() <-chan struct{} { return b.ready }

// Image returns the decoded image or nil if decoding has not finished or failed.
func (b *Bitmap) Image() image.Image {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.img
}

// Err returns the decoding error, if any.
func (b *Bitmap) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// Size returns the intrinsic pixel size of the bitmap. It is zero until decoding succeeds.
func (b *Bitmap) Size() ms2.Vec {
	img := b.Image()
	if img == nil {
		return ms2.Vec{}
	}
	sz := img.Bounds().Size()
	return ms2.Vec{X: float32(sz.X), Y: float32(sz.Y)}
}

// Valid reports whether b is usable as a texture: it was created by this
// package, has a source and did not fail to decode. Pending bitmaps are valid.
func (b *Bitmap) Valid() bool {
	return b != nil && b.ready != nil && b.src != "" && b.Err() == nil
}

// Wait blocks until the bitmap is decoded or ctx is done.
func (b *Bitmap) Wait(ctx context.Context) error {
	select {
	case <-b.ready:
		return b.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Manager resolves named bitmaps from registered images or from a filesystem.
// Files are decoded in the background; the returned handle is valid immediately.
// Manager is safe for concurrent use.
type Manager struct {
	fsys    fs.FS
	log     *slog.Logger
	mu      sync.Mutex
	bitmaps map[string]*Bitmap
}

// ManagerConfig configures a [Manager].
type ManagerConfig struct {
	// FS is searched for names not registered in memory. May be nil.
	FS fs.FS
	// Logger receives decode diagnostics. Silent if nil.
	Logger *slog.Logger
}

// NewManager returns a Manager ready for use.
func NewManager(cfg ManagerConfig) *Manager {
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		fsys:    cfg.FS,
		log:     log,
		bitmaps: make(map[string]*Bitmap),
	}
}

// Register makes img available under name, replacing any previous resource.
func (m *Manager) Register(name string, img image.Image) *Bitmap {
	b := NewBitmap(name, img)
	m.mu.Lock()
	m.bitmaps[name] = b
	m.mu.Unlock()
	return b
}

// GetResource returns the bitmap registered under name or starts decoding the
// file of the same name. The handle is shared between calls.
func (m *Manager) GetResource(name string) (*Bitmap, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.bitmaps[name]; ok {
		return b, nil
	}
	if m.fsys == nil || !fs.ValidPath(name) {
		return nil, fmt.Errorf("%w: %q", ErrResourceNotFound, name)
	}
	fp, err := m.fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrResourceNotFound, name, err)
	}
	b := newPendingBitmap(name)
	m.bitmaps[name] = b
	go func() {
		defer fp.Close()
		img, format, err := image.Decode(fp)
		if err != nil {
			m.log.Warn("bitmap decode failed", slog.String("name", name), slog.Any("err", err))
			b.resolve(nil, fmt.Errorf("decoding %q: %w", name, err))
			return
		}
		m.log.Debug("bitmap decoded", slog.String("name", name), slog.String("format", format))
		b.resolve(img, nil)
	}()
	return b, nil
}

// Load is the blocking counterpart of GetResource.
func (m *Manager) Load(ctx context.Context, name string) (*Bitmap, error) {
	b, err := m.GetResource(name)
	if err != nil {
		return nil, err
	}
	return b, b.Wait(ctx)
}

// Forget removes name so the next request decodes it again.
func (m *Manager) Forget(name string) {
	m.mu.Lock()
	delete(m.bitmaps, name)
	m.mu.Unlock()
}
