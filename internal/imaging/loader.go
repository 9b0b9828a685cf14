package imaging

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// Cache keeps recently decoded images keyed by path.
//
// An entry is only reused while the file's modification time and size match
// the values seen when it was decoded; a rewritten file is decoded again.
// The cache holds at most the configured number of images and evicts the least
// recently used one when full. A Cache with capacity 0 decodes on every call.
//
// Cache is safe for concurrent use by multiple goroutines.
type Cache struct {
	mu      sync.Mutex
	entries *lru.Cache[string, cacheEntry]
}

type cacheEntry struct {
	modTime time.Time
	size    int64
	img     image.Image
}

// NewCache creates a cache holding at most capacity decoded images.
func NewCache(capacity int) *Cache {
	c := &Cache{}
	if capacity > 0 {
		// lru.New only fails for non-positive sizes.
		c.entries, _ = lru.New[string, cacheEntry](capacity)
	}
	return c
}

// Load returns the decoded, orientation-corrected image at path.
//
// Errors:
//   - the file does not exist or cannot be read
//   - the file is not a supported image format
func (c *Cache) Load(path string) (image.Image, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	if stat.IsDir() {
		return nil, fmt.Errorf("failed to open image: %s is a directory", path)
	}

	if c.entries != nil {
		c.mu.Lock()
		e, ok := c.entries.Get(path)
		c.mu.Unlock()
		if ok && e.modTime.Equal(stat.ModTime()) && e.size == stat.Size() {
			return e.img, nil
		}
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if c.entries != nil {
		c.mu.Lock()
		c.entries.Add(path, cacheEntry{modTime: stat.ModTime(), size: stat.Size(), img: img})
		c.mu.Unlock()
	}
	return img, nil
}

// Evict removes path from the cache. Unknown paths are ignored.
func (c *Cache) Evict(path string) {
	if c.entries == nil {
		return
	}
	c.mu.Lock()
	c.entries.Remove(path)
	c.mu.Unlock()
}

// Clear removes every cached image.
func (c *Cache) Clear() {
	if c.entries == nil {
		return
	}
	c.mu.Lock()
	c.entries.Purge()
	c.mu.Unlock()
}

// Len reports the number of cached images.
func (c *Cache) Len() int {
	if c.entries == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

// Info describes an image file without exposing its pixels.
type Info struct {
	// Width and Height are the displayed dimensions, after EXIF orientation.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Format is the decoder name reported by the image package: "png", "jpeg",
	// "gif", "bmp", "tiff" or "webp". It is detected from the file contents.
	Format string `json:"format"`

	// HasAlpha is true when the image contains transparent or translucent
	// pixels.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the file on disk.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadInfo decodes the image at path through cache and reports its metadata.
func LoadInfo(cache *Cache, path string) (*Info, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read image header: %w", err)
	}
	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	bounds := img.Bounds()
	return &Info{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        format,
		HasAlpha:      hasAlpha(img, cfg.ColorModel),
		FileSizeBytes: stat.Size(),
	}, nil
}

// hasAlpha prefers the decoded pixels, since the PNG decoder reports
// RGBAModel for opaque truecolor files.
func hasAlpha(img image.Image, m color.Model) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	switch m {
	case color.RGBAModel, color.RGBA64Model, color.NRGBAModel, color.NRGBA64Model,
		color.AlphaModel, color.Alpha16Model:
		return true
	}
	if p, ok := m.(color.Palette); ok {
		for _, c := range p {
			if _, _, _, a := c.RGBA(); a < 0xffff {
				return true
			}
		}
	}
	return false
}

// Exif is the subset of EXIF metadata reported by the plugin. Absent tags are
// left at their zero value.
type Exif struct {
	CameraMake  string `json:"camera_make,omitempty"`
	CameraModel string `json:"camera_model,omitempty"`

	// TakenAt is the original capture time in RFC 3339 form.
	TakenAt string `json:"taken_at,omitempty"`

	// Orientation is the raw EXIF orientation tag (1-8).
	Orientation int `json:"orientation,omitempty"`

	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// ReadExif extracts EXIF metadata from the file at path. Images without EXIF
// data (every PNG, most screenshots) return nil and no error.
func ReadExif(path string) (*Exif, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		// goexif reports missing metadata and unsupported containers the same
		// way; neither is a failure for the caller.
		return nil, nil
	}

	meta := &Exif{
		CameraMake:  tagString(x, exif.Make),
		CameraModel: tagString(x, exif.Model),
	}
	if tm, err := x.DateTime(); err == nil {
		meta.TakenAt = tm.Format(time.RFC3339)
	}
	if tag, err := x.Get(exif.Orientation); err == nil {
		if v, err := tag.Int(0); err == nil {
			meta.Orientation = v
		}
	}
	if lat, long, err := x.LatLong(); err == nil {
		meta.Latitude, meta.Longitude = &lat, &long
	}

	if *meta == (Exif{}) {
		return nil, nil
	}
	return meta, nil
}

func tagString(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return s
}
