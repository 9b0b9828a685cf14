package imaging

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSave(t *testing.T) {
	dir := t.TempDir()
	img := solidImage(12, 9, color.RGBA{10, 200, 30, 255})

	for _, name := range []string{"out.png", "out.jpg", "out.JPEG", "out.gif", "out.tiff", "out.bmp"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, Save(img, path))

			loaded, err := NewCache(0).Load(path)
			require.NoError(t, err)
			assert.Equal(t, image.Rect(0, 0, 12, 9), loaded.Bounds())
		})
	}
}

func TestSave_Errors(t *testing.T) {
	dir := t.TempDir()
	img := solidImage(4, 4, color.White)

	assert.Error(t, Save(img, filepath.Join(dir, "out.xyz")))
	assert.Error(t, Save(img, filepath.Join(dir, "out")))
	assert.Error(t, Save(img, filepath.Join(dir, "missing", "out.png")))
}

func TestForceExtension(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/tmp/out.jpg", "/tmp/out.png"},
		{"/tmp/out.jpeg", "/tmp/out.png"},
		{"/tmp/out.png", "/tmp/out.png"},
		{"/tmp/out.PNG", "/tmp/out.PNG"},
		{"/tmp/out", "/tmp/out.png"},
		{"/tmp/archive.tar.gz", "/tmp/archive.tar.png"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ForceExtension(tt.path, ".png"), tt.path)
	}
}

func TestCrop(t *testing.T) {
	img := squareImage(100, 100, image.Rect(50, 50, 100, 100), color.Black)

	out, err := Crop(img, image.Rect(40, 40, 60, 70))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 20, 30), out.Bounds())
	assert.Equal(t, color.NRGBA{255, 255, 255, 255}, out.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{0, 0, 0, 255}, out.NRGBAAt(15, 15))
}

func TestCrop_InvalidRegions(t *testing.T) {
	img := solidImage(100, 100, color.White)

	tests := []struct {
		name string
		r    image.Rectangle
	}{
		{"outside", image.Rect(50, 50, 150, 80)},
		{"negative", image.Rect(-10, 0, 20, 20)},
		{"empty", image.Rect(10, 10, 10, 40)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Crop(img, tt.r)
			assert.Error(t, err)
		})
	}
}

func TestCrop_FullImage(t *testing.T) {
	img := solidImage(30, 20, color.White)
	out, err := Crop(img, img.Bounds())
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), out.Bounds())
}

func TestDominantColors(t *testing.T) {
	// Three quarters red, one quarter blue.
	img := solidImage(100, 100, color.RGBA{255, 0, 0, 255})
	for y := 0; y < 100; y++ {
		for x := 75; x < 100; x++ {
			img.Set(x, y, color.RGBA{0, 0, 255, 255})
		}
	}

	colors := DominantColors(img, 5)
	require.Len(t, colors, 2)
	assert.Equal(t, "#ff0000", colors[0].Hex)
	assert.Equal(t, RGBColor{R: 255}, colors[0].RGB)
	assert.Equal(t, 75.0, colors[0].Percentage)
	assert.Equal(t, "#0000ff", colors[1].Hex)
	assert.Equal(t, 25.0, colors[1].Percentage)

	assert.Len(t, DominantColors(img, 1), 1)
	assert.Empty(t, DominantColors(img, 0))
}

func TestDominantColors_Quantizes(t *testing.T) {
	img := solidImage(10, 10, color.RGBA{0xF0, 0xF0, 0xF0, 255})
	for x := 0; x < 10; x++ {
		img.Set(x, 0, color.RGBA{0xFA, 0xFA, 0xFA, 255})
	}

	// 90 pixels of 0xF0 and 10 of 0xFA share a bucket; the mean is 0xF1.
	colors := DominantColors(img, 5)
	require.Len(t, colors, 1)
	assert.Equal(t, "#f1f1f1", colors[0].Hex)
	assert.Equal(t, 100.0, colors[0].Percentage)
}

func TestDominantColors_ReportsExactPrimaries(t *testing.T) {
	for want, c := range map[string]color.Color{
		"#ffffff": color.White,
		"#000000": color.Black,
		"#ff0000": color.RGBA{255, 0, 0, 255},
		"#123456": color.RGBA{0x12, 0x34, 0x56, 255},
	} {
		colors := DominantColors(solidImage(8, 8, c), 1)
		require.Len(t, colors, 1, want)
		assert.Equal(t, want, colors[0].Hex)
	}
}

func TestDominantColors_IgnoresTransparentPixels(t *testing.T) {
	img := solidImage(10, 10, color.NRGBA{0, 0, 0, 0})
	img.Set(0, 0, color.RGBA{0, 255, 0, 255})

	colors := DominantColors(img, 5)
	require.Len(t, colors, 1)
	assert.Equal(t, "#00ff00", colors[0].Hex)

	assert.Empty(t, DominantColors(solidImage(4, 4, color.NRGBA{}), 5))
}

func TestDominantColors_LargeImage(t *testing.T) {
	img := solidImage(1200, 600, color.White)
	colors := DominantColors(img, 3)
	require.Len(t, colors, 1)
	assert.Equal(t, "#ffffff", colors[0].Hex)
}

func TestBlur(t *testing.T) {
	img := solidImage(40, 40, color.White)
	for y := 0; y < 40; y++ {
		for x := 20; x < 40; x++ {
			img.Set(x, y, color.Black)
		}
	}

	blurred := Blur(img, 3)
	assert.Equal(t, 40, blurred.Bounds().Dx())

	r, _, _, _ := blurred.At(blurred.Bounds().Min.X+20, blurred.Bounds().Min.Y+20).RGBA()
	assert.Greater(t, r>>8, uint32(0), "the step edge is softened")
	assert.Less(t, r>>8, uint32(255))

	same := Blur(img, 0)
	assert.Equal(t, img.Pix, same.(*image.NRGBA).Pix)
}

func TestBlurRegions(t *testing.T) {
	img := solidImage(60, 60, color.White)
	for y := 0; y < 60; y += 2 {
		for x := 0; x < 60; x++ {
			img.Set(x, y, color.Black)
		}
	}

	region := image.Rect(20, 20, 40, 40)
	out := BlurRegions(img, []image.Rectangle{region, image.Rect(100, 100, 120, 120)}, 4)
	require.Equal(t, img.Bounds(), out.Bounds())

	assert.Equal(t, img.NRGBAAt(5, 5), out.NRGBAAt(5, 5), "outside the region is untouched")
	assert.Equal(t, img.NRGBAAt(50, 51), out.NRGBAAt(50, 51))

	inside := out.NRGBAAt(30, 30)
	assert.NotEqual(t, img.NRGBAAt(30, 30), inside, "stripes inside the region are smoothed")
	assert.Greater(t, inside.R, uint8(40))
	assert.Less(t, inside.R, uint8(215))
}

func TestBlurRegions_ZeroRadius(t *testing.T) {
	img := solidImage(10, 10, color.Black)
	out := BlurRegions(img, []image.Rectangle{img.Bounds()}, 0)
	assert.Equal(t, img.Pix, out.Pix)
}
