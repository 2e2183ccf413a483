package gratingaux

import (
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
)

var labelFont = sync.OnceValues(func() (*truetype.Font, error) {
	return freetype.ParseFont(gomono.TTF)
})

// Label draws a single line of text onto dst with the top left corner of the
// line box at pt. size is the font size in pixels.
func Label(dst draw.Image, text string, pt image.Point, size float64, col color.Color) error {
	f, err := labelFont()
	if err != nil {
		return err
	}
	c := freetype.NewContext()
	c.SetDPI(72)
	c.SetFont(f)
	c.SetFontSize(size)
	c.SetClip(dst.Bounds())
	c.SetDst(dst)
	c.SetSrc(image.NewUniform(col))
	c.SetHinting(font.HintingFull)
	ascent := c.PointToFixed(size).Ceil()
	_, err = c.DrawString(text, freetype.Pt(pt.X, pt.Y+ascent))
	return err
}

// LabelBounds returns the pixel extent of text rendered by [Label] at size.
func LabelBounds(text string, size float64) (image.Point, error) {
	f, err := labelFont()
	if err != nil {
		return image.Point{}, err
	}
	face := truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull})
	defer face.Close()
	adv := font.MeasureString(face, text)
	m := face.Metrics()
	return image.Pt(adv.Ceil(), (m.Ascent + m.Descent).Ceil()), nil
}
