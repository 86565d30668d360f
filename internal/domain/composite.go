package domain

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"gopkg.in/yaml.v3"
)

// Channel is one output channel of an RGB composite.
type Channel int

const (
	Red Channel = iota
	Green
	Blue
)

// Channels lists the output channels in raster order.
var Channels = [3]Channel{Red, Green, Blue}

func (c Channel) String() string {
	switch c {
	case Red:
		return "R"
	case Green:
		return "G"
	case Blue:
		return "B"
	default:
		return fmt.Sprintf("Channel(%d)", int(c))
	}
}

// ParseChannel accepts R/G/B and the spelled out names, case-insensitively.
func ParseChannel(s string) (Channel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "r", "red":
		return Red, nil
	case "g", "green":
		return Green, nil
	case "b", "blue":
		return Blue, nil
	}
	return 0, fmt.Errorf("unknown channel %q", s)
}

// ChannelSet is the list of channels fed by one extension. In configuration
// it can be written as a single string or as a list.
type ChannelSet []Channel

func (cs *ChannelSet) UnmarshalYAML(node *yaml.Node) error {
	var names []string
	switch node.Kind {
	case yaml.ScalarNode:
		names = []string{node.Value}
	case yaml.SequenceNode:
		if err := node.Decode(&names); err != nil {
			return err
		}
	default:
		return fmt.Errorf("line %d: channels must be a string or a list", node.Line)
	}
	ret := make(ChannelSet, 0, len(names))
	for _, name := range names {
		c, err := ParseChannel(name)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		ret = append(ret, c)
	}
	*cs = ret
	return nil
}

func (cs ChannelSet) MarshalYAML() (interface{}, error) {
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.String()
	}
	return names, nil
}

// CompositeImage is an 8-bit RGB raster, row-major with interleaved channels.
type CompositeImage struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewCompositeImage allocates a black raster.
func NewCompositeImage(width, height int) *CompositeImage {
	return &CompositeImage{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*3),
	}
}

// CompositeFromImage copies any decoded image into a raster.
func CompositeFromImage(img image.Image) *CompositeImage {
	b := img.Bounds()
	ret := NewCompositeImage(b.Dx(), b.Dy())
	for y := 0; y < ret.Height; y++ {
		for x := 0; x < ret.Width; x++ {
			c := color.RGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
			ret.Set(x, y, Red, c.R)
			ret.Set(x, y, Green, c.G)
			ret.Set(x, y, Blue, c.B)
		}
	}
	return ret
}

func (c *CompositeImage) offset(x, y int) int {
	return (y*c.Width + x) * 3
}

// Channel returns the value of one channel at (x, y).
func (c *CompositeImage) Channel(x, y int, ch Channel) uint8 {
	return c.Pix[c.offset(x, y)+int(ch)]
}

// Set writes the value of one channel at (x, y).
func (c *CompositeImage) Set(x, y int, ch Channel, v uint8) {
	c.Pix[c.offset(x, y)+int(ch)] = v
}

// Plane extracts one channel as a row-major slice.
func (c *CompositeImage) Plane(ch Channel) []uint8 {
	ret := make([]uint8, c.Width*c.Height)
	for i := range ret {
		ret[i] = c.Pix[i*3+int(ch)]
	}
	return ret
}

// FlipVertical mirrors the raster around its horizontal axis in place.
func (c *CompositeImage) FlipVertical() {
	stride := c.Width * 3
	row := make([]uint8, stride)
	for top, bottom := 0, c.Height-1; top < bottom; top, bottom = top+1, bottom-1 {
		t := c.Pix[top*stride : (top+1)*stride]
		b := c.Pix[bottom*stride : (bottom+1)*stride]
		copy(row, t)
		copy(t, b)
		copy(b, row)
	}
}

func (c *CompositeImage) ColorModel() color.Model { return color.RGBAModel }

func (c *CompositeImage) Bounds() image.Rectangle { return image.Rect(0, 0, c.Width, c.Height) }

func (c *CompositeImage) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= c.Width || y >= c.Height {
		return color.RGBA{}
	}
	i := c.offset(x, y)
	return color.RGBA{R: c.Pix[i], G: c.Pix[i+1], B: c.Pix[i+2], A: 0xff}
}

var _ image.Image = (*CompositeImage)(nil)

// Plane is one 2-D numeric layer of a multi-extension image, row-major, in
// the order the rows are stored in the payload.
type Plane struct {
	Width  int
	Height int
	Data   []float64
}

// NewPlane allocates a zero plane.
func NewPlane(width, height int) Plane {
	return Plane{Width: width, Height: height, Data: make([]float64, width*height)}
}

// At returns the value at (x, y).
func (p Plane) At(x, y int) float64 {
	return p.Data[y*p.Width+x]
}
