// Package fits decodes the image HDUs of a FITS payload into numeric planes.
//
// Every HDU whose data is at least two dimensional contributes planes in file
// order: a NAXIS=2 image contributes one plane, a NAXIS=3 cube contributes one
// plane per slice. Tables and empty HDUs contribute nothing. Plane indexes are
// the extension indexes referenced by provider channel maps.
package fits

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/lewtec/astrorank/internal/domain"
)

// MaxPixels bounds the size of a single HDU.
const MaxPixels = 1 << 26

var (
	// ErrNotFITS is returned when the payload does not start with a primary header.
	ErrNotFITS = errors.New("not a FITS payload")
	// ErrTruncated is returned when a header or data unit ends early.
	ErrTruncated = errors.New("truncated FITS payload")
)

// HDU is one header and data unit.
type HDU struct {
	Header *Header
	// Axes lists NAXIS1..NAXISn
	Axes   []int
	Bitpix int
	Planes []domain.Plane
}

// File is a decoded payload.
type File struct {
	HDUs []*HDU
}

// Planes flattens the image planes of every HDU in file order.
func (f *File) Planes() []domain.Plane {
	var ret []domain.Plane
	for _, hdu := range f.HDUs {
		ret = append(ret, hdu.Planes...)
	}
	return ret
}

// DecodePlanes is Decode followed by Planes.
func DecodePlanes(r io.Reader) ([]domain.Plane, error) {
	f, err := Decode(r)
	if err != nil {
		return nil, err
	}
	planes := f.Planes()
	if len(planes) == 0 {
		return nil, errors.New("FITS payload has no image data")
	}
	return planes, nil
}

// Decode reads every HDU of r.
func Decode(r io.Reader) (*File, error) {
	br := bufio.NewReader(r)
	f := &File{}
	for i := 0; ; i++ {
		header, err := readHeader(br)
		if errors.Is(err, io.EOF) && i > 0 {
			return f, nil
		}
		if err != nil {
			if i == 0 && (errors.Is(err, io.EOF) || errors.Is(err, ErrTruncated)) {
				return nil, ErrNotFITS
			}
			return nil, fmt.Errorf("while reading header of HDU %d: %w", i, err)
		}
		if i == 0 && !header.Bool("SIMPLE") {
			return nil, ErrNotFITS
		}
		hdu, err := readData(br, header, i == 0)
		if err != nil {
			return nil, fmt.Errorf("while reading data of HDU %d: %w", i, err)
		}
		f.HDUs = append(f.HDUs, hdu)
	}
}

func readHeader(r io.Reader) (*Header, error) {
	h := newHeader()
	block := make([]byte, blockSize)
	for {
		n, err := io.ReadFull(r, block)
		if err != nil {
			if n == 0 && errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, ErrTruncated
		}
		for off := 0; off < blockSize; off += cardSize {
			card := parseCard(block[off : off+cardSize])
			if card.Key == "END" {
				return h, nil
			}
			h.add(card)
		}
	}
}

func readData(r io.Reader, h *Header, primary bool) (*HDU, error) {
	bitpix, err := h.Int("BITPIX")
	if err != nil {
		return nil, err
	}
	width := 0
	switch bitpix {
	case 8, 16, 32, 64, -32, -64:
		width = abs(bitpix) / 8
	default:
		return nil, fmt.Errorf("unsupported BITPIX %d", bitpix)
	}
	naxis, err := h.Int("NAXIS")
	if err != nil {
		return nil, err
	}
	if naxis < 0 || naxis > 999 {
		return nil, fmt.Errorf("invalid NAXIS %d", naxis)
	}
	axes := make([]int, naxis)
	count := 0
	if naxis > 0 {
		count = 1
	}
	for i := range axes {
		n, err := h.Int(fmt.Sprintf("NAXIS%d", i+1))
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, fmt.Errorf("negative NAXIS%d", i+1)
		}
		axes[i] = n
		if n > 0 && count > MaxPixels/n {
			return nil, fmt.Errorf("HDU exceeds %d pixels", MaxPixels)
		}
		count *= n
	}
	pcount, err := h.IntOr("PCOUNT", 0)
	if err != nil {
		return nil, err
	}
	gcount, err := h.IntOr("GCOUNT", 1)
	if err != nil {
		return nil, err
	}
	if pcount < 0 || gcount < 0 || (count+pcount) > MaxPixels || gcount > 1 && (count+pcount) > MaxPixels/gcount {
		return nil, fmt.Errorf("invalid PCOUNT/GCOUNT %d/%d", pcount, gcount)
	}
	xtension, _ := h.String("XTENSION")
	isImage := (primary && !h.Bool("GROUPS")) || strings.TrimSpace(xtension) == "IMAGE"
	if isImage && naxis > 0 && gcount != 1 {
		return nil, fmt.Errorf("image HDU with GCOUNT %d", gcount)
	}
	size := width * gcount * (count + pcount)
	if naxis == 0 {
		size = 0
	}

	hdu := &HDU{Header: h, Axes: axes, Bitpix: bitpix}
	// the buffer grows with the bytes actually read, not with the header's claim
	var buf bytes.Buffer
	if n, err := io.CopyN(&buf, r, int64(size)); err != nil || n != int64(size) {
		return nil, ErrTruncated
	}
	data := buf.Bytes()
	if pad := padding(size); pad > 0 {
		// the final block may legally be short when the producer truncates padding
		if _, err := io.CopyN(io.Discard, r, int64(pad)); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	}

	if !isImage || naxis < 2 || count == 0 || h.Bool("ZIMAGE") {
		return hdu, nil
	}
	if len(data) < width*count {
		return nil, ErrTruncated
	}

	values, err := physical(data[:width*count], bitpix, h)
	if err != nil {
		return nil, err
	}
	planeWidth, planeHeight := axes[0], axes[1]
	planeSize := planeWidth * planeHeight
	for off := 0; off+planeSize <= len(values); off += planeSize {
		hdu.Planes = append(hdu.Planes, domain.Plane{
			Width:  planeWidth,
			Height: planeHeight,
			Data:   values[off : off+planeSize : off+planeSize],
		})
	}
	return hdu, nil
}

// physical converts big-endian raw values to BZERO + BSCALE*raw. Integer
// pixels equal to BLANK become NaN.
func physical(data []byte, bitpix int, h *Header) ([]float64, error) {
	bzero, err := h.FloatOr("BZERO", 0)
	if err != nil {
		return nil, err
	}
	bscale, err := h.FloatOr("BSCALE", 1)
	if err != nil {
		return nil, err
	}
	hasBlank := h.Has("BLANK") && bitpix > 0
	blank := 0
	if hasBlank {
		if blank, err = h.Int("BLANK"); err != nil {
			return nil, err
		}
	}

	width := abs(bitpix) / 8
	ret := make([]float64, len(data)/width)
	for i := range ret {
		b := data[i*width : (i+1)*width]
		var raw float64
		isBlank := false
		switch bitpix {
		case 8:
			raw = float64(b[0])
			isBlank = hasBlank && int(b[0]) == blank
		case 16:
			v := int16(binary.BigEndian.Uint16(b))
			raw = float64(v)
			isBlank = hasBlank && int(v) == blank
		case 32:
			v := int32(binary.BigEndian.Uint32(b))
			raw = float64(v)
			isBlank = hasBlank && int(v) == blank
		case 64:
			v := int64(binary.BigEndian.Uint64(b))
			raw = float64(v)
			isBlank = hasBlank && v == int64(blank)
		case -32:
			raw = float64(math.Float32frombits(binary.BigEndian.Uint32(b)))
		case -64:
			raw = math.Float64frombits(binary.BigEndian.Uint64(b))
		}
		if isBlank {
			ret[i] = math.NaN()
			continue
		}
		ret[i] = bzero + bscale*raw
	}
	return ret, nil
}

func padding(size int) int {
	if rem := size % blockSize; rem != 0 {
		return blockSize - rem
	}
	return 0
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
