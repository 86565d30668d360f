package fits

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/lewtec/astrorank/internal/domain"
)

// Encode writes one HDU per argument as 64-bit floats: the first becomes the
// primary HDU and the rest IMAGE extensions. An HDU with several planes is
// written as a cube, so the planes must share their shape.
func Encode(w io.Writer, hdus ...[]domain.Plane) error {
	bw := bufio.NewWriter(w)
	if len(hdus) == 0 {
		hdus = [][]domain.Plane{nil}
	}
	for i, planes := range hdus {
		if err := encodeHDU(bw, planes, i == 0); err != nil {
			return fmt.Errorf("while encoding HDU %d: %w", i, err)
		}
	}
	return bw.Flush()
}

func encodeHDU(w *bufio.Writer, planes []domain.Plane, primary bool) error {
	var cards [][2]string
	if primary {
		cards = append(cards, [2]string{"SIMPLE", "T"})
	} else {
		cards = append(cards, [2]string{"XTENSION", "'IMAGE   '"})
	}
	cards = append(cards, [2]string{"BITPIX", "-64"})
	switch {
	case len(planes) == 0:
		cards = append(cards, [2]string{"NAXIS", "0"})
	case len(planes) == 1:
		cards = append(cards,
			[2]string{"NAXIS", "2"},
			[2]string{"NAXIS1", strconv.Itoa(planes[0].Width)},
			[2]string{"NAXIS2", strconv.Itoa(planes[0].Height)},
		)
	default:
		cards = append(cards,
			[2]string{"NAXIS", "3"},
			[2]string{"NAXIS1", strconv.Itoa(planes[0].Width)},
			[2]string{"NAXIS2", strconv.Itoa(planes[0].Height)},
			[2]string{"NAXIS3", strconv.Itoa(len(planes))},
		)
	}
	if primary {
		cards = append(cards, [2]string{"EXTEND", "T"})
	} else {
		cards = append(cards, [2]string{"PCOUNT", "0"}, [2]string{"GCOUNT", "1"})
	}
	cards = append(cards, [2]string{"END", ""})

	written := 0
	for _, c := range cards {
		n, err := w.Write(formatCard(c[0], c[1]))
		if err != nil {
			return err
		}
		written += n
	}
	if err := pad(w, padding(written), ' '); err != nil {
		return err
	}

	written = 0
	buf := make([]byte, 8)
	for _, p := range planes {
		if p.Width != planes[0].Width || p.Height != planes[0].Height {
			return fmt.Errorf("plane shape %dx%d differs from %dx%d", p.Width, p.Height, planes[0].Width, planes[0].Height)
		}
		if len(p.Data) != p.Width*p.Height {
			return fmt.Errorf("plane holds %d values, want %d", len(p.Data), p.Width*p.Height)
		}
		for _, v := range p.Data {
			binary.BigEndian.PutUint64(buf, math.Float64bits(v))
			n, err := w.Write(buf)
			if err != nil {
				return err
			}
			written += n
		}
	}
	return pad(w, padding(written), 0)
}

func pad(w io.ByteWriter, n int, b byte) error {
	for i := 0; i < n; i++ {
		if err := w.WriteByte(b); err != nil {
			return err
		}
	}
	return nil
}
