package filters

import "fmt"

// unpredict reverses the predictor named by params["Predictor"]. Predictor
// 1 (or none) is the identity, 2 is TIFF Predictor 2, and 10-15 are the
// PNG predictors, where each row carries its own algorithm tag.
func unpredict(data []byte, params Params) ([]byte, error) {
	predictor := getIntParam(params, "Predictor", 1)
	switch {
	case predictor == 1:
		return data, nil
	case predictor == 2:
		return undoTIFFPredictor(data, params)
	case predictor >= 10 && predictor <= 15:
		return undoPNGPredictor(data, params)
	default:
		return nil, fmt.Errorf("unsupported predictor: %d", predictor)
	}
}

type rowLayout struct {
	columns int
	colors  int
	bpc     int
}

func layoutFrom(params Params) (rowLayout, error) {
	l := rowLayout{
		columns: getIntParam(params, "Columns", 1),
		colors:  getIntParam(params, "Colors", 1),
		bpc:     getIntParam(params, "BitsPerComponent", 8),
	}
	if l.columns < 1 || l.colors < 1 {
		return l, fmt.Errorf("invalid predictor layout: Columns=%d Colors=%d", l.columns, l.colors)
	}
	if l.bpc != 8 {
		return l, fmt.Errorf("predictor only supports 8 bits per component, got %d", l.bpc)
	}
	return l, nil
}

// rowBytes is the number of sample bytes in one row.
func (l rowLayout) rowBytes() int { return l.columns * l.colors }

// undoTIFFPredictor reverses horizontal differencing: every sample is
// stored as the difference from the same component of the pixel to its left.
func undoTIFFPredictor(data []byte, params Params) ([]byte, error) {
	l, err := layoutFrom(params)
	if err != nil {
		return nil, err
	}
	rowSize := l.rowBytes()
	if len(data)%rowSize != 0 {
		return nil, fmt.Errorf("data size %d is not a multiple of row size %d", len(data), rowSize)
	}

	out := make([]byte, len(data))
	copy(out, data)
	for rowStart := 0; rowStart < len(out); rowStart += rowSize {
		row := out[rowStart : rowStart+rowSize]
		for i := l.colors; i < len(row); i++ {
			row[i] += row[i-l.colors]
		}
	}
	return out, nil
}

// undoPNGPredictor reverses PNG row filtering. Each encoded row is one tag
// byte (0=None, 1=Sub, 2=Up, 3=Average, 4=Paeth) followed by the samples.
func undoPNGPredictor(data []byte, params Params) ([]byte, error) {
	l, err := layoutFrom(params)
	if err != nil {
		return nil, err
	}
	rowSize := l.rowBytes()
	stride := rowSize + 1
	if len(data)%stride != 0 {
		return nil, fmt.Errorf("data size %d is not a multiple of row size %d", len(data), stride)
	}

	rows := len(data) / stride
	out := make([]byte, rows*rowSize)
	prev := make([]byte, rowSize)
	bpp := l.colors

	for row := 0; row < rows; row++ {
		tag := data[row*stride]
		in := data[row*stride+1 : (row+1)*stride]
		cur := out[row*rowSize : (row+1)*rowSize]

		for i := range in {
			var left, up, upLeft byte
			if i >= bpp {
				left = cur[i-bpp]
				upLeft = prev[i-bpp]
			}
			up = prev[i]

			switch tag {
			case 0:
				cur[i] = in[i]
			case 1:
				cur[i] = in[i] + left
			case 2:
				cur[i] = in[i] + up
			case 3:
				cur[i] = in[i] + byte((int(left)+int(up))/2)
			case 4:
				cur[i] = in[i] + paeth(left, up, upLeft)
			default:
				return nil, fmt.Errorf("row %d: unknown PNG predictor: %d", row, tag)
			}
		}
		prev = cur
	}
	return out, nil
}

// paeth picks whichever of left, up and upper-left is closest to
// left+up-upLeft, breaking ties in that order.
func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
