package detect

import (
	"image"
	"image/color"
	"os"
	"strconv"
	"strings"

	"gocv.io/x/gocv"
)

// Fallbacks used when the configured overlay styling is unusable. A bad
// color string or out-of-range opacity never fails an evaluation.
var (
	DefaultOverlayColor = color.RGBA{R: 255, G: 105, B: 180, A: 255} // #ff69b4
	DefaultOverlayAlpha = 0.35
)

// EnsureOdd rounds a kernel size up to the nearest odd value >= 1.
func EnsureOdd(value int) int {
	if value < 1 {
		return 1
	}
	if value%2 == 0 {
		return value + 1
	}
	return value
}

// ParseOverlayColor parses a "#rrggbb" string. The second return value
// reports whether the fallback color was substituted.
func ParseOverlayColor(colorStr string) (color.RGBA, bool) {
	if len(colorStr) != 7 || !strings.HasPrefix(colorStr, "#") {
		return DefaultOverlayColor, true
	}
	r, errR := strconv.ParseUint(colorStr[1:3], 16, 8)
	g, errG := strconv.ParseUint(colorStr[3:5], 16, 8)
	b, errB := strconv.ParseUint(colorStr[5:7], 16, 8)
	if errR != nil || errG != nil || errB != nil {
		return DefaultOverlayColor, true
	}
	return color.RGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: 255}, false
}

// ParseOverlayAlpha validates an opacity value. The second return value
// reports whether the fallback was substituted.
func ParseOverlayAlpha(alpha float64) (float64, bool) {
	if alpha < 0 || alpha > 1 {
		return DefaultOverlayAlpha, true
	}
	return alpha, false
}

// ResolveMask produces the binarized active-pixel stencil at rows x cols.
// Masking degrades to full-frame-active when it is disabled, the mask
// artifact is missing, or it fails to decode; the second return value is
// true on any of those fallback branches. The caller owns the returned Mat.
func ResolveMask(maskPath string, rows, cols int, inclusive bool) (gocv.Mat, bool) {
	if !inclusive {
		return fullFrameMask(rows, cols), true
	}
	if _, err := os.Stat(maskPath); err != nil {
		return fullFrameMask(rows, cols), true
	}

	mask := gocv.IMRead(maskPath, gocv.IMReadGrayScale)
	if mask.Empty() {
		mask.Close()
		return fullFrameMask(rows, cols), true
	}
	defer mask.Close()

	sized := mask
	if mask.Rows() != rows || mask.Cols() != cols {
		sized = gocv.NewMat()
		// Nearest neighbor keeps the stencil's hard edges.
		gocv.Resize(mask, &sized, image.Pt(cols, rows), 0, 0, gocv.InterpolationNearestNeighbor)
		defer sized.Close()
	}

	binary := gocv.NewMat()
	gocv.Threshold(sized, &binary, 1, 255, gocv.ThresholdBinary)
	return binary, false
}

func fullFrameMask(rows, cols int) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 0, 0, 0), rows, cols, gocv.MatTypeCV8U)
}
