// Package detect computes the masked pixel-change ratio between the two most
// recent archived frames and renders the changed-region overlay.
package detect

import (
	"image"

	"gocv.io/x/gocv"

	"snowwatch/internal/archive"
	"snowwatch/internal/config"
	"snowwatch/internal/logger"
)

// DetectionResult is the outcome of one evaluation. It is ephemeral; only
// the overlay frame it references is persisted here.
type DetectionResult struct {
	DetectionRate float64 `json:"detection_rate"`
	ChangedPixels int     `json:"changed_pixels"`
	MaskPixels    int     `json:"mask_pixels"`
	OverlayPath   string  `json:"overlay_path"`
	Alarm         bool    `json:"alarm"`
}

// Detector runs the change-detection pipeline against the mask artifact at a
// fixed path.
type Detector struct {
	maskPath string
	logger   *logger.Logger
}

func NewDetector(maskPath string, logger *logger.Logger) *Detector {
	return &Detector{maskPath: maskPath, logger: logger}
}

// Analyze diffs latest against previous under the active mask and writes the
// overlay frame next to latest. Returns nil when either frame fails to
// decode; a bad frame aborts only the current evaluation.
func (d *Detector) Analyze(latestPath, previousPath string, settings config.Settings) *DetectionResult {
	imgLatest := gocv.IMRead(latestPath, gocv.IMReadColor)
	defer imgLatest.Close()
	imgPrev := gocv.IMRead(previousPath, gocv.IMReadColor)
	defer imgPrev.Close()
	if imgLatest.Empty() || imgPrev.Empty() {
		d.logger.Warning("Skipping evaluation: failed to decode %s or %s", latestPath, previousPath)
		return nil
	}

	rows, cols := imgLatest.Rows(), imgLatest.Cols()

	// Tolerate camera resolution drift by resizing the older frame.
	if imgPrev.Rows() != rows || imgPrev.Cols() != cols {
		resized := gocv.NewMat()
		gocv.Resize(imgPrev, &resized, image.Pt(cols, rows), 0, 0, gocv.InterpolationLinear)
		imgPrev.Close()
		imgPrev = resized
	}

	grayLatest := gocv.NewMat()
	defer grayLatest.Close()
	grayPrev := gocv.NewMat()
	defer grayPrev.Close()
	gocv.CvtColor(imgLatest, &grayLatest, gocv.ColorBGRToGray)
	gocv.CvtColor(imgPrev, &grayPrev, gocv.ColorBGRToGray)

	ksize := EnsureOdd(settings.BlurKernel)
	gocv.GaussianBlur(grayLatest, &grayLatest, image.Pt(ksize, ksize), 0, 0, gocv.BorderDefault)
	gocv.GaussianBlur(grayPrev, &grayPrev, image.Pt(ksize, ksize), 0, 0, gocv.BorderDefault)

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(grayLatest, grayPrev, &diff)

	mask, _ := ResolveMask(d.maskPath, rows, cols, settings.MaskInclusive)
	defer mask.Close()

	masked := gocv.NewMat()
	defer masked.Close()
	gocv.BitwiseAndWithMask(diff, diff, &masked, mask)

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(masked, &binary, float32(settings.BinaryThreshold), 255, gocv.ThresholdBinary)

	// One fixed opening then closing pass suppresses isolated noise and
	// fills small gaps. Not configurable.
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3))
	defer kernel.Close()
	gocv.MorphologyEx(binary, &binary, gocv.MorphOpen, kernel)
	gocv.MorphologyEx(binary, &binary, gocv.MorphClose, kernel)

	changed := gocv.CountNonZero(binary)
	maskPixels := gocv.CountNonZero(mask)

	detectionRate := 0.0
	if maskPixels > 0 {
		detectionRate = float64(changed) / float64(maskPixels)
	}

	overlayPath := d.renderOverlay(imgLatest, binary, latestPath, settings)

	return &DetectionResult{
		DetectionRate: detectionRate,
		ChangedPixels: changed,
		MaskPixels:    maskPixels,
		OverlayPath:   overlayPath,
		Alarm:         detectionRate >= settings.Threshold,
	}
}

// renderOverlay writes a copy of latest with every changed pixel blended
// toward the configured highlight color. Returns "" when the write fails.
func (d *Detector) renderOverlay(imgLatest, changedMask gocv.Mat, latestPath string, settings config.Settings) string {
	highlight, colorDefaulted := ParseOverlayColor(settings.OverlayColor)
	alpha, alphaDefaulted := ParseOverlayAlpha(settings.OverlayAlpha)
	if colorDefaulted {
		d.logger.Warning("Unusable overlay_color %q, using fallback", settings.OverlayColor)
	}
	if alphaDefaulted {
		d.logger.Warning("Unusable overlay_alpha %v, using fallback", settings.OverlayAlpha)
	}

	// Mats are BGR ordered.
	colorMat := gocv.NewMatWithSizeFromScalar(
		gocv.NewScalar(float64(highlight.B), float64(highlight.G), float64(highlight.R), 0),
		imgLatest.Rows(), imgLatest.Cols(), imgLatest.Type())
	defer colorMat.Close()

	blended := gocv.NewMat()
	defer blended.Close()
	gocv.AddWeighted(imgLatest, 1-alpha, colorMat, alpha, 0, &blended)

	overlay := imgLatest.Clone()
	defer overlay.Close()
	blended.CopyToWithMask(&overlay, changedMask)

	overlayPath := archive.OverlayName(latestPath)
	if ok := gocv.IMWrite(overlayPath, overlay); !ok {
		d.logger.Error("Failed to write overlay %s", overlayPath)
		return ""
	}
	return overlayPath
}
