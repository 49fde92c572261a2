package detect

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"gocv.io/x/gocv"

	"snowwatch/internal/archive"
	"snowwatch/internal/config"
	"snowwatch/internal/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	return logger.NewLogger(&config.Config{LogDirectory: t.TempDir()})
}

func countNonZero(mat gocv.Mat) int {
	return gocv.CountNonZero(mat)
}

// writePNG renders a width x height image where fill decides each pixel.
func writePNG(t *testing.T, path string, width, height int, fill func(x, y int) color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fill(x, y))
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func solid(c color.Color) func(x, y int) color.Color {
	return func(x, y int) color.Color { return c }
}

func testSettings() config.Settings {
	settings := config.DefaultSettings()
	settings.BinaryThreshold = 30
	settings.BlurKernel = 3
	settings.Threshold = 0.15
	settings.MaskInclusive = true
	return settings
}

func TestAnalyzeIdenticalFrames(t *testing.T) {
	dir := t.TempDir()
	latest := filepath.Join(dir, "latest.png")
	previous := filepath.Join(dir, "previous.png")
	writePNG(t, latest, 64, 64, solid(color.Gray{Y: 128}))
	writePNG(t, previous, 64, 64, solid(color.Gray{Y: 128}))

	detector := NewDetector(filepath.Join(dir, "no-mask.png"), testLogger(t))
	result := detector.Analyze(latest, previous, testSettings())
	if result == nil {
		t.Fatal("expected a result for decodable frames")
	}
	if result.DetectionRate != 0 {
		t.Errorf("detection rate = %v, want 0 for identical frames", result.DetectionRate)
	}
	if result.Alarm {
		t.Error("identical frames must not alarm")
	}
	if result.MaskPixels != 64*64 {
		t.Errorf("mask pixels = %d, want full frame %d", result.MaskPixels, 64*64)
	}
}

func TestAnalyzeFullyChangedFrames(t *testing.T) {
	dir := t.TempDir()
	latest := filepath.Join(dir, "latest.png")
	previous := filepath.Join(dir, "previous.png")
	writePNG(t, latest, 64, 64, solid(color.White))
	writePNG(t, previous, 64, 64, solid(color.Black))

	detector := NewDetector(filepath.Join(dir, "no-mask.png"), testLogger(t))
	result := detector.Analyze(latest, previous, testSettings())
	if result == nil {
		t.Fatal("expected a result")
	}
	if result.DetectionRate < 0.95 {
		t.Errorf("detection rate = %v, want near 1.0", result.DetectionRate)
	}
	if result.DetectionRate > 1 {
		t.Errorf("detection rate = %v, must never exceed 1", result.DetectionRate)
	}
	if !result.Alarm {
		t.Error("a fully changed frame must alarm at threshold 0.15")
	}
}

func TestAnalyzeRateIsOverMaskedPixelsOnly(t *testing.T) {
	dir := t.TempDir()
	latest := filepath.Join(dir, "latest.png")
	previous := filepath.Join(dir, "previous.png")
	maskPath := filepath.Join(dir, "mask.png")
	writePNG(t, latest, 64, 64, solid(color.White))
	writePNG(t, previous, 64, 64, solid(color.Black))
	// Mask activates only the left half of the frame.
	writePNG(t, maskPath, 64, 64, func(x, y int) color.Color {
		if x < 32 {
			return color.White
		}
		return color.Black
	})

	detector := NewDetector(maskPath, testLogger(t))
	result := detector.Analyze(latest, previous, testSettings())
	if result == nil {
		t.Fatal("expected a result")
	}
	if result.MaskPixels != 32*64 {
		t.Errorf("mask pixels = %d, want %d", result.MaskPixels, 32*64)
	}
	// Every active pixel changed, so the ratio is ~1.0 rather than 0.5
	// over the whole frame.
	if result.DetectionRate < 0.9 {
		t.Errorf("detection rate = %v, want near 1.0 over masked pixels", result.DetectionRate)
	}
}

func TestAnalyzeEmptyMaskNeverDividesByZero(t *testing.T) {
	dir := t.TempDir()
	latest := filepath.Join(dir, "latest.png")
	previous := filepath.Join(dir, "previous.png")
	maskPath := filepath.Join(dir, "mask.png")
	writePNG(t, latest, 32, 32, solid(color.White))
	writePNG(t, previous, 32, 32, solid(color.Black))
	// A mask with no active pixels at all.
	writePNG(t, maskPath, 32, 32, solid(color.Black))

	detector := NewDetector(maskPath, testLogger(t))
	result := detector.Analyze(latest, previous, testSettings())
	if result == nil {
		t.Fatal("expected a result")
	}
	if result.MaskPixels != 0 {
		t.Errorf("mask pixels = %d, want 0", result.MaskPixels)
	}
	if result.DetectionRate != 0 {
		t.Errorf("detection rate = %v, want exactly 0 with no active pixels", result.DetectionRate)
	}
}

func TestAnalyzeResizesMismatchedPrevious(t *testing.T) {
	dir := t.TempDir()
	latest := filepath.Join(dir, "latest.png")
	previous := filepath.Join(dir, "previous.png")
	writePNG(t, latest, 64, 48, solid(color.Gray{Y: 200}))
	writePNG(t, previous, 32, 24, solid(color.Gray{Y: 200}))

	detector := NewDetector(filepath.Join(dir, "no-mask.png"), testLogger(t))
	result := detector.Analyze(latest, previous, testSettings())
	if result == nil {
		t.Fatal("dimension mismatch must not abort the evaluation")
	}
	if result.DetectionRate != 0 {
		t.Errorf("same content at different sizes: rate = %v, want 0", result.DetectionRate)
	}
}

func TestAnalyzeUndecodableFrame(t *testing.T) {
	dir := t.TempDir()
	latest := filepath.Join(dir, "latest.png")
	previous := filepath.Join(dir, "previous.png")
	writePNG(t, latest, 16, 16, solid(color.White))
	if err := os.WriteFile(previous, []byte("junk"), 0644); err != nil {
		t.Fatal(err)
	}

	detector := NewDetector(filepath.Join(dir, "no-mask.png"), testLogger(t))
	if result := detector.Analyze(latest, previous, testSettings()); result != nil {
		t.Errorf("expected nil for undecodable input, got %+v", result)
	}
}

func TestAnalyzeWritesOverlayWithSingleSuffix(t *testing.T) {
	dir := t.TempDir()
	latest := filepath.Join(dir, "frame.png")
	previous := filepath.Join(dir, "previous.png")
	writePNG(t, latest, 32, 32, solid(color.White))
	writePNG(t, previous, 32, 32, solid(color.Black))

	detector := NewDetector(filepath.Join(dir, "no-mask.png"), testLogger(t))
	result := detector.Analyze(latest, previous, testSettings())
	if result == nil {
		t.Fatal("expected a result")
	}

	want := archive.OverlayName(latest)
	if result.OverlayPath != want {
		t.Errorf("overlay path = %q, want %q", result.OverlayPath, want)
	}
	if _, err := os.Stat(result.OverlayPath); err != nil {
		t.Fatalf("overlay frame not written: %v", err)
	}
	if filepath.Base(result.OverlayPath) != "frame_mask.png" {
		t.Errorf("overlay name %q carries the wrong suffix", result.OverlayPath)
	}
}

func TestAnalyzeBadOverlayStylingStillEvaluates(t *testing.T) {
	dir := t.TempDir()
	latest := filepath.Join(dir, "latest.png")
	previous := filepath.Join(dir, "previous.png")
	writePNG(t, latest, 32, 32, solid(color.White))
	writePNG(t, previous, 32, 32, solid(color.Black))

	settings := testSettings()
	settings.OverlayColor = "chartreuse"
	settings.OverlayAlpha = 7.5

	detector := NewDetector(filepath.Join(dir, "no-mask.png"), testLogger(t))
	result := detector.Analyze(latest, previous, settings)
	if result == nil {
		t.Fatal("styling fallbacks must not fail the evaluation")
	}
	if result.DetectionRate < 0.95 {
		t.Errorf("detection rate = %v, want near 1.0", result.DetectionRate)
	}
}

func TestAnalyzeEvenBlurKernel(t *testing.T) {
	dir := t.TempDir()
	latest := filepath.Join(dir, "latest.png")
	previous := filepath.Join(dir, "previous.png")
	writePNG(t, latest, 32, 32, solid(color.White))
	writePNG(t, previous, 32, 32, solid(color.Black))

	settings := testSettings()
	settings.BlurKernel = 4 // silently bumped to 5

	detector := NewDetector(filepath.Join(dir, "no-mask.png"), testLogger(t))
	if result := detector.Analyze(latest, previous, settings); result == nil {
		t.Fatal("even kernel sizes must not fail the evaluation")
	}
}

func TestResolveMaskFromArtifact(t *testing.T) {
	dir := t.TempDir()
	maskPath := filepath.Join(dir, "mask.png")
	writePNG(t, maskPath, 16, 16, func(x, y int) color.Color {
		if y < 8 {
			return color.White
		}
		return color.Black
	})

	mask, defaulted := ResolveMask(maskPath, 16, 16, true)
	defer mask.Close()
	if defaulted {
		t.Error("a decodable mask artifact must not take the fallback branch")
	}
	if active := countNonZero(mask); active != 8*16 {
		t.Errorf("%d active pixels, want %d", active, 8*16)
	}
}

func TestResolveMaskResizesToFrame(t *testing.T) {
	dir := t.TempDir()
	maskPath := filepath.Join(dir, "mask.png")
	writePNG(t, maskPath, 8, 8, solid(color.White))

	mask, defaulted := ResolveMask(maskPath, 32, 32, true)
	defer mask.Close()
	if defaulted {
		t.Error("resizable mask must not take the fallback branch")
	}
	if mask.Rows() != 32 || mask.Cols() != 32 {
		t.Errorf("mask is %dx%d, want 32x32", mask.Rows(), mask.Cols())
	}
	if active := countNonZero(mask); active != 32*32 {
		t.Errorf("%d active pixels after resize, want %d", active, 32*32)
	}
}
