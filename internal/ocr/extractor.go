package ocr

import (
	"fmt"
	"image"

	"github.com/otiai10/gosseract/v2"
	"gocv.io/x/gocv"

	"althingi-pipeline/internal/config"
)

// MaskKind selects how a caption band is isolated before OCR.
type MaskKind int

const (
	// MaskHSV thresholds a hue/saturation/value range (colored captions).
	MaskHSV MaskKind = iota
	// MaskGray thresholds single-channel intensity (white-on-dark captions).
	MaskGray
)

// MaskConfig describes one caption band: where it sits in the frame and which
// pixel range counts as caption text.
type MaskConfig struct {
	Kind MaskKind
	Band config.Rect
	HSV  config.HSVRange
	Gray config.GrayRange
}

func SpeakerMask(c config.Segmenter) MaskConfig {
	return MaskConfig{Kind: MaskHSV, Band: c.SpeakerBand, HSV: c.SpeakerColor}
}

func TopicMask(c config.Segmenter) MaskConfig {
	return MaskConfig{Kind: MaskGray, Band: c.TopicBand, Gray: c.TopicColor}
}

// Extractor runs Tesseract over masked caption bands. It owns one OCR client
// and is not safe for concurrent use.
type Extractor struct {
	client *gosseract.Client
}

func NewExtractor(cfg config.OCR) (*Extractor, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage(cfg.Language); err != nil {
		client.Close()
		return nil, fmt.Errorf("ocr language %q: %w", cfg.Language, err)
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(cfg.PageSegMode)); err != nil {
		client.Close()
		return nil, fmt.Errorf("ocr page seg mode %d: %w", cfg.PageSegMode, err)
	}
	return &Extractor{client: client}, nil
}

func (e *Extractor) Close() error {
	return e.client.Close()
}

// Extract crops frame to the configured band, masks pixels outside the
// caption color range, grayscales the result and OCRs it. The returned Mat is
// the grayscale image that was fed to OCR, kept for audit logging; the caller
// owns it and must Close it.
func (e *Extractor) Extract(frame gocv.Mat, mc MaskConfig) (Reading, gocv.Mat, error) {
	rect := image.Rect(mc.Band.Left, mc.Band.Top, mc.Band.Right, mc.Band.Bottom)
	cropped := frame.Region(rect)
	defer cropped.Close()

	mask := gocv.NewMat()
	defer mask.Close()
	masked := gocv.NewMat()
	defer masked.Close()
	gray := gocv.NewMat()

	switch mc.Kind {
	case MaskHSV:
		hsv := gocv.NewMat()
		gocv.CvtColor(cropped, &hsv, gocv.ColorBGRToHSV)
		lb := gocv.NewScalar(mc.HSV.Lower[0], mc.HSV.Lower[1], mc.HSV.Lower[2], 0)
		ub := gocv.NewScalar(mc.HSV.Upper[0], mc.HSV.Upper[1], mc.HSV.Upper[2], 0)
		gocv.InRangeWithScalar(hsv, lb, ub, &mask)
		hsv.Close()
		gocv.BitwiseAndWithMask(cropped, cropped, &masked, mask)
		gocv.CvtColor(masked, &gray, gocv.ColorBGRToGray)
	case MaskGray:
		intensity := gocv.NewMat()
		gocv.CvtColor(cropped, &intensity, gocv.ColorBGRToGray)
		lb := gocv.NewScalar(mc.Gray.Lower, 0, 0, 0)
		ub := gocv.NewScalar(mc.Gray.Upper, 0, 0, 0)
		gocv.InRangeWithScalar(intensity, lb, ub, &mask)
		gocv.BitwiseAndWithMask(intensity, intensity, &gray, mask)
		intensity.Close()
	default:
		gray.Close()
		return NoReading(), gocv.Mat{}, fmt.Errorf("unknown mask kind %d", mc.Kind)
	}

	text, err := e.recognize(gray)
	if err != nil {
		gray.Close()
		return NoReading(), gocv.Mat{}, err
	}
	if text == "" {
		return NoReading(), gray, nil
	}
	return TextReading(text), gray, nil
}

func (e *Extractor) recognize(img gocv.Mat) (string, error) {
	buf, err := gocv.IMEncode(gocv.PNGFileExt, img)
	if err != nil {
		return "", fmt.Errorf("encode ocr input: %w", err)
	}
	defer buf.Close()
	if err := e.client.SetImageFromBytes(buf.GetBytes()); err != nil {
		return "", fmt.Errorf("set ocr image: %w", err)
	}
	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr: %w", err)
	}
	return text, nil
}
