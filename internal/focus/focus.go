// Package focus scores image sharpness from the variance of the
// discrete Laplacian response over a grayscale frame buffer.
package focus

import (
	"fmt"
	"math"
)

// DefaultCalibration is the variance divisor mapping raw Laplacian
// variance onto the 0-100 scale. It is an empirical constant tuned
// against real footage, not derived analytically.
const DefaultCalibration = 100.0

// MinDimension is the smallest width/height that leaves interior pixels
// for the Laplacian kernel.
const MinDimension = 3

// InsufficientResolutionError indicates a frame too small to score.
type InsufficientResolutionError struct {
	Width  int
	Height int
}

func (e *InsufficientResolutionError) Error() string {
	return fmt.Sprintf("frame %dx%d too small to score (need at least %dx%d)",
		e.Width, e.Height, MinDimension, MinDimension)
}

// Scorer computes 0-100 sharpness scores for grayscale frame buffers.
type Scorer struct {
	// Calibration divides the raw variance before scaling to 0-100.
	// Zero means DefaultCalibration.
	Calibration float64
}

// NewScorer returns a Scorer with the given calibration constant.
// Non-positive values fall back to DefaultCalibration.
func NewScorer(calibration float64) *Scorer {
	if calibration <= 0 {
		calibration = DefaultCalibration
	}
	return &Scorer{Calibration: calibration}
}

// Score treats buf as row-major single-channel samples of the given
// dimensions and returns a sharpness score in [0, 100]. Border pixels
// are excluded from the Laplacian computation.
func (s *Scorer) Score(buf []byte, width, height int) (int, error) {
	if width < MinDimension || height < MinDimension {
		return 0, &InsufficientResolutionError{Width: width, Height: height}
	}
	if len(buf) < width*height {
		return 0, fmt.Errorf("buffer length %d shorter than %dx%d frame", len(buf), width, height)
	}

	variance := laplacianVariance(buf, width, height)

	calibration := s.Calibration
	if calibration <= 0 {
		calibration = DefaultCalibration
	}

	scaled := variance / calibration * 100.0
	if scaled > 100.0 {
		scaled = 100.0
	}
	return int(math.Round(scaled)), nil
}

// Variance returns the raw population variance of the Laplacian
// responses, before calibration. Useful for tuning the constant.
func (s *Scorer) Variance(buf []byte, width, height int) (float64, error) {
	if width < MinDimension || height < MinDimension {
		return 0, &InsufficientResolutionError{Width: width, Height: height}
	}
	if len(buf) < width*height {
		return 0, fmt.Errorf("buffer length %d shorter than %dx%d frame", len(buf), width, height)
	}
	return laplacianVariance(buf, width, height), nil
}

// laplacianVariance computes |−4·center + top + bottom + left + right|
// for every interior pixel and returns the population variance of the
// responses.
func laplacianVariance(buf []byte, width, height int) float64 {
	n := (width - 2) * (height - 2)

	var sum float64
	responses := make([]float64, 0, n)
	for y := 1; y < height-1; y++ {
		row := y * width
		for x := 1; x < width-1; x++ {
			center := int(buf[row+x])
			top := int(buf[row-width+x])
			bottom := int(buf[row+width+x])
			left := int(buf[row+x-1])
			right := int(buf[row+x+1])

			r := math.Abs(float64(-4*center + top + bottom + left + right))
			responses = append(responses, r)
			sum += r
		}
	}

	mean := sum / float64(n)
	var sq float64
	for _, r := range responses {
		d := r - mean
		sq += d * d
	}
	return sq / float64(n)
}

// Segment is a contiguous span of poor focus within a scored clip.
type Segment struct {
	Start float64 `json:"start"` // seconds
	End   float64 `json:"end"`   // seconds
}

// PoorSegments identifies spans where the per-frame score stays below
// threshold for at least minDuration seconds. Timestamps are the sample
// times of the scored frames, parallel to scores.
func PoorSegments(scores []int, timestamps []float64, threshold int, minDuration float64) []Segment {
	var segments []Segment
	start := -1.0

	for i, score := range scores {
		if score < threshold {
			if start < 0 {
				start = timestamps[i]
			}
			continue
		}
		if start >= 0 {
			if timestamps[i]-start >= minDuration {
				segments = append(segments, Segment{Start: start, End: timestamps[i]})
			}
			start = -1
		}
	}

	if start >= 0 && len(timestamps) > 0 {
		end := timestamps[len(timestamps)-1]
		if end-start >= minDuration {
			segments = append(segments, Segment{Start: start, End: end})
		}
	}

	return segments
}
