// Package timecode converts between seconds, frame counts, rational
// time, tick counts and SMPTE timecode for the supported frame rates.
//
// The drop-frame / non-drop-frame classification is fixed per rate:
// 23.976, 29.97 and 59.94 are drop-frame; 24, 25, 30, 50 and 60 are
// non-drop-frame. Rounding from seconds to frames is round-half-away-
// from-zero (math.Round); tests pin this choice.
package timecode

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// TicksPerSecond is the legacy interchange tick resolution at a
// 1-fps-normalized base. It must be reproduced exactly; rounding errors
// accumulate across long timelines otherwise.
const TicksPerSecond int64 = 254016000000

// UnsupportedFrameRateError indicates a frame rate outside the
// supported set. It is raised once at construction, not per conversion.
type UnsupportedFrameRateError struct {
	Rate float64
}

func (e *UnsupportedFrameRateError) Error() string {
	return fmt.Sprintf("unsupported frame rate %g (supported: 23.976, 24, 25, 29.97, 30, 50, 59.94, 60)", e.Rate)
}

// rateSpec fixes the exact rational value, integer timebase and
// timecode class of one supported rate.
type rateSpec struct {
	nominal  float64
	fpsNum   int64 // exact rate = fpsNum/fpsDen
	fpsDen   int64
	timebase int // round(rate)
	drop     bool
}

var supportedRates = []rateSpec{
	{nominal: 23.976, fpsNum: 24000, fpsDen: 1001, timebase: 24, drop: true},
	{nominal: 24, fpsNum: 24, fpsDen: 1, timebase: 24, drop: false},
	{nominal: 25, fpsNum: 25, fpsDen: 1, timebase: 25, drop: false},
	{nominal: 29.97, fpsNum: 30000, fpsDen: 1001, timebase: 30, drop: true},
	{nominal: 30, fpsNum: 30, fpsDen: 1, timebase: 30, drop: false},
	{nominal: 50, fpsNum: 50, fpsDen: 1, timebase: 50, drop: false},
	{nominal: 59.94, fpsNum: 60000, fpsDen: 1001, timebase: 60, drop: true},
	{nominal: 60, fpsNum: 60, fpsDen: 1, timebase: 60, drop: false},
}

func lookupRate(rate float64) (rateSpec, bool) {
	for _, s := range supportedRates {
		if math.Abs(rate-s.nominal) < 0.01 {
			return s, true
		}
	}
	return rateSpec{}, false
}

// IsSupported reports whether rate is in the supported set.
func IsSupported(rate float64) bool {
	_, ok := lookupRate(rate)
	return ok
}

// SupportedRates returns the supported nominal frame rates.
func SupportedRates() []float64 {
	rates := make([]float64, len(supportedRates))
	for i, s := range supportedRates {
		rates[i] = s.nominal
	}
	return rates
}

// Rational is a reduced fraction of seconds.
type Rational struct {
	Num int64
	Den int64
}

// String renders the FCPXML rational time notation: "3600/24000s", or
// "5s" when the denominator reduces to one.
func (r Rational) String() string {
	if r.Den == 1 {
		return fmt.Sprintf("%ds", r.Num)
	}
	return fmt.Sprintf("%d/%ds", r.Num, r.Den)
}

// Seconds returns the fraction's value.
func (r Rational) Seconds() float64 {
	return float64(r.Num) / float64(r.Den)
}

// Converter performs frame-accurate conversions for one fixed rate.
// It is stateless after construction and safe for concurrent use.
type Converter struct {
	spec rateSpec
	rate float64 // exact fpsNum/fpsDen
}

// New validates rate against the supported set and returns a converter.
func New(rate float64) (*Converter, error) {
	spec, ok := lookupRate(rate)
	if !ok {
		return nil, &UnsupportedFrameRateError{Rate: rate}
	}
	return &Converter{spec: spec, rate: float64(spec.fpsNum) / float64(spec.fpsDen)}, nil
}

// Rate returns the nominal frame rate.
func (c *Converter) Rate() float64 { return c.spec.nominal }

// Timebase returns the integer frame-rate class, round(rate).
func (c *Converter) Timebase() int { return c.spec.timebase }

// DropFrame reports the fixed timecode class of this rate.
func (c *Converter) DropFrame() bool { return c.spec.drop }

// SecondsToFrames converts seconds to a frame count, rounding half away
// from zero.
func (c *Converter) SecondsToFrames(s float64) int {
	return int(math.Round(s * c.rate))
}

// FramesToSeconds is the exact inverse mapping of a frame count to its
// elapsed time.
func (c *Converter) FramesToSeconds(f int) float64 {
	return float64(f) / c.rate
}

// FrameDuration returns the duration of one frame as a reduced fraction.
func (c *Converter) FrameDuration() Rational {
	return reduce(c.spec.fpsDen, c.spec.fpsNum)
}

// FramesToRational returns the elapsed time of f frames as a reduced
// fraction. NTSC-family rates carry the 1001 denominator convention,
// e.g. 24 frames at 23.976 fps is 1001/1000s.
func (c *Converter) FramesToRational(f int) Rational {
	return reduce(int64(f)*c.spec.fpsDen, c.spec.fpsNum)
}

// FramesToTicks converts a frame count to legacy interchange ticks.
func (c *Converter) FramesToTicks(f int) int64 {
	return int64(f) * (TicksPerSecond / int64(c.spec.timebase))
}

// TicksToFrames is the inverse of FramesToTicks.
func (c *Converter) TicksToFrames(ticks int64) int {
	return int(ticks / (TicksPerSecond / int64(c.spec.timebase)))
}

// SecondsToTicks converts seconds to ticks via the frame grid.
func (c *Converter) SecondsToTicks(s float64) int64 {
	return c.FramesToTicks(c.SecondsToFrames(s))
}

// dropPerMinute is the SMPTE 12M drop count: the first N frame numbers
// of every minute except each 10th are skipped.
func (c *Converter) dropPerMinute() int {
	return int(math.Round(c.spec.nominal * 0.066666))
}

// FramesToSMPTE renders hh:mm:ss:ff, with a ';' before the frame field
// for drop-frame rates.
func (c *Converter) FramesToSMPTE(f int) string {
	fps := c.spec.timebase

	if c.spec.drop {
		d := c.dropPerMinute()
		framesPerMinute := fps*60 - d
		framesPer10Minutes := framesPerMinute*9 + fps*60

		tens := f / framesPer10Minutes
		rem := f % framesPer10Minutes
		if rem > d {
			f += d*9*tens + d*((rem-d)/framesPerMinute)
		} else {
			f += d * 9 * tens
		}
	}

	frames := f % fps
	totalSeconds := f / fps
	seconds := totalSeconds % 60
	minutes := (totalSeconds / 60) % 60
	hours := totalSeconds / 3600

	sep := ":"
	if c.spec.drop {
		sep = ";"
	}
	return fmt.Sprintf("%02d:%02d:%02d%s%02d", hours, minutes, seconds, sep, frames)
}

// SMPTEToFrames parses a timecode rendered by FramesToSMPTE back to a
// frame count. Round-trips are exact for valid timecodes; arbitrary
// seconds values round-trip to within one frame duration.
func (c *Converter) SMPTEToFrames(tc string) (int, error) {
	normalized := strings.ReplaceAll(tc, ";", ":")
	parts := strings.Split(normalized, ":")
	if len(parts) != 4 {
		return 0, fmt.Errorf("invalid timecode %q: want hh:mm:ss:ff", tc)
	}

	fields := make([]int, 4)
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid timecode %q: bad field %q", tc, p)
		}
		fields[i] = v
	}
	hours, minutes, seconds, frames := fields[0], fields[1], fields[2], fields[3]

	fps := c.spec.timebase
	if minutes > 59 || seconds > 59 || frames >= fps {
		return 0, fmt.Errorf("invalid timecode %q for %g fps", tc, c.spec.nominal)
	}

	f := (hours*3600+minutes*60+seconds)*fps + frames

	if c.spec.drop {
		d := c.dropPerMinute()
		totalMinutes := hours*60 + minutes
		f -= d * (totalMinutes - totalMinutes/10)
	}

	return f, nil
}

func reduce(num, den int64) Rational {
	if num == 0 {
		return Rational{Num: 0, Den: 1}
	}
	g := gcd(num, den)
	return Rational{Num: num / g, Den: den / g}
}

func gcd(a, b int64) int64 {
	if a < 0 {
		a = -a
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
