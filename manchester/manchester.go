// Package manchester implements the Manchester line code: mapping a finite
// bit sequence to a sampled real-valued signal (encode) and recovering bits
// from a signal by sampling around integer times (decode).
package manchester

import "math"

// Signal is a real-valued function of time produced by Encode. It is zero
// outside the encoded frame's time span.
type Signal func(t float64) float64

func node1(t float64) float64 { return math.Sin(2 * math.Pi * t) }
func node2(t float64) float64 { return node1(3*t) / 3 }

func samePhase(t float64) float64   { return node1(t) }
func switchPhase(t float64) float64 { return node1(t/2) + node2(t/2) }

func startSmoothing(t float64) float64 {
	switch {
	case t < -0.5:
		return 0
	case t >= -0.4:
		return 1
	default:
		return math.Cos(10*math.Pi*t)/2 + 0.5
	}
}

func endSmoothing(t float64) float64 { return startSmoothing(-t) }

func sign(bit bool) float64 {
	if bit {
		return 1
	}
	return -1
}

// encodeSegment evaluates the interior waveform for local time t in [-1, 0),
// the cell immediately preceding a bit-cell boundary. previousBit and
// currentBit are the bits on either side of that boundary; the waveform
// stays phase-continuous (samePhase) when they agree and re-synchronizes
// (switchPhase) when they differ.
func encodeSegment(t float64, previousBit, currentBit bool) float64 {
	if t < -1 || t >= 0 {
		return 0
	}
	s := sign(currentBit)
	if previousBit == currentBit {
		return s * samePhase(t)
	}
	return s * switchPhase(t)
}

// encodeBoundary evaluates the smoothed ramp at the very start or end of the
// frame, where there is no neighboring bit to phase-match against.
func encodeBoundary(t float64, currentBit, start bool) float64 {
	if start {
		return sign(currentBit) * startSmoothing(t) * node1(t)
	}
	return sign(currentBit) * endSmoothing(t) * node1(t)
}

// Encode returns a Signal representing bits at one bit per unit time,
// starting at t=0. Outside [-0.5, n-0.5) the signal is zero; the half-unit
// margins at the very start and end are smoothed ramps (see encodeBoundary)
// rather than abrupt jumps.
func Encode(bits []bool) Signal {
	n := len(bits)
	return func(t float64) float64 {
		if n == 0 || t < -0.5 || t >= float64(n)-0.5 {
			return 0
		}
		if t >= 0 && t < float64(n-1) {
			k := int(math.Ceil(t))
			return encodeSegment(t-float64(k), bits[k-1], bits[k])
		}
		// -0.5 <= t < 0, or n-1 <= t < n-0.5: boundary regions.
		k := int(math.Ceil(t))
		idx := int(math.Round(t))
		if idx < 0 {
			idx = 0
		}
		if idx > n-1 {
			idx = n - 1
		}
		return encodeBoundary(t-float64(k), bits[idx], t < 0)
	}
}

// Sample is one element of a decoded Manchester stream: either a definite
// bit, or Silence when both probes around an integer time are (near) zero,
// meaning no transition was detected there.
type Sample struct {
	Bit     bool
	Silence bool
}

// Decoder is a lazy, finite, non-restartable sequence of decoded samples: it
// samples a Signal at j+epsilon and j-epsilon for successive integers j,
// closing the sequence after DeadSignalSamples consecutive silences.
type Decoder struct {
	signal            Signal
	epsilon           float64
	deadSignalSamples int
	j                 int
	consecutiveSilent int
	done              bool
}

// DefaultEpsilon is the default probe offset around each integer sample
// time.
const DefaultEpsilon = 0.01

// DefaultDeadSignalSamples is the default number of consecutive silences
// that closes a Decoder's sequence.
const DefaultDeadSignalSamples = 3

// NewDecoder returns a Decoder over signal. deadSignalSamples <= 0 uses
// DefaultDeadSignalSamples.
func NewDecoder(signal Signal, deadSignalSamples int) *Decoder {
	if deadSignalSamples <= 0 {
		deadSignalSamples = DefaultDeadSignalSamples
	}
	return &Decoder{signal: signal, epsilon: DefaultEpsilon, deadSignalSamples: deadSignalSamples}
}

// Next returns the next Sample and true, or a zero Sample and false once the
// sequence has closed (after the configured run of consecutive silences).
// The Decoder is not restartable: once Next returns false it always will.
func (d *Decoder) Next() (Sample, bool) {
	if d.done {
		return Sample{}, false
	}
	t := float64(d.j)
	lo := d.signal(t - d.epsilon)
	hi := d.signal(t + d.epsilon)
	d.j++

	const zeroThreshold = 1e-9
	if math.Abs(lo) < zeroThreshold && math.Abs(hi) < zeroThreshold {
		d.consecutiveSilent++
		if d.consecutiveSilent >= d.deadSignalSamples {
			d.done = true
		}
		return Sample{Silence: true}, true
	}
	d.consecutiveSilent = 0
	return Sample{Bit: hi > lo}, true
}

// DecodeBits drains a Decoder into a bit slice, stopping at the first
// silence (the caller is expected to construct a Decoder directly when
// inter-packet silences carry meaning, as the Ethernet signal bridge does).
func DecodeBits(d *Decoder) []bool {
	var bits []bool
	for {
		sample, ok := d.Next()
		if !ok || sample.Silence {
			return bits
		}
		bits = append(bits, sample.Bit)
	}
}
