// Package audio performs the stateless codec and rate conversions between
// the narrowband telephony leg (μ-law, 8 kHz) and the wideband PCM WAV the
// remote speech services consume (16 kHz).
package audio

import (
	"fmt"
	"math"

	"mindline/internal/domain"
)

// DecodeSegment concatenates inbound μ-law frames, expands them to linear
// PCM, upsamples to the wideband rate, and wraps the result in a WAV
// container.
func DecodeSegment(frames [][]byte) ([]byte, error) {
	total := 0
	for _, f := range frames {
		total += len(f)
	}
	if total == 0 {
		return nil, fmt.Errorf("%w: empty segment", domain.ErrFormat)
	}

	pcm := make([]int16, 0, total)
	for _, f := range frames {
		pcm = append(pcm, DecodeUlaw(f)...)
	}

	wide := resampleLinear(pcm, TelephonyRate, WidebandRate)
	return writeWavPCM16Mono(wide, WidebandRate), nil
}

// EncodeForTelephony parses a WAV container, downmixes to mono, normalizes
// to 16-bit, downsamples to the telephony rate, and μ-law encodes.
func EncodeForTelephony(wav []byte) ([]byte, error) {
	wi, err := readWav(wav)
	if err != nil {
		return nil, err
	}
	pcm, err := decodeToPCM16(wi)
	if err != nil {
		return nil, err
	}
	pcm = toMono(pcm, int(wi.numCh))
	if int(wi.sampleRate) != TelephonyRate {
		pcm = resampleLinear(pcm, int(wi.sampleRate), TelephonyRate)
	}
	return EncodeUlaw(pcm), nil
}

// TranscodePCM converts raw 16-bit PCM at an arbitrary rate and channel
// count to telephony μ-law. Used for pre-decoded assets that never pass
// through a WAV container.
func TranscodePCM(pcm []int16, sampleRate, channels int) []byte {
	pcm = toMono(pcm, channels)
	if sampleRate != TelephonyRate {
		pcm = resampleLinear(pcm, sampleRate, TelephonyRate)
	}
	return EncodeUlaw(pcm)
}

// DurationMs reports the playback duration of μ-law frames at the telephony
// rate. One μ-law byte is one sample.
func DurationMs(frames [][]byte) int {
	total := 0
	for _, f := range frames {
		total += len(f)
	}
	return total / SamplesPerMs
}

// RMS computes the root-mean-square energy of PCM samples, the voiced/silent
// signal for segmentation. Empty input reads as zero energy.
func RMS(pcm []int16) float64 {
	if len(pcm) == 0 {
		return 0
	}
	var sum float64
	for _, s := range pcm {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(pcm)))
}

func toMono(samples []int16, channels int) []int16 {
	if channels <= 1 {
		return samples
	}
	out := make([]int16, len(samples)/channels)
	for i := range out {
		sum := 0
		for ch := 0; ch < channels; ch++ {
			sum += int(samples[i*channels+ch])
		}
		out[i] = int16(sum / channels)
	}
	return out
}

func resampleLinear(in []int16, inRate, outRate int) []int16 {
	if inRate == outRate || len(in) == 0 {
		return append([]int16(nil), in...)
	}
	ratio := float64(outRate) / float64(inRate)
	outLen := int(math.Round(float64(len(in)) * ratio))
	if outLen <= 1 {
		return []int16{}
	}
	out := make([]int16, outLen)
	for i := range out {
		srcPos := float64(i) / ratio
		i0 := int(math.Floor(srcPos))
		i1 := i0 + 1
		if i0 >= len(in) {
			i0 = len(in) - 1
		}
		if i1 >= len(in) {
			i1 = len(in) - 1
		}
		f := srcPos - float64(i0)
		v := float64(in[i0])*(1.0-f) + float64(in[i1])*f
		if v > math.MaxInt16 {
			v = math.MaxInt16
		}
		if v < math.MinInt16 {
			v = math.MinInt16
		}
		out[i] = int16(v)
	}
	return out
}

// SplitFrames cuts μ-law audio into fixed 20 ms telephony frames. The last
// frame may be short.
func SplitFrames(mulaw []byte) [][]byte {
	if len(mulaw) == 0 {
		return nil
	}
	frames := make([][]byte, 0, len(mulaw)/FrameBytes+1)
	for off := 0; off < len(mulaw); off += FrameBytes {
		end := off + FrameBytes
		if end > len(mulaw) {
			end = len(mulaw)
		}
		frames = append(frames, mulaw[off:end])
	}
	return frames
}
