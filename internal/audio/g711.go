package audio

// G.711 μ-law codec. Telephony gateways deliver PCMU: one byte per sample at
// 8 kHz.

const (
	// TelephonyRate is the narrowband sample rate.
	TelephonyRate = 8000
	// WidebandRate is the rate remote speech services expect.
	WidebandRate = 16000
	// SamplesPerMs at the telephony rate.
	SamplesPerMs = TelephonyRate / 1000
	// FrameMs is the duration of one media frame.
	FrameMs = 20
	// FrameBytes is the μ-law byte count of one media frame.
	FrameBytes = SamplesPerMs * FrameMs
)

const ulawBias = 0x84

func ulawToLinear(u byte) int16 {
	u = ^u
	sign := u & 0x80
	exp := (u >> 4) & 0x07
	mant := u & 0x0F
	value := (int(mant) << 3) + ulawBias
	value <<= uint(exp)
	value -= ulawBias
	if sign != 0 {
		return int16(-value)
	}
	return int16(value)
}

func linearToUlaw(sample int16) byte {
	const clip = 32635
	sign := byte(0)
	if sample < 0 {
		sample = -sample - 1
		sign = 0x80
	}
	if sample > clip {
		sample = clip
	}
	value := int(sample) + ulawBias
	exp := 7
	for mask := 0x4000; (value&mask) == 0 && exp > 0; mask >>= 1 {
		exp--
	}
	mant := byte((value >> (exp + 3)) & 0x0F)
	u := ^(sign | byte(exp)<<4 | mant)
	return u
}

// DecodeUlaw expands μ-law bytes to linear PCM samples.
func DecodeUlaw(data []byte) []int16 {
	out := make([]int16, len(data))
	for i, b := range data {
		out[i] = ulawToLinear(b)
	}
	return out
}

// EncodeUlaw compresses linear PCM samples to μ-law bytes.
func EncodeUlaw(pcm []int16) []byte {
	out := make([]byte, len(pcm))
	for i, s := range pcm {
		out[i] = linearToUlaw(s)
	}
	return out
}
