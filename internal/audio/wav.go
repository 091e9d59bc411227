package audio

import (
	"encoding/binary"
	"fmt"
	"math"

	"mindline/internal/domain"
)

type wavInfo struct {
	audioFormat     uint16
	numCh           uint16
	sampleRate      uint32
	bitsPerSample   uint16
	extensiblePCM   bool
	extensibleFloat bool
	data            []byte
}

func readWav(w []byte) (wavInfo, error) {
	var wi wavInfo
	if len(w) < 44 || string(w[0:4]) != "RIFF" || string(w[8:12]) != "WAVE" {
		return wi, fmt.Errorf("%w: not a WAV container", domain.ErrFormat)
	}
	pos := 12
	var gotFmt, gotData bool

	for pos+8 <= len(w) {
		chunkID := string(w[pos : pos+4])
		chunkSize := int(binary.LittleEndian.Uint32(w[pos+4 : pos+8]))
		pos += 8
		if chunkSize < 0 || pos+chunkSize > len(w) {
			return wi, fmt.Errorf("%w: truncated chunk %s", domain.ErrFormat, chunkID)
		}
		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return wi, fmt.Errorf("%w: fmt chunk too small", domain.ErrFormat)
			}
			wi.audioFormat = binary.LittleEndian.Uint16(w[pos : pos+2])
			wi.numCh = binary.LittleEndian.Uint16(w[pos+2 : pos+4])
			wi.sampleRate = binary.LittleEndian.Uint32(w[pos+4 : pos+8])
			wi.bitsPerSample = binary.LittleEndian.Uint16(w[pos+14 : pos+16])
			if wi.audioFormat == 0xFFFE && chunkSize >= 40 {
				cbSize := binary.LittleEndian.Uint16(w[pos+16 : pos+18])
				if cbSize >= 22 {
					switch binary.LittleEndian.Uint32(w[pos+24 : pos+28]) {
					case 1:
						wi.extensiblePCM = true
					case 3:
						wi.extensibleFloat = true
					}
				}
			}
			gotFmt = true
		case "data":
			if !gotData {
				wi.data = append([]byte(nil), w[pos:pos+chunkSize]...)
				gotData = true
			}
		}
		pos += chunkSize
		if pos%2 == 1 {
			pos++
		}
	}

	if !gotFmt {
		return wi, fmt.Errorf("%w: no fmt chunk", domain.ErrFormat)
	}
	if !gotData {
		return wi, fmt.Errorf("%w: no data chunk", domain.ErrFormat)
	}
	if wi.numCh == 0 || wi.sampleRate == 0 || wi.bitsPerSample == 0 {
		return wi, fmt.Errorf("%w: bad WAV header", domain.ErrFormat)
	}
	return wi, nil
}

func writeWavPCM16Mono(pcm []int16, sampleRate int) []byte {
	dataSize := uint32(len(pcm) * 2)
	buf := make([]byte, 0, 44+len(pcm)*2)

	buf = append(buf, "RIFF"...)
	buf = binary.LittleEndian.AppendUint32(buf, 36+dataSize)
	buf = append(buf, "WAVE"...)
	buf = append(buf, "fmt "...)
	buf = binary.LittleEndian.AppendUint32(buf, 16)
	buf = binary.LittleEndian.AppendUint16(buf, 1) // PCM
	buf = binary.LittleEndian.AppendUint16(buf, 1) // mono
	buf = binary.LittleEndian.AppendUint32(buf, uint32(sampleRate))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(sampleRate*2))
	buf = binary.LittleEndian.AppendUint16(buf, 2)
	buf = binary.LittleEndian.AppendUint16(buf, 16)
	buf = append(buf, "data"...)
	buf = binary.LittleEndian.AppendUint32(buf, dataSize)
	for _, s := range pcm {
		buf = binary.LittleEndian.AppendUint16(buf, uint16(s))
	}
	return buf
}

// decodeToPCM16 normalizes any supported WAV payload to 16-bit samples.
func decodeToPCM16(wi wavInfo) ([]int16, error) {
	isPCM := wi.audioFormat == 1 || (wi.audioFormat == 0xFFFE && wi.extensiblePCM)
	isFloat := wi.audioFormat == 3 || (wi.audioFormat == 0xFFFE && wi.extensibleFloat)

	switch {
	case isPCM && wi.bitsPerSample == 16:
		if len(wi.data)%2 != 0 {
			return nil, fmt.Errorf("%w: odd 16-bit data length", domain.ErrFormat)
		}
		s := make([]int16, len(wi.data)/2)
		for i := range s {
			s[i] = int16(binary.LittleEndian.Uint16(wi.data[i*2 : i*2+2]))
		}
		return s, nil

	case isPCM && wi.bitsPerSample == 24:
		if len(wi.data)%3 != 0 {
			return nil, fmt.Errorf("%w: bad 24-bit data length", domain.ErrFormat)
		}
		out := make([]int16, len(wi.data)/3)
		for i := range out {
			val := int32(wi.data[i*3]) | int32(wi.data[i*3+1])<<8 | int32(wi.data[i*3+2])<<16
			if val&0x800000 != 0 {
				val |= ^int32(0xFFFFFF)
			}
			out[i] = int16(val >> 8)
		}
		return out, nil

	case isPCM && wi.bitsPerSample == 32:
		if len(wi.data)%4 != 0 {
			return nil, fmt.Errorf("%w: bad 32-bit data length", domain.ErrFormat)
		}
		out := make([]int16, len(wi.data)/4)
		for i := range out {
			out[i] = int16(int32(binary.LittleEndian.Uint32(wi.data[i*4:i*4+4])) >> 16)
		}
		return out, nil

	case isFloat && wi.bitsPerSample == 32:
		if len(wi.data)%4 != 0 {
			return nil, fmt.Errorf("%w: bad float32 data length", domain.ErrFormat)
		}
		out := make([]int16, len(wi.data)/4)
		for i := range out {
			f := math.Float32frombits(binary.LittleEndian.Uint32(wi.data[i*4 : i*4+4]))
			if f > 1 {
				f = 1
			}
			if f < -1 {
				f = -1
			}
			out[i] = int16(f * 32767.0)
		}
		return out, nil
	}

	return nil, fmt.Errorf("%w: unsupported WAV encoding fmt=%d bits=%d",
		domain.ErrFormat, wi.audioFormat, wi.bitsPerSample)
}
