// Package clip preloads static audio assets and serves them as telephony
// μ-law, ready for frame-paced playback.
package clip

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"

	"github.com/hajimehoshi/go-mp3"
	"go.uber.org/zap"

	"mindline/internal/audio"
	"mindline/internal/domain"
)

// Breathing is the guided breathing exercise asset name.
const Breathing = domain.ClipBreathing

// Store caches decoded assets in memory. Assets that are missing or fail to
// decode are logged at startup and simply absent afterwards; callers degrade
// by skipping the clip.
type Store struct {
	clips map[string][]byte
}

// NewStore loads the known assets from dir. It never fails: a bad asset is
// skipped, not fatal.
func NewStore(dir string, log *zap.Logger) *Store {
	s := &Store{clips: make(map[string][]byte)}
	for name, file := range map[string]string{
		Breathing: "breathing.mp3",
	} {
		path := filepath.Join(dir, file)
		mulaw, err := loadMP3(path)
		if err != nil {
			log.Warn("audio asset unavailable",
				zap.String("clip", name),
				zap.String("path", path),
				zap.Error(err))
			continue
		}
		s.clips[name] = mulaw
		log.Info("audio asset loaded",
			zap.String("clip", name),
			zap.Int("bytes", len(mulaw)))
	}
	return s
}

// Clip returns the μ-law payload for name.
func (s *Store) Clip(name string) ([]byte, bool) {
	c, ok := s.clips[name]
	return c, ok
}

func loadMP3(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	dec, err := mp3.NewDecoder(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	pcmBytes, err := io.ReadAll(dec)
	if err != nil {
		return nil, err
	}

	// go-mp3 always emits 16-bit little-endian stereo at the source rate.
	pcm := make([]int16, len(pcmBytes)/2)
	for i := range pcm {
		pcm[i] = int16(binary.LittleEndian.Uint16(pcmBytes[i*2:]))
	}
	return audio.TranscodePCM(pcm, dec.SampleRate(), 2), nil
}
