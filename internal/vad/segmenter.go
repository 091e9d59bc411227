// Package vad segments the inbound frame stream into speech utterances using
// short-term energy voice-activity detection.
package vad

import (
	"time"

	"mindline/internal/audio"
)

// Thresholds drive the flush decision. Zero values fall back to defaults.
type Thresholds struct {
	// SilenceRMS is the energy level below which a frame is silent.
	SilenceRMS float64
	// MinSpeech is the shortest utterance worth processing.
	MinSpeech time.Duration
	// SilenceGap is the trailing silence that ends an utterance.
	SilenceGap time.Duration
	// MaxSpeech force-flushes an utterance regardless of trailing silence.
	MaxSpeech time.Duration
}

const defaultSilenceRMS = 1000

func (t Thresholds) withDefaults() Thresholds {
	if t.SilenceRMS <= 0 {
		t.SilenceRMS = defaultSilenceRMS
	}
	if t.MinSpeech <= 0 {
		t.MinSpeech = time.Second
	}
	if t.SilenceGap <= 0 {
		t.SilenceGap = time.Second
	}
	if t.MaxSpeech <= 0 {
		t.MaxSpeech = 15 * time.Second
	}
	return t
}

// Segmenter buffers one session's inbound frames and decides segment
// boundaries. It is not safe for concurrent use; each session owns one.
type Segmenter struct {
	thresholds Thresholds

	active     bool
	start      time.Time
	lastVoiced time.Time
	frames     [][]byte
}

// NewSegmenter returns a segmenter in the idle state.
func NewSegmenter(t Thresholds) *Segmenter {
	return &Segmenter{thresholds: t.withDefaults()}
}

// Voiced classifies one frame. Corrupt or empty frames read as silent so a
// bad payload cannot start an utterance.
func (s *Segmenter) Voiced(frame []byte) bool {
	if len(frame) == 0 {
		return false
	}
	return audio.RMS(audio.DecodeUlaw(frame)) >= s.thresholds.SilenceRMS
}

// Push feeds one frame at the given time and reports whether a segment
// boundary was reached. While idle, silent frames are discarded; the first
// voiced frame opens an utterance. While active, every frame is buffered and
// lastVoiced refreshes on voiced frames only.
func (s *Segmenter) Push(frame []byte, now time.Time) bool {
	voiced := s.Voiced(frame)

	if !s.active {
		if !voiced {
			return false
		}
		s.active = true
		s.start = now
		s.lastVoiced = now
	} else if voiced {
		s.lastVoiced = now
	}

	s.frames = append(s.frames, frame)
	return s.shouldFlush(now)
}

// shouldFlush is the pure boundary decision: enough accumulated speech, and
// either enough trailing silence or the hard cap reached.
func (s *Segmenter) shouldFlush(now time.Time) bool {
	if !s.active {
		return false
	}
	speech := now.Sub(s.start)
	silence := now.Sub(s.lastVoiced)
	if speech < s.thresholds.MinSpeech {
		return false
	}
	return silence >= s.thresholds.SilenceGap || speech >= s.thresholds.MaxSpeech
}

// AtMaxSpeech reports whether the active utterance has hit the hard cap.
// The error policy uses this to decide whether a failed turn may keep its
// buffer.
func (s *Segmenter) AtMaxSpeech(now time.Time) bool {
	return s.active && now.Sub(s.start) >= s.thresholds.MaxSpeech
}

// TakeBuffer transfers ownership of the accumulated frames and resets the
// segmenter to idle.
func (s *Segmenter) TakeBuffer() [][]byte {
	frames := s.frames
	s.frames = nil
	s.active = false
	return frames
}

// Requeue restores frames whose turn failed before any remote work,
// prepending them to whatever accumulated since. The utterance reopens with
// its span reconstructed from the frame durations.
func (s *Segmenter) Requeue(frames [][]byte, now time.Time) {
	if len(frames) == 0 {
		return
	}
	s.frames = append(frames, s.frames...)
	if !s.active {
		s.active = true
		s.lastVoiced = now
	}
	s.start = now.Add(-time.Duration(audio.DurationMs(frames)) * time.Millisecond)
}

// Pending reports whether any frames are buffered. Teardown flushes a
// non-empty buffer unconditionally, bypassing the thresholds.
func (s *Segmenter) Pending() bool {
	return len(s.frames) > 0
}
