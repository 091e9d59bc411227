package vad

import (
	"math"
	"testing"
	"time"

	"mindline/internal/audio"
)

func voicedFrame() []byte {
	pcm := make([]int16, audio.FrameBytes)
	for i := range pcm {
		pcm[i] = int16(8000 * math.Sin(2*math.Pi*440*float64(i)/audio.TelephonyRate))
	}
	return audio.EncodeUlaw(pcm)
}

func silentFrame() []byte {
	return audio.EncodeUlaw(make([]int16, audio.FrameBytes))
}

func TestSegmenterIgnoresSilenceWhileIdle(t *testing.T) {
	t.Parallel()

	seg := NewSegmenter(Thresholds{})
	now := time.Now()
	for i := 0; i < 100; i++ {
		if seg.Push(silentFrame(), now.Add(time.Duration(i)*20*time.Millisecond)) {
			t.Fatal("silence alone must never flush")
		}
	}
	if seg.Pending() {
		t.Fatal("idle segmenter should not buffer silence")
	}
}

func TestSegmenterFlushesAfterSilenceGap(t *testing.T) {
	t.Parallel()

	seg := NewSegmenter(Thresholds{})
	now := time.Now()

	// 1.2s of speech, then silence until the 1s gap elapses.
	step := 20 * time.Millisecond
	i := 0
	for ; i < 60; i++ {
		if seg.Push(voicedFrame(), now.Add(time.Duration(i)*step)) {
			t.Fatalf("flushed during speech at frame %d", i)
		}
	}
	flushed := false
	for ; i < 130; i++ {
		if seg.Push(silentFrame(), now.Add(time.Duration(i)*step)) {
			flushed = true
			break
		}
	}
	if !flushed {
		t.Fatal("expected flush after silence gap")
	}

	buf := seg.TakeBuffer()
	if len(buf) == 0 {
		t.Fatal("expected buffered frames")
	}
	if seg.Pending() {
		t.Fatal("buffer must reset after TakeBuffer")
	}
}

func TestSegmenterShortSpeechWaitsForSilenceGap(t *testing.T) {
	t.Parallel()

	seg := NewSegmenter(Thresholds{})
	now := time.Now()

	// 400ms of speech, then silence. Nothing may flush before the total
	// span reaches MIN_SPEECH and the trailing gap reaches SILENCE_GAP,
	// which here happens once lastVoiced is a full second behind.
	step := 20 * time.Millisecond
	for i := 0; i < 20; i++ {
		seg.Push(voicedFrame(), now.Add(time.Duration(i)*step))
	}
	flushedAt := -1
	for i := 20; i < 120; i++ {
		if seg.Push(silentFrame(), now.Add(time.Duration(i)*step)) {
			flushedAt = i
			break
		}
	}
	if flushedAt < 0 {
		t.Fatal("expected a flush once both thresholds were met")
	}
	if got := time.Duration(flushedAt)*step - 380*time.Millisecond; got < time.Second {
		t.Fatalf("flushed with only %v of trailing silence", got)
	}
}

func TestSegmenterFlushesAtMaxSpeech(t *testing.T) {
	t.Parallel()

	seg := NewSegmenter(Thresholds{})
	now := time.Now()

	step := 20 * time.Millisecond
	flushedAt := -1
	for i := 0; i < 1000; i++ {
		ts := now.Add(time.Duration(i) * step)
		if seg.Push(voicedFrame(), ts) {
			flushedAt = i
			if !seg.AtMaxSpeech(ts) {
				t.Fatal("continuous speech flush must be the max-duration flush")
			}
			break
		}
	}
	if flushedAt < 0 {
		t.Fatal("continuous speech never flushed")
	}
	if got := time.Duration(flushedAt) * step; got < 15*time.Second-step || got > 15*time.Second+step {
		t.Fatalf("max flush at %v, want ~15s", got)
	}
}

func TestSegmenterCorruptFramesReadAsSilent(t *testing.T) {
	t.Parallel()

	seg := NewSegmenter(Thresholds{})
	if seg.Voiced(nil) {
		t.Fatal("empty frame classified voiced")
	}
	if seg.Push(nil, time.Now()) {
		t.Fatal("empty frame started an utterance")
	}
	if seg.Pending() {
		t.Fatal("empty frame was buffered while idle")
	}
}

func TestSegmenterPendingBufferSurvivesForTeardown(t *testing.T) {
	t.Parallel()

	seg := NewSegmenter(Thresholds{})
	now := time.Now()
	for i := 0; i < 10; i++ {
		seg.Push(voicedFrame(), now.Add(time.Duration(i)*20*time.Millisecond))
	}

	// 200ms buffered, far below MIN_SPEECH: the terminal rule still flushes.
	if !seg.Pending() {
		t.Fatal("expected pending buffer")
	}
	if got := len(seg.TakeBuffer()); got != 10 {
		t.Fatalf("expected 10 frames, got %d", got)
	}
}

func TestSegmenterRequeueRestoresFailedTurn(t *testing.T) {
	t.Parallel()

	seg := NewSegmenter(Thresholds{})
	now := time.Now()
	for i := 0; i < 60; i++ {
		seg.Push(voicedFrame(), now.Add(time.Duration(i)*20*time.Millisecond))
	}
	taken := seg.TakeBuffer()
	if seg.Pending() {
		t.Fatal("take must reset the buffer")
	}

	// A frame arriving between take and requeue stays behind the restored
	// frames.
	later := now.Add(2 * time.Second)
	seg.Push(voicedFrame(), later)
	seg.Requeue(taken, later)

	if got := len(seg.frames); got != 61 {
		t.Fatalf("expected 61 buffered frames, got %d", got)
	}
	if !seg.active {
		t.Fatal("requeue must reopen the utterance")
	}

	// The reconstructed span keeps the utterance past the minimum-speech
	// threshold so a later silence gap can flush it.
	gap := later.Add(1100 * time.Millisecond)
	if !seg.Push(silentFrame(), gap) {
		t.Fatal("requeued utterance must flush once the silence gap elapses")
	}
}
