package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"mindline/internal/audio"
)

// playbackJob is the ordered clip queue for one turn's egress.
type playbackJob struct {
	clips    [][]byte
	terminal bool
}

// play paces the job's clips onto the outbound sink, one telephony frame per
// frame tick, clips back-to-back with no inter-clip gap. A terminal job
// drains, waits out the emitted audio duration plus the close margin, then
// closes the stream. Cancelling ctx stops emission promptly.
func (r *Registry) play(ctx context.Context, cs *CallSession, job playbackJob, log *zap.Logger) {
	cs.mu.Lock()
	sink := cs.sink
	streamID := cs.session.StreamID
	cs.mu.Unlock()

	ticker := time.NewTicker(audio.FrameMs * time.Millisecond)
	defer ticker.Stop()

	sent := 0
emit:
	for _, clip := range job.clips {
		for _, frame := range audio.SplitFrames(clip) {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			if err := sink.WriteMedia(streamID, frame); err != nil {
				log.Warn("outbound media write failed", zap.Error(err))
				break emit
			}
			sent += len(frame)
		}
	}

	if !job.terminal {
		return
	}

	// Let the receiver's queue drain before hanging up.
	wait := time.Duration(sent/audio.SamplesPerMs)*time.Millisecond + r.deps.CloseMargin
	select {
	case <-ctx.Done():
		return
	case <-time.After(wait):
	}
	if err := sink.CloseStream(); err != nil {
		log.Warn("stream close failed", zap.Error(err))
	}
}
