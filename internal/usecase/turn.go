package usecase

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"mindline/internal/audio"
	"mindline/internal/dialogue"
	"mindline/internal/domain"
)

const (
	turnTimeout      = 60 * time.Second
	finalTurnTimeout = 30 * time.Second
)

// runTurn is one transcribe→decide→speak pipeline. It owns the session's
// turn exclusion for its duration. Remote failures degrade the turn step by
// step: transcription trouble drops the turn silently, responder trouble is
// absorbed by the dialogue engine's scripted fallback, synthesis trouble
// skips playback.
func (r *Registry) runTurn(parent context.Context, cs *CallSession, frames [][]byte, atMax, closing bool) {
	defer func() {
		cs.mu.Lock()
		cs.turnBusy = false
		cs.mu.Unlock()
		cs.turnWG.Done()
	}()

	log := r.deps.Log.With(zap.String("session", cs.session.ID))

	wav, err := audio.DecodeSegment(frames)
	if err != nil {
		log.Warn("segment decode failed", zap.Error(err))
		// The buffer survives a format error unless the hard cap already
		// forced the flush.
		if !atMax && !closing {
			cs.mu.Lock()
			cs.seg.Requeue(frames, time.Now())
			cs.mu.Unlock()
		}
		return
	}

	ctx, cancel := context.WithTimeout(parent, turnTimeout)
	defer cancel()

	res, err := r.deps.Transcriber.TranscribeTranslate(ctx, wav)
	if err != nil {
		if errors.Is(err, domain.ErrNoSpeech) {
			log.Debug("segment held no speech")
		} else {
			log.Warn("transcription failed, dropping turn", zap.Error(err))
		}
		return
	}
	if res.Language != "" {
		cs.session.Language = res.Language
	}
	log.Info("utterance finalized",
		zap.String("text", res.Text),
		zap.String("lang", cs.session.Language))

	out := r.deps.Decider.Evaluate(ctx, cs.session, res.Text)
	log.Info("turn resolved",
		zap.String("intent", string(out.Intent)),
		zap.Bool("terminal", out.Terminal))

	job := r.prepareReply(ctx, cs, out, log)
	r.play(ctx, cs, job, log)

	if out.Terminal && !closing {
		r.teardown(cs)
	}
}

// prepareReply translates, synthesizes and transcodes the outbound clips for
// one turn. Trouble degrades to fewer clips, never an error.
func (r *Registry) prepareReply(ctx context.Context, cs *CallSession, out domain.TurnOutput, log *zap.Logger) playbackJob {
	job := playbackJob{terminal: out.Terminal}
	if clip := r.synthesizeClip(ctx, cs, out.Reply, log); clip != nil {
		job.clips = append(job.clips, clip)
	}
	if out.BreathingClip {
		if c, ok := r.deps.Clips.Clip(domain.ClipBreathing); ok {
			job.clips = append(job.clips, c)
		} else {
			log.Warn("breathing clip unavailable, skipping")
		}
		if follow := r.synthesizeClip(ctx, cs, dialogue.BreathingFollowup(), log); follow != nil {
			job.clips = append(job.clips, follow)
		}
	}
	return job
}

// synthesizeClip renders one utterance as telephony μ-law, translating out
// of the canonical language first when the caller spoke something else.
func (r *Registry) synthesizeClip(ctx context.Context, cs *CallSession, text string, log *zap.Logger) []byte {
	if text == "" {
		return nil
	}
	lang := cs.session.Language
	if lang != domain.CanonicalLanguage {
		if translated, err := r.deps.Translator.Translate(ctx, text, domain.CanonicalLanguage, lang); err == nil {
			text = translated
		}
	}
	wav, err := r.deps.Synthesizer.Synthesize(ctx, text, lang)
	if err != nil {
		log.Warn("synthesis failed, skipping playback", zap.Error(err))
		return nil
	}
	mulaw, err := audio.EncodeForTelephony(wav)
	if err != nil {
		log.Warn("reply transcode failed, skipping playback", zap.Error(err))
		return nil
	}
	return mulaw
}
