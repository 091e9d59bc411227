// Package bootstrap assembles the runtime service graph.
package bootstrap

import (
	"go.uber.org/zap"

	"mindline/internal/clip"
	"mindline/internal/config"
	"mindline/internal/dialogue"
	"mindline/internal/gateway"
	"mindline/internal/notify"
	"mindline/internal/providers/groq"
	"mindline/internal/providers/sarvam"
	"mindline/internal/usecase"
	"mindline/internal/vad"
)

// Services is the assembled runtime graph.
type Services struct {
	Registry *usecase.Registry
	Stream   *gateway.StreamHandler
	Voice    *gateway.VoiceHandler
	Notify   *notify.Dispatcher
	Config   config.Config
}

// Build wires all backend dependencies for the current runtime.
func Build(log *zap.Logger) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}

	speech := sarvam.NewClient(sarvam.Config{
		APIKey:     cfg.Sarvam.APIKey,
		APIBaseURL: cfg.Sarvam.APIBaseURL,
		STTModel:   cfg.Sarvam.STTModel,
		TTSModel:   cfg.Sarvam.TTSModel,
		TTSSpeaker: cfg.Sarvam.TTSSpeaker,
		TransModel: cfg.Sarvam.TransModel,
	})
	responder := groq.NewResponder(groq.Config{
		APIKey:     cfg.Groq.APIKey,
		APIBaseURL: cfg.Groq.APIBaseURL,
		Model:      cfg.Groq.Model,
	})

	dispatcher := notify.NewDispatcher(notify.NewMailer(notify.MailerConfig{
		Host:             cfg.Mail.Host,
		Port:             cfg.Mail.Port,
		Username:         cfg.Mail.Username,
		Password:         cfg.Mail.Password,
		FromName:         cfg.Mail.FromName,
		EmergencyContact: cfg.Mail.EmergencyContact,
		BookingFormLink:  cfg.Mail.BookingFormLink,
	}), log)

	engine := dialogue.NewEngine(responder, dispatcher, log)
	registry := usecase.NewRegistry(usecase.Deps{
		Transcriber: speech,
		Translator:  speech,
		Synthesizer: speech,
		Responder:   responder,
		Decider:     engine,
		Clips:       clip.NewStore(cfg.Assets.Dir, log),
		Thresholds: vad.Thresholds{
			SilenceRMS: cfg.Segments.SilenceRMS,
			MinSpeech:  cfg.Segments.MinSpeech,
			SilenceGap: cfg.Segments.SilenceGap,
			MaxSpeech:  cfg.Segments.MaxSpeech,
		},
		CloseMargin: cfg.Segments.CloseMargin,
		Log:         log,
	})

	return Services{
		Registry: registry,
		Stream:   gateway.NewStreamHandler(registry, log),
		Voice:    gateway.NewVoiceHandler(cfg.Server.Greeting, cfg.Server.StreamURL),
		Notify:   dispatcher,
		Config:   cfg,
	}, nil
}
