package recognizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"voice-tutor/internal/domain"
	"voice-tutor/internal/infra/audio"
)

// Recorder captures one utterance per session.
type Recorder interface {
	Name() string
	Check(ctx context.Context) error
	Begin(ctx context.Context, autoStop func()) error
	End() (audio.Clip, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, clip audio.Clip, language string) (string, error)
}

// Recognizer turns recorded utterances into recognition events: Started on
// Start, then Result (when anything was heard) and Ended after Stop or an
// automatic end of the recording.
type Recognizer struct {
	*Emitter

	recorder    Recorder
	transcriber Transcriber
	logger      *slog.Logger

	mu     sync.Mutex
	active *session
	wg     sync.WaitGroup
}

type session struct {
	id       domain.SessionID
	language string
	ctx      context.Context
}

func New(recorder Recorder, transcriber Transcriber, logger *slog.Logger) *Recognizer {
	return &Recognizer{
		Emitter:     NewEmitter(logger),
		recorder:    recorder,
		transcriber: transcriber,
		logger:      logger,
	}
}

func (r *Recognizer) RequestMicrophone(ctx context.Context) error {
	if err := r.recorder.Check(ctx); err != nil {
		if errors.Is(err, domain.ErrPermissionDenied) {
			return err
		}
		return fmt.Errorf("%w: %v", domain.ErrPermissionDenied, err)
	}
	return nil
}

func (r *Recognizer) Start(ctx context.Context, id domain.SessionID, locale string) {
	r.mu.Lock()
	prev := r.active
	r.active = nil
	r.mu.Unlock()

	if prev != nil {
		r.logger.Debug("discarding previous session", "session", prev.id)
		if _, err := r.recorder.End(); err != nil {
			r.logger.Debug("ending previous recording", "error", err)
		}
		r.Emit(domain.RecognitionEvent{Session: prev.id, Kind: domain.EventEnded})
	}

	s := &session{id: id, language: Language(locale), ctx: ctx}

	r.mu.Lock()
	r.active = s
	r.mu.Unlock()

	if err := r.recorder.Begin(ctx, func() { r.finish(id) }); err != nil {
		r.mu.Lock()
		if r.active == s {
			r.active = nil
		}
		r.mu.Unlock()

		r.logger.Warn("starting recording", "recorder", r.recorder.Name(), "error", err)
		r.Emit(domain.RecognitionEvent{
			Session: id,
			Kind:    domain.EventError,
			Err:     fmt.Errorf("%w: %v", domain.ErrRecognition, err),
		})
		return
	}

	r.logger.Debug("recognition started", "session", id, "language", s.language)
	r.Emit(domain.RecognitionEvent{Session: id, Kind: domain.EventStarted})
}

func (r *Recognizer) Stop(_ context.Context) {
	r.mu.Lock()
	s := r.active
	r.mu.Unlock()

	if s == nil {
		return
	}
	r.finish(s.id)
}

// Wait blocks until in-flight transcriptions have emitted their events.
func (r *Recognizer) Wait() {
	r.wg.Wait()
}

// finish ends the recording for session id once; later calls are ignored.
func (r *Recognizer) finish(id domain.SessionID) {
	r.mu.Lock()
	s := r.active
	if s == nil || s.id != id {
		r.mu.Unlock()
		return
	}
	r.active = nil
	r.wg.Add(1)
	r.mu.Unlock()

	clip, err := r.recorder.End()
	if err != nil {
		r.fail(id, fmt.Errorf("ending recording: %w", err))
		r.wg.Done()
		return
	}

	go func() {
		defer r.wg.Done()

		text, err := r.transcriber.Transcribe(s.ctx, clip, s.language)
		if err != nil {
			r.fail(id, fmt.Errorf("transcribing: %w", err))
			return
		}

		text = strings.TrimSpace(text)
		r.logger.Debug("recognition finished", "session", id, "chars", len(text))
		if text != "" {
			r.Emit(domain.RecognitionEvent{Session: id, Kind: domain.EventResult, Text: text})
		}
		r.Emit(domain.RecognitionEvent{Session: id, Kind: domain.EventEnded})
	}()
}

func (r *Recognizer) fail(id domain.SessionID, err error) {
	r.logger.Warn("recognition failed", "session", id, "error", err)
	r.Emit(domain.RecognitionEvent{
		Session: id,
		Kind:    domain.EventError,
		Err:     fmt.Errorf("%w: %v", domain.ErrRecognition, err),
	})
	r.Emit(domain.RecognitionEvent{Session: id, Kind: domain.EventEnded})
}

// Language reduces a locale tag such as "en-US" or "pt_BR" to its language code.
func Language(locale string) string {
	locale = strings.TrimSpace(locale)
	if i := strings.IndexAny(locale, "-_"); i >= 0 {
		locale = locale[:i]
	}
	return strings.ToLower(locale)
}
