package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/qmuntal/stateless"

	"voice-tutor/internal/domain"
)

type State string

const (
	StateIdle      State = "Idle"
	StateRecording State = "Recording"
	StatePending   State = "Pending"
)

type Trigger string

const (
	TriggerPress         Trigger = "Press"
	TriggerRelease       Trigger = "Release"
	TriggerSubmit        Trigger = "Submit"
	TriggerResult        Trigger = "Result"
	TriggerEnded         Trigger = "Ended"
	TriggerFailed        Trigger = "RecognitionFailed"
	TriggerSettled       Trigger = "Settled"
	TriggerAbandon       Trigger = "Abandon"
	TriggerReplied       Trigger = "Replied"
	TriggerRequestFailed Trigger = "RequestFailed"
)

const (
	DefaultSettleDelay = 500 * time.Millisecond
	inboxSize          = 64
	updateBuffer       = 16
)

type Options struct {
	Locale      string
	SettleDelay time.Duration
	Voice       domain.VoiceOptions
}

type Snapshot struct {
	State     State
	Recording bool
	Loading   bool
	Candidate string
	Messages  []domain.Message
}

// Update is what observers receive after every processed input.
// Alert is set only on the update that raised it.
type Update struct {
	Snapshot Snapshot
	Alert    *domain.Alert
}

type input struct {
	trigger Trigger
	session domain.SessionID
	text    string
	err     error
}

// Controller owns the conversation and sequences capture → send → display → speak.
// All state below the mutex is touched only by the Run goroutine.
type Controller struct {
	recognizer SpeechRecognizer
	perms      PermissionRequester
	synth      SpeechSynthesizer
	tutor      TutorClient
	alerter    Alerter
	opts       Options
	logger     *slog.Logger

	inbox chan input
	fsm   *stateless.StateMachine
	conv  *Conversation
	guard sendGuard

	session   domain.SessionID
	candidate string
	recording bool
	ended     bool
	settled   bool
	inFlight  bool
	alert     *domain.Alert

	mu          sync.Mutex
	subscribers map[int]chan Update
	nextSub     int
	latest      Snapshot
	// shown is the last raised alert until DismissAlert; late subscribers
	// receive it with their first update.
	shown *domain.Alert
}

func NewController(
	recognizer SpeechRecognizer,
	perms PermissionRequester,
	synth SpeechSynthesizer,
	tutor TutorClient,
	alerter Alerter,
	opts Options,
	logger *slog.Logger,
) *Controller {
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = DefaultSettleDelay
	}
	if opts.Locale == "" {
		opts.Locale = "en-US"
	}
	c := &Controller{
		recognizer:  recognizer,
		perms:       perms,
		synth:       synth,
		tutor:       tutor,
		alerter:     alerter,
		opts:        opts,
		logger:      logger,
		inbox:       make(chan input, inboxSize),
		conv:        NewConversation(),
		subscribers: make(map[int]chan Update),
		latest:      Snapshot{State: StateIdle},
	}
	c.fsm = c.buildMachine()
	return c
}

func (c *Controller) buildMachine() *stateless.StateMachine {
	sm := stateless.NewStateMachineWithMode(StateIdle, stateless.FiringQueued)

	// Inputs that make no sense in the current state are dropped: the talk
	// control is inert while a request is pending.
	sm.OnUnhandledTrigger(func(_ context.Context, state stateless.State, trigger stateless.Trigger, _ []string) error {
		c.logger.Debug("trigger ignored", "state", state, "trigger", trigger)
		return nil
	})

	sm.Configure(StateIdle).
		OnEntryFrom(TriggerFailed, c.onRecognitionFailed).
		OnEntryFrom(TriggerReplied, c.onReplied).
		OnEntryFrom(TriggerRequestFailed, c.onRequestFailed).
		Permit(TriggerPress, StateRecording).
		Permit(TriggerSubmit, StatePending)

	sm.Configure(StateRecording).
		OnEntry(c.startSession).
		InternalTransition(TriggerResult, c.updateCandidate).
		Permit(TriggerRelease, StatePending).
		Permit(TriggerEnded, StatePending).
		Permit(TriggerFailed, StateIdle)

	sm.Configure(StatePending).
		OnEntryFrom(TriggerRelease, c.onReleased).
		OnEntryFrom(TriggerEnded, c.onEndedWhileRecording).
		OnEntryFrom(TriggerSubmit, c.onSubmitted).
		InternalTransition(TriggerResult, c.updateCandidate).
		InternalTransition(TriggerEnded, c.conclude).
		InternalTransition(TriggerSettled, c.onSettled).
		InternalTransition(TriggerFailed, c.onFailedWhilePending).
		Permit(TriggerAbandon, StateIdle).
		Permit(TriggerReplied, StateIdle).
		Permit(TriggerRequestFailed, StateIdle)

	return sm
}

// Run subscribes to the recognizer, checks microphone access and serves the
// event loop until ctx is done. The subscription is released on return.
func (c *Controller) Run(ctx context.Context) error {
	sub, err := c.recognizer.Subscribe()
	if err != nil {
		return fmt.Errorf("subscribing to recognizer: %w", err)
	}
	defer sub.Close()

	if err := c.perms.RequestMicrophone(ctx); err != nil {
		c.logger.Warn("microphone permission denied", "error", err)
		c.raise(ctx, domain.PermissionAlert())
	}
	c.publish()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-sub.Events():
			c.handleRecognition(ctx, ev)
		case in := <-c.inbox:
			c.handleInput(ctx, in)
		}
		c.publish()
	}
}

// Press starts a recognition session. Ignored unless the controller is idle.
func (c *Controller) Press() { c.enqueue(input{trigger: TriggerPress}) }

// Release ends the current recognition session.
func (c *Controller) Release() { c.enqueue(input{trigger: TriggerRelease}) }

// Submit sends a typed utterance through the same path as a spoken one.
func (c *Controller) Submit(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	c.enqueue(input{trigger: TriggerSubmit, text: text})
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest
}

// Subscribe returns a stream of updates starting with the current snapshot,
// and a func that deregisters it and closes the channel.
func (c *Controller) Subscribe() (<-chan Update, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	ch := make(chan Update, updateBuffer)
	ch <- Update{Snapshot: c.latest, Alert: c.shown}
	c.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(c.subscribers, id)
			close(ch)
		})
	}
}

// DismissAlert acknowledges the current alert so later subscribers do not
// receive it again.
func (c *Controller) DismissAlert() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shown = nil
}

func (c *Controller) enqueue(in input) {
	select {
	case c.inbox <- in:
	default:
		c.logger.Warn("controller inbox full, dropping input", "trigger", in.trigger)
	}
}

func (c *Controller) post(ctx context.Context, in input) {
	select {
	case c.inbox <- in:
	case <-ctx.Done():
	}
}

func (c *Controller) handleRecognition(ctx context.Context, ev domain.RecognitionEvent) {
	if ev.Session != c.session {
		c.logger.Debug("stale recognition event", "session", ev.Session, "current", c.session, "kind", ev.Kind)
		return
	}

	switch ev.Kind {
	case domain.EventStarted:
		c.recording = true
	case domain.EventResult:
		c.fire(ctx, TriggerResult, ev.Text)
	case domain.EventEnded:
		c.recording = false
		c.ended = true
		c.fire(ctx, TriggerEnded)
	case domain.EventError:
		c.recording = false
		c.ended = true
		c.logger.Warn("recognition error", "session", ev.Session, "error", ev.Err)
		c.fire(ctx, TriggerFailed)
	}
}

func (c *Controller) handleInput(ctx context.Context, in input) {
	switch in.trigger {
	case TriggerSettled:
		if in.session != c.session {
			return
		}
		c.fire(ctx, TriggerSettled)
	case TriggerReplied:
		c.inFlight = false
		c.fire(ctx, TriggerReplied, in.text)
	case TriggerRequestFailed:
		c.inFlight = false
		c.fire(ctx, TriggerRequestFailed, in.err)
	case TriggerSubmit:
		c.fire(ctx, TriggerSubmit, in.text)
	default:
		c.fire(ctx, in.trigger)
	}
}

func (c *Controller) fire(ctx context.Context, trigger Trigger, args ...any) {
	if err := c.fsm.FireCtx(ctx, trigger, args...); err != nil {
		c.logger.Error("state machine error", "trigger", trigger, "error", err)
	}
}

func (c *Controller) state() State {
	return c.fsm.MustState().(State)
}

func (c *Controller) beginSession() {
	c.session++
	c.guard.arm(c.session)
	c.candidate = ""
	c.ended = false
	c.settled = false
}

func (c *Controller) startSession(ctx context.Context, _ ...any) error {
	c.beginSession()
	c.logger.Debug("recording started", "session", c.session)
	c.recognizer.Start(ctx, c.session, c.opts.Locale)
	return nil
}

func (c *Controller) updateCandidate(_ context.Context, args ...any) error {
	c.candidate = strings.TrimSpace(args[0].(string))
	return nil
}

func (c *Controller) onReleased(ctx context.Context, _ ...any) error {
	c.recognizer.Stop(ctx)

	session := c.session
	time.AfterFunc(c.opts.SettleDelay, func() {
		c.post(ctx, input{trigger: TriggerSettled, session: session})
	})
	return nil
}

// The recognizer ended on its own before release: there is no settle timer
// to wait for.
func (c *Controller) onEndedWhileRecording(ctx context.Context, _ ...any) error {
	c.settled = true
	return c.conclude(ctx)
}

func (c *Controller) onSubmitted(ctx context.Context, args ...any) error {
	c.beginSession()
	c.candidate = args[0].(string)
	c.ended = true
	c.settled = true
	return c.conclude(ctx)
}

func (c *Controller) onSettled(ctx context.Context, _ ...any) error {
	c.settled = true
	return c.conclude(ctx)
}

// conclude sends the utterance if there is one and the session still holds
// its send token, or returns to Idle once nothing more can arrive.
func (c *Controller) conclude(ctx context.Context, _ ...any) error {
	if c.inFlight {
		return nil
	}
	if c.candidate != "" {
		if c.guard.claim(c.session) {
			c.send(ctx, c.session, c.candidate)
		}
		return nil
	}
	if c.ended && c.settled {
		return c.fsm.FireCtx(ctx, TriggerAbandon)
	}
	return nil
}

func (c *Controller) onFailedWhilePending(ctx context.Context, _ ...any) error {
	c.guard.claim(c.session)
	if c.inFlight {
		return nil
	}
	return c.fsm.FireCtx(ctx, TriggerAbandon)
}

func (c *Controller) onRecognitionFailed(_ context.Context, _ ...any) error {
	c.guard.claim(c.session)
	c.candidate = ""
	return nil
}

func (c *Controller) send(ctx context.Context, session domain.SessionID, text string) {
	c.inFlight = true
	c.conv.Append(domain.NewMessage(domain.SenderUser, text))
	c.logger.Info("sending utterance", "session", session, "text", text)

	go func() {
		reply, err := c.tutor.Send(ctx, text)
		if err != nil {
			c.post(ctx, input{trigger: TriggerRequestFailed, session: session, err: err})
			return
		}
		c.post(ctx, input{trigger: TriggerReplied, session: session, text: reply})
	}()
}

func (c *Controller) onReplied(ctx context.Context, args ...any) error {
	reply := args[0].(string)
	c.conv.Append(domain.NewMessage(domain.SenderAssistant, reply))
	c.logger.Info("tutor replied", "session", c.session, "reply", reply)

	go func() {
		if err := c.synth.Speak(ctx, reply, c.opts.Voice); err != nil {
			c.logger.Warn("speaking reply", "engine", c.synth.Name(), "error", err)
		}
	}()
	return nil
}

func (c *Controller) onRequestFailed(ctx context.Context, args ...any) error {
	err, _ := args[0].(error)
	c.logger.Error("tutor request failed", "session", c.session, "error", err)
	c.conv.Append(domain.NewMessage(domain.SenderSystem, domain.NetworkErrorText))
	c.raise(ctx, domain.NetworkAlert())
	return nil
}

func (c *Controller) raise(ctx context.Context, alert domain.Alert) {
	c.alert = &alert
	go func() {
		if err := c.alerter.Alert(ctx, alert); err != nil {
			c.logger.Error("forwarding alert", "kind", alert.Kind, "error", err)
		}
	}()
}

func (c *Controller) publish() {
	snap := Snapshot{
		State:     c.state(),
		Recording: c.recording,
		Loading:   c.inFlight,
		Candidate: c.candidate,
		Messages:  c.conv.Messages(),
	}
	update := Update{Snapshot: snap, Alert: c.alert}
	c.alert = nil

	c.mu.Lock()
	defer c.mu.Unlock()
	c.latest = snap
	if update.Alert != nil {
		c.shown = update.Alert
	}
	for _, ch := range c.subscribers {
		select {
		case ch <- update:
		default:
			// Slow reader: drop the oldest update, snapshots are cumulative.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- update:
			default:
			}
		}
	}
}
