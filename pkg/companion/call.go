package companion

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// Capture drain cadence. Independent of message arrival; captured audio
// and inbound frames may interleave arbitrarily since audio chunks are
// purely additive.
const drainInterval = 100 * time.Millisecond

// AudioSource is the microphone pipeline as the orchestrator drives it.
type AudioSource interface {
	Start() error
	Stop()
	DrainChunks() [][]byte
	Recording() bool
}

// SpeechPlayer schedules agent speech for playback.
type SpeechPlayer interface {
	Feed(pcm []byte) error
	Stop()
	Playing() bool
	Close() error
}

// CallState is a point-in-time snapshot of the session, published on
// the updates channel for rendering. Slices are copies; consumers may
// hold them.
type CallState struct {
	Conn       ConnState
	UserID     string
	SessionID  string
	Transcript []TranscriptEntry
	Emotion    Snapshot
	Speaking   bool
	Searching  bool
	SearchTool string
	Err        string
	Duration   time.Duration
}

// Call orchestrates one session: it owns the mutable session state,
// routes inbound frames to the player and the emotion gate, drains the
// microphone to the connection, and publishes coalesced state
// snapshots. All state lives on a single event-loop goroutine; the
// exported methods post into it.
type Call struct {
	conn   *Conn
	mic    AudioSource
	player SpeechPlayer
	logger *slog.Logger
	mode   CallMode

	updates chan CallState
	cmds    chan func()
	stopCh  chan struct{}
	doneCh  chan struct{}

	startMu  sync.Mutex
	started  bool
	stopOnce sync.Once

	// Event-loop-owned state.
	state     CallState
	gate      *Gate
	startedAt time.Time
}

// CallOption configures a Call.
type CallOption func(*Call)

// WithMicrophone attaches the capture pipeline. Without one the call is
// text-only regardless of mode.
func WithMicrophone(src AudioSource) CallOption {
	return func(c *Call) { c.mic = src }
}

// WithPlayer attaches the speech player.
func WithPlayer(p SpeechPlayer) CallOption {
	return func(c *Call) { c.player = p }
}

// WithLogger substitutes the logger.
func WithLogger(l *slog.Logger) CallOption {
	return func(c *Call) { c.logger = l }
}

// NewCall creates an orchestrator around conn. Nothing runs until
// Start.
func NewCall(conn *Conn, opts ...CallOption) *Call {
	c := &Call{
		conn:    conn,
		logger:  slog.Default(),
		updates: make(chan CallState, 1),
		cmds:    make(chan func(), 16),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.state = CallState{Emotion: DefaultSnapshot()}
	c.gate = NewGate(c.state.Emotion, time.Now())
	return c
}

// Updates emits coalesced state snapshots: if the consumer lags, only
// the newest snapshot is kept. The channel closes when the call ends.
func (c *Call) Updates() <-chan CallState { return c.updates }

// Start subscribes to the connection's streams and connects. A connect
// error is returned and also recorded in the session state; the event
// loop stays alive either way until Hangup.
func (c *Call) Start(ctx context.Context, opts ConnectOptions) error {
	c.startMu.Lock()
	if c.started {
		c.startMu.Unlock()
		return nil
	}
	c.started = true
	c.mode = opts.Mode
	c.startMu.Unlock()

	go c.loop()
	return c.conn.Connect(ctx, opts)
}

// SendText appends the user's utterance to the transcript immediately,
// before any server round-trip, then forwards it.
func (c *Call) SendText(text string) {
	c.post(func() {
		c.state.Transcript = append(c.state.Transcript, TranscriptEntry{
			Speaker: SpeakerUser,
			Text:    text,
		})
		if err := c.conn.SendText(text); err != nil {
			c.logger.Warn("send text", "err", err)
		}
		c.publish()
	})
}

// DismissError clears the displayed error message.
func (c *Call) DismissError() {
	c.post(func() {
		c.state.Err = ""
		c.publish()
	})
}

// Hangup tears the call down: cancels the timers, stops capture and
// playback, ends the session and closes the transport, and resets the
// session state. Idempotent.
func (c *Call) Hangup() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	c.startMu.Lock()
	started := c.started
	c.startMu.Unlock()
	if started {
		<-c.doneCh
	}
}

func (c *Call) post(fn func()) {
	select {
	case c.cmds <- fn:
	case <-c.stopCh:
	}
}

func (c *Call) loop() {
	drainTicker := time.NewTicker(drainInterval)
	durTicker := time.NewTicker(time.Second)
	gateTimer := time.NewTimer(time.Hour)
	if !gateTimer.Stop() {
		<-gateTimer.C
	}

	defer func() {
		drainTicker.Stop()
		durTicker.Stop()
		gateTimer.Stop()
		c.teardown()
		close(c.doneCh)
	}()

	for {
		select {
		case <-c.stopCh:
			return

		case fn := <-c.cmds:
			fn()

		case s := <-c.conn.States():
			c.handleState(s)

		case msg := <-c.conn.Messages():
			c.handleMessage(msg, gateTimer)

		case <-gateTimer.C:
			if snap, applied := c.gate.Fire(time.Now()); applied {
				c.state.Emotion = snap
				c.publish()
			}

		case <-drainTicker.C:
			c.drainAudio()

		case <-durTicker.C:
			if !c.startedAt.IsZero() {
				c.state.Duration = time.Since(c.startedAt)
				c.publish()
			}
		}
	}
}

func (c *Call) handleState(s ConnState) {
	c.state.Conn = s
	if s == StateConnected {
		c.state.UserID, c.state.SessionID = c.conn.SessionIDs()
		c.startedAt = time.Now()
		if c.mic != nil && c.mode != ModeText {
			if err := c.mic.Start(); err != nil {
				c.logger.Warn("microphone unavailable", "err", err)
				c.state.Err = err.Error()
			}
		}
	}
	c.publish()
}

func (c *Call) handleMessage(msg *Message, gateTimer *time.Timer) {
	switch msg.Type {
	case MessageAudio:
		var payload AudioPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			c.logger.Warn("malformed audio payload", "err", err)
			return
		}
		pcm, err := base64.StdEncoding.DecodeString(payload.Data)
		if err != nil {
			c.logger.Warn("malformed audio data", "err", err)
			return
		}
		if c.player != nil {
			if err := c.player.Feed(pcm); err != nil {
				c.logger.Warn("feed playback", "err", err)
			}
		}
		// Audio arrives ahead of the transcribed text for the same
		// turn; updating emotion here would show a stale state.
		c.state.Speaking = true
		c.state.Searching = false
		c.state.SearchTool = ""

	case MessageText:
		var payload TextPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			c.logger.Warn("malformed text payload", "err", err)
			return
		}
		c.state.Transcript = append(c.state.Transcript, TranscriptEntry{
			Speaker: SpeakerAgent,
			Text:    payload.Text,
			Emotion: payload.Emotion,
		})
		c.offerEmotion(payload, gateTimer)

	case MessageStatus:
		var payload StatusPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			c.logger.Warn("malformed status payload", "err", err)
			return
		}
		switch payload.Action {
		case StatusSearching:
			c.state.Searching = true
			c.state.SearchTool = payload.Tool
		case StatusDone:
			c.state.Searching = false
			c.state.SearchTool = ""
		}

	case MessageTurnComplete:
		c.state.Speaking = false

	case MessageInterrupted:
		if c.player != nil {
			c.player.Stop()
		}
		c.state.Speaking = false

	case MessageError:
		var payload ErrorPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			c.logger.Warn("malformed error payload", "err", err)
			return
		}
		c.state.Err = payload.Message
	}
	c.publish()
}

// offerEmotion builds a candidate snapshot from a text frame, with
// missing fields falling back to the previous snapshot's values, and
// runs it through the gate.
func (c *Call) offerEmotion(payload TextPayload, gateTimer *time.Timer) {
	prev := c.gate.Visible()
	candidate := prev
	if payload.Emotion != "" {
		candidate.Label = payload.Emotion
	}
	if payload.Valence != nil {
		candidate.Valence = *payload.Valence
	}
	if payload.Arousal != nil {
		candidate.Arousal = *payload.Arousal
	}
	if payload.Intensity != "" {
		candidate.Intensity = Intensity(payload.Intensity)
	}

	changed, wait := c.gate.Update(candidate, time.Now())
	if changed || wait == 0 {
		if changed && !gateTimer.Stop() {
			select {
			case <-gateTimer.C:
			default:
			}
		}
		c.state.Emotion = c.gate.Visible()
		return
	}
	if !gateTimer.Stop() {
		select {
		case <-gateTimer.C:
		default:
		}
	}
	gateTimer.Reset(wait)
	c.state.Emotion = c.gate.Visible()
}

func (c *Call) drainAudio() {
	if c.mic == nil {
		return
	}
	for _, chunk := range c.mic.DrainChunks() {
		if err := c.conn.SendAudio(chunk); err != nil {
			c.logger.Warn("send audio", "err", err)
			return
		}
	}
}

func (c *Call) teardown() {
	if c.mic != nil {
		c.mic.Stop()
	}
	if c.player != nil {
		c.player.Stop()
		if err := c.player.Close(); err != nil {
			c.logger.Warn("close playback", "err", err)
		}
	}
	c.conn.Disconnect()

	c.state = CallState{Emotion: DefaultSnapshot()}
	c.gate = NewGate(c.state.Emotion, time.Now())
	c.startedAt = time.Time{}
	c.publish()
	close(c.updates)
}

// publish replaces any unconsumed snapshot so the consumer always sees
// the newest state.
func (c *Call) publish() {
	snap := c.state
	snap.Transcript = append([]TranscriptEntry(nil), c.state.Transcript...)
	for {
		select {
		case c.updates <- snap:
			return
		default:
			select {
			case <-c.updates:
			default:
			}
		}
	}
}
