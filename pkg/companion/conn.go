package companion

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// ConnState is the session connection's lifecycle state. Transitions
// run one way through connecting and authenticating to connected, and
// back to disconnected on close or error from any state.
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateAuthenticating
	StateConnected
)

// String returns the state name.
func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// CallMode selects how the client drives the session. It shapes local
// behavior only (whether the microphone starts); the wire handshake is
// identical in both modes.
type CallMode string

const (
	ModeVoice CallMode = "voice"
	ModeText  CallMode = "text"
)

// ConnectOptions identify the device and character for the auth
// handshake.
type ConnectOptions struct {
	DeviceID    string
	CharacterID string
	DisplayName string
	Location    string
	Mode        CallMode
}

// Conn manages one bidirectional message-framed connection and its
// authentication handshake. All inbound frames, including auth_ok, are
// re-emitted in transport order on Messages; state transitions appear
// on States. Both channels must be drained by a single consumer.
type Conn struct {
	url    string
	dialer *websocket.Dialer
	logger *slog.Logger

	statesCh chan ConnState
	msgCh    chan *Message

	mu        sync.Mutex
	writeMu   sync.Mutex
	state     ConnState
	userID    string
	sessionID string
	ws        *websocket.Conn
	done      chan struct{}
}

// NewConn creates a connection for the given websocket URL. No network
// activity happens until Connect.
func NewConn(url string) *Conn {
	return &Conn{
		url:      url,
		dialer:   websocket.DefaultDialer,
		logger:   slog.Default(),
		statesCh: make(chan ConnState, 16),
		msgCh:    make(chan *Message, 100),
	}
}

// States emits every state transition. Buffered for a full connection
// lifecycle; transitions beyond the buffer are dropped.
func (c *Conn) States() <-chan ConnState { return c.statesCh }

// Messages emits every inbound frame in transport delivery order.
func (c *Conn) Messages() <-chan *Message { return c.msgCh }

// State returns the current connection state.
func (c *Conn) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SessionIDs returns the identifiers assigned by auth_ok, empty before
// the handshake completes.
func (c *Conn) SessionIDs() (userID, sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID, c.sessionID
}

// Connect opens the transport and starts the auth handshake. It is a
// no-op unless the connection is disconnected. On transport failure an
// error-tagged message is emitted and the state returns to
// disconnected.
func (c *Conn) Connect(ctx context.Context, opts ConnectOptions) error {
	c.mu.Lock()
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return nil
	}
	c.state = StateConnecting
	c.mu.Unlock()
	c.emitState(StateConnecting)

	ws, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		err = fmt.Errorf("companion: connect %s: %w", c.url, err)
		c.emitError(err)
		c.mu.Lock()
		c.state = StateDisconnected
		c.mu.Unlock()
		c.emitState(StateDisconnected)
		return err
	}

	done := make(chan struct{})
	c.mu.Lock()
	c.ws = ws
	c.done = done
	c.state = StateAuthenticating
	c.mu.Unlock()
	c.emitState(StateAuthenticating)

	if err := c.write(MessageAuth, AuthPayload{
		DeviceID:    opts.DeviceID,
		CharacterID: opts.CharacterID,
		DisplayName: opts.DisplayName,
		Location:    opts.Location,
	}); err != nil {
		c.teardown(err)
		return err
	}

	go c.readLoop(ws, done)
	return nil
}

// SendAudio forwards one PCM chunk at the 16 kHz capture rate. Silently
// dropped unless connected.
func (c *Conn) SendAudio(pcm []byte) error {
	if c.State() != StateConnected {
		return nil
	}
	return c.write(MessageAudio, AudioPayload{
		Data:     base64.StdEncoding.EncodeToString(pcm),
		MimeType: MimePCM16K,
	})
}

// SendText forwards a typed utterance. Silently dropped unless
// connected.
func (c *Conn) SendText(text string) error {
	if c.State() != StateConnected {
		return nil
	}
	return c.write(MessageText, TextPayload{Text: text})
}

// EndSession asks the server to finish the session. It does not close
// the transport.
func (c *Conn) EndSession() error {
	c.mu.Lock()
	open := c.ws != nil
	c.mu.Unlock()
	if !open {
		return nil
	}
	return c.write(MessageControl, ControlPayload{Action: ControlEndSession})
}

// Disconnect ends the session and closes the transport. The state
// returns to disconnected regardless of where it was.
func (c *Conn) Disconnect() {
	c.EndSession()
	c.teardown(nil)
}

// teardown closes the transport and transitions to disconnected. A
// non-nil cause is emitted as an error-tagged message.
func (c *Conn) teardown(cause error) {
	c.mu.Lock()
	if c.state == StateDisconnected {
		c.mu.Unlock()
		return
	}
	ws := c.ws
	done := c.done
	c.ws = nil
	c.done = nil
	c.state = StateDisconnected
	c.mu.Unlock()

	if done != nil {
		close(done)
	}
	if ws != nil {
		ws.Close()
	}
	if cause != nil {
		c.emitError(cause)
	}
	c.emitState(StateDisconnected)
}

func (c *Conn) write(typ MessageType, payload any) error {
	msg, err := NewMessage(typ, payload)
	if err != nil {
		return err
	}
	c.mu.Lock()
	ws := c.ws
	c.mu.Unlock()
	if ws == nil {
		return nil
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := ws.WriteJSON(msg); err != nil {
		return fmt.Errorf("companion: write %s: %w", typ, err)
	}
	return nil
}

// readLoop reads frames until the transport closes. Unparseable frames
// are logged and dropped with the connection kept open.
func (c *Conn) readLoop(ws *websocket.Conn, done chan struct{}) {
	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			select {
			case <-done:
				// Deliberate local close, not a transport failure.
			default:
				c.teardown(fmt.Errorf("companion: read: %w", err))
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil || msg.Type == "" {
			c.logger.Warn("dropping unparseable frame", "len", len(raw), "err", err)
			continue
		}

		if msg.Type == MessageAuthOK {
			var payload AuthOKPayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				c.logger.Warn("dropping malformed auth_ok", "err", err)
				continue
			}
			c.mu.Lock()
			c.userID = payload.UserID
			c.sessionID = payload.SessionID
			c.state = StateConnected
			c.mu.Unlock()
			c.emitState(StateConnected)
		}

		select {
		case <-done:
			return
		case c.msgCh <- &msg:
		}
	}
}

// emitError surfaces a local transport failure as an error-tagged
// message so the consumer observes it on the same stream as
// server-sent errors.
func (c *Conn) emitError(err error) {
	msg, merr := NewMessage(MessageError, ErrorPayload{Message: err.Error()})
	if merr != nil {
		return
	}
	select {
	case c.msgCh <- msg:
	default:
		c.logger.Warn("dropping error frame, consumer not draining", "err", err)
	}
}

func (c *Conn) emitState(s ConnState) {
	select {
	case c.statesCh <- s:
	default:
	}
}
