package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/linhozo/UnimelbS2-Pacman/pkg/capture"
)

// ErrEngine is returned when the remote engine reports a failure.
var ErrEngine = errors.New("engine error")

// PlayClient plays one seat of a game hosted by a remote engine over a
// websocket connection.
type PlayClient struct {
	name   string
	url    string
	token  string
	conn   *websocket.Conn
	mu     sync.Mutex
	closed bool
}

// NewPlayClient creates a client for the engine at url (ws:// or wss://),
// authenticating with token.
func NewPlayClient(name, url, token string) *PlayClient {
	return &PlayClient{name: name, url: url, token: token}
}

// Name returns the agent name.
func (c *PlayClient) Name() string { return c.name }

// Connect dials the engine.
func (c *PlayClient) Connect(ctx context.Context) error {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.token)
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, c.url, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("ws dial: status %d: %w", resp.StatusCode, err)
		}
		return fmt.Errorf("ws dial: %w", err)
	}
	c.conn = conn
	log.Debug().Str("agent", c.name).Str("url", c.url).Msg("Connected to engine")
	return nil
}

// Play drives p through one game: init calls Initialize, each turn is
// answered with ChooseAction, and final calls Final. It returns the final
// state as observed by the agent.
func (c *PlayClient) Play(ctx context.Context, p Policy) (*capture.GameState, error) {
	if c.conn == nil {
		return nil, errors.New("play: not connected")
	}
	stop := context.AfterFunc(ctx, c.Close)
	defer stop()

	var layout *capture.Layout
	for {
		var env capture.Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("ws read: %w", err)
		}

		switch env.Type {
		case capture.MsgError:
			return nil, fmt.Errorf("%w: %s", ErrEngine, env.Error)
		case capture.MsgInit, capture.MsgTurn, capture.MsgFinal:
		default:
			log.Debug().Str("agent", c.name).Str("type", env.Type).Msg("Ignoring engine message")
			continue
		}

		if env.State == nil {
			return nil, fmt.Errorf("%s message without state", env.Type)
		}
		gs, err := capture.DecodeState(*env.State, layout)
		if err != nil {
			return nil, err
		}
		layout = gs.Layout

		switch env.Type {
		case capture.MsgInit:
			if err := p.Initialize(gs); err != nil {
				return nil, err
			}
		case capture.MsgTurn:
			action := p.ChooseAction(gs)
			if err := c.send(capture.Envelope{Type: capture.MsgAction, Agent: env.Agent, Action: action}); err != nil {
				return nil, err
			}
		case capture.MsgFinal:
			return gs, p.Final(ctx, gs)
		}
	}
}

func (c *PlayClient) send(env capture.Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("ws write: connection closed")
	}
	if err := c.conn.WriteJSON(env); err != nil {
		return fmt.Errorf("ws write: %w", err)
	}
	return nil
}

// Close closes the connection. It is safe to call more than once.
func (c *PlayClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil && !c.closed {
		c.closed = true
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	}
}
