package handler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/linhozo/UnimelbS2-Pacman/pkg/capture"
)

// Session is a remote agent seated in a hosted game. It plays through the
// bot.Policy interface, relaying each decision over its websocket.
type Session struct {
	conn        *websocket.Conn
	agent       string
	seat        int
	turnTimeout time.Duration

	mu  sync.Mutex // guards writes and err
	err error
}

func (s *Session) Name() string { return "remote:" + s.agent }

// Initialize sends the opening state with the layout.
func (s *Session) Initialize(gs *capture.GameState) error {
	msg := capture.EncodeState(gs, true)
	return s.write(capture.Envelope{Type: capture.MsgInit, Agent: s.seat, State: &msg})
}

// ChooseAction sends the agent its observation and waits for the reply.
// After a transport failure every turn is played as capture.NoAction.
func (s *Session) ChooseAction(gs *capture.GameState) capture.Direction {
	if s.failed() != nil {
		return capture.NoAction
	}
	msg := capture.EncodeState(gs, false)
	if err := s.write(capture.Envelope{Type: capture.MsgTurn, Agent: s.seat, State: &msg}); err != nil {
		return capture.NoAction
	}

	if err := s.conn.SetReadDeadline(time.Now().Add(s.turnTimeout)); err != nil {
		log.Debug().Err(err).Str("agent", s.agent).Msg("Set read deadline failed")
		s.fail(fmt.Errorf("set read deadline: %w", err))
		return capture.NoAction
	}
	var reply capture.Envelope
	if err := s.conn.ReadJSON(&reply); err != nil {
		s.fail(fmt.Errorf("read action: %w", err))
		return capture.NoAction
	}
	if reply.Type != capture.MsgAction {
		log.Warn().Str("agent", s.agent).Str("type", reply.Type).Msg("Expected action reply")
		return capture.NoAction
	}
	return reply.Action
}

// Final sends the closing state and reports any transport failure.
func (s *Session) Final(_ context.Context, gs *capture.GameState) error {
	if err := s.failed(); err != nil {
		return err
	}
	msg := capture.EncodeState(gs, false)
	return s.write(capture.Envelope{Type: capture.MsgFinal, Agent: s.seat, State: &msg})
}

// sendError reports a failure to the agent, best effort.
func (s *Session) sendError(err error) {
	if s.failed() != nil {
		return
	}
	if werr := s.write(capture.Envelope{Type: capture.MsgError, Agent: s.seat, Error: err.Error()}); werr != nil {
		log.Debug().Err(werr).Str("agent", s.agent).Msg("Could not report error to agent")
	}
}

func (s *Session) write(env capture.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		s.err = fmt.Errorf("write %s: set deadline: %w", env.Type, err)
		return s.err
	}
	if err := s.conn.WriteJSON(env); err != nil {
		s.err = fmt.Errorf("write %s: %w", env.Type, err)
		return s.err
	}
	return nil
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *Session) failed() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
