package server

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tomasstrnad1997/sweeper/mines"
	"github.com/tomasstrnad1997/sweeper/protocol"
)

// Session is one connection and the game it owns. Its messages are
// handled on a single goroutine, so the game is never shared.
type Session struct {
	ID             string
	client         net.Conn
	game           *mines.Game
	writeMutex     sync.Mutex
	messageChannel chan []byte
}

type MessageHandler func(data []byte, session *Session) error

// GameFactory builds the game for a StartGame request.
type GameFactory func(params mines.GameParams) (*mines.Game, error)

type Server struct {
	Name        string
	Port        uint16
	server      net.Listener
	handlers    map[protocol.MessageType]MessageHandler
	sessions    map[string]*Session
	sessionsMux sync.Mutex
	newGame     GameFactory
	logger      *zap.SugaredLogger
	wg          sync.WaitGroup
	// guarded by sessionsMux
	closed bool
}

type Option func(*Server)

func WithGameFactory(factory GameFactory) Option {
	return func(s *Server) { s.newGame = factory }
}

func WithName(name string) Option {
	return func(s *Server) { s.Name = name }
}

func (server *Server) SessionCount() int {
	server.sessionsMux.Lock()
	defer server.sessionsMux.Unlock()
	return len(server.sessions)
}

func (server *Server) sendTextMessage(msg string, session *Session) {
	encoded, err := protocol.EncodeTextMessage(msg)
	if err != nil {
		server.logger.Errorw("Failed to create a message", "error", err)
		return
	}
	server.sendMessage(encoded, session)
}

func (server *Server) sendMessage(data []byte, session *Session) {
	session.writeMutex.Lock()
	defer session.writeMutex.Unlock()
	if _, err := session.client.Write(data); err != nil {
		server.logger.Debugw("Write failed", "session", session.ID, "error", err)
	}
}

// sendBoard sends the resolved params followed by every visible cell.
func (server *Server) sendBoard(session *Session) error {
	startMsg, err := protocol.EncodeGameStart(session.game.Params)
	if err != nil {
		return err
	}
	server.sendMessage(startMsg, session)
	updateMsg, err := protocol.EncodeCellUpdates(session.game.CellUpdates())
	if err != nil {
		return err
	}
	server.sendMessage(updateMsg, session)
	return nil
}

func (server *Server) handleRequest(session *Session) {
	defer server.wg.Done()
	reader := bufio.NewReader(session.client)
	server.logger.Infow("Player connected", "session", session.ID, "remote", session.client.RemoteAddr().String())
	go server.manageCommands(session)
	for {
		message, err := protocol.ReadMessage(reader)
		if err != nil {
			server.logger.Infow("Player disconnected", "session", session.ID)
			close(session.messageChannel)
			server.sessionsMux.Lock()
			delete(server.sessions, session.ID)
			server.sessionsMux.Unlock()
			session.client.Close()
			return
		}
		session.messageChannel <- message
	}
}

func (server *Server) HandleMessage(data []byte, session *Session) error {
	if len(data) == 0 {
		return fmt.Errorf("Cannot handle empty message")
	}
	msgType := protocol.MessageType(data[0])
	handler, exists := server.handlers[msgType]
	if !exists {
		return fmt.Errorf("No handler registered for message type: %d", msgType)
	}
	return handler(data, session)
}

func (server *Server) registerHandler(msgType protocol.MessageType, handler MessageHandler) {
	server.handlers[msgType] = handler
}

func (server *Server) RegisterHandlers() {
	server.registerHandler(protocol.StartGame, func(bytes []byte, session *Session) error {
		params, err := protocol.DecodeGameStart(bytes)
		if err != nil {
			return err
		}
		if session.game == nil {
			game, err := server.newGame(*params)
			if err != nil {
				server.sendTextMessage(fmt.Sprintf("Cannot start game: %v", err), session)
				return nil
			}
			session.game = game
		} else {
			wasRunning := session.game.Status() == mines.InProgress
			if err := session.game.Restart(*params); err != nil {
				server.sendTextMessage(fmt.Sprintf("Cannot start game: %v", err), session)
				return nil
			}
			if wasRunning {
				msg, err := protocol.EncodeGameEnd(protocol.GameEndInfo{Type: protocol.Aborted})
				if err != nil {
					return err
				}
				server.sendMessage(msg, session)
			}
		}
		server.logger.Debugw("Starting a new game", "session", session.ID, "params", session.game.Params)
		return server.sendBoard(session)
	})
	server.registerHandler(protocol.RequestReload, func(bytes []byte, session *Session) error {
		if err := protocol.DecodeRequestReload(bytes); err != nil {
			return err
		}
		if session.game == nil {
			server.sendTextMessage("Game not running", session)
			return nil
		}
		return server.sendBoard(session)
	})
	server.registerHandler(protocol.MoveCommand, func(bytes []byte, session *Session) error {
		if session.game == nil || session.game.Status() != mines.InProgress {
			server.sendTextMessage("Game not running", session)
			return nil
		}
		move, err := protocol.DecodeMove(bytes)
		if err != nil {
			return err
		}
		moveResult, err := session.game.MakeMove(*move)
		if err != nil {
			server.sendTextMessage(err.Error(), session)
			return nil
		}
		if len(moveResult.UpdatedCells) > 0 {
			encoded, err := protocol.EncodeCellUpdates(moveResult.UpdatedCells)
			if err != nil {
				return err
			}
			server.sendMessage(encoded, session)
		}
		var endMsg []byte
		switch moveResult.Result {
		case mines.MineBlown:
			reveal, err := protocol.EncodeMineReveal(moveResult.Mines)
			if err != nil {
				return err
			}
			server.sendMessage(reveal, session)
			endMsg, err = protocol.EncodeGameEnd(protocol.GameEndInfo{Type: protocol.Loss})
			if err != nil {
				return err
			}
		case mines.GameWon:
			endMsg, err = protocol.EncodeGameEnd(protocol.GameEndInfo{Type: protocol.Win, Elapsed: moveResult.Elapsed})
			if err != nil {
				return err
			}
		}
		if endMsg != nil {
			server.logger.Infow("Game finished", "session", session.ID, "status", session.game.Status().String())
			server.sendMessage(endMsg, session)
		}
		return nil
	})
}

func (server *Server) manageCommands(session *Session) {
	for message := range session.messageChannel {
		if err := server.HandleMessage(message, session); err != nil {
			server.logger.Warnw("Failed to handle message", "session", session.ID, "error", err)
		}
	}
}

func createServer(host string, port uint16, logger *zap.SugaredLogger, opts ...Option) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	listener, err := net.Listen("tcp", net.JoinHostPort(host, fmt.Sprint(port)))
	if err != nil {
		return nil, fmt.Errorf("failed to start server: %w", err)
	}
	serverPort := listener.Addr().(*net.TCPAddr).Port
	server := &Server{
		Name:     "Server",
		server:   listener,
		handlers: make(map[protocol.MessageType]MessageHandler),
		sessions: make(map[string]*Session),
		Port:     uint16(serverPort),
		logger:   logger,
		newGame: func(params mines.GameParams) (*mines.Game, error) {
			return mines.CreateGame(params)
		},
	}
	for _, opt := range opts {
		opt(server)
	}
	return server, nil
}

func (server *Server) serverLoop() {
	defer server.wg.Done()
	for {
		conn, err := server.server.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				server.logger.Errorw("Accept failed", "error", err)
			}
			return
		}
		session := &Session{
			ID:             uuid.NewString(),
			client:         conn,
			messageChannel: make(chan []byte, 16),
		}
		server.sessionsMux.Lock()
		if server.closed {
			server.sessionsMux.Unlock()
			conn.Close()
			return
		}
		server.sessions[session.ID] = session
		server.wg.Add(1)
		server.sessionsMux.Unlock()
		go server.handleRequest(session)
	}
}

// SpawnServer listens on host:port (port 0 picks a free one) and serves
// sessions until Close.
func SpawnServer(host string, port uint16, logger *zap.SugaredLogger, opts ...Option) (*Server, error) {
	server, err := createServer(host, port, logger, opts...)
	if err != nil {
		return nil, err
	}
	server.RegisterHandlers()
	server.wg.Add(1)
	go server.serverLoop()
	return server, nil
}

// Close stops accepting, drops every session and waits for their readers.
func (server *Server) Close() error {
	server.sessionsMux.Lock()
	server.closed = true
	server.sessionsMux.Unlock()
	err := server.server.Close()
	server.sessionsMux.Lock()
	for _, session := range server.sessions {
		session.client.Close()
	}
	server.sessionsMux.Unlock()
	server.wg.Wait()
	return err
}
