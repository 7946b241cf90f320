package protocol

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

type MessageHandler func([]byte) error

type Handler interface {
	HandleMessage(bytes []byte) error
}

// ConnectionController is the client side of a session: one writer
// goroutine, one reader loop and a handler per message type.
type ConnectionController struct {
	server          net.Conn
	messageHandlers map[MessageType]MessageHandler
	messageChannel  chan []byte
	connected       atomic.Bool
	closeOnce       sync.Once
	done            chan struct{}
	logger          *zap.SugaredLogger
}

func CreateConnectionController(logger *zap.SugaredLogger) *ConnectionController {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &ConnectionController{
		messageHandlers: make(map[MessageType]MessageHandler),
		messageChannel:  make(chan []byte, 64),
		done:            make(chan struct{}),
		logger:          logger,
	}
}

func (controller *ConnectionController) Connected() bool {
	return controller.connected.Load()
}

func (controller *ConnectionController) startWriter() {
	go func() {
		for {
			select {
			case message := <-controller.messageChannel:
				if _, err := controller.server.Write(message); err != nil {
					controller.logger.Errorw("Error writing to server", "error", err)
					controller.Close()
					return
				}
			case <-controller.done:
				return
			}
		}
	}()
}

func (controller *ConnectionController) SendMessage(message []byte) error {
	if !controller.Connected() {
		return fmt.Errorf("Attempted to write to not connected server")
	}
	select {
	case controller.messageChannel <- message:
	default:
		return fmt.Errorf("Failed to write to message channel")
	}
	return nil
}

func (controller *ConnectionController) SetConnection(conn net.Conn) error {
	if controller.Connected() {
		return fmt.Errorf("Connector is already connected")
	}
	controller.server = conn
	controller.connected.Store(true)
	controller.startWriter()
	return nil
}

func (controller *ConnectionController) Connect(host string, port uint16) error {
	if controller.Connected() {
		return fmt.Errorf("Connector already connected")
	}
	conn, err := net.Dial("tcp", net.JoinHostPort(host, fmt.Sprint(port)))
	if err != nil {
		return fmt.Errorf("dial %s:%d: %w", host, port, err)
	}
	return controller.SetConnection(conn)
}

func (controller *ConnectionController) Close() error {
	var err error
	controller.closeOnce.Do(func() {
		controller.connected.Store(false)
		close(controller.done)
		if controller.server != nil {
			err = controller.server.Close()
		}
	})
	return err
}

func (controller *ConnectionController) RegisterHandler(msgType MessageType, handlerFunc MessageHandler) {
	controller.messageHandlers[msgType] = handlerFunc
}

func (controller *ConnectionController) HandleMessage(bytes []byte) error {
	msgType := MessageType(bytes[0])
	handlerFunc, exists := controller.messageHandlers[msgType]
	if !exists {
		return fmt.Errorf("No handler registered for message type: %d", msgType)
	}
	return handlerFunc(bytes)
}

// ReadServerResponse dispatches messages until the connection closes.
// A clean close returns nil.
func (controller *ConnectionController) ReadServerResponse() error {
	reader := bufio.NewReader(controller.server)
	for {
		message, err := ReadMessage(reader)
		if err != nil {
			wasConnected := controller.Connected()
			controller.Close()
			if errors.Is(err, io.EOF) || !wasConnected {
				return nil
			}
			return fmt.Errorf("Lost connection to server: %w", err)
		}
		if err := controller.HandleMessage(message); err != nil {
			controller.logger.Warnw("Failed to handle message", "type", message[0], "error", err)
		}
	}
}
