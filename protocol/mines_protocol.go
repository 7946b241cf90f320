package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tomasstrnad1997/sweeper/mines"
)

type MessageType byte

const (
	MoveCommand   MessageType = 0x01
	TextMessage   MessageType = 0x02
	StartGame     MessageType = 0x04
	CellUpdate    MessageType = 0x05
	RequestReload MessageType = 0x06
	GameEnd       MessageType = 0x07
	MineReveal    MessageType = 0x09
)

type GameEndType byte

const (
	Win     GameEndType = 0x01
	Loss    GameEndType = 0x02
	Aborted GameEndType = 0x03
)

func (t GameEndType) String() string {
	switch t {
	case Win:
		return "win"
	case Loss:
		return "loss"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("GameEndType(%d)", byte(t))
	}
}

const (
	HeaderLength         = 6
	MoveByteLength       = 9
	UpdateCellByteLength = 9
	PositionByteLength   = 8
	GameStartByteLength  = 3 * 4
	GameEndByteLength    = 1 + 8
	// A full board redraw is the largest frame either side sends.
	MaxPayloadLength = mines.MaxCells * UpdateCellByteLength
)

var (
	ErrInvalidPayloadSize = errors.New("invalid payload size")
	ErrUnexpectedMessage  = errors.New("unexpected message type")
)

type GameEndInfo struct {
	Type    GameEndType
	Elapsed time.Duration
}

func checkAndDecodeLength(data []byte, message MessageType) (int, error) {
	if len(data) < HeaderLength {
		return 0, fmt.Errorf("data too short to decode (%d bytes): %w", len(data), ErrInvalidPayloadSize)
	}
	if MessageType(data[0]) != message {
		return 0, fmt.Errorf("expected %d, received %d: %w", message, data[0], ErrUnexpectedMessage)
	}
	payloadLength := int(binary.BigEndian.Uint32(data[2:6]))
	if payloadLength != len(data)-HeaderLength {
		return payloadLength, fmt.Errorf("header says %d bytes, payload has %d: %w", payloadLength, len(data)-HeaderLength, ErrInvalidPayloadSize)
	}
	return payloadLength, nil
}

// PayloadLength reads the payload length from a message header.
func PayloadLength(header []byte) int {
	return int(binary.BigEndian.Uint32(header[2:HeaderLength]))
}

func intToBytes(i int) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(int32(i)))
	return buf
}

func bytesToInt(bytes []byte) int {
	return int(int32(binary.BigEndian.Uint32(bytes)))
}

func writeHeader(buf *bytes.Buffer, tp MessageType, length int) error {
	buf.WriteByte(byte(tp))
	// Reserved byte for future use
	buf.WriteByte(byte(0x00))
	return writePayloadLength(buf, length)
}

func writePayloadLength(buf *bytes.Buffer, length int) error {
	err := binary.Write(buf, binary.BigEndian, uint32(length))
	if err != nil {
		return fmt.Errorf("Failed to write length (%d)", length)
	}
	return nil
}

func EncodeGameEnd(info GameEndInfo) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeHeader(&buf, GameEnd, GameEndByteLength); err != nil {
		return nil, err
	}
	buf.WriteByte(byte(info.Type))
	if err := binary.Write(&buf, binary.BigEndian, uint64(info.Elapsed.Milliseconds())); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeGameEnd(data []byte) (*GameEndInfo, error) {
	payloadLength, err := checkAndDecodeLength(data, GameEnd)
	if err != nil {
		return nil, err
	}
	if payloadLength != GameEndByteLength {
		return nil, fmt.Errorf("game end payload has %d bytes: %w", payloadLength, ErrInvalidPayloadSize)
	}
	payload := data[HeaderLength:]
	millis := binary.BigEndian.Uint64(payload[1:9])
	return &GameEndInfo{
		Type:    GameEndType(payload[0]),
		Elapsed: time.Duration(millis) * time.Millisecond,
	}, nil
}

func EncodeTextMessage(message string) ([]byte, error) {
	var buf bytes.Buffer
	payload := []byte(message)
	if err := writeHeader(&buf, TextMessage, len(payload)); err != nil {
		return nil, err
	}
	buf.Write(payload)
	return buf.Bytes(), nil
}

func DecodeTextMessage(data []byte) (string, error) {
	_, err := checkAndDecodeLength(data, TextMessage)
	if err != nil {
		return "", err
	}
	return string(data[HeaderLength:]), nil
}

func EncodeMove(move mines.Move) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeHeader(&buf, MoveCommand, MoveByteLength); err != nil {
		return nil, err
	}
	payload := make([]byte, MoveByteLength)
	payload[0] = byte(move.Type)
	copy(payload[1:5], intToBytes(move.X))
	copy(payload[5:9], intToBytes(move.Y))
	buf.Write(payload)
	return buf.Bytes(), nil
}

func DecodeMove(data []byte) (*mines.Move, error) {
	payloadLength, err := checkAndDecodeLength(data, MoveCommand)
	if err != nil {
		return nil, err
	}
	if payloadLength != MoveByteLength {
		return nil, fmt.Errorf("move payload has %d bytes: %w", payloadLength, ErrInvalidPayloadSize)
	}
	payload := data[HeaderLength:]
	return &mines.Move{
		Type: mines.MoveType(payload[0]),
		X:    bytesToInt(payload[1:5]),
		Y:    bytesToInt(payload[5:9]),
	}, nil
}

func encodeCellUpdate(cell mines.UpdatedCell) []byte {
	encoded := make([]byte, UpdateCellByteLength)
	copy(encoded[0:4], intToBytes(cell.X))
	copy(encoded[4:8], intToBytes(cell.Y))
	encoded[8] = cell.Value
	return encoded
}

func EncodeCellUpdates(cells []mines.UpdatedCell) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeHeader(&buf, CellUpdate, len(cells)*UpdateCellByteLength); err != nil {
		return nil, err
	}
	for _, cell := range cells {
		buf.Write(encodeCellUpdate(cell))
	}
	return buf.Bytes(), nil
}

func decodeCellUpdate(data []byte) mines.UpdatedCell {
	return mines.UpdatedCell{
		X:     bytesToInt(data[0:4]),
		Y:     bytesToInt(data[4:8]),
		Value: data[8],
	}
}

func DecodeCellUpdates(data []byte) ([]mines.UpdatedCell, error) {
	payloadLength, err := checkAndDecodeLength(data, CellUpdate)
	if err != nil {
		return nil, err
	}
	if payloadLength%UpdateCellByteLength != 0 {
		return nil, fmt.Errorf("cell update payload has %d bytes: %w", payloadLength, ErrInvalidPayloadSize)
	}
	payload := data[HeaderLength:]
	cells := make([]mines.UpdatedCell, payloadLength/UpdateCellByteLength)
	for i := range cells {
		cells[i] = decodeCellUpdate(payload[i*UpdateCellByteLength : (i+1)*UpdateCellByteLength])
	}
	return cells, nil
}

func EncodeMineReveal(positions []mines.Position) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeHeader(&buf, MineReveal, len(positions)*PositionByteLength); err != nil {
		return nil, err
	}
	for _, pos := range positions {
		buf.Write(intToBytes(pos.X))
		buf.Write(intToBytes(pos.Y))
	}
	return buf.Bytes(), nil
}

func DecodeMineReveal(data []byte) ([]mines.Position, error) {
	payloadLength, err := checkAndDecodeLength(data, MineReveal)
	if err != nil {
		return nil, err
	}
	if payloadLength%PositionByteLength != 0 {
		return nil, fmt.Errorf("mine reveal payload has %d bytes: %w", payloadLength, ErrInvalidPayloadSize)
	}
	reader := bytes.NewReader(data[HeaderLength:])
	positions := make([]mines.Position, 0, payloadLength/PositionByteLength)
	for reader.Len() > 0 {
		var x, y int32
		if err := binary.Read(reader, binary.BigEndian, &x); err != nil {
			return nil, err
		}
		if err := binary.Read(reader, binary.BigEndian, &y); err != nil {
			return nil, err
		}
		positions = append(positions, mines.Position{X: int(x), Y: int(y)})
	}
	return positions, nil
}

// EncodeGameStart carries the requested params from the client and the
// resolved params back from the server.
func EncodeGameStart(params mines.GameParams) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeHeader(&buf, StartGame, GameStartByteLength); err != nil {
		return nil, err
	}
	payload := make([]byte, GameStartByteLength)
	copy(payload[0:4], intToBytes(params.Width))
	copy(payload[4:8], intToBytes(params.Height))
	copy(payload[8:12], intToBytes(params.Mines))
	buf.Write(payload)
	return buf.Bytes(), nil
}

func DecodeGameStart(data []byte) (*mines.GameParams, error) {
	payloadLength, err := checkAndDecodeLength(data, StartGame)
	if err != nil {
		return nil, err
	}
	if payloadLength != GameStartByteLength {
		return nil, fmt.Errorf("decode game start payload incorrect length (%d): %w", payloadLength, ErrInvalidPayloadSize)
	}
	payload := data[HeaderLength:]
	params := &mines.GameParams{
		Width:  bytesToInt(payload[0:4]),
		Height: bytesToInt(payload[4:8]),
		Mines:  bytesToInt(payload[8:12]),
	}
	return params, nil
}

func EncodeRequestReload() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeHeader(&buf, RequestReload, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeRequestReload(data []byte) error {
	_, err := checkAndDecodeLength(data, RequestReload)
	return err
}

// ReadMessage reads one framed message, header included.
func ReadMessage(r io.Reader) ([]byte, error) {
	header := make([]byte, HeaderLength)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	length := PayloadLength(header)
	if length > MaxPayloadLength {
		return nil, fmt.Errorf("payload of %d bytes exceeds %d: %w", length, MaxPayloadLength, ErrInvalidPayloadSize)
	}
	message := make([]byte, length+HeaderLength)
	copy(message[0:HeaderLength], header)
	if _, err := io.ReadFull(r, message[HeaderLength:]); err != nil {
		return nil, err
	}
	return message, nil
}
