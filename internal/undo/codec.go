package undo

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/hylla/outliner/internal/outline"
)

// CodecVersion tags every row capture written by ContentCodec.
const CodecVersion = 1

var (
	ErrNotSerializable = errors.New("row content is not serializable")
	ErrCodecVersion    = errors.New("unsupported row capture version")
)

// RowCodec converts one row's own fields to bytes and back.
type RowCodec interface {
	EncodeRow(row *outline.Row) ([]byte, error)
	DecodeRow(row *outline.Row, data []byte) error
}

// Marshaler is implemented by row content that ContentCodec can capture.
// UnmarshalRow must either apply all of data or none of it.
type Marshaler interface {
	MarshalRow() ([]byte, error)
	UnmarshalRow(data []byte) error
}

// ContentCodec wraps the content's own encoding in a versioned envelope.
type ContentCodec struct{}

type envelope struct {
	Version int             `json:"v"`
	Data    json.RawMessage `json:"data"`
}

// EncodeRow captures row's content.
func (ContentCodec) EncodeRow(row *outline.Row) ([]byte, error) {
	content, ok := row.Content().(Marshaler)
	if !ok {
		return nil, ErrNotSerializable
	}
	data, err := content.MarshalRow()
	if err != nil {
		return nil, fmt.Errorf("marshal row: %w", err)
	}
	return json.Marshal(envelope{Version: CodecVersion, Data: data})
}

// DecodeRow reloads row's content from a capture.
func (ContentCodec) DecodeRow(row *outline.Row, data []byte) error {
	content, ok := row.Content().(Marshaler)
	if !ok {
		return ErrNotSerializable
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("decode row capture: %w", err)
	}
	if env.Version != CodecVersion {
		return fmt.Errorf("%w: %d", ErrCodecVersion, env.Version)
	}
	if err := content.UnmarshalRow(env.Data); err != nil {
		return fmt.Errorf("unmarshal row: %w", err)
	}
	return nil
}
