// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream decodes the chunked completion response into typed frames.
//
// The wire format is UTF-8 text delivered in arbitrary-sized chunks. Logical
// frames are newline-delimited records of the form "data:<json>" where the
// JSON payload is the service envelope {code, message, data}. The data field
// is either the boolean sentinel true (terminal frame) or an object carrying
// a cumulative "answer" snapshot and, optionally, the server message ID.
//
// Chunk boundaries do not align with frame boundaries; the ingester buffers
// any trailing partial line internally and only parses complete lines. A
// final unterminated line is parsed when the stream ends.
package stream

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

// framePrefix tags frame-carrying lines. Lines without the prefix (blank
// SSE separators, comments) are ignored.
const framePrefix = "data:"

// =============================================================================
// FRAME TYPE
// =============================================================================

// Frame is one decoded content update from the completion stream.
type Frame struct {
	// Answer is the cumulative assistant reply so far, not a delta.
	Answer string

	// MessageID is the server-assigned ID of the reply, when present.
	MessageID string
}

// envelope is the service response wrapper carried on every frame line.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// framePayload is the data object of a content frame.
type framePayload struct {
	Answer string `json:"answer"`
	ID     string `json:"id,omitempty"`
}

// =============================================================================
// STREAM ERROR
// =============================================================================

// StreamError reports a stream that ended abnormally: an explicit failure
// frame or a transport error mid-stream. Partial preserves the last
// cumulative snapshot received before the failure.
type StreamError struct {
	Partial string
	Err     error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	if e.Partial != "" {
		return fmt.Sprintf("stream error (partial content received: %d chars): %v", len(e.Partial), e.Err)
	}
	return fmt.Sprintf("stream error: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *StreamError) Unwrap() error {
	return e.Err
}

// =============================================================================
// INGESTER
// =============================================================================

// Ingester decodes a raw completion stream into a lazy, finite,
// non-restartable sequence of frames. It has no knowledge of sessions.
//
// The sequence terminates with io.EOF on the terminal sentinel or on natural
// end-of-stream (treated as an implicit terminal), and with a *StreamError
// on a failure frame or a mid-stream read error. Once terminated, Next
// keeps returning the same terminal result.
type Ingester struct {
	reader *bufio.Reader
	logger *log.Logger

	lastAnswer string
	finished   bool
	finalErr   error
}

// New creates an ingester reading from r.
func New(r io.Reader) *Ingester {
	return &Ingester{
		reader: bufio.NewReader(r),
		logger: log.WithPrefix("stream"),
	}
}

// Next returns the next content frame.
//
// It blocks until a complete frame line is available. Malformed lines (JSON
// parse failures) are logged and skipped, never surfaced; a failure frame or
// a read error aborts the whole stream with a *StreamError.
func (in *Ingester) Next() (*Frame, error) {
	if in.finished {
		return nil, in.finalErr
	}

	for {
		line, readErr := in.reader.ReadBytes('\n')
		if readErr != nil && readErr != io.EOF {
			return nil, in.abort(fmt.Errorf("read stream: %w", readErr))
		}

		atEOF := readErr == io.EOF

		if frame, ok := in.decodeLine(line); ok {
			if frame == nil {
				// Terminal sentinel.
				return nil, in.finish()
			}
			in.lastAnswer = frame.Answer
			return frame, nil
		}
		if in.finished {
			// decodeLine saw a failure frame.
			return nil, in.finalErr
		}

		if atEOF {
			// End of stream without a terminal sentinel: implicit terminal.
			return nil, in.finish()
		}
	}
}

// decodeLine parses one complete line. It returns (frame, true) for a
// content frame, (nil, true) for the terminal sentinel, and (nil, false)
// for lines that carry nothing: blanks, unrecognized tags, malformed JSON,
// and failure frames (which terminate the ingester as a side effect).
func (in *Ingester) decodeLine(line []byte) (*Frame, bool) {
	line = bytes.TrimRight(line, "\r\n")
	if len(line) == 0 {
		return nil, false
	}

	text := string(line)
	if !strings.HasPrefix(text, framePrefix) {
		return nil, false
	}
	payload := strings.TrimSpace(strings.TrimPrefix(text, framePrefix))
	if payload == "" {
		return nil, false
	}

	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		// Recoverable per-frame: skip and keep decoding.
		in.logger.Debug("skipping malformed frame", "err", err)
		return nil, false
	}

	if env.Code != 0 {
		msg := env.Message
		if msg == "" {
			msg = fmt.Sprintf("service reported code %d", env.Code)
		}
		in.abort(fmt.Errorf("%s", msg))
		return nil, false
	}

	// The terminal frame carries the boolean sentinel instead of an object.
	var done bool
	if err := json.Unmarshal(env.Data, &done); err == nil {
		if done {
			return nil, true
		}
		return nil, false
	}

	var content framePayload
	if err := json.Unmarshal(env.Data, &content); err != nil {
		in.logger.Debug("skipping malformed frame payload", "err", err)
		return nil, false
	}
	if content.Answer == "" && content.ID == "" {
		return nil, false
	}

	return &Frame{Answer: content.Answer, MessageID: content.ID}, true
}

// finish marks the ingester logically complete.
func (in *Ingester) finish() error {
	in.finished = true
	in.finalErr = io.EOF
	return in.finalErr
}

// abort terminates the ingester with a StreamError preserving partial content.
func (in *Ingester) abort(err error) error {
	in.finished = true
	in.finalErr = &StreamError{Partial: in.lastAnswer, Err: err}
	return in.finalErr
}

// LastAnswer returns the most recent cumulative snapshot received.
func (in *Ingester) LastAnswer() string {
	return in.lastAnswer
}
