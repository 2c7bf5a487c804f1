// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkReader delivers its payload in fixed-size chunks so tests can verify
// that frame decoding is independent of chunk boundaries.
type chunkReader struct {
	data []byte
	size int
	pos  int
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	end := r.pos + r.size
	if end > len(r.data) {
		end = len(r.data)
	}
	n := copy(p, r.data[r.pos:end])
	r.pos += n
	return n, nil
}

// collect drains an ingester, returning all frames and the terminal error.
func collect(t *testing.T, in *Ingester) ([]*Frame, error) {
	t.Helper()
	var frames []*Frame
	for {
		frame, err := in.Next()
		if err != nil {
			return frames, err
		}
		frames = append(frames, frame)
	}
}

func TestIngesterBasicStream(t *testing.T) {
	raw := "data:{\"code\":0,\"data\":{\"answer\":\"4\"}}\n" +
		"data:{\"code\":0,\"data\":true}\n"

	frames, err := collect(t, New(strings.NewReader(raw)))

	assert.Equal(t, io.EOF, err)
	require.Len(t, frames, 1)
	assert.Equal(t, "4", frames[0].Answer)
}

func TestIngesterCumulativeSnapshots(t *testing.T) {
	raw := "data:{\"code\":0,\"data\":{\"answer\":\"Th\"}}\n" +
		"data:{\"code\":0,\"data\":{\"answer\":\"The ans\"}}\n" +
		"data:{\"code\":0,\"data\":{\"answer\":\"The answer is 4\",\"id\":\"msg-1\"}}\n" +
		"data:{\"code\":0,\"data\":true}\n"

	frames, err := collect(t, New(strings.NewReader(raw)))

	assert.Equal(t, io.EOF, err)
	require.Len(t, frames, 3)
	assert.Equal(t, "The answer is 4", frames[2].Answer)
	assert.Equal(t, "msg-1", frames[2].MessageID)
}

// Decoding the same byte sequence must produce the same frames regardless of
// how the transport fragments it.
func TestIngesterRechunkingInvariance(t *testing.T) {
	raw := "data:{\"code\":0,\"data\":{\"answer\":\"He\"}}\n" +
		"\n" +
		"data:{\"code\":0,\"data\":{\"answer\":\"Hello there\",\"id\":\"msg-9\"}}\n" +
		"\n" +
		"data:{\"code\":0,\"data\":true}\n"

	want, wantErr := collect(t, New(strings.NewReader(raw)))
	require.Equal(t, io.EOF, wantErr)

	for _, size := range []int{1, 2, 3, 5, 7, 16, len(raw)} {
		got, err := collect(t, New(&chunkReader{data: []byte(raw), size: size}))
		assert.Equal(t, io.EOF, err, "chunk size %d", size)
		assert.Equal(t, want, got, "chunk size %d", size)
	}
}

func TestIngesterMalformedLineIsSkipped(t *testing.T) {
	raw := "data:{bad json\n" +
		"data:{\"code\":0,\"data\":true}\n"

	frames, err := collect(t, New(strings.NewReader(raw)))

	assert.Equal(t, io.EOF, err)
	assert.Empty(t, frames)
}

func TestIngesterFailureFrame(t *testing.T) {
	raw := "data:{\"code\":0,\"data\":{\"answer\":\"part\"}}\n" +
		"data:{\"code\":102,\"message\":\"session not found\"}\n"

	in := New(strings.NewReader(raw))
	frames, err := collect(t, in)

	require.Len(t, frames, 1)
	var streamErr *StreamError
	require.ErrorAs(t, err, &streamErr)
	assert.Equal(t, "part", streamErr.Partial)
	assert.Contains(t, streamErr.Error(), "session not found")

	// The sequence is finite: the terminal result repeats.
	_, again := in.Next()
	assert.Equal(t, err, again)
}

func TestIngesterEOFIsImplicitTerminal(t *testing.T) {
	// No terminal sentinel and no trailing newline on the last frame.
	raw := "data:{\"code\":0,\"data\":{\"answer\":\"done early\"}}"

	frames, err := collect(t, New(strings.NewReader(raw)))

	assert.Equal(t, io.EOF, err)
	require.Len(t, frames, 1)
	assert.Equal(t, "done early", frames[0].Answer)
}

func TestIngesterIgnoresUntaggedLines(t *testing.T) {
	raw := ": keepalive comment\n" +
		"event: message\n" +
		"data:{\"code\":0,\"data\":{\"answer\":\"ok\"}}\n" +
		"data:{\"code\":0,\"data\":true}\n"

	frames, err := collect(t, New(strings.NewReader(raw)))

	assert.Equal(t, io.EOF, err)
	require.Len(t, frames, 1)
	assert.Equal(t, "ok", frames[0].Answer)
}

func TestIngesterNonRestartable(t *testing.T) {
	in := New(strings.NewReader("data:{\"code\":0,\"data\":true}\n"))

	_, err := in.Next()
	assert.Equal(t, io.EOF, err)
	_, err = in.Next()
	assert.Equal(t, io.EOF, err)
}

func TestStreamErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &StreamError{Partial: "abc", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "3 chars")
}
