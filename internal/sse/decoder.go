// Package sse provides an incremental Server-Sent Events frame decoder.
//
// Stream bodies arrive in arbitrary chunks, so a frame can be split across
// reads. The Decoder buffers partial input, hands back complete frames as
// soon as their terminating blank line arrives, and can drain whatever is
// left in the buffer when the transport fails before the terminator shows up.
package sse

import (
	"bytes"
	"strings"
)

// Frame represents one parsed SSE frame.
type Frame struct {
	// ID is the value of the last id: line, if any.
	ID string

	// Event is the value of the event: line, if any.
	Event string

	// Data is the concatenation of all data: lines, joined with newlines.
	Data string
}

// HasData reports whether the frame carried at least one non-empty data line.
func (f Frame) HasData() bool {
	return f.Data != ""
}

var frameSep = []byte("\n\n")

// Decoder splits a text/event-stream body into frames.
//
// A Decoder is not safe for concurrent use; the stream consumer owns it.
type Decoder struct {
	buf []byte

	// pendingCR is set when the previous chunk ended in a CR whose LF may
	// open the next chunk.
	pendingCR bool
}

// NewDecoder creates an empty decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed appends a chunk of the stream body and returns every frame completed by it.
//
// Parameters:
//   - chunk: Raw bytes read from the stream
//
// Returns:
//   - []Frame: Complete frames in arrival order (frames without data are skipped)
func (d *Decoder) Feed(chunk []byte) []Frame {
	if d.pendingCR && len(chunk) > 0 && chunk[0] == '\n' {
		chunk = chunk[1:]
	}
	d.pendingCR = false
	if len(chunk) == 0 {
		return nil
	}
	d.pendingCR = chunk[len(chunk)-1] == '\r'
	d.buf = append(d.buf, normalizeNewlines(chunk)...)

	var frames []Frame
	for {
		idx := bytes.Index(d.buf, frameSep)
		if idx < 0 {
			break
		}
		block := d.buf[:idx]
		d.buf = d.buf[idx+len(frameSep):]
		if f, ok := parseBlock(block); ok {
			frames = append(frames, f)
		}
	}
	if len(d.buf) == 0 {
		d.buf = nil
	}
	return frames
}

// Drain parses whatever remains in the buffer as if the stream had ended
// cleanly, then resets the decoder. A truncated trailing frame still comes
// back; it is up to the caller to reject a payload that does not parse.
//
// Returns:
//   - []Frame: Frames recovered from the leftover buffer
func (d *Decoder) Drain() []Frame {
	rest := d.buf
	d.buf = nil
	d.pendingCR = false
	if len(bytes.TrimSpace(rest)) == 0 {
		return nil
	}

	var frames []Frame
	for _, block := range bytes.Split(rest, frameSep) {
		if f, ok := parseBlock(block); ok {
			frames = append(frames, f)
		}
	}
	return frames
}

// Buffered returns the number of bytes waiting for a frame terminator.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// parseBlock parses one blank-line delimited block into a frame.
// It handles the text/event-stream fields: id, event, data. Comment lines
// (leading colon) and retry: lines are ignored.
func parseBlock(block []byte) (Frame, bool) {
	var f Frame
	var data strings.Builder
	hasData := false

	for _, line := range strings.Split(string(block), "\n") {
		switch {
		case line == "", strings.HasPrefix(line, ":"):
			continue
		case strings.HasPrefix(line, "data:"):
			value := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if value == "" {
				continue
			}
			// Handle multi-line data by appending
			if hasData {
				data.WriteString("\n")
			}
			data.WriteString(value)
			hasData = true
		case strings.HasPrefix(line, "event:"):
			f.Event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "id:"):
			f.ID = strings.TrimSpace(strings.TrimPrefix(line, "id:"))
		}
	}

	if !hasData {
		return Frame{}, false
	}
	f.Data = data.String()
	return f, true
}

// normalizeNewlines folds CRLF and lone CR line endings into LF so frame
// boundaries are always "\n\n".
func normalizeNewlines(chunk []byte) []byte {
	if bytes.IndexByte(chunk, '\r') < 0 {
		return chunk
	}
	out := bytes.ReplaceAll(chunk, []byte("\r\n"), []byte("\n"))
	return bytes.ReplaceAll(out, []byte("\r"), []byte("\n"))
}
