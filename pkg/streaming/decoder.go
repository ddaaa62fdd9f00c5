package streaming

import (
	"bytes"
)

// LineDecoder reassembles newline-delimited records from arbitrarily sized
// byte chunks. Chunks may split a record anywhere, including inside a
// multi-byte UTF-8 character; because UTF-8 continuation bytes can never equal
// '\n', byte-level buffering keeps the split safe without any text decoding.
//
// Not safe for concurrent use. One decoder per stream.
type LineDecoder struct {
	buf     bytes.Buffer
	stopped bool
}

// EmitFunc receives one complete line, newline stripped. Returning false
// stops the decoder: remaining buffered content is discarded and every later
// Write and Flush becomes a no-op. Used to short-circuit after a terminal
// event even when more lines sit in the same chunk.
type EmitFunc func(line []byte) bool

// Write appends a chunk and emits every complete line it finishes. The text
// after the last newline stays buffered for the next chunk.
func (d *LineDecoder) Write(chunk []byte, emit EmitFunc) {
	if d.stopped {
		return
	}
	d.buf.Write(chunk)

	for {
		data := d.buf.Bytes()
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			return
		}
		line := make([]byte, idx)
		copy(line, data[:idx])
		d.buf.Next(idx + 1)

		line = trimLine(line)
		if len(line) == 0 {
			continue
		}
		if !emit(line) {
			d.stop()
			return
		}
	}
}

// Flush emits the trailing unterminated line, if any. Call once at end of
// stream; a payload whose final line has no newline still yields that line
// exactly once.
func (d *LineDecoder) Flush(emit EmitFunc) {
	if d.stopped {
		return
	}
	line := trimLine(d.buf.Bytes())
	d.buf.Reset()
	if len(line) == 0 {
		return
	}
	if !emit(line) {
		d.stop()
	}
}

// Stopped reports whether an emit callback ended the stream early.
func (d *LineDecoder) Stopped() bool {
	return d.stopped
}

func (d *LineDecoder) stop() {
	d.stopped = true
	d.buf.Reset()
}

// trimLine drops a trailing '\r' so CRLF streams decode like LF streams.
func trimLine(line []byte) []byte {
	if n := len(line); n > 0 && line[n-1] == '\r' {
		return line[:n-1]
	}
	return line
}
