package streaming

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectAll(d *LineDecoder, chunks [][]byte) []string {
	var lines []string
	emit := func(line []byte) bool {
		lines = append(lines, string(line))
		return true
	}
	for _, c := range chunks {
		d.Write(c, emit)
	}
	d.Flush(emit)
	return lines
}

func chunkBy(payload []byte, size int) [][]byte {
	var chunks [][]byte
	for len(payload) > 0 {
		n := size
		if n > len(payload) {
			n = len(payload)
		}
		chunks = append(chunks, payload[:n])
		payload = payload[n:]
	}
	return chunks
}

func TestLineDecoderChunkBoundaryInvariance(t *testing.T) {
	// Mixes ASCII, multi-byte runes, and a trailing unterminated line so
	// every chunk size slices through at least one of each.
	payload := []byte("{\"type\":\"message\",\"content\":\"héllo wörld\"}\n" +
		"{\"type\":\"message\",\"content\":\"日本語テキスト\"}\n" +
		"{\"type\":\"message\",\"content\":\"plain\"}")

	whole := collectAll(&LineDecoder{}, [][]byte{payload})
	require.Len(t, whole, 3)

	for size := 1; size <= len(payload); size++ {
		got := collectAll(&LineDecoder{}, chunkBy(payload, size))
		assert.Equalf(t, whole, got, "chunk size %d", size)
	}
}

func TestLineDecoderTrailingLineEmittedOnce(t *testing.T) {
	d := &LineDecoder{}
	lines := collectAll(d, [][]byte{[]byte("{\"a\":1}\n{\"b\":2}")})
	require.Equal(t, []string{`{"a":1}`, `{"b":2}`}, lines)

	// A second Flush must not re-emit the trailing line.
	d.Flush(func([]byte) bool {
		t.Fatal("flush after drain emitted a line")
		return true
	})
}

func TestLineDecoderFlushWithoutTrailingFragment(t *testing.T) {
	d := &LineDecoder{}
	lines := collectAll(d, [][]byte{[]byte("{\"a\":1}\n")})
	assert.Equal(t, []string{`{"a":1}`}, lines)
}

func TestLineDecoderEmitStopDiscardsRemainder(t *testing.T) {
	d := &LineDecoder{}
	var got []string
	d.Write([]byte("one\ntwo\nthree\n"), func(line []byte) bool {
		got = append(got, string(line))
		return string(line) != "two"
	})
	assert.Equal(t, []string{"one", "two"}, got)
	assert.True(t, d.Stopped())

	// Later writes and flushes are no-ops once stopped.
	d.Write([]byte("four\n"), func([]byte) bool {
		t.Fatal("write after stop emitted a line")
		return true
	})
	d.Flush(func([]byte) bool {
		t.Fatal("flush after stop emitted a line")
		return true
	})
}

func TestLineDecoderSkipsBlankAndCRLFLines(t *testing.T) {
	d := &LineDecoder{}
	lines := collectAll(d, [][]byte{[]byte("{\"a\":1}\r\n\r\n\n{\"b\":2}\r\n")})
	assert.Equal(t, []string{`{"a":1}`, `{"b":2}`}, lines)
}
