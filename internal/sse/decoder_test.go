package sse

import (
	"testing"
)

func TestDecoderFeed(t *testing.T) {
	tests := []struct {
		name     string
		chunks   []string
		expected []string
		buffered bool
	}{
		{
			name:     "single frame",
			chunks:   []string{"data: {\"type\":\"connected\"}\n\n"},
			expected: []string{`{"type":"connected"}`},
		},
		{
			name:     "frame split across chunks",
			chunks:   []string{"data: {\"type\":", "\"progress\"}\n", "\n"},
			expected: []string{`{"type":"progress"}`},
		},
		{
			name:     "two frames in one chunk",
			chunks:   []string{"data: 1\n\ndata: 2\n\n"},
			expected: []string{"1", "2"},
		},
		{
			name:     "partial trailing frame stays buffered",
			chunks:   []string{"data: 1\n\ndata: 2"},
			expected: []string{"1"},
			buffered: true,
		},
		{
			name:     "crlf line endings",
			chunks:   []string{"data: a\r\n\r\ndata: b\r\n\r\n"},
			expected: []string{"a", "b"},
		},
		{
			name:     "crlf split between chunks",
			chunks:   []string{"data: a\r", "\nid: 7\r\n\r\n"},
			expected: []string{"a"},
		},
		{
			name:     "comment and empty data frames skipped",
			chunks:   []string{": keepalive\n\ndata:\n\ndata: x\n\n"},
			expected: []string{"x"},
		},
		{
			name:     "multi-line data joined",
			chunks:   []string{"data: {\"a\":\ndata: 1}\n\n"},
			expected: []string{"{\"a\":\n1}"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDecoder()
			var got []string
			for _, c := range tt.chunks {
				for _, f := range d.Feed([]byte(c)) {
					got = append(got, f.Data)
				}
			}
			if len(got) != len(tt.expected) {
				t.Fatalf("got %d frames %q, want %d %q", len(got), got, len(tt.expected), tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("frame %d = %q, want %q", i, got[i], tt.expected[i])
				}
			}
			if (d.Buffered() > 0) != tt.buffered {
				t.Errorf("Buffered() = %d, want buffered=%v", d.Buffered(), tt.buffered)
			}
		})
	}
}

func TestDecoderFieldParsing(t *testing.T) {
	d := NewDecoder()
	frames := d.Feed([]byte("id: 1700000000000-0\nevent: message\nretry: 1000\ndata: {}\n\n"))
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(frames))
	}
	f := frames[0]
	if f.ID != "1700000000000-0" {
		t.Errorf("ID = %q", f.ID)
	}
	if f.Event != "message" {
		t.Errorf("Event = %q", f.Event)
	}
	if !f.HasData() || f.Data != "{}" {
		t.Errorf("Data = %q", f.Data)
	}
}

func TestDecoderDrain(t *testing.T) {
	d := NewDecoder()
	if frames := d.Feed([]byte("data: {\"type\":\"progress\"}\n\ndata: {\"type\":\"completed\"}")); len(frames) != 1 {
		t.Fatalf("expected 1 complete frame before drain, got %d", len(frames))
	}

	drained := d.Drain()
	if len(drained) != 1 {
		t.Fatalf("expected 1 drained frame, got %d", len(drained))
	}
	if drained[0].Data != `{"type":"completed"}` {
		t.Errorf("drained data = %q", drained[0].Data)
	}
	if d.Buffered() != 0 {
		t.Errorf("decoder not reset after drain, %d bytes buffered", d.Buffered())
	}
	if again := d.Drain(); len(again) != 0 {
		t.Errorf("second drain returned %d frames", len(again))
	}
}

func TestDecoderDrainWhitespaceOnly(t *testing.T) {
	d := NewDecoder()
	d.Feed([]byte("data: x\n\n\n"))
	if frames := d.Drain(); len(frames) != 0 {
		t.Errorf("expected no frames from whitespace remainder, got %d", len(frames))
	}
}
