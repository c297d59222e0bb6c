package main

import "testing"

func TestBar(t *testing.T) {
	got := bar([]float64{0, 0.5, 1, 2, -1})
	want := " ▄██ "
	if got != want {
		t.Errorf("bar = %q, want %q", got, want)
	}
}

func TestRender(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Pong", "RECV: Pong"},
		{`EVENT {"type":"BARS","levels":[0,1]}`, "│ █│"},
		{`EVENT {"type":"STOPPED_ERROR","error":"decode failed"}`, "!! STOPPED: decode failed"},
		{`EVENT {"type":"STATUS","state":"PLAYING","volume":80,"remaining":12.34,"url":"a.wav"}`, "[PLAYING] vol 80% left 12.3s a.wav"},
		{`EVENT {"type":"STATUS","state":"STOPPED","volume":100,"remaining":null,"url":""}`, "[STOPPED] vol 100% left -- "},
		{"EVENT not-json", "EVENT not-json"},
	}
	for _, tt := range tests {
		if got := render(tt.in); got != tt.want {
			t.Errorf("render(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
