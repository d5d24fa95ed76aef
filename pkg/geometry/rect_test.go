package geometry

import (
	"errors"
	"testing"
)

func TestRound(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{10.37, 10.4},
		{10.32, 10.3},
		{10.25, 10.3},
		{-3.46, -3.5},
		{0, 0},
		{750, 750},
	}

	for _, tt := range tests {
		if got := Round(tt.in); got != tt.want {
			t.Errorf("Round(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewRect_Rounds(t *testing.T) {
	r := NewRect(10.37, 4.04, 12.96, 0.05)
	want := Rect{OffsetLeft: 10.4, OffsetTop: 4, Width: 13, Height: 0.1}
	if r != want {
		t.Errorf("NewRect() = %v, want %v", r, want)
	}
}

func TestParseRect(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    Rect
		wantErr bool
	}{
		{
			name:    "full payload",
			payload: `{"offsetLeft": 1.26, "offsetTop": 2, "width": 10.37, "height": 8}`,
			want:    Rect{OffsetLeft: 1.3, OffsetTop: 2, Width: 10.4, Height: 8},
		},
		{
			name:    "missing keys are zero",
			payload: `{"width": 5}`,
			want:    Rect{Width: 5},
		},
		{name: "empty", payload: ``, wantErr: true},
		{name: "not json", payload: `{offsetLeft:`, wantErr: true},
		{name: "wrong type", payload: `{"width": "wide"}`, wantErr: true},
		{name: "null", payload: `null`, wantErr: true},
		{name: "padded null", payload: ` null `, wantErr: true},
		{name: "array", payload: `[1, 2, 3, 4]`, wantErr: true},
		{name: "number", payload: `7`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRect([]byte(tt.payload))
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedRect) {
					t.Fatalf("expected ErrMalformedRect, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseRect() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBox_ContainsInclusive(t *testing.T) {
	b := NewRect(10, 20, 30, 40).Box(100, 100)
	inside := []Point{{110, 120}, {140, 160}, {125, 140}}
	outside := []Point{{109.9, 120}, {140.1, 160}, {125, 160.1}}

	for _, p := range inside {
		if !b.Contains(p) {
			t.Errorf("expected %v inside %v", p, b)
		}
	}
	for _, p := range outside {
		if b.Contains(p) {
			t.Errorf("expected %v outside %v", p, b)
		}
	}
	if c := b.Center(); c != (Point{125, 140}) {
		t.Errorf("Center() = %v", c)
	}
}

func TestRectangles_OrderAndReplace(t *testing.T) {
	c := NewRectangles()
	a := PortKey{Node: "1", Port: "output_1", Dir: Output}
	b := PortKey{Node: "2", Port: "input_1", Dir: Input}
	d := PortKey{Node: "3", Port: "input_1", Dir: Input}

	c.Add(a, NewRect(0, 0, 1, 1))
	c.Add(b, NewRect(0, 0, 2, 2))
	c.Add(d, NewRect(0, 0, 3, 3))
	c.Add(a, NewRect(0, 0, 9, 9))

	var keys []PortKey
	c.Each(func(k PortKey, _ Rect) bool {
		keys = append(keys, k)
		return true
	})
	if len(keys) != 3 || keys[0] != a || keys[1] != b || keys[2] != d {
		t.Fatalf("unexpected order %v", keys)
	}
	if r, _ := c.Get(a); r.Width != 9 {
		t.Errorf("replace did not store new rect: %v", r)
	}

	c.Delete(b)
	c.Delete(b)
	if c.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", c.Len())
	}
	if _, ok := c.Get(b); ok {
		t.Error("deleted key still present")
	}

	cp := c.Copy()
	cp.Delete(a)
	if _, ok := c.Get(a); !ok {
		t.Error("Copy shares storage with original")
	}
}

func TestParseDirection(t *testing.T) {
	if d, err := ParseDirection("output"); err != nil || d != Output {
		t.Errorf("ParseDirection(output) = %v, %v", d, err)
	}
	if _, err := ParseDirection("sideways"); err == nil {
		t.Error("expected error for unknown direction")
	}
	if Input.String() != "input" {
		t.Errorf("Input.String() = %q", Input.String())
	}
}
