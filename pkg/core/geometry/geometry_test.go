package geometry

import (
	"math"
	"testing"
)

func TestColumnCount(t *testing.T) {
	tests := []struct {
		name   string
		width  float64
		minCol float64
		gap    float64
		want   int
	}{
		{"zero width", 0, 280, 16, 1},
		{"negative width", -100, 280, 16, 1},
		{"nan width", math.NaN(), 280, 16, 1},
		{"inf width", math.Inf(1), 280, 16, 1},
		{"narrower than one column", 100, 280, 16, 1},
		{"exactly one column", 280, 280, 16, 1},
		{"exactly two columns", 576, 280, 16, 2},
		{"just under two columns", 575, 280, 16, 1},
		{"four columns", 1200, 280, 16, 4},
		{"no gap", 840, 280, 0, 3},
		{"negative gap treated as zero", 840, 280, -10, 3},
		{"zero stride", 1000, 0, 0, 1},
		{"capped", 1e12, 1, 0, MaxColumns},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ColumnCount(tt.width, tt.minCol, tt.gap); got != tt.want {
				t.Errorf("ColumnCount(%v, %v, %v) = %d, want %d", tt.width, tt.minCol, tt.gap, got, tt.want)
			}
		})
	}
}

func TestColumnCountNeverBelowOne(t *testing.T) {
	for w := 0.0; w <= 5000; w += 7.5 {
		if n := ColumnCount(w, DefaultMinColumnWidth, DefaultGap); n < 1 {
			t.Fatalf("ColumnCount(%v) = %d, want >= 1", w, n)
		}
	}
}

func TestObserverInitialState(t *testing.T) {
	o := NewObserver(DefaultMinColumnWidth, DefaultGap)

	if got := o.Columns.Get(); got != 1 {
		t.Errorf("Columns = %d, want 1", got)
	}
	if got := o.Width.Get(); got != 0 {
		t.Errorf("Width = %v, want 0", got)
	}
	if got := o.Key(); got != (Key{Columns: 1}) {
		t.Errorf("Key = %+v, want {0 1}", got)
	}
}

func TestObserverOnChange(t *testing.T) {
	o := NewObserver(280, 16)

	var calls []Key
	o.OnChange(func(k Key) { calls = append(calls, k) })

	// Mount measurement.
	if !o.Observe(1200, 800) {
		t.Error("first measurement should report a change")
	}
	// Height-only resize.
	if o.Observe(1200, 600) {
		t.Error("height-only resize should not report a change")
	}
	// Identical measurement.
	o.Observe(1200, 600)
	// Width and columns change together.
	o.Observe(600, 600)

	want := []Key{{Width: 1200, Columns: 4}, {Width: 600, Columns: 2}}
	if len(calls) != len(want) {
		t.Fatalf("OnChange calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d = %+v, want %+v", i, calls[i], want[i])
		}
	}
	if got := o.Height.Get(); got != 600 {
		t.Errorf("Height = %v, want 600", got)
	}
}

func TestObserverWidthChangeWithinColumn(t *testing.T) {
	o := NewObserver(280, 16)
	o.Observe(1200, 800)

	cols := 0
	o.Columns.Bind(func(int) { cols++ })
	changes := 0
	o.OnChange(func(Key) { changes++ })

	o.Observe(1210, 800)

	if cols != 0 {
		t.Errorf("Columns notified %d times, want 0", cols)
	}
	if changes != 1 {
		t.Errorf("OnChange calls = %d, want 1 (width changed)", changes)
	}
}

func TestObserverZeroWidth(t *testing.T) {
	o := NewObserver(280, 16)
	o.Observe(1200, 800)
	o.Observe(-5, 800)

	if got := o.Width.Get(); got != 0 {
		t.Errorf("Width = %v, want 0", got)
	}
	if got := o.Columns.Get(); got != 1 {
		t.Errorf("Columns = %d, want 1", got)
	}
}
