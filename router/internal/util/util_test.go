package util

import "testing"

func TestCeilDiv(t *testing.T) {
	tests := []struct {
		name string
		a, b int
		want int
	}{
		{"exact multiple", 32, 16, 2},
		{"rounds up", 33, 16, 3},
		{"less than one block", 5, 16, 1},
		{"zero", 0, 16, 0},
		{"negative clamps to zero", -4, 16, 0},
		{"block size one", 7, 1, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CeilDiv(tt.a, tt.b); got != tt.want {
				t.Errorf("CeilDiv(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestLen64(t *testing.T) {
	if got := Len64([]int{1, 2, 3}); got != 3 {
		t.Errorf("Len64 = %d, want 3", got)
	}
	if got := Len64[int](nil); got != 0 {
		t.Errorf("Len64(nil) = %d, want 0", got)
	}
}
