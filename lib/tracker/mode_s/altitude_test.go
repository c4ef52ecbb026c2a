package mode_s

import "testing"

func TestDecodeMovement(t *testing.T) {
	tests := []struct {
		code uint8
		want float64
		ok   bool
	}{
		{0, 0, false},   // no information
		{1, 0, true},    // stopped
		{2, 0.125, true},
		{8, 0.875, true},
		{9, 1, true}, // no discontinuity across the bucket boundary
		{12, 1.75, true},
		{13, 2, true},
		{38, 14.5, true},
		{39, 15, true},
		{93, 69, true},
		{94, 70, true},
		{108, 98, true},
		{109, 100, true},
		{123, 170, true},
		{124, 175, true}, // >= 175 kn
		{125, 0, false},  // reserved
	}
	for _, tt := range tests {
		got, ok := decodeMovement(tt.code)
		if ok != tt.ok || got != tt.want {
			t.Errorf("decodeMovement(%d) = %.3f,%v want %.3f,%v", tt.code, got, ok, tt.want, tt.ok)
		}
	}
}
