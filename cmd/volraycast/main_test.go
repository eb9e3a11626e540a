package main

import (
	"errors"
	"testing"
	"time"

	"volraycast/pkg/volume"
)

func TestParseDims(t *testing.T) {
	f, err := parseDims("64x48x32")
	if err != nil {
		t.Fatalf("parseDims: %v", err)
	}
	if f.Width != 64 || f.Height != 48 || f.Depth != 32 {
		t.Errorf("Expected 64x48x32, got %dx%dx%d", f.Width, f.Height, f.Depth)
	}
	if _, err := parseDims(""); err == nil {
		t.Error("Expected error for missing dims, got nil")
	}
	if _, err := parseDims("64x48"); err == nil {
		t.Error("Expected error for two dims, got nil")
	}
	if _, err := parseDims("0x4x4"); !errors.Is(err, volume.ErrDimensions) {
		t.Errorf("Expected ErrDimensions, got %v", err)
	}
}

func TestStripeStats(t *testing.T) {
	mean, sd := stripeStats([]time.Duration{2 * time.Millisecond, 4 * time.Millisecond})
	if mean != 3*time.Millisecond {
		t.Errorf("Expected mean 3ms, got %v", mean)
	}
	if sd <= 0 {
		t.Errorf("Expected a positive deviation, got %v", sd)
	}
	if m, s := stripeStats(nil); m != 0 || s != 0 {
		t.Errorf("Expected zero stats for no stripes, got %v, %v", m, s)
	}
}
