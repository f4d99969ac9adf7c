package graphics

import (
	"errors"
	"testing"
)

func TestCreateBackend(t *testing.T) {
	tests := []struct {
		backendType BackendType
		wantName    string
	}{
		{BackendHeadless, "Headless"},
		{BackendTerminal, "Terminal"},
	}

	for _, tt := range tests {
		t.Run(string(tt.backendType), func(t *testing.T) {
			backend, err := CreateBackend(tt.backendType)
			if err != nil {
				t.Fatalf("CreateBackend failed: %v", err)
			}
			if backend.GetName() != tt.wantName {
				t.Errorf("Expected %s, got %s", tt.wantName, backend.GetName())
			}
		})
	}
}

func TestCreateBackend_Unknown(t *testing.T) {
	_, err := CreateBackend("sdl2")
	if !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("Expected ErrUnknownBackend, got %v", err)
	}

	var backendErr *BackendError
	if !errors.As(err, &backendErr) || backendErr.Backend != "sdl2" {
		t.Errorf("Expected BackendError for sdl2, got %v", err)
	}
}

func TestFitScale(t *testing.T) {
	tests := []struct {
		name            string
		width, height   int
		scale, offX, oY float64
	}{
		{"exact", 640, 320, 10, 0, 0},
		{"wide", 800, 320, 10, 80, 0},
		{"tall", 640, 480, 10, 0, 80},
		{"fractional", 96, 48, 1.5, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scale, offX, offY := fitScale(tt.width, tt.height)
			if scale != tt.scale || offX != tt.offX || offY != tt.oY {
				t.Errorf("fitScale(%d, %d) = %v, %v, %v", tt.width, tt.height, scale, offX, offY)
			}
		})
	}
}

func TestKey_String(t *testing.T) {
	if KeyF12.String() != "F12" {
		t.Errorf("Expected F12, got %s", KeyF12.String())
	}
	if Key(99).String() != "Unknown" {
		t.Errorf("Expected Unknown, got %s", Key(99).String())
	}
}
