//go:build !headless

package graphics

// Test helper methods for accessing internal state during testing

// GetPixelsForTesting returns the converted RGBA pixels of the last frame
func (w *EbitengineWindow) GetPixelsForTesting() []byte {
	if w.game == nil {
		return nil
	}
	return w.game.pixels
}

// GetGameForTesting returns the internal game instance for testing purposes
func (w *EbitengineWindow) GetGameForTesting() *EbitengineGame {
	return w.game
}

// GetEmulatorUpdateFuncForTesting returns the emulator update function for testing
func (w *EbitengineWindow) GetEmulatorUpdateFuncForTesting() func() error {
	return w.emulatorUpdateFunc
}
