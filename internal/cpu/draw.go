package cpu

// draw executes DXYN: an N-row sprite read from memory at I is XORed
// onto the display at (VX, VY). VF is set when any lit pixel is turned off.
func (cpu *CPU) draw(ins Instruction) error {
	originX := int(cpu.V[ins.X]) % Width
	originY := int(cpu.V[ins.Y]) % Height

	rows := int(ins.N)
	if !cpu.quirks.WrapSprites && originY+rows > Height {
		rows = Height - originY
	}

	// the whole sprite is read before the display changes
	var sprite [15]uint8
	if err := cpu.readIndexed(sprite[:rows]); err != nil {
		return err
	}

	cpu.V[flagRegister] = 0
	for row, bits := range sprite[:rows] {
		y := (originY + row) % Height
		for col := 0; col < 8; col++ {
			if bits&(0x80>>col) == 0 {
				continue
			}
			x := originX + col
			if x >= Width {
				if !cpu.quirks.WrapSprites {
					break
				}
				x %= Width
			}
			if cpu.togglePixel(x, y) {
				cpu.V[flagRegister] = 1
			}
		}
	}
	return nil
}

// togglePixel flips one pixel and reports whether it was lit before.
func (cpu *CPU) togglePixel(x, y int) bool {
	idx := y*Width + x
	wasOn := cpu.frameBuffer[idx]
	cpu.frameBuffer[idx] = !wasOn
	cpu.pixels.SetPixel(x, y, !wasOn)
	return wasOn
}

func (cpu *CPU) clearScreen() {
	cpu.frameBuffer = [Width * Height]bool{}
	for y := range Height {
		for x := range Width {
			cpu.pixels.SetPixel(x, y, false)
		}
	}
}
