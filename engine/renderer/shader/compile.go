package shader

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/naga"
)

// spirvMagic is the first word of every SPIR-V module.
const spirvMagic = 0x07230203

// CompileSPIRV compiles the shader's WGSL source to SPIR-V with naga. It is used to validate
// shader text on hosts that have no GPU driver to hand it to.
//
// Parameters:
//   - s: the shader to compile
//
// Returns:
//   - []uint32: the SPIR-V words
//   - error: the naga error, or an error if the output is not a SPIR-V module
func CompileSPIRV(s Shader) ([]uint32, error) {
	spirvBytes, err := naga.Compile(s.Source())
	if err != nil {
		return nil, fmt.Errorf("failed to compile shader %s: %w", s.Key(), err)
	}
	if len(spirvBytes) < 4 || len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("shader %s: SPIR-V output has %d bytes", s.Key(), len(spirvBytes))
	}

	// SPIR-V is little-endian 32-bit words
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	if words[0] != spirvMagic {
		return nil, fmt.Errorf("shader %s: bad SPIR-V magic %#08x", s.Key(), words[0])
	}
	return words, nil
}
