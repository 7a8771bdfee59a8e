package vfield

import (
	"encoding/binary"
	"math"
	"math/rand/v2"
)

// ParticleResolution returns the side of the square state texture holding
// n particles: ceil(sqrt(n)). The texture holds resolution² >= n particles.
func ParticleResolution(n int) int {
	if n <= 0 {
		return 0
	}
	res := int(math.Ceil(math.Sqrt(float64(n))))
	// Guard float rounding for large n.
	for res*res < n {
		res++
	}
	for res > 1 && (res-1)*(res-1) >= n {
		res--
	}
	return res
}

// seedParticles returns res*res random RGBA8 texels. Any byte pattern is a
// valid position: R,G carry the fine and B,A the coarse part of x and y
// (see decode_position in the shaders), so random bytes are uniformly
// distributed over the unit square.
func seedParticles(rng *rand.Rand, res int) []byte {
	state := make([]byte, res*res*4)
	for i := 0; i < len(state); i += 4 {
		binary.LittleEndian.PutUint32(state[i:], rng.Uint32())
	}
	return state
}
