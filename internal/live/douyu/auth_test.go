package douyu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeAuth(t *testing.T) {
	seed := authSeed{Key: "testkey", RandStr: "randstr", EncTime: 3}
	sign := computeAuth(seed, "9999", 1717000000)
	assert.Equal(t, "e541281132b0a1d2d66df7c5898a1958", sign)
}

func TestComputeAuthSpecial(t *testing.T) {
	// is_special 为真时后缀为空，与房间号和时间无关。
	seed := authSeed{Key: "testkey", RandStr: "randstr", EncTime: 3, IsSpecial: true}
	assert.Equal(t, "875c3b31da61c12c6f20b3abe83863c0", computeAuth(seed, "9999", 1717000000))
	assert.Equal(t, computeAuth(seed, "1", 1), computeAuth(seed, "2", 2))
}

func TestComputeAuthZeroIterations(t *testing.T) {
	seed := authSeed{Key: "testkey", RandStr: "randstr", EncTime: 0}
	assert.Equal(t, "1070b06c942d1609e5021e28cb2f06f4", computeAuth(seed, "9999", 1717000000))
}

func TestNewDeviceID(t *testing.T) {
	id := newDeviceID()
	assert.Len(t, id, 32)
	assert.NotEqual(t, id, newDeviceID())
}
