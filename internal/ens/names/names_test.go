package names

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Run("lowercases ascii names", func(t *testing.T) {
		got, err := Normalize("Vitalik.ETH")
		require.NoError(t, err)
		assert.Equal(t, "vitalik.eth", got)
	})

	t.Run("idempotent", func(t *testing.T) {
		for _, name := range []string{"vitalik.eth", "sub.name.eth", "Nick.eth"} {
			once, err := Normalize(name)
			require.NoError(t, err)
			twice, err := Normalize(once)
			require.NoError(t, err)
			assert.Equal(t, once, twice, "normalize should be idempotent for %q", name)
		}
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := Normalize("")
		assert.Error(t, err)
	})

	t.Run("rejects empty label", func(t *testing.T) {
		_, err := Normalize("foo..eth")
		assert.Error(t, err)
	})

	t.Run("rejects disallowed characters", func(t *testing.T) {
		for _, name := range []string{"not a valid name!!", "foo bar.eth", "exclaim!.eth"} {
			_, err := Normalize(name)
			assert.Error(t, err, "expected %q to fail normalization", name)
		}
	})
}

func TestNameHash(t *testing.T) {
	// EIP-137 reference vectors.
	cases := map[string]string{
		"":        "0x0000000000000000000000000000000000000000000000000000000000000000",
		"eth":     "0x93cdeb708b7545dc668eb9280176169d1c33cfd8ed6f04690a0bcc88a93fc4ae",
		"foo.eth": "0xde9b09fd7c5f901e23a3f19fecc54828e9c848539801e86591bd9801b019f84f",
	}
	for name, want := range cases {
		assert.Equal(t, want, NameHash(name).Hex(), "namehash(%q)", name)
	}
}

func TestIsSecondLevelEth(t *testing.T) {
	assert.True(t, IsSecondLevelEth("vitalik.eth"))
	assert.False(t, IsSecondLevelEth("a.b.eth"))
	assert.False(t, IsSecondLevelEth("eth"))
	assert.False(t, IsSecondLevelEth("vitalik.com"))
}
