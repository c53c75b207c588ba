package ethereum

import (
	"bytes"
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"

	"ensgraph/internal/ens/models"
)

func v0Multihash(content []byte) []byte {
	digest := sha256.Sum256(content)
	return append([]byte{0x12, 0x20}, digest[:]...)
}

func TestDecodeContentHash(t *testing.T) {
	t.Run("ipfs v0 multihash lifts to CIDv1 base32", func(t *testing.T) {
		raw := append([]byte{0xe3, 0x01}, v0Multihash([]byte("hello"))...)
		info := DecodeContentHash(raw)
		assert.Equal(t, models.ProtocolIPFS, info.ProtocolType)
		// CIDv1 + dag-pb + sha2-256 always renders with this prefix.
		assert.True(t, len(info.Decoded) > 7 && info.Decoded[:7] == "bafybei", info.Decoded)
	})

	t.Run("ipns payload classified", func(t *testing.T) {
		raw := append([]byte{0xe5, 0x01}, v0Multihash([]byte("key"))...)
		info := DecodeContentHash(raw)
		assert.Equal(t, models.ProtocolIPNS, info.ProtocolType)
		assert.Equal(t, byte('b'), info.Decoded[0])
	})

	t.Run("onion address decodes to string", func(t *testing.T) {
		raw := append([]byte{0xbc, 0x03}, []byte("expyuzz4wqqyqhjn")...)
		info := DecodeContentHash(raw)
		assert.Equal(t, models.ProtocolOnion, info.ProtocolType)
		assert.Equal(t, "expyuzz4wqqyqhjn", info.Decoded)
	})

	t.Run("onion3 address decodes to string", func(t *testing.T) {
		addr := "p53lf57qovyuvwsc6xnrppyply3vtqm7l6pcobkmyqsiofyeznfu5uqd"
		raw := append([]byte{0xbd, 0x03}, []byte(addr)...)
		info := DecodeContentHash(raw)
		assert.Equal(t, models.ProtocolOnion3, info.ProtocolType)
		assert.Equal(t, addr, info.Decoded)
	})

	t.Run("swarm hash decodes to hex", func(t *testing.T) {
		payload := bytes.Repeat([]byte{0xab}, 32)
		raw := append([]byte{0xe4, 0x01}, payload...)
		info := DecodeContentHash(raw)
		assert.Equal(t, models.ProtocolSwarm, info.ProtocolType)
		assert.Len(t, info.Decoded, 64)
	})

	t.Run("unknown codec preserved as hex", func(t *testing.T) {
		raw := []byte{0x7f, 0x01, 0x02, 0x03}
		info := DecodeContentHash(raw)
		assert.Equal(t, models.ProtocolUnknown, info.ProtocolType)
		assert.Equal(t, "0x7f010203", info.Decoded)
	})
}

func TestDecodeFuses(t *testing.T) {
	t.Run("no fuses burned", func(t *testing.T) {
		fuses := DecodeFuses(0)
		for name, set := range fuses.Child {
			assert.False(t, set, name)
		}
		for name, set := range fuses.Parent {
			assert.False(t, set, name)
		}
	})

	t.Run("wrapped eth 2LD pattern", func(t *testing.T) {
		fuses := DecodeFuses(fuseParentCannotControl | fuseIsDotEth | fuseCannotUnwrap)
		assert.True(t, fuses.Parent["PARENT_CANNOT_CONTROL"])
		assert.True(t, fuses.Parent["IS_DOT_ETH"])
		assert.True(t, fuses.Child["CANNOT_UNWRAP"])
		assert.False(t, fuses.Child["CANNOT_TRANSFER"])
	})
}
