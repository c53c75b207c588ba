package ethereum

import (
	"encoding/base32"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"strings"

	"ensgraph/internal/ens/models"
)

// Multicodec namespace codes used in ENS content hash records.
const (
	codecIPFS    = 0xe3
	codecSwarm   = 0xe4
	codecIPNS    = 0xe5
	codecOnion   = 0x01bc
	codecOnion3  = 0x01bd
	codecSkynet  = 0xb19910
	codecArweave = 0xb29910
)

// DecodeContentHash classifies a raw content hash record by its multicodec
// prefix and renders the payload in the protocol's conventional form. Unknown
// codecs are preserved as hex rather than dropped.
func DecodeContentHash(raw []byte) models.ContentHashInfo {
	codec, n := binary.Uvarint(raw)
	if n <= 0 {
		return models.ContentHashInfo{
			ProtocolType: models.ProtocolUnknown,
			Decoded:      "0x" + hex.EncodeToString(raw),
		}
	}
	payload := raw[n:]

	switch codec {
	case codecIPFS:
		return models.ContentHashInfo{
			ProtocolType: models.ProtocolIPFS,
			Decoded:      cidBase32(payload, 0x70),
		}
	case codecIPNS:
		return models.ContentHashInfo{
			ProtocolType: models.ProtocolIPNS,
			Decoded:      cidBase32(payload, 0x72),
		}
	case codecSwarm:
		return models.ContentHashInfo{
			ProtocolType: models.ProtocolSwarm,
			Decoded:      hex.EncodeToString(payload),
		}
	case codecOnion:
		return models.ContentHashInfo{
			ProtocolType: models.ProtocolOnion,
			Decoded:      string(payload),
		}
	case codecOnion3:
		return models.ContentHashInfo{
			ProtocolType: models.ProtocolOnion3,
			Decoded:      string(payload),
		}
	case codecSkynet:
		return models.ContentHashInfo{
			ProtocolType: models.ProtocolSia,
			Decoded:      base64.RawURLEncoding.EncodeToString(payload),
		}
	case codecArweave:
		return models.ContentHashInfo{
			ProtocolType: models.ProtocolArweave,
			Decoded:      base64.RawURLEncoding.EncodeToString(payload),
		}
	default:
		return models.ContentHashInfo{
			ProtocolType: models.ProtocolUnknown,
			Decoded:      "0x" + hex.EncodeToString(raw),
		}
	}
}

var base32Lower = base32.StdEncoding.WithPadding(base32.NoPadding)

// cidBase32 renders a CID as its canonical multibase base32 string. Bare v0
// multihashes (0x12 0x20 ...) are lifted to CIDv1 with the given codec first.
func cidBase32(cid []byte, codec byte) string {
	if len(cid) >= 2 && cid[0] == 0x12 && cid[1] == 0x20 {
		cid = append([]byte{0x01, codec}, cid...)
	}
	return "b" + strings.ToLower(base32Lower.EncodeToString(cid))
}
