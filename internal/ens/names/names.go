// Package names implements ENS name normalization and the EIP-137 namehash.
package names

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/net/idna"
)

// normalizeProfile applies the UTS-46 lookup mapping ENS builds on: case
// folding, compatibility mapping, and rejection of disallowed characters.
// Labels are validated individually so dots survive as separators.
var normalizeProfile = idna.New(
	idna.MapForLookup(),
	idna.ValidateLabels(true),
	idna.StrictDomainName(true),
	idna.Transitional(false),
)

// Normalize canonicalizes a name prior to any lookup. Normalization failure is
// terminal for an aggregation: every downstream call depends on the canonical
// form. Idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("name is empty")
	}
	labels := strings.Split(name, ".")
	normalized := make([]string, len(labels))
	for i, label := range labels {
		if label == "" {
			return "", fmt.Errorf("empty label in %q", name)
		}
		out, err := normalizeProfile.ToUnicode(label)
		if err != nil {
			return "", fmt.Errorf("label %q: %w", label, err)
		}
		if strings.ContainsAny(out, " \t\n") {
			return "", fmt.Errorf("label %q contains whitespace", label)
		}
		normalized[i] = out
	}
	return strings.Join(normalized, "."), nil
}

// NameHash computes the EIP-137 namehash of an already normalized name.
func NameHash(name string) common.Hash {
	if name == "" {
		return common.Hash{}
	}
	labels := strings.Split(name, ".")
	labelHash := crypto.Keccak256([]byte(labels[len(labels)-1]))
	remainderHash := NameHash(strings.Join(labels[:len(labels)-1], ".")).Bytes()
	return crypto.Keccak256Hash(append(remainderHash, labelHash...))
}

// LabelHash computes the keccak256 hash of a single label. The .eth registrar
// identifies second-level names by this hash.
func LabelHash(label string) common.Hash {
	return crypto.Keccak256Hash([]byte(label))
}

// IsSecondLevelEth reports whether name is a direct registration under .eth
// (exactly two labels, TLD "eth"). The registration date heuristic and the
// registrar expiry lookup only apply to these names.
func IsSecondLevelEth(name string) bool {
	labels := strings.Split(name, ".")
	return len(labels) == 2 && labels[1] == "eth"
}
