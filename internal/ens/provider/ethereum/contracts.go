package ethereum

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Mainnet ENS contract addresses.
var (
	registryAddr       = common.HexToAddress("0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e")
	baseRegistrarAddr  = common.HexToAddress("0x57f1887a8BF19b14fC0dF6Fd9B2acc9Af147eA85")
	nameWrapperAddr    = common.HexToAddress("0xD4416b13d2b3a9aBae7AcD5D6C2BbDBE25686401")
	publicResolverAddr = common.HexToAddress("0x231b0Ee14048e9dCcD1d247744d114a4EB5E8E63")
)

// PublicResolverAddress is the default resolver the classifier matches
// against.
func PublicResolverAddress() string {
	return publicResolverAddr.Hex()
}

// gracePeriodSeconds is the .eth registrar grace period (90 days).
const gracePeriodSeconds int64 = 90 * 24 * 60 * 60

const registryABIJSON = `[
  {"type":"function","name":"owner","stateMutability":"view","inputs":[{"name":"node","type":"bytes32"}],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"resolver","stateMutability":"view","inputs":[{"name":"node","type":"bytes32"}],"outputs":[{"name":"","type":"address"}]}
]`

const registrarABIJSON = `[
  {"type":"function","name":"nameExpires","stateMutability":"view","inputs":[{"name":"id","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"ownerOf","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"address"}]}
]`

const wrapperABIJSON = `[
  {"type":"function","name":"getData","stateMutability":"view","inputs":[{"name":"id","type":"uint256"}],"outputs":[{"name":"owner","type":"address"},{"name":"fuses","type":"uint32"},{"name":"expiry","type":"uint64"}]}
]`

const resolverABIJSON = `[
  {"type":"function","name":"addr","stateMutability":"view","inputs":[{"name":"node","type":"bytes32"}],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"text","stateMutability":"view","inputs":[{"name":"node","type":"bytes32"},{"name":"key","type":"string"}],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"contenthash","stateMutability":"view","inputs":[{"name":"node","type":"bytes32"}],"outputs":[{"name":"","type":"bytes"}]},
  {"type":"function","name":"ABI","stateMutability":"view","inputs":[{"name":"node","type":"bytes32"},{"name":"contentTypes","type":"uint256"}],"outputs":[{"name":"","type":"uint256"},{"name":"","type":"bytes"}]}
]`

// The multicoin addr overload lives in its own ABI so the single-argument
// addr keeps its name when parsed.
const multicoinABIJSON = `[
  {"type":"function","name":"addr","stateMutability":"view","inputs":[{"name":"node","type":"bytes32"},{"name":"coinType","type":"uint256"}],"outputs":[{"name":"","type":"bytes"}]}
]`

var (
	registryABI  = mustParseABI(registryABIJSON)
	registrarABI = mustParseABI(registrarABIJSON)
	wrapperABI   = mustParseABI(wrapperABIJSON)
	resolverABI  = mustParseABI(resolverABIJSON)
	multicoinABI = mustParseABI(multicoinABIJSON)
)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}
