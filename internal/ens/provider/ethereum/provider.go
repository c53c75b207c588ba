// Package ethereum implements the chain data provider against the mainnet ENS
// contracts over JSON-RPC, with an ordered fallback endpoint list.
package ethereum

import (
	"bytes"
	"compress/zlib"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"strconv"
	"strings"
	"sync"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"ensgraph/internal/ens/names"
	"ensgraph/internal/ens/provider"
)

// Provider resolves ENS data through eth_call against a list of RPC
// endpoints. Endpoints are dialed lazily; a transport failure advances to the
// next endpoint for that call.
type Provider struct {
	logger    *slog.Logger
	endpoints []string

	mu      sync.Mutex
	clients map[string]*ethclient.Client
}

// New builds a provider over the given endpoint list.
func New(endpoints []string, logger *slog.Logger) (*Provider, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("at least one RPC endpoint is required")
	}
	return &Provider{
		logger:    logger,
		endpoints: endpoints,
		clients:   make(map[string]*ethclient.Client),
	}, nil
}

func (p *Provider) client(ctx context.Context, endpoint string) (*ethclient.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.clients[endpoint]; ok {
		return c, nil
	}
	c, err := ethclient.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}
	p.clients[endpoint] = c
	return c, nil
}

// call performs eth_call, trying each endpoint in order until one answers.
func (p *Provider) call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	msg := goethereum.CallMsg{To: &to, Data: data}
	var lastErr error
	for _, endpoint := range p.endpoints {
		c, err := p.client(ctx, endpoint)
		if err != nil {
			lastErr = err
			continue
		}
		out, err := c.CallContract(ctx, msg, nil)
		if err != nil {
			lastErr = err
			p.logger.Debug("eth_call failed, trying next endpoint",
				"endpoint", endpoint, "error", err)
			continue
		}
		return out, nil
	}
	return nil, fmt.Errorf("all endpoints failed: %w", lastErr)
}

func (p *Provider) ResolveOwner(ctx context.Context, name string) (*provider.OwnerResult, error) {
	node := names.NameHash(name)

	data, err := registryABI.Pack("owner", node)
	if err != nil {
		return nil, fmt.Errorf("pack owner call: %w", err)
	}
	out, err := p.call(ctx, registryAddr, data)
	if err != nil {
		return nil, fmt.Errorf("registry owner: %w", err)
	}
	owner, err := unpackAddress(registryABI, "owner", out)
	if err != nil {
		return nil, err
	}

	result := &provider.OwnerResult{Owner: addressOrEmpty(owner)}

	// The registrant only exists for direct .eth registrations; a revert on
	// ownerOf (unregistered or expired token) is absence, not failure.
	if names.IsSecondLevelEth(name) {
		label := strings.SplitN(name, ".", 2)[0]
		tokenID := new(big.Int).SetBytes(names.LabelHash(label).Bytes())
		if data, err := registrarABI.Pack("ownerOf", tokenID); err == nil {
			if out, err := p.call(ctx, baseRegistrarAddr, data); err == nil {
				if registrant, err := unpackAddress(registrarABI, "ownerOf", out); err == nil {
					result.Registrant = addressOrEmpty(registrant)
				}
			}
		}
	}
	return result, nil
}

func (p *Provider) ResolveExpiry(ctx context.Context, name string) (*provider.ExpiryResult, error) {
	// Only direct .eth registrations carry a registrar expiry.
	if !names.IsSecondLevelEth(name) {
		return nil, nil
	}
	label := strings.SplitN(name, ".", 2)[0]
	tokenID := new(big.Int).SetBytes(names.LabelHash(label).Bytes())

	data, err := registrarABI.Pack("nameExpires", tokenID)
	if err != nil {
		return nil, fmt.Errorf("pack nameExpires call: %w", err)
	}
	out, err := p.call(ctx, baseRegistrarAddr, data)
	if err != nil {
		return nil, fmt.Errorf("registrar nameExpires: %w", err)
	}
	vals, err := registrarABI.Unpack("nameExpires", out)
	if err != nil {
		return nil, fmt.Errorf("unpack nameExpires: %w", err)
	}
	expiry, ok := vals[0].(*big.Int)
	if !ok || expiry.Sign() == 0 {
		return nil, nil
	}
	return &provider.ExpiryResult{
		Expiry:             expiry.Int64(),
		GracePeriodSeconds: gracePeriodSeconds,
	}, nil
}

func (p *Provider) ResolveResolver(ctx context.Context, name string) (string, error) {
	addr, err := p.resolverAddress(ctx, names.NameHash(name))
	if err != nil {
		return "", err
	}
	return addressOrEmpty(addr), nil
}

func (p *Provider) resolverAddress(ctx context.Context, node common.Hash) (common.Address, error) {
	data, err := registryABI.Pack("resolver", node)
	if err != nil {
		return common.Address{}, fmt.Errorf("pack resolver call: %w", err)
	}
	out, err := p.call(ctx, registryAddr, data)
	if err != nil {
		return common.Address{}, fmt.Errorf("registry resolver: %w", err)
	}
	return unpackAddress(registryABI, "resolver", out)
}

func (p *Provider) ResolveRecords(ctx context.Context, name string, textKeys []string, coinTypes []uint64, contentHash bool) (*provider.RecordsResult, error) {
	node := names.NameHash(name)
	resolver, err := p.resolverAddress(ctx, node)
	if err != nil {
		return nil, err
	}

	result := &provider.RecordsResult{
		Texts: make(map[string]string),
		Coins: make(map[string]string),
	}
	if resolver == (common.Address{}) {
		return result, nil
	}
	result.ResolverAddress = resolver.Hex()

	// Individual record failures are skipped, not fatal: one unreadable key
	// must not hide the rest of the records.
	for _, key := range textKeys {
		value, err := p.textRecord(ctx, resolver, node, key)
		if err != nil {
			p.logger.Debug("text record lookup failed", "name", name, "key", key, "error", err)
			continue
		}
		if value != "" {
			result.Texts[key] = value
		}
	}

	for _, coinType := range coinTypes {
		value, err := p.coinRecord(ctx, resolver, node, coinType)
		if err != nil {
			p.logger.Debug("coin record lookup failed", "name", name, "coin", coinType, "error", err)
			continue
		}
		if value != "" {
			result.Coins[strconv.FormatUint(coinType, 10)] = value
		}
	}

	if contentHash {
		raw, err := p.contentHashRecord(ctx, resolver, node)
		if err != nil {
			p.logger.Debug("contenthash lookup failed", "name", name, "error", err)
		} else if len(raw) > 0 {
			info := DecodeContentHash(raw)
			result.ContentHash = &info
		}
	}

	return result, nil
}

func (p *Provider) textRecord(ctx context.Context, resolver common.Address, node common.Hash, key string) (string, error) {
	data, err := resolverABI.Pack("text", node, key)
	if err != nil {
		return "", err
	}
	out, err := p.call(ctx, resolver, data)
	if err != nil {
		return "", err
	}
	vals, err := resolverABI.Unpack("text", out)
	if err != nil {
		return "", err
	}
	value, _ := vals[0].(string)
	return value, nil
}

func (p *Provider) coinRecord(ctx context.Context, resolver common.Address, node common.Hash, coinType uint64) (string, error) {
	// Coin type 60 is ether: the legacy addr(bytes32) call returns it as an
	// address directly.
	if coinType == 60 {
		data, err := resolverABI.Pack("addr", node)
		if err != nil {
			return "", err
		}
		out, err := p.call(ctx, resolver, data)
		if err != nil {
			return "", err
		}
		addr, err := unpackAddress(resolverABI, "addr", out)
		if err != nil {
			return "", err
		}
		return addressOrEmpty(addr), nil
	}

	data, err := multicoinABI.Pack("addr", node, new(big.Int).SetUint64(coinType))
	if err != nil {
		return "", err
	}
	out, err := p.call(ctx, resolver, data)
	if err != nil {
		return "", err
	}
	vals, err := multicoinABI.Unpack("addr", out)
	if err != nil {
		return "", err
	}
	payload, _ := vals[0].([]byte)
	if len(payload) == 0 {
		return "", nil
	}
	// Non-ether coins keep their chain-native encodings elsewhere; the API
	// reports the raw record payload as hex.
	return "0x" + hex.EncodeToString(payload), nil
}

func (p *Provider) contentHashRecord(ctx context.Context, resolver common.Address, node common.Hash) ([]byte, error) {
	data, err := resolverABI.Pack("contenthash", node)
	if err != nil {
		return nil, err
	}
	out, err := p.call(ctx, resolver, data)
	if err != nil {
		return nil, err
	}
	vals, err := resolverABI.Unpack("contenthash", out)
	if err != nil {
		return nil, err
	}
	raw, _ := vals[0].([]byte)
	return raw, nil
}

func (p *Provider) ResolveWrapperData(ctx context.Context, name string) (*provider.WrapperResult, error) {
	node := names.NameHash(name)
	tokenID := new(big.Int).SetBytes(node.Bytes())

	data, err := wrapperABI.Pack("getData", tokenID)
	if err != nil {
		return nil, fmt.Errorf("pack getData call: %w", err)
	}
	out, err := p.call(ctx, nameWrapperAddr, data)
	if err != nil {
		return nil, fmt.Errorf("wrapper getData: %w", err)
	}
	vals, err := wrapperABI.Unpack("getData", out)
	if err != nil {
		return nil, fmt.Errorf("unpack getData: %w", err)
	}
	owner, _ := vals[0].(common.Address)
	if owner == (common.Address{}) {
		// Not held by the wrapper.
		return nil, nil
	}
	fuses, _ := vals[1].(uint32)
	return &provider.WrapperResult{Fuses: DecodeFuses(fuses)}, nil
}

func (p *Provider) ResolveAbiRecord(ctx context.Context, name string) (*provider.AbiResult, error) {
	node := names.NameHash(name)
	resolver, err := p.resolverAddress(ctx, node)
	if err != nil {
		return nil, err
	}
	if resolver == (common.Address{}) {
		return nil, nil
	}

	// Accept any of the four standard content types.
	data, err := resolverABI.Pack("ABI", node, big.NewInt(0xf))
	if err != nil {
		return nil, fmt.Errorf("pack ABI call: %w", err)
	}
	out, err := p.call(ctx, resolver, data)
	if err != nil {
		return nil, fmt.Errorf("resolver ABI: %w", err)
	}
	vals, err := resolverABI.Unpack("ABI", out)
	if err != nil {
		return nil, fmt.Errorf("unpack ABI: %w", err)
	}
	contentType, _ := vals[0].(*big.Int)
	payload, _ := vals[1].([]byte)
	if len(payload) == 0 {
		return nil, nil
	}

	decoded, err := decodeAbiPayload(contentType.Uint64(), payload)
	if err != nil {
		return nil, fmt.Errorf("decode ABI payload: %w", err)
	}
	return &provider.AbiResult{
		ContentType: contentType.Uint64(),
		Decoded:     decoded,
	}, nil
}

// decodeAbiPayload turns the raw record into a string. Content type 2 is
// zlib-compressed JSON; everything else is carried through as-is.
func decodeAbiPayload(contentType uint64, payload []byte) (string, error) {
	if contentType == 2 {
		r, err := zlib.NewReader(bytes.NewReader(payload))
		if err != nil {
			return "", err
		}
		defer r.Close()
		inflated, err := io.ReadAll(r)
		if err != nil {
			return "", err
		}
		return string(inflated), nil
	}
	return string(payload), nil
}

func unpackAddress(parsed interface {
	Unpack(name string, data []byte) ([]any, error)
}, method string, out []byte) (common.Address, error) {
	vals, err := parsed.Unpack(method, out)
	if err != nil {
		return common.Address{}, fmt.Errorf("unpack %s: %w", method, err)
	}
	addr, ok := vals[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unpack %s: unexpected type %T", method, vals[0])
	}
	return addr, nil
}

// addressOrEmpty collapses the zero address to absence.
func addressOrEmpty(addr common.Address) string {
	if addr == (common.Address{}) {
		return ""
	}
	return addr.Hex()
}
