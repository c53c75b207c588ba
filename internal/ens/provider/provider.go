// Package provider defines the chain data capability the aggregator consumes.
// Every operation is independently fallible; the aggregator, not the
// provider, decides which failures are tolerable.
package provider

import (
	"context"

	"ensgraph/internal/ens/models"
)

// OwnerResult carries the registry owner and, for second-level .eth names,
// the registrant from the base registrar. Empty strings mean absent; the zero
// address is collapsed to absent before it leaves the provider.
type OwnerResult struct {
	Owner      string
	Registrant string
}

// ExpiryResult is the registrar expiry plus the grace period that follows it.
type ExpiryResult struct {
	Expiry             int64
	GracePeriodSeconds int64
}

// RecordsResult is one records call: requested text and coin records, the
// content hash when asked for, and the resolver address the records were
// served from.
type RecordsResult struct {
	Texts           map[string]string
	Coins           map[string]string
	ContentHash     *models.ContentHashInfo
	ResolverAddress string
}

// WrapperResult is the name wrapper state for a wrapped name.
type WrapperResult struct {
	Fuses models.Fuses
}

// AbiResult is a raw ABI record before structured parsing.
type AbiResult struct {
	ContentType uint64
	Decoded     string
}

// ChainProvider exposes the on-chain resolution operations. Implementations
// receive already normalized names.
type ChainProvider interface {
	ResolveOwner(ctx context.Context, name string) (*OwnerResult, error)
	ResolveExpiry(ctx context.Context, name string) (*ExpiryResult, error)
	ResolveResolver(ctx context.Context, name string) (string, error)
	ResolveRecords(ctx context.Context, name string, textKeys []string, coinTypes []uint64, contentHash bool) (*RecordsResult, error)
	// ResolveWrapperData returns (nil, nil) for names the wrapper does not hold.
	ResolveWrapperData(ctx context.Context, name string) (*WrapperResult, error)
	// ResolveAbiRecord returns (nil, nil) when no ABI record is set.
	ResolveAbiRecord(ctx context.Context, name string) (*AbiResult, error)
}

// SubnameQuery bounds a subname listing.
type SubnameQuery struct {
	PageSize       int
	ExcludeExpired bool
	ExcludeDeleted bool
}

// SubnameProvider lists delegated names under a parent, served by an indexing
// service rather than the chain itself.
type SubnameProvider interface {
	ResolveSubnames(ctx context.Context, name string, q SubnameQuery) ([]models.Subname, error)
}
