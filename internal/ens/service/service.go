// Package service holds the domain aggregator: one fan-out across every
// chain data source for a name, merged into a unified record that tolerates
// any individual source being down.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"ensgraph/internal/ens/metrics"
	"ensgraph/internal/ens/models"
	"ensgraph/internal/ens/names"
	"ensgraph/internal/ens/provider"
	dErrors "ensgraph/pkg/domain-errors"
)

// The fixed allow-lists the records call is scoped to. Unknown keys are never
// returned because the provider call itself is key-scoped.
var textKeyAllowList = []string{
	"name",
	"description",
	"email",
	"url",
	"avatar",
	"phone",
	"location",
	"com.twitter",
	"com.github",
	"com.discord",
	"org.telegram",
	"com.telegram",
	"com.reddit",
	"com.linkedin",
	"notice",
	"keywords",
	"vnd.twitter",
	"vnd.github",
}

// ETH, BTC, LTC, DOGE.
var coinTypeAllowList = []uint64{60, 0, 2, 3}

const (
	// ensLaunchEpoch is 2017-01-01T00:00:00Z; no .eth name can have been
	// registered before it, so the registration heuristic floors here.
	ensLaunchEpoch int64 = 1483228800
	yearSeconds    int64 = 31536000

	subnamePageSize = 100
)

// Service aggregates domain data. Construct once and share; each request
// allocates fresh local state.
type Service struct {
	chain          provider.ChainProvider
	subnames       provider.SubnameProvider
	publicResolver string
	logger         *slog.Logger
	metrics        *metrics.Metrics
}

// New wires the aggregator. The subname provider may be nil (subname listing
// then always reports empty). publicResolver is the address resolver
// classification matches against.
func New(chain provider.ChainProvider, subnames provider.SubnameProvider, publicResolver string, logger *slog.Logger, m *metrics.Metrics) (*Service, error) {
	if chain == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "chain provider is required")
	}
	return &Service{
		chain:          chain,
		subnames:       subnames,
		publicResolver: publicResolver,
		logger:         logger,
		metrics:        m,
	}, nil
}

// GetDomainDetails aggregates every source for one name. Only normalization
// failure is fatal; every provider call failure is absorbed as absence, so a
// wholly unreachable chain still yields an empty-but-valid record.
func (s *Service) GetDomainDetails(ctx context.Context, name string) (*models.DomainDetails, error) {
	start := time.Now()
	if s.metrics != nil {
		s.metrics.LookupsTotal.Inc()
		defer func() {
			s.metrics.LookupDuration.Observe(time.Since(start).Seconds())
		}()
	}

	normalized, err := names.Normalize(name)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeInvalidName, err.Error())
	}

	var (
		records     *provider.RecordsResult
		owner       *provider.OwnerResult
		expiry      *provider.ExpiryResult
		resolverRes *string
		wrapper     *provider.WrapperResult
		abiRec      *provider.AbiResult
	)

	// Six independent sources, all dispatched before any is awaited. A
	// failure nils out that source alone; the join always succeeds.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		res, err := s.chain.ResolveRecords(gctx, normalized, textKeyAllowList, coinTypeAllowList, true)
		if err != nil {
			s.absorb(gctx, normalized, "records", err)
			return nil
		}
		records = res
		return nil
	})

	g.Go(func() error {
		res, err := s.chain.ResolveOwner(gctx, normalized)
		if err != nil {
			s.absorb(gctx, normalized, "owner", err)
			return nil
		}
		owner = res
		return nil
	})

	g.Go(func() error {
		res, err := s.chain.ResolveExpiry(gctx, normalized)
		if err != nil {
			s.absorb(gctx, normalized, "expiry", err)
			return nil
		}
		expiry = res
		return nil
	})

	g.Go(func() error {
		addr, err := s.chain.ResolveResolver(gctx, normalized)
		if err != nil {
			s.absorb(gctx, normalized, "resolver", err)
			return nil
		}
		resolverRes = &addr
		return nil
	})

	g.Go(func() error {
		res, err := s.chain.ResolveWrapperData(gctx, normalized)
		if err != nil {
			s.absorb(gctx, normalized, "wrapper", err)
			return nil
		}
		wrapper = res
		return nil
	})

	g.Go(func() error {
		res, err := s.chain.ResolveAbiRecord(gctx, normalized)
		if err != nil {
			s.absorb(gctx, normalized, "abi", err)
			return nil
		}
		abiRec = res
		return nil
	})

	// No goroutine returns an error, so the join cannot fail; Wait is the
	// settle point for all six sources.
	_ = g.Wait()

	// The subname listing runs after the join and fails silently: an
	// unavailable indexer is indistinguishable from a name with no subnames.
	subnames := []models.Subname{}
	if s.subnames != nil {
		list, err := s.subnames.ResolveSubnames(ctx, normalized, provider.SubnameQuery{
			PageSize:       subnamePageSize,
			ExcludeExpired: true,
			ExcludeDeleted: true,
		})
		if err != nil {
			s.logger.Debug("subname fetch failed", "name", normalized, "error", err)
		} else {
			subnames = list
		}
	}

	details := &models.DomainDetails{
		Name:           normalized,
		NormalizedName: normalized,
		BeautifiedName: name,
		Texts:          map[string]string{},
		Coins:          map[string]string{},
		Subnames:       subnames,
	}

	if owner != nil {
		details.Owner = optional(owner.Owner)
		details.Registrant = optional(owner.Registrant)
	}

	if expiry != nil {
		e := expiry.Expiry
		details.ExpiryDate = &e
		if expiry.GracePeriodSeconds > 0 {
			graceEnd := e + expiry.GracePeriodSeconds
			details.GracePeriodEndDate = &graceEnd
		}
		details.RegistrationDate = estimateRegistrationDate(normalized, e)
	}

	if records != nil {
		if records.Texts != nil {
			details.Texts = records.Texts
		}
		if records.Coins != nil {
			details.Coins = records.Coins
		}
		details.ContentHashInfo = records.ContentHash
	}

	// The direct resolver call wins over the address embedded in the records
	// response when both answered.
	resolverAddr := ""
	if resolverRes != nil && *resolverRes != "" {
		resolverAddr = *resolverRes
	} else if records != nil {
		resolverAddr = records.ResolverAddress
	}
	if resolverAddr != "" {
		details.ResolverAddress = &resolverAddr
		t := s.classifyResolver(resolverAddr)
		details.ResolverType = &t
	}

	if abiRec != nil {
		details.AbiRecord = parseAbiRecord(abiRec)
	}

	if wrapper != nil {
		details.IsWrapped = true
		fuses := wrapper.Fuses
		details.Fuses = &fuses
	}

	return details, nil
}

func (s *Service) absorb(ctx context.Context, name, source string, err error) {
	s.logger.WarnContext(ctx, "provider call failed, continuing without source",
		"name", name,
		"source", source,
		"error", err,
	)
	s.metrics.ObserveSourceFailure(source)
}

func (s *Service) classifyResolver(addr string) models.ResolverType {
	if strings.EqualFold(addr, s.publicResolver) {
		return models.ResolverTypePublic
	}
	return models.ResolverTypeCustom
}

// estimateRegistrationDate approximates the registration time as expiry minus
// one year. It only applies to second-level .eth names and is dropped when
// the estimate lands before the ENS launch epoch. An authoritative value
// would need an event log lookup this system does not perform.
func estimateRegistrationDate(normalized string, expiry int64) *int64 {
	if !names.IsSecondLevelEth(normalized) {
		return nil
	}
	estimate := expiry - yearSeconds
	if estimate < ensLaunchEpoch {
		return nil
	}
	return &estimate
}

// parseAbiRecord attempts structured parsing of the raw ABI string. Parse
// failure keeps the raw string and leaves Parsed nil.
func parseAbiRecord(rec *provider.AbiResult) *models.AbiRecord {
	out := &models.AbiRecord{
		ContentType: rec.ContentType,
		Decoded:     rec.Decoded,
	}
	var parsed any
	if err := json.Unmarshal([]byte(rec.Decoded), &parsed); err == nil {
		out.Parsed = parsed
	}
	return out
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
