// Package models defines the unified domain record the aggregator produces
// and the display profile derived from it. Absent optional fields mean "the
// provider returned no value or the call failed"; the two states are
// deliberately collapsed.
package models

// ContentHashProtocol classifies a decoded content hash record.
type ContentHashProtocol string

const (
	ProtocolIPFS    ContentHashProtocol = "ipfs"
	ProtocolIPNS    ContentHashProtocol = "ipns"
	ProtocolArweave ContentHashProtocol = "ar"
	ProtocolSwarm   ContentHashProtocol = "bzz"
	ProtocolOnion   ContentHashProtocol = "onion"
	ProtocolOnion3  ContentHashProtocol = "onion3"
	ProtocolSia     ContentHashProtocol = "sia"
	ProtocolUnknown ContentHashProtocol = "unknown"
)

// ContentHashInfo is a decoded content hash record.
type ContentHashInfo struct {
	ProtocolType ContentHashProtocol `json:"protocolType"`
	Decoded      string              `json:"decoded"`
}

// AbiRecord preserves the raw decoded ABI string even when structured parsing
// fails; Parsed is nil in that case.
type AbiRecord struct {
	ContentType uint64 `json:"contentType"`
	Decoded     string `json:"decoded"`
	Parsed      any    `json:"abi"`
}

// Subname is one delegated name under a parent domain, as reported by the
// indexing subgraph. Timestamps are Unix seconds.
type Subname struct {
	ID               string  `json:"id"`
	Name             *string `json:"name"`
	TruncatedName    *string `json:"truncatedName"`
	LabelName        *string `json:"labelName"`
	Owner            string  `json:"owner"`
	Registrant       *string `json:"registrant"`
	CreatedAt        *int64  `json:"createdAt"`
	RegistrationDate *int64  `json:"registrationDate"`
	ExpiryDate       *int64  `json:"expiryDate"`
	ResolvedAddress  *string `json:"resolvedAddress"`
}

// Fuses describe the name wrapper permission flags, split into the flags
// burned by the parent and by the name itself.
type Fuses struct {
	Parent map[string]bool `json:"parent"`
	Child  map[string]bool `json:"child"`
}

// ResolverType classifies the resolver contract answering for a name.
type ResolverType string

const (
	ResolverTypePublic ResolverType = "Public Resolver"
	ResolverTypeCustom ResolverType = "Custom Resolver"
)

// DomainDetails is the unified domain record: one aggregation's merged view
// of every independently fallible source. Constructed fresh per request and
// never mutated after return.
type DomainDetails struct {
	Name           string `json:"name"`
	NormalizedName string `json:"normalizedName"`
	// BeautifiedName is the original, pre-normalization input kept for
	// presentation.
	BeautifiedName string `json:"beautifiedName"`

	Owner      *string `json:"owner"`
	Registrant *string `json:"registrant"`
	Manager    *string `json:"manager"`

	// RegistrationDate is a heuristic (expiry minus one year, second-level
	// .eth names only), not an authoritative on-chain registration time.
	RegistrationDate   *int64 `json:"registrationDate"`
	ExpiryDate         *int64 `json:"expiryDate"`
	GracePeriodEndDate *int64 `json:"gracePeriodEndDate"`

	ResolverAddress *string       `json:"resolverAddress"`
	ResolverType    *ResolverType `json:"resolverType"`
	ResolverVersion *string       `json:"resolverVersion"`

	Texts map[string]string `json:"texts"`
	Coins map[string]string `json:"coins"`

	ContentHashInfo *ContentHashInfo `json:"contentHashInfo"`
	AbiRecord       *AbiRecord       `json:"abiRecord"`
	Subnames        []Subname        `json:"subnames"`

	IsWrapped bool   `json:"isWrapped"`
	Fuses     *Fuses `json:"fuses,omitempty"`
}

// SocialLinks are the profile's social handles, each read from a fixed text
// record key.
type SocialLinks struct {
	Twitter  *string `json:"twitter,omitempty"`
	GitHub   *string `json:"github,omitempty"`
	Discord  *string `json:"discord,omitempty"`
	Telegram *string `json:"telegram,omitempty"`
	Reddit   *string `json:"reddit,omitempty"`
	LinkedIn *string `json:"linkedin,omitempty"`
}

// DomainProfile is the display-oriented view derived from DomainDetails.
type DomainProfile struct {
	DisplayName string      `json:"displayName"`
	Bio         *string     `json:"bio,omitempty"`
	Email       *string     `json:"email,omitempty"`
	Phone       *string     `json:"phone,omitempty"`
	Location    *string     `json:"location,omitempty"`
	Website     *string     `json:"website,omitempty"`
	Avatar      *string     `json:"avatar,omitempty"`
	SocialLinks SocialLinks `json:"socialLinks"`
}
