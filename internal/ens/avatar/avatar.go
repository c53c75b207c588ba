// Package avatar resolves an avatar text record value to a loadable image
// URL. Content-addressed schemes are probed across an ordered public gateway
// list; when every candidate fails the resolution terminates in a generated
// initials placeholder.
package avatar

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Scheme classifies the avatar record value.
type Scheme string

const (
	SchemeIPFS    Scheme = "ipfs"
	SchemeIPNS    Scheme = "ipns"
	SchemeNFT     Scheme = "nft"
	SchemeHTTP    Scheme = "http"
	SchemeUnknown Scheme = "unknown"
)

// State is the resolution state. Attempting carries the gateway index in
// Resolution.GatewayIndex; Loaded and FailedAll are terminal.
type State string

const (
	StateUnresolved State = "unresolved"
	StateAttempting State = "attempting"
	StateLoaded     State = "loaded"
	StateFailedAll  State = "failed-all"
)

// Resolution is the outcome of one avatar resolution.
type Resolution struct {
	State        State  `json:"state"`
	Scheme       Scheme `json:"scheme"`
	URL          string `json:"url,omitempty"`
	GatewayIndex int    `json:"gatewayIndex"`
	// Placeholder holds the initials to render when no image could be
	// loaded.
	Placeholder string `json:"placeholder,omitempty"`
}

// defaultGateways is the probe order for ipfs content.
var defaultGateways = []string{
	"https://cloudflare-ipfs.com/ipfs/",
	"https://ipfs.io/ipfs/",
	"https://gateway.pinata.cloud/ipfs/",
	"https://dweb.link/ipfs/",
}

const ipnsGateway = "https://cloudflare-ipfs.com/ipns/"

// Classify reports the scheme of an avatar record value.
func Classify(value string) Scheme {
	switch {
	case strings.HasPrefix(value, "ipfs://"):
		return SchemeIPFS
	case strings.HasPrefix(value, "ipns://"):
		return SchemeIPNS
	case strings.HasPrefix(value, "eip155:"):
		return SchemeNFT
	case strings.HasPrefix(value, "http://"), strings.HasPrefix(value, "https://"):
		return SchemeHTTP
	default:
		return SchemeUnknown
	}
}

// Initials derives the two-letter placeholder from a domain name: the first
// two characters of the first label, upper-cased.
func Initials(name string) string {
	label, _, _ := strings.Cut(name, ".")
	if label == "" {
		label = name
	}
	r := []rune(label)
	if len(r) > 2 {
		r = r[:2]
	}
	return strings.ToUpper(string(r))
}

// Resolver probes candidate URLs for an avatar record.
type Resolver struct {
	client   *http.Client
	gateways []string
	ipnsBase string
	logger   *slog.Logger
}

// NewResolver builds a resolver over the default public gateways.
func NewResolver(logger *slog.Logger) *Resolver {
	return &Resolver{
		client:   &http.Client{Timeout: 10 * time.Second},
		gateways: defaultGateways,
		ipnsBase: ipnsGateway,
		logger:   logger,
	}
}

// Resolve walks the fallback chain for a name's avatar record. It always
// returns a terminal resolution: Loaded with a probed URL, or FailedAll with
// an initials placeholder. An empty record value fails immediately.
func (r *Resolver) Resolve(ctx context.Context, name, value string) Resolution {
	res := Resolution{State: StateUnresolved, Scheme: Classify(value)}

	switch res.Scheme {
	case SchemeIPFS:
		cid := strings.TrimLeft(strings.TrimPrefix(value, "ipfs://"), "/")
		for i, gw := range r.gateways {
			res.State = StateAttempting
			res.GatewayIndex = i
			url := gw + cid
			if r.probe(ctx, url) {
				res.State = StateLoaded
				res.URL = url
				return res
			}
			r.logger.Debug("avatar gateway failed", "name", name, "gateway", gw)
		}
	case SchemeIPNS:
		ipns := strings.TrimLeft(strings.TrimPrefix(value, "ipns://"), "/")
		res.State = StateAttempting
		if url := r.ipnsBase + ipns; r.probe(ctx, url) {
			res.State = StateLoaded
			res.URL = url
			return res
		}
	case SchemeHTTP:
		res.State = StateAttempting
		if r.probe(ctx, value) {
			res.State = StateLoaded
			res.URL = value
			return res
		}
	case SchemeNFT, SchemeUnknown:
		// NFT references need a metadata lookup this resolver does not
		// perform; both fall straight through to the placeholder.
	}

	res.State = StateFailedAll
	res.Placeholder = Initials(name)
	return res
}

// probe treats any 2xx response as a loadable image, mirroring what an image
// element would accept.
func (r *Resolver) probe(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// GatewayURL returns the candidate URL a given attempt index would probe, or
// an error past the end of the gateway list.
func (r *Resolver) GatewayURL(cid string, index int) (string, error) {
	if index < 0 || index >= len(r.gateways) {
		return "", fmt.Errorf("gateway index %d out of range", index)
	}
	return r.gateways[index] + cid, nil
}
