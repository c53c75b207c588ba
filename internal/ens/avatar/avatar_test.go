package avatar

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		value string
		want  Scheme
	}{
		{"ipfs://QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG", SchemeIPFS},
		{"ipns://k51qzi5uqu5dgy6fl4v7qeq", SchemeIPNS},
		{"eip155:1/erc721:0xb47e3cd837dDF8e4c57f05d70ab865de6e193bbb/1234", SchemeNFT},
		{"https://example.org/me.png", SchemeHTTP},
		{"http://example.org/me.png", SchemeHTTP},
		{"data:image/png;base64,AAAA", SchemeUnknown},
		{"", SchemeUnknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.value), tc.value)
	}
}

func TestInitials(t *testing.T) {
	assert.Equal(t, "VI", Initials("vitalik.eth"))
	assert.Equal(t, "X", Initials("x.eth"))
	assert.Equal(t, "ÅA", Initials("åabc.eth"))
	assert.Equal(t, "AB", Initials("ab"))
}

func newTestResolver(gateways []string, ipnsBase string) *Resolver {
	return &Resolver{
		client:   &http.Client{Timeout: 2 * time.Second},
		gateways: gateways,
		ipnsBase: ipnsBase,
		logger:   slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
	}
}

func TestResolveIPFS(t *testing.T) {
	t.Run("first gateway wins", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		r := newTestResolver([]string{srv.URL + "/ipfs/"}, "")
		res := r.Resolve(context.Background(), "vitalik.eth", "ipfs://QmCID")

		assert.Equal(t, StateLoaded, res.State)
		assert.Equal(t, SchemeIPFS, res.Scheme)
		assert.Equal(t, srv.URL+"/ipfs/QmCID", res.URL)
		assert.Equal(t, 0, res.GatewayIndex)
	})

	t.Run("failure advances to the next gateway", func(t *testing.T) {
		bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer bad.Close()
		good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer good.Close()

		r := newTestResolver([]string{bad.URL + "/ipfs/", good.URL + "/ipfs/"}, "")
		res := r.Resolve(context.Background(), "vitalik.eth", "ipfs://QmCID")

		assert.Equal(t, StateLoaded, res.State)
		assert.Equal(t, good.URL+"/ipfs/QmCID", res.URL)
		assert.Equal(t, 1, res.GatewayIndex)
	})

	t.Run("exhausting every gateway is terminal", func(t *testing.T) {
		bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer bad.Close()

		r := newTestResolver([]string{bad.URL + "/a/", bad.URL + "/b/"}, "")
		res := r.Resolve(context.Background(), "vitalik.eth", "ipfs://QmCID")

		assert.Equal(t, StateFailedAll, res.State)
		assert.Empty(t, res.URL)
		assert.Equal(t, "VI", res.Placeholder)
	})

	t.Run("leading slashes in the cid are stripped", func(t *testing.T) {
		var gotPath string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		r := newTestResolver([]string{srv.URL + "/ipfs/"}, "")
		res := r.Resolve(context.Background(), "vitalik.eth", "ipfs:///QmCID")

		assert.Equal(t, StateLoaded, res.State)
		assert.Equal(t, "/ipfs/QmCID", gotPath)
	})
}

func TestResolveIPNS(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := newTestResolver(nil, srv.URL+"/ipns/")
	res := r.Resolve(context.Background(), "vitalik.eth", "ipns://somekey")

	assert.Equal(t, StateLoaded, res.State)
	assert.Equal(t, SchemeIPNS, res.Scheme)
	assert.Equal(t, srv.URL+"/ipns/somekey", res.URL)
}

func TestResolveHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := newTestResolver(nil, "")
	res := r.Resolve(context.Background(), "vitalik.eth", srv.URL+"/me.png")

	assert.Equal(t, StateLoaded, res.State)
	assert.Equal(t, SchemeHTTP, res.Scheme)
	assert.Equal(t, srv.URL+"/me.png", res.URL)
}

func TestResolveTerminalPlaceholders(t *testing.T) {
	r := newTestResolver(nil, "")

	t.Run("nft reference falls to the placeholder", func(t *testing.T) {
		res := r.Resolve(context.Background(), "vitalik.eth", "eip155:1/erc721:0xabc/1")
		assert.Equal(t, StateFailedAll, res.State)
		assert.Equal(t, SchemeNFT, res.Scheme)
		assert.Equal(t, "VI", res.Placeholder)
	})

	t.Run("unrecognized scheme falls to the placeholder", func(t *testing.T) {
		res := r.Resolve(context.Background(), "nameless.eth", "gopher://old")
		assert.Equal(t, StateFailedAll, res.State)
		assert.Equal(t, "NA", res.Placeholder)
	})

	t.Run("empty record falls to the placeholder", func(t *testing.T) {
		res := r.Resolve(context.Background(), "empty.eth", "")
		assert.Equal(t, StateFailedAll, res.State)
		assert.Equal(t, "EM", res.Placeholder)
	})
}

func TestGatewayURL(t *testing.T) {
	r := NewResolver(slog.Default())

	url, err := r.GatewayURL("QmCID", 1)
	require.NoError(t, err)
	assert.Equal(t, "https://ipfs.io/ipfs/QmCID", url)

	_, err = r.GatewayURL("QmCID", 99)
	assert.Error(t, err)
}
