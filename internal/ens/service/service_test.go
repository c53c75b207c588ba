package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"ensgraph/internal/ens/models"
	"ensgraph/internal/ens/provider"
	dErrors "ensgraph/pkg/domain-errors"
)

const (
	testPublicResolver = "0x231b0Ee14048e9dCcD1d247744d114a4EB5E8E63"
	testOwner          = "0xAAA0000000000000000000000000000000000001"
	testRegistrant     = "0xAAA0000000000000000000000000000000000002"
)

// fakeChain is a configurable in-memory chain provider. Zero value answers
// every call successfully with the fixture data; set an err field to make a
// single source fail.
type fakeChain struct {
	recordsErr  error
	ownerErr    error
	expiryErr   error
	resolverErr error
	wrapperErr  error
	abiErr      error

	records  *provider.RecordsResult
	owner    *provider.OwnerResult
	expiry   *provider.ExpiryResult
	resolver string
	wrapper  *provider.WrapperResult
	abi      *provider.AbiResult

	recordsTextKeys []string
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		records: &provider.RecordsResult{
			Texts:           map[string]string{"name": "Vitalik", "com.twitter": "VitalikButerin"},
			Coins:           map[string]string{"60": testOwner},
			ResolverAddress: testPublicResolver,
		},
		owner:    &provider.OwnerResult{Owner: testOwner, Registrant: testRegistrant},
		expiry:   &provider.ExpiryResult{Expiry: 1700000000, GracePeriodSeconds: 7776000},
		resolver: testPublicResolver,
	}
}

func (f *fakeChain) ResolveRecords(_ context.Context, _ string, textKeys []string, _ []uint64, _ bool) (*provider.RecordsResult, error) {
	f.recordsTextKeys = textKeys
	if f.recordsErr != nil {
		return nil, f.recordsErr
	}
	return f.records, nil
}

func (f *fakeChain) ResolveOwner(context.Context, string) (*provider.OwnerResult, error) {
	if f.ownerErr != nil {
		return nil, f.ownerErr
	}
	return f.owner, nil
}

func (f *fakeChain) ResolveExpiry(context.Context, string) (*provider.ExpiryResult, error) {
	if f.expiryErr != nil {
		return nil, f.expiryErr
	}
	return f.expiry, nil
}

func (f *fakeChain) ResolveResolver(context.Context, string) (string, error) {
	if f.resolverErr != nil {
		return "", f.resolverErr
	}
	return f.resolver, nil
}

func (f *fakeChain) ResolveWrapperData(context.Context, string) (*provider.WrapperResult, error) {
	if f.wrapperErr != nil {
		return nil, f.wrapperErr
	}
	return f.wrapper, nil
}

func (f *fakeChain) ResolveAbiRecord(context.Context, string) (*provider.AbiResult, error) {
	if f.abiErr != nil {
		return nil, f.abiErr
	}
	return f.abi, nil
}

type fakeSubnames struct {
	err  error
	list []models.Subname
}

func (f *fakeSubnames) ResolveSubnames(context.Context, string, provider.SubnameQuery) ([]models.Subname, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.list, nil
}

type AggregatorSuite struct {
	suite.Suite
	chain    *fakeChain
	subnames *fakeSubnames
	service  *Service
}

func TestAggregatorSuite(t *testing.T) {
	suite.Run(t, new(AggregatorSuite))
}

func (s *AggregatorSuite) SetupTest() {
	s.chain = newFakeChain()
	s.subnames = &fakeSubnames{}
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	var err error
	s.service, err = New(s.chain, s.subnames, testPublicResolver, logger, nil)
	s.Require().NoError(err)
}

func (s *AggregatorSuite) TestNew() {
	s.Run("nil chain provider returns error", func() {
		_, err := New(nil, nil, testPublicResolver, slog.Default(), nil)
		s.Error(err)
	})
}

func (s *AggregatorSuite) TestInvalidName() {
	_, err := s.service.GetDomainDetails(context.Background(), "not a valid name!!")
	s.Require().Error(err)

	var de *dErrors.Error
	s.Require().ErrorAs(err, &de)
	s.Equal(dErrors.CodeInvalidName, de.Code)
}

func (s *AggregatorSuite) TestHappyPath() {
	details, err := s.service.GetDomainDetails(context.Background(), "Vitalik.eth")
	s.Require().NoError(err)

	s.Equal("vitalik.eth", details.NormalizedName)
	s.Equal("Vitalik.eth", details.BeautifiedName)
	s.Require().NotNil(details.Owner)
	s.Equal(testOwner, *details.Owner)
	s.Require().NotNil(details.Registrant)
	s.Equal(testRegistrant, *details.Registrant)
	s.Nil(details.Manager)
	s.Equal("Vitalik", details.Texts["name"])
	s.False(details.IsWrapped)
	s.Nil(details.AbiRecord)
	s.Require().NotNil(details.ExpiryDate)
	s.Equal(int64(1700000000), *details.ExpiryDate)
}

// Per-source isolation: any single source failing nils out that source's
// fields and leaves every other field as if nothing happened.
func (s *AggregatorSuite) TestSourceIsolation() {
	ctx := context.Background()

	s.Run("records failure", func() {
		s.SetupTest()
		s.chain.recordsErr = errors.New("rpc timeout")

		details, err := s.service.GetDomainDetails(ctx, "vitalik.eth")
		s.Require().NoError(err)
		s.Empty(details.Texts)
		s.Empty(details.Coins)
		s.Nil(details.ContentHashInfo)
		s.NotNil(details.Owner)
		s.NotNil(details.ExpiryDate)
		s.NotNil(details.ResolverAddress)
	})

	s.Run("owner failure", func() {
		s.SetupTest()
		s.chain.ownerErr = errors.New("rpc timeout")

		details, err := s.service.GetDomainDetails(ctx, "vitalik.eth")
		s.Require().NoError(err)
		s.Nil(details.Owner)
		s.Nil(details.Registrant)
		s.NotEmpty(details.Texts)
		s.NotNil(details.ExpiryDate)
	})

	s.Run("expiry failure", func() {
		s.SetupTest()
		s.chain.expiryErr = errors.New("rpc timeout")

		details, err := s.service.GetDomainDetails(ctx, "vitalik.eth")
		s.Require().NoError(err)
		s.Nil(details.ExpiryDate)
		s.Nil(details.GracePeriodEndDate)
		s.Nil(details.RegistrationDate)
		s.NotNil(details.Owner)
	})

	s.Run("resolver failure falls back to records resolver", func() {
		s.SetupTest()
		s.chain.resolverErr = errors.New("rpc timeout")

		details, err := s.service.GetDomainDetails(ctx, "vitalik.eth")
		s.Require().NoError(err)
		s.Require().NotNil(details.ResolverAddress)
		s.Equal(testPublicResolver, *details.ResolverAddress)
	})

	s.Run("wrapper failure", func() {
		s.SetupTest()
		s.chain.wrapperErr = errors.New("rpc timeout")

		details, err := s.service.GetDomainDetails(ctx, "vitalik.eth")
		s.Require().NoError(err)
		s.False(details.IsWrapped)
		s.Nil(details.Fuses)
		s.NotNil(details.Owner)
	})

	s.Run("abi failure", func() {
		s.SetupTest()
		s.chain.abiErr = errors.New("rpc timeout")

		details, err := s.service.GetDomainDetails(ctx, "vitalik.eth")
		s.Require().NoError(err)
		s.Nil(details.AbiRecord)
		s.NotNil(details.Owner)
	})
}

func (s *AggregatorSuite) TestAllSourcesDown() {
	boom := errors.New("provider unreachable")
	s.chain.recordsErr = boom
	s.chain.ownerErr = boom
	s.chain.expiryErr = boom
	s.chain.resolverErr = boom
	s.chain.wrapperErr = boom
	s.chain.abiErr = boom
	s.subnames.err = boom

	details, err := s.service.GetDomainDetails(context.Background(), "vitalik.eth")
	s.Require().NoError(err, "total provider unavailability must not fail the aggregation")

	s.Equal("vitalik.eth", details.NormalizedName)
	s.Nil(details.Owner)
	s.Nil(details.Registrant)
	s.Nil(details.ExpiryDate)
	s.Nil(details.GracePeriodEndDate)
	s.Nil(details.RegistrationDate)
	s.Nil(details.ResolverAddress)
	s.Nil(details.ResolverType)
	s.Empty(details.Texts)
	s.Empty(details.Coins)
	s.Nil(details.ContentHashInfo)
	s.Nil(details.AbiRecord)
	s.Empty(details.Subnames)
	s.False(details.IsWrapped)
}

func (s *AggregatorSuite) TestSubnameFailureIsSilent() {
	s.subnames.err = errors.New("subgraph down")

	details, err := s.service.GetDomainDetails(context.Background(), "vitalik.eth")
	s.Require().NoError(err)
	s.Empty(details.Subnames)
	s.NotNil(details.Owner, "subname failure must not disturb other sources")
}

func (s *AggregatorSuite) TestSubnamesPopulated() {
	name := "pay.vitalik.eth"
	s.subnames.list = []models.Subname{{ID: "0x1", Name: &name, Owner: testOwner}}

	details, err := s.service.GetDomainDetails(context.Background(), "vitalik.eth")
	s.Require().NoError(err)
	s.Require().Len(details.Subnames, 1)
	s.Equal("0x1", details.Subnames[0].ID)
}

func (s *AggregatorSuite) TestRegistrationDateHeuristic() {
	s.Run("second level eth name gets expiry minus one year", func() {
		s.SetupTest()
		s.chain.expiry = &provider.ExpiryResult{Expiry: 1700000000, GracePeriodSeconds: 7776000}

		details, err := s.service.GetDomainDetails(context.Background(), "x.eth")
		s.Require().NoError(err)
		s.Require().NotNil(details.RegistrationDate)
		s.Equal(int64(1700000000-31536000), *details.RegistrationDate)
	})

	s.Run("estimate before launch epoch is dropped", func() {
		s.SetupTest()
		// 2017-06-01ish expiry: estimate lands before 2017-01-01.
		s.chain.expiry = &provider.ExpiryResult{Expiry: 1496275200, GracePeriodSeconds: 7776000}

		details, err := s.service.GetDomainDetails(context.Background(), "x.eth")
		s.Require().NoError(err)
		s.Nil(details.RegistrationDate)
		s.NotNil(details.ExpiryDate)
	})

	s.Run("estimate exactly at launch epoch is kept", func() {
		s.SetupTest()
		s.chain.expiry = &provider.ExpiryResult{Expiry: 1483228800 + 31536000, GracePeriodSeconds: 7776000}

		details, err := s.service.GetDomainDetails(context.Background(), "x.eth")
		s.Require().NoError(err)
		s.Require().NotNil(details.RegistrationDate)
		s.Equal(int64(1483228800), *details.RegistrationDate)
	})

	s.Run("third level name never gets an estimate", func() {
		s.SetupTest()
		s.chain.expiry = &provider.ExpiryResult{Expiry: 1700000000, GracePeriodSeconds: 7776000}

		details, err := s.service.GetDomainDetails(context.Background(), "a.b.eth")
		s.Require().NoError(err)
		s.Nil(details.RegistrationDate)
	})

	s.Run("non eth name never gets an estimate", func() {
		s.SetupTest()
		s.chain.expiry = &provider.ExpiryResult{Expiry: 1700000000, GracePeriodSeconds: 7776000}

		details, err := s.service.GetDomainDetails(context.Background(), "example.com")
		s.Require().NoError(err)
		s.Nil(details.RegistrationDate)
	})
}

func (s *AggregatorSuite) TestGracePeriod() {
	s.Run("grace period end is expiry plus grace seconds", func() {
		s.chain.expiry = &provider.ExpiryResult{Expiry: 1700000000, GracePeriodSeconds: 7776000}

		details, err := s.service.GetDomainDetails(context.Background(), "vitalik.eth")
		s.Require().NoError(err)
		s.Require().NotNil(details.GracePeriodEndDate)
		s.Equal(int64(1700000000+7776000), *details.GracePeriodEndDate)
	})

	s.Run("absent expiry means absent grace period end", func() {
		s.SetupTest()
		s.chain.expiry = nil

		details, err := s.service.GetDomainDetails(context.Background(), "vitalik.eth")
		s.Require().NoError(err)
		s.Nil(details.ExpiryDate)
		s.Nil(details.GracePeriodEndDate)
	})
}

func (s *AggregatorSuite) TestResolverClassification() {
	s.Run("known default resolver is public", func() {
		details, err := s.service.GetDomainDetails(context.Background(), "vitalik.eth")
		s.Require().NoError(err)
		s.Require().NotNil(details.ResolverType)
		s.Equal(models.ResolverTypePublic, *details.ResolverType)
	})

	s.Run("other resolver is custom", func() {
		s.SetupTest()
		s.chain.resolver = "0x000000000000000000000000000000000000dEaD"
		s.chain.records.ResolverAddress = s.chain.resolver

		details, err := s.service.GetDomainDetails(context.Background(), "vitalik.eth")
		s.Require().NoError(err)
		s.Require().NotNil(details.ResolverType)
		s.Equal(models.ResolverTypeCustom, *details.ResolverType)
	})

	s.Run("no resolver anywhere means absent type", func() {
		s.SetupTest()
		s.chain.resolver = ""
		s.chain.records.ResolverAddress = ""

		details, err := s.service.GetDomainDetails(context.Background(), "vitalik.eth")
		s.Require().NoError(err)
		s.Nil(details.ResolverAddress)
		s.Nil(details.ResolverType)
	})

	s.Run("direct resolver call wins over records resolver", func() {
		s.SetupTest()
		s.chain.resolver = "0x000000000000000000000000000000000000dEaD"
		s.chain.records.ResolverAddress = testPublicResolver

		details, err := s.service.GetDomainDetails(context.Background(), "vitalik.eth")
		s.Require().NoError(err)
		s.Require().NotNil(details.ResolverAddress)
		s.Equal("0x000000000000000000000000000000000000dEaD", *details.ResolverAddress)
	})
}

func (s *AggregatorSuite) TestWrapperData() {
	s.chain.wrapper = &provider.WrapperResult{Fuses: models.Fuses{
		Parent: map[string]bool{"PARENT_CANNOT_CONTROL": true},
		Child:  map[string]bool{"CANNOT_UNWRAP": true},
	}}

	details, err := s.service.GetDomainDetails(context.Background(), "vitalik.eth")
	s.Require().NoError(err)
	s.True(details.IsWrapped)
	s.Require().NotNil(details.Fuses)
	s.True(details.Fuses.Parent["PARENT_CANNOT_CONTROL"])
	s.True(details.Fuses.Child["CANNOT_UNWRAP"])
}

func (s *AggregatorSuite) TestAbiRecord() {
	s.Run("valid json parses", func() {
		s.chain.abi = &provider.AbiResult{ContentType: 1, Decoded: `[{"type":"function","name":"ping"}]`}

		details, err := s.service.GetDomainDetails(context.Background(), "vitalik.eth")
		s.Require().NoError(err)
		s.Require().NotNil(details.AbiRecord)
		s.Equal(uint64(1), details.AbiRecord.ContentType)
		s.NotNil(details.AbiRecord.Parsed)
	})

	s.Run("parse failure keeps raw string", func() {
		s.SetupTest()
		s.chain.abi = &provider.AbiResult{ContentType: 1, Decoded: `{not json`}

		details, err := s.service.GetDomainDetails(context.Background(), "vitalik.eth")
		s.Require().NoError(err)
		s.Require().NotNil(details.AbiRecord)
		s.Equal(`{not json`, details.AbiRecord.Decoded)
		s.Nil(details.AbiRecord.Parsed)
	})
}

func (s *AggregatorSuite) TestRecordsCallUsesAllowList() {
	_, err := s.service.GetDomainDetails(context.Background(), "vitalik.eth")
	s.Require().NoError(err)
	s.Contains(s.chain.recordsTextKeys, "name")
	s.Contains(s.chain.recordsTextKeys, "com.twitter")
	s.Contains(s.chain.recordsTextKeys, "org.telegram")
	s.NotContains(s.chain.recordsTextKeys, "com.example")
}
