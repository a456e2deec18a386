package region

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type ResolverSuite struct {
	suite.Suite
	resolver *Resolver
}

func TestResolver(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) SetupTest() {
	s.resolver = NewResolver()
}

func (s *ResolverSuite) TestResolve() {
	tests := []struct {
		name    string
		phone   string
		market  string
		country string
	}{
		{
			name:    "brazil mobile without plus",
			phone:   "5511999998888",
			market:  "Brazil",
			country: "BR",
		},
		{
			name:    "formatted north american number",
			phone:   "+1 (415) 555-2671",
			market:  "North America",
			country: "US",
		},
		{
			name:    "united kingdom",
			phone:   "+44 20 7946 0958",
			market:  "United Kingdom",
			country: "GB",
		},
		{
			name:    "paraguay falls into latin america bucket",
			phone:   "595981123456",
			market:  BucketRestOfLatinAmerica,
			country: "PY",
		},
		{
			name:    "kenya falls into africa bucket",
			phone:   "254712345678",
			market:  BucketRestOfAfrica,
			country: "KE",
		},
		{
			name:    "empty",
			phone:   "",
			market:  MarketOther,
			country: CountryUnknown,
		},
		{
			name:    "no digits at all",
			phone:   "not-a-number",
			market:  MarketOther,
			country: CountryUnknown,
		},
		{
			name:    "unassigned calling code",
			phone:   "999123456",
			market:  MarketOther,
			country: CountryUnknown,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			got := s.resolver.Resolve(tt.phone)
			s.Equal(tt.market, got.Market)
			s.Equal(tt.country, got.CountryCode)
		})
	}
}

func (s *ResolverSuite) TestPrefixFallback() {
	// too short to parse, the leading digits still identify the market
	got := s.resolver.Resolve("55")
	s.Equal("Brazil", got.Market)
}

func (s *ResolverSuite) TestDigits() {
	s.Equal("5511999998888", Digits("+55 (11) 99999-8888"))
	s.Equal("", Digits("+"))
}
