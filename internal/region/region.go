package region

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"
)

const (
	// MarketOther is the catch-all pricing market
	MarketOther = "Other"
	// CountryUnknown is reported when no country can be derived from the number
	CountryUnknown = "UNKNOWN"

	unknownRegion = "ZZ"
)

// Region is the pricing location of a recipient
type Region struct {
	Market      string `json:"market"`
	CountryCode string `json:"country_code"`
}

// Unknown is what Resolve falls back to
var Unknown = Region{Market: MarketOther, CountryCode: CountryUnknown}

// Resolver maps recipient phone numbers to pricing markets
type Resolver struct {
	markets map[int]string
	buckets map[int]string
}

// NewResolver returns a resolver over the built in market tables
func NewResolver() *Resolver {
	return &Resolver{
		markets: marketsByCallingCode,
		buckets: bucketsByCallingCode,
	}
}

// Resolve never fails, unrecognised numbers land in Unknown
func (r *Resolver) Resolve(phone string) Region {
	digits := Digits(phone)
	if digits == "" {
		return Unknown
	}

	callingCode, country := r.callingCode(digits)
	if callingCode == 0 {
		return Unknown
	}

	if country == "" || country == unknownRegion {
		country = CountryUnknown
	}

	if market, ok := r.markets[callingCode]; ok {
		return Region{Market: market, CountryCode: country}
	}
	if bucket, ok := r.buckets[callingCode]; ok {
		return Region{Market: bucket, CountryCode: country}
	}
	return Region{Market: MarketOther, CountryCode: country}
}

// callingCode parses the number and falls back to matching its leading digits
func (r *Resolver) callingCode(digits string) (int, string) {
	num, err := phonenumbers.Parse("+"+digits, "")
	if err == nil && num.GetCountryCode() != 0 {
		return int(num.GetCountryCode()), phonenumbers.GetRegionCodeForNumber(num)
	}

	for _, n := range []int{3, 2, 1} {
		if len(digits) < n {
			continue
		}
		code, convErr := strconv.Atoi(digits[:n])
		if convErr != nil || code == 0 {
			continue
		}
		if r.known(code) {
			return code, phonenumbers.GetRegionCodeForCountryCode(code)
		}
	}
	return 0, ""
}

func (r *Resolver) known(code int) bool {
	if _, ok := r.markets[code]; ok {
		return true
	}
	if _, ok := r.buckets[code]; ok {
		return true
	}
	return phonenumbers.GetRegionCodeForCountryCode(code) != unknownRegion
}

// Digits strips everything but 0-9, so "+55 (11) 99999-8888" becomes "5511999998888"
func Digits(phone string) string {
	var b strings.Builder
	b.Grow(len(phone))
	for _, c := range phone {
		if c <= unicode.MaxASCII && unicode.IsDigit(c) {
			b.WriteRune(c)
		}
	}
	return b.String()
}
