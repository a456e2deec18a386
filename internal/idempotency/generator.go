package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Scope names the kind of operation a key deduplicates
type Scope string

const (
	// ScopeInvoice keys the monthly invoice of a tenant
	ScopeInvoice Scope = "invoice"
)

// keyHashBytes is how much of the digest ends up in a key
const keyHashBytes = 8

// Generator derives deterministic keys, so a retried job finds the row its
// first attempt wrote
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Key hashes the ordered parts under scope. Parts are length prefixed so
// ("ab", "c") and ("a", "bc") never collide.
func (g *Generator) Key(scope Scope, parts ...string) string {
	h := sha256.New()
	h.Write([]byte(scope))
	for _, p := range parts {
		h.Write([]byte{byte(len(p) >> 8), byte(len(p))})
		h.Write([]byte(p))
	}
	sum := h.Sum(nil)

	var b strings.Builder
	b.WriteString(string(scope))
	b.WriteByte('-')
	b.WriteString(hex.EncodeToString(sum[:keyHashBytes]))
	return b.String()
}

// InvoiceKey is the key of the one invoice a tenant gets per billing period
func (g *Generator) InvoiceKey(tenantID, billingPeriod string) string {
	return g.Key(ScopeInvoice, tenantID, billingPeriod)
}
