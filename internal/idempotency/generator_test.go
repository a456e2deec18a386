package idempotency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceKeyIsStable(t *testing.T) {
	g := NewGenerator()

	first := g.InvoiceKey("tenant_1", "2026-02")
	assert.Equal(t, first, g.InvoiceKey("tenant_1", "2026-02"))
	assert.Equal(t, first, g.Key(ScopeInvoice, "tenant_1", "2026-02"))
	assert.Regexp(t, `^invoice-[0-9a-f]{16}$`, first)

	assert.NotEqual(t, first, g.InvoiceKey("tenant_1", "2026-03"))
	assert.NotEqual(t, first, g.InvoiceKey("tenant_2", "2026-02"))
}

func TestKeyPartsDoNotRunTogether(t *testing.T) {
	g := NewGenerator()

	require.NotEqual(t, g.Key(ScopeInvoice, "ab", "c"), g.Key(ScopeInvoice, "a", "bc"))
	require.NotEqual(t, g.Key(ScopeInvoice, "tenant"), g.Key(ScopeInvoice, "tenant", ""))
}
