package testutil

import "github.com/zjrosen/intreg/internal/registry/domain"

// Well-known identities shared across tests.
var (
	Owner    = domain.MustParseAddress("0x00000000000000000000000000000000000000ad")
	Stranger = domain.MustParseAddress("0x0000000000000000000000000000000000000bad")

	ModuleX = domain.MustParseAddress("0x1111111111111111111111111111111111111111")
	Module1 = domain.MustParseAddress("0x1111111111111111111111111111111111111112")
	Module2 = domain.MustParseAddress("0x1111111111111111111111111111111111111113")

	AdapterA = domain.MustParseAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	AdapterB = domain.MustParseAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	Adapter1 = domain.MustParseAddress("0xa1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1")
	Adapter2 = domain.MustParseAddress("0xa2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a2")
)

// WithStandardBindings adds the standard dataset: two adapters under
// ModuleX and one under Module1.
func (b *Builder) WithStandardBindings() *Builder {
	return b.
		WithBinding(ModuleX, "COMPOUND", AdapterA).
		WithBinding(ModuleX, "KYBER", AdapterB).
		WithBinding(Module1, "COMPOUND", Adapter1)
}
