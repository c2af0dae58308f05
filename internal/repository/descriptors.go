package repository

import "github.com/finmax/ledger/internal/engine"

// Descriptors returns every entity descriptor. The engine needs the full set
// registered to resolve the target entity when reverting a change.
func Descriptors() []engine.Descriptor {
	return []engine.Descriptor{
		usersDescriptor,
		accountsDescriptor,
		methodsDescriptor,
		categoriesDescriptor,
		payeesDescriptor,
		subscriptionsDescriptor,
		transactionsDescriptor,
		iconsDescriptor,
	}
}
