// Package storage declares the persistence contracts of the marketplace and
// the sentinel errors both store implementations return.
package storage

// Storage is everything a store implementation provides. Services take the
// narrow interfaces they need; only main and the store packages refer to it.
type Storage interface {
	ApiStore
	SettlementStore
}
