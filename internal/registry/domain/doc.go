// Package domain provides the pure domain layer for the integration registry.
//
// The registry binds a (module, adapter name) pair to an adapter address:
//   - Address and NameHash are fixed-width identifiers; the zero Address is the
//     null identifier meaning "no binding"
//   - adapter names are hashed once (Keccak-256) and the hash is the storage key
//   - Controller and Authorizer are the collaborators consulted before mutations
//   - BindingRepository and EventRepository abstract persistence
//
// The domain layer has no knowledge of databases, caches or transports.
package domain
