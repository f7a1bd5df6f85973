// Package listing contains the marketplace listing identity bounded context.
//
// Key concepts:
//   - Platform: the marketplace an item is listed on (Taobao, Weidian, 1688)
//   - Identity: the canonical (platform, item ID) pair every other context keys on
//   - Resolve: turns a raw link, agent link, or bare ID into an Identity
//
// Everything in this package is pure. Nothing here performs I/O, so the resolver
// is tested without network fakes.
package listing
