// Package evidence contains the QC evidence bounded context.
//
// Key concepts:
//   - Item: one normalized photo record (warehouse QC, buyer photo, factory detail)
//   - Provider: port implemented by upstream adapters in the infrastructure layer
//   - Descriptor: static, declarative description of a provider (priority,
//     platforms, auth scheme, chain behaviour)
//   - Chain: the validated provider table the aggregator interprets
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in infrastructure/provider
package evidence
