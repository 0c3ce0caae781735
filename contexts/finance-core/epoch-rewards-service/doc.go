// Package epochrewards implements the epoch reward pool ledger.
//
// The module distributes a shared pool of value to registered beneficiaries
// once per epoch. Each beneficiary holds a fixed-point percentage share,
// capped by a global maximum, and may claim exactly once per (epoch, user)
// pair. Rewards are computed against the balance snapshotted when the epoch
// opened, while sufficiency is checked against the live pool balance.
//
// Layering:
// - domain: entities, fixed-point reward math, errors
// - application: the serialized ledger service and outbox relay worker
// - ports: persistence, treasury, authorizer, outbox, clock boundaries
// - adapters: memory, postgres, and HTTP implementations
// - transport: module-private DTOs for HTTP contracts
//
// Boundary notes:
// - The live pool balance is owned by the treasury collaborator, not this
//   module; it is re-read before every sufficiency check.
// - Keep this module self-contained under the finance-core context.
package epochrewards
