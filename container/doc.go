// Package container manages instrumented elements whose population is not
// fixed at startup, while keeping the declared API surface finite and
// diffable.
//
// Group holds an ordered, index-addressable population with monotonically
// issued, never-reused member indices. Capsule holds at most one member.
// Both can build an archetype at construction: a single non-dynamic
// instance registered under the reserved archetype child, existing solely
// to declare the member shape on the static API baseline.
//
// Creation and disposal notifications fire synchronously unless a batch is
// open (BeginBatch/CommitBatch); a commit flushes all queued creations
// before all queued disposals, each member exactly once.
package container
