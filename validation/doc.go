// Package validation enforces the API contract over registry traffic: type
// display names stay unique, the static surface closes at startup
// completion, static elements are never deregistered, and dynamic elements
// conform to their container's archetype. It also diffs the sparse
// overrides document against the frozen baseline.
//
// Every failure passes through one funnel that logs a structured record,
// counts the violation, and retains it for Err. A disabled validator skips
// all checks silently.
package validation
