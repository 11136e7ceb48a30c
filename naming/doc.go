// Package naming implements the hierarchical name tree that assigns every
// instrumented element a unique dotted path, and the registry that fans
// registration events out to observers.
//
// # Nodes
//
// A Node is one path segment. Nodes form a tree: each node owns a map from
// child segment to child node, sibling names are unique, and the full path
// is derived by joining segments with "." from the root. Container members
// use an indexed segment ("particles_3") built with MemberName. A node is
// instrumented only when its name was actually supplied by a call site;
// required-but-unsupplied names surface through the registry's
// missing-name policy instead of crashing, so audit tooling can enumerate
// every uninstrumented object in one run.
//
// # Registration
//
// Registry buffers registrations until Launch is called once, then flushes
// the buffer in FIFO order and delivers everything afterwards
// synchronously on the calling stack. This solves startup ordering:
// elements constructed during module initialization register before any
// listener is ready to observe them.
package naming
