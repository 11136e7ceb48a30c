// Package element provides the instrumentation capability embedded into
// runtime objects: a naming node, a type contract, API-surface metadata,
// event brackets, linked-element cross-references, and the
// initialize-at-most-once / dispose-once lifecycle.
//
// Elements without a supplied name are uninstrumented and silently no-op
// every registry-touching operation.
package element
