// Package project models a build description as a tree of scopes (global
// defaults, solution, projects), each owning an ordered list of conditional
// blocks, and resolves that tree into one merged configuration per target.
//
// A tree is built single-threaded by a manifest loader. Once built it is
// treated as read-only, which is what makes Resolve and ResolveAll safe to
// call from many goroutines without locking.
package project
