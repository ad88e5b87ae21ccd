// Package workflow holds the in-memory workflow document: nodes,
// connections, positions, and literal input values.
//
// Every mutation is synchronous and total. A call either fully succeeds or
// is rejected with no change to the document, so the graph can be driven
// directly from UI input handlers without compensation logic. The package
// enforces the structural invariants (unique ids, valid socket references,
// one incoming connection per input, type-gated edges) against the node
// definitions in the catalog; it deliberately does not detect cycles
// beyond noting that self-loops are representable — the remote engine
// validates its own execution graphs.
package workflow
