// Package catalog holds the static node-definition registry.
//
// A NodeDefinition is the reusable template for a kind of computation node:
// it declares the node's typed input and output sockets, socket defaults,
// and display metadata. Workflows reference definitions by their type key;
// the graph layer validates every mutation against this catalog.
//
// Definitions come from HCL manifest files loaded once during application
// startup. After loading, the registry is read-only and safe to share
// across concurrent readers.
package catalog
