// Package extensions reads and edits the vendor-extension facets of a
// single operation: x-route-aliases, x-custom-tags and x-permissions.
//
// Every function is stateless. Mutators never modify the operation they are
// given; they return a shallow copy with only the targeted field replaced,
// or the input pointer itself when the call is a no-op. Persisting a change
// into a document is up to the caller (see spec.Document.ReplaceOperation).
package extensions
