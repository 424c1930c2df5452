// Package suite composes region extensions into one pipeline and runs it
// over documents.
//
// A [Suite] holds an ordered list of [Extension] values. Parsing offers the
// whole document to every extension in registration order, so earlier
// extensions get first refusal on a span. Running visits every region in
// document order and offers it to every extension in registration order;
// each extension decides for itself whether the region is its own.
//
// The suite interprets nothing. Test outcomes come from what extensions
// record on regions (a *code.BlockResult in Region.Evaluated) and failures
// come from the errors they return. By default the first failure stops the
// document; [WithKeepGoing] records it and moves on to the next region.
package suite
