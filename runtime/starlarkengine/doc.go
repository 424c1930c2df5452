// Package starlarkengine implements code.Engine with an embedded Starlark
// interpreter (go.starlark.net).
//
// Blocks of one namespace share a single live scope. Each top-level
// statement is compiled on its own, and names it does not bind itself are
// looked up in that scope when they are read. A function defined in one block
// therefore sees later rebindings, and its body may name something a later
// block defines. Nothing is frozen between blocks. Helper modules are
// available under these names unless the namespace already binds them:
//
//	assert   eq, ne, true, contains, fails
//	json     go.starlark.net/lib/json
//	math     go.starlark.net/lib/math
//	time     go.starlark.net/lib/time
//	struct   starlarkstruct constructor
//	tools    host tools: search, namespaces, describe, examples, run
//
// Helper modules are never written back into the namespace unless a block
// rebinds the name itself. print output goes to the captured stdout.
//
// Positions in errors are document lines: the engine offsets the chunk by
// ExecuteParams.FirstLine before parsing.
package starlarkengine
