// Package mcpserver exposes docexec to MCP clients.
//
// The server offers three tools:
//
//   - run_document runs a document held in the request and returns its
//     outcomes and failures
//   - search_tools searches the host tools snippets can call
//   - list_languages lists the code-block languages the engine accepts
//
// Serve it over stdio with [Server.Run], or connect it to any transport
// through Server.MCPServer.
package mcpserver
