package server

// DocumentToolServer defines the interface for the MCP server that handles
// document and summary tool calls from MCP clients.
type DocumentToolServer interface {
	// Initialize registers the tools.
	Initialize() error

	// Start starts serving tool calls.
	Start() error

	// Stop gracefully shuts down the MCP server.
	Stop() error
}
