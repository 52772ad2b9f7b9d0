// Package domain maps MCP tool calls and resource reads onto the roller gRPC
// API and shapes its replies into structured MCP output.
package domain
