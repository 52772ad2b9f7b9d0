// Package service runs the dice MCP server over stdio or HTTP and binds its
// tools and resources to a roller gRPC connection.
package service
