// Package server exposes an [exec.Exec] as a Model Context Protocol server.
//
// Two tools are served:
//
//   - assemble: {triple, source, format} to {bytes, hex, literal}
//   - locate: no input, reports the toolchain paths
//
// Assembly failures are reported as tool results with IsError set and the
// toolchain diagnostic as text content, so a client sees why clang or
// llvm-objcopy rejected the input.
//
//	srv := server.New(e, server.Options{})
//	err := server.Run(ctx, srv, &mcp.StdioTransport{})
package server
