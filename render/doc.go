// Package render formats assembled bytes for embedding in source code.
//
// [Literal] renders a single byte sequence in one of three shapes:
//
//	FormatList   [0, 4, 51, 213]
//	FormatSlice  []byte{0x00, 0x04, 0x33, 0xd5}
//	FormatArray  [4]byte{0x00, 0x04, 0x33, 0xd5}
//
// [File] renders a complete, gofmt-formatted Go source file with one
// variable per assembled snippet, suitable as `go generate` output.
package render
