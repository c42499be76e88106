// Package assemble turns assembly source text into raw machine-code bytes
// by driving an external clang-compatible compiler and an object-copy tool.
//
// The default [ModeFile] pipeline works in a private scratch directory:
//
//	clang -target <triple> -xassembler-with-cpp -o bingen.o -c bingen.S
//	llvm-objcopy -O binary bingen.o bingen.bin
//
// and returns the contents of bingen.bin. The directory is removed on every
// exit path. [ModeStream] feeds the source on the compiler's stdin and pipes
// its object output straight into the object-copy tool, with no files on
// disk. Both modes check every stage's exit status; a failing stage yields a
// [*ToolError] carrying the tool's captured stderr.
//
// Instruction encoding is entirely the toolchain's business: for a fixed
// toolchain the output is a pure function of (triple, source).
package assemble
