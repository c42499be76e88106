// Package exec is the single entry point for turning assembly text into
// machine-code bytes.
//
// An [Exec] locates an LLVM toolchain once, builds an [assemble.Assembler]
// around it, and publishes the assembler as tools in a tooldiscovery index so
// that the same operation can be found by search, described with docs, and
// invoked by tool ID.
//
// # Basic Usage
//
//	e, err := exec.New(ctx, exec.Options{})
//	if err != nil {
//	    return err
//	}
//	b, err := e.Bingen(ctx, "aarch64-linux-eabi", "mrs x0, DBGDTR_EL0")
//	// b == []byte{0, 4, 51, 213}
//
// # Tools
//
// Two tools are registered in the index under the "bingen" namespace:
//
//   - bingen:assemble takes {triple, source, format} and returns
//     {bytes, hex, literal}
//   - bingen:locate takes no arguments and returns the toolchain paths
//
//	res, err := e.RunTool(ctx, exec.AssembleToolID, map[string]any{
//	    "triple": "x86_64-unknown-linux-gnu",
//	    "source": "xorl %eax, %eax",
//	})
//
// Additional local tools registered in the same index can be served by
// passing handlers in [Options.LocalHandlers].
//
// # Integration
//
//   - [github.com/jonwraymond/tooldiscovery/index] for tool registration and lookup
//   - [github.com/jonwraymond/tooldiscovery/tooldoc] for tool documentation
//   - [github.com/jonwraymond/toolfoundation/model] for tool and backend types
package exec
