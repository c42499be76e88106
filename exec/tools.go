package exec

import (
	"context"
	"fmt"

	"github.com/jonwraymond/tooldiscovery/index"
	"github.com/jonwraymond/tooldiscovery/search"
	"github.com/jonwraymond/tooldiscovery/tooldoc"
	"github.com/jonwraymond/toolfoundation/model"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jonwraymond/bingen/assemble"
	"github.com/jonwraymond/bingen/render"
)

// Tool identity.
const (
	Namespace = "bingen"

	AssembleToolName = "assemble"
	LocateToolName   = "locate"

	AssembleToolID = Namespace + ":" + AssembleToolName
	LocateToolID   = Namespace + ":" + LocateToolName
)

// Local backend names of the bingen tools.
const (
	handlerAssemble = "bingen-assemble"
	handlerLocate   = "bingen-locate"
)

func newIndex() index.Index {
	return index.NewInMemoryIndex(index.IndexOptions{
		Searcher: search.NewBM25Searcher(search.BM25Config{}),
	})
}

// AssembleTool returns the catalog entry for bingen:assemble.
func AssembleTool() model.Tool {
	return model.Tool{
		Tool: mcp.Tool{
			Name:        AssembleToolName,
			Description: "Assemble a snippet of assembly text for an LLVM target triple into raw machine-code bytes",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"triple": map[string]any{
						"type":        "string",
						"description": "LLVM target triple, e.g. aarch64-linux-eabi",
					},
					"source": map[string]any{
						"type":        "string",
						"description": "Assembly text in the target's syntax; the C preprocessor runs first",
					},
					"format": map[string]any{
						"type":        "string",
						"enum":        []any{"list", "slice", "array"},
						"description": "Shape of the returned literal",
					},
				},
				"required": []any{"triple", "source"},
			},
		},
		Namespace: Namespace,
		Tags:      model.NormalizeTags([]string{"assembler", "llvm", "clang", "machine-code", "bytes"}),
	}
}

// LocateTool returns the catalog entry for bingen:locate.
func LocateTool() model.Tool {
	return model.Tool{
		Tool: mcp.Tool{
			Name:        LocateToolName,
			Description: "Report the clang and llvm-objcopy executables used for assembly",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
		Namespace: Namespace,
		Tags:      model.NormalizeTags([]string{"toolchain", "llvm", "clang", "objcopy"}),
	}
}

var assembleDoc = tooldoc.DocEntry{
	Summary: "Assembles text for one target triple and returns the flat binary image.",
	Notes: "Runs clang -target TRIPLE -xassembler-with-cpp followed by llvm-objcopy -O binary. " +
		"Only the raw bytes of the object's sections are returned; symbols and relocations are dropped. " +
		"Set BINGEN_CLANG_PATH and BINGEN_OBJCOPY_PATH together to pin the toolchain.",
	Examples: []tooldoc.ToolExample{
		{
			Title: "AArch64 debug register read",
			Args:  map[string]any{"triple": "aarch64-linux-eabi", "source": "mrs x0, DBGDTR_EL0"},
		},
		{
			Title: "x86-64 register clear as a Go array",
			Args:  map[string]any{"triple": "x86_64-unknown-linux-gnu", "source": "xorl %eax, %eax", "format": "array"},
		},
	},
}

var locateDoc = tooldoc.DocEntry{
	Summary: "Shows which toolchain bingen resolved and how it was found.",
	Notes:   "The environment override wins when set; otherwise Homebrew LLVM on macOS or a versioned PATH probe elsewhere. There is no fallback between host strategies.",
	Examples: []tooldoc.ToolExample{
		{Title: "Show toolchain", Args: map[string]any{}},
	},
}

// docRegistrar is implemented by stores that accept new documentation,
// such as *tooldoc.InMemoryStore.
type docRegistrar interface {
	RegisterDoc(id string, entry tooldoc.DocEntry) error
}

// register publishes the bingen tools and their docs.
func (e *Exec) register() error {
	tools := []struct {
		tool    model.Tool
		handler string
		doc     tooldoc.DocEntry
	}{
		{AssembleTool(), handlerAssemble, assembleDoc},
		{LocateTool(), handlerLocate, locateDoc},
	}

	reg, canDoc := e.docs.(docRegistrar)
	for _, t := range tools {
		id := t.tool.Namespace + ":" + t.tool.Name
		if err := e.index.RegisterTool(t.tool, model.NewLocalBackend(t.handler)); err != nil {
			return fmt.Errorf("register %s: %w", id, err)
		}
		if !canDoc {
			continue
		}
		if err := reg.RegisterDoc(id, t.doc); err != nil {
			return fmt.Errorf("register doc %s: %w", id, err)
		}
	}
	return nil
}

func (e *Exec) assembleHandler(ctx context.Context, args map[string]any) (any, error) {
	triple, err := stringArg(args, "triple", true)
	if err != nil {
		return nil, err
	}
	source, err := stringArg(args, "source", true)
	if err != nil {
		return nil, err
	}
	format, err := stringArg(args, "format", false)
	if err != nil {
		return nil, err
	}
	return e.assembleOutput(ctx, triple, source, format)
}

// assembleOutput assembles and renders the result in every shape the tools
// report.
func (e *Exec) assembleOutput(ctx context.Context, triple, source, format string) (AssembleOutput, error) {
	f := render.FormatList
	if format != "" {
		var err error
		if f, err = render.ParseFormat(format); err != nil {
			return AssembleOutput{}, fmt.Errorf("%w: %v", ErrInvalidArgs, err)
		}
	}
	res, err := e.asm.Assemble(ctx, assemble.Request{Triple: triple, Source: source})
	if err != nil {
		return AssembleOutput{}, err
	}
	ints := make([]int, len(res.Bytes))
	for i, b := range res.Bytes {
		ints[i] = int(b)
	}
	return AssembleOutput{
		Bytes:   ints,
		Hex:     render.Hex(res.Bytes),
		Literal: render.Literal(res.Bytes, f),
		raw:     res.Bytes,
	}, nil
}

func (e *Exec) locateHandler(_ context.Context, _ map[string]any) (any, error) {
	tc := e.asm.Toolchain()
	return LocateOutput{Compiler: tc.Compiler, ObjCopy: tc.ObjCopy, Source: tc.Source}, nil
}

// stringArg reads a string argument. The source argument may legitimately be
// empty, so required only checks presence.
func stringArg(args map[string]any, key string, required bool) (string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		if required {
			return "", fmt.Errorf("%w: %q is required", ErrInvalidArgs, key)
		}
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %q must be a string, got %T", ErrInvalidArgs, key, v)
	}
	return s, nil
}
