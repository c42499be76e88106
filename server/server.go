package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jonwraymond/bingen/exec"
)

// Default implementation identity.
const (
	DefaultName    = "bingen"
	DefaultVersion = "0.1.0"
)

// Logger is the interface for logging.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: logging must be best-effort and must not panic.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Options configures the MCP server.
type Options struct {
	// Name reported during initialization.
	// Default: "bingen"
	Name string

	// Version reported during initialization.
	// Default: DefaultVersion
	Version string

	// Logger is an optional logger for tool calls.
	Logger Logger
}

func (o *Options) applyDefaults() {
	if o.Name == "" {
		o.Name = DefaultName
	}
	if o.Version == "" {
		o.Version = DefaultVersion
	}
}

// LocateInput is the (empty) argument shape of the locate tool.
type LocateInput struct{}

type handlers struct {
	exec   *exec.Exec
	logger Logger
}

// New returns an MCP server serving e's tools.
func New(e *exec.Exec, opts Options) *mcp.Server {
	opts.applyDefaults()
	h := &handlers{exec: e, logger: opts.Logger}

	srv := mcp.NewServer(&mcp.Implementation{Name: opts.Name, Version: opts.Version}, nil)

	at := exec.AssembleTool()
	mcp.AddTool(srv, &mcp.Tool{
		Name:        at.Name,
		Description: at.Description,
	}, h.assemble)

	lt := exec.LocateTool()
	mcp.AddTool(srv, &mcp.Tool{
		Name:        lt.Name,
		Description: lt.Description,
	}, h.locate)

	return srv
}

// Handler errors reach the client as IsError results carrying err's text.
func (h *handlers) assemble(ctx context.Context, _ *mcp.CallToolRequest, in exec.AssembleInput) (*mcp.CallToolResult, exec.AssembleOutput, error) {
	args := map[string]any{"triple": in.Triple, "source": in.Source}
	if in.Format != "" {
		args["format"] = in.Format
	}
	res, err := h.exec.RunTool(ctx, exec.AssembleToolID, args)
	if err != nil {
		if h.logger != nil {
			h.logger.Warn("assemble failed", "triple", in.Triple, "error", err)
		}
		return nil, exec.AssembleOutput{}, err
	}
	out, ok := res.Value.(exec.AssembleOutput)
	if !ok {
		return nil, exec.AssembleOutput{}, fmt.Errorf("assemble returned %T", res.Value)
	}
	if h.logger != nil {
		h.logger.Info("assembled", "triple", in.Triple, "bytes", len(out.Bytes), "duration", res.Duration)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: out.Literal}},
	}, out, nil
}

func (h *handlers) locate(ctx context.Context, _ *mcp.CallToolRequest, _ LocateInput) (*mcp.CallToolResult, exec.LocateOutput, error) {
	res, err := h.exec.RunTool(ctx, exec.LocateToolID, nil)
	if err != nil {
		return nil, exec.LocateOutput{}, err
	}
	out, ok := res.Value.(exec.LocateOutput)
	if !ok {
		return nil, exec.LocateOutput{}, fmt.Errorf("locate returned %T", res.Value)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{
			Text: fmt.Sprintf("compiler=%s objcopy=%s source=%s", out.Compiler, out.ObjCopy, out.Source),
		}},
	}, out, nil
}

// Run serves srv on transport until the client disconnects or ctx is done.
// A cancelled context is not reported as an error.
func Run(ctx context.Context, srv *mcp.Server, transport mcp.Transport) error {
	err := srv.Run(ctx, transport)
	if err != nil && errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
