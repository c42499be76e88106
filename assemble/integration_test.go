package assemble

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jonwraymond/bingen/toolchain"
)

// hostAssembler builds an Assembler on the host toolchain, skipping the test
// when none is installed.
func hostAssembler(t *testing.T, mode Mode) *Assembler {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping host toolchain test in short mode")
	}
	tc, err := toolchain.Locate(context.Background(), toolchain.Config{})
	if err != nil {
		t.Skipf("no host toolchain: %v", err)
	}
	a, err := New(Config{Toolchain: tc, Mode: mode, TempDir: t.TempDir()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return a
}

func TestHostToolchainEncodings(t *testing.T) {
	tests := []struct {
		triple string
		source string
		want   []byte
	}{
		{"aarch64-linux-eabi", "mrs x0, DBGDTR_EL0", []byte{0, 4, 51, 213}},
		{"aarch64-linux-eabi", "mov x0, 40", []byte{0, 5, 128, 210}},
		{"arm-linux-eabi", "mov r0, r1", []byte{1, 0, 160, 225}},
		{"x86_64-unknown-linux-gnu", "xorl %eax, %eax", []byte{49, 192}},
	}
	for _, mode := range []Mode{ModeFile, ModeStream} {
		a := hostAssembler(t, mode)
		for _, tc := range tests {
			t.Run(mode.String()+"/"+tc.triple+"/"+tc.source, func(t *testing.T) {
				res, err := a.Assemble(context.Background(), Request{Triple: tc.triple, Source: tc.source})
				if err != nil {
					t.Fatalf("Assemble() error = %v", err)
				}
				if !bytes.Equal(res.Bytes, tc.want) {
					t.Errorf("Assemble() = %v, want %v", res.Bytes, tc.want)
				}
			})
		}
	}
}

func TestHostToolchainFailures(t *testing.T) {
	tests := []Request{
		{Triple: "not-a-real-triple-at-all", Source: "nop"},
		{Triple: "x86_64-unknown-linux-gnu", Source: "this is not an instruction"},
	}
	for _, mode := range []Mode{ModeFile, ModeStream} {
		a := hostAssembler(t, mode)
		for _, req := range tests {
			_, err := a.Assemble(context.Background(), req)
			if !errors.Is(err, ErrToolFailed) {
				t.Errorf("%s: Assemble(%+v) error = %v, want ErrToolFailed", mode, req, err)
				continue
			}
			if strings.TrimSpace(err.Error()) == "" {
				t.Errorf("%s: Assemble(%+v) returned an empty diagnostic", mode, req)
			}
		}
	}
}
