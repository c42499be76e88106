package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonwraymond/bingen/exec"
	"github.com/jonwraymond/bingen/internal/llvmtest"
	"github.com/jonwraymond/bingen/toolchain"
)

// useFakeToolchain points newExec at the scripted toolchain for one test.
func useFakeToolchain(t *testing.T) {
	t.Helper()
	orig := newExec
	t.Cleanup(func() { newExec = orig })
	newExec = func(ctx context.Context, opts exec.Options) (*exec.Exec, error) {
		tc := llvmtest.Toolchain
		opts.Toolchain = &tc
		opts.Runner = &llvmtest.Runner{}
		return orig(ctx, opts)
	}
}

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestAsm(t *testing.T) {
	useFakeToolchain(t)
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"asm", "-target", "aarch64-linux-eabi", "mrs x0, DBGDTR_EL0"}, "[0, 4, 51, 213]\n"},
		{[]string{"asm", "-target", "arm-linux-eabi", "-format", "slice", "mov r0, r1"}, "[]byte{0x01, 0x00, 0xa0, 0xe1}\n"},
		{[]string{"asm", "-target", "x86_64-unknown-linux-gnu", "-mode", "stream", "-format", "array", "xorl %eax, %eax"}, "[2]byte{0x31, 0xc0}\n"},
	}
	for _, tc := range tests {
		t.Run(strings.Join(tc.args, " "), func(t *testing.T) {
			code, out, errOut := runCLI(t, "", tc.args...)
			if code != 0 {
				t.Fatalf("exit = %d, stderr = %s", code, errOut)
			}
			if out != tc.want {
				t.Errorf("stdout = %q, want %q", out, tc.want)
			}
		})
	}
}

func TestAsmStdin(t *testing.T) {
	useFakeToolchain(t)
	code, out, errOut := runCLI(t, "mov x0, 40", "asm", "-target", "aarch64-linux-eabi", "-")
	if code != 0 {
		t.Fatalf("exit = %d, stderr = %s", code, errOut)
	}
	if out != "[0, 5, 128, 210]\n" {
		t.Errorf("stdout = %q", out)
	}
}

func TestAsmFailure(t *testing.T) {
	useFakeToolchain(t)
	code, out, errOut := runCLI(t, "", "asm", "-target", "bogus", "nop")
	if code != 1 {
		t.Errorf("exit = %d, want 1", code)
	}
	if out != "" {
		t.Errorf("stdout = %q, want empty", out)
	}
	if !strings.Contains(errOut, "unknown target triple") {
		t.Errorf("stderr = %q, want toolchain diagnostic", errOut)
	}
}

func TestUsageErrors(t *testing.T) {
	useFakeToolchain(t)
	for _, args := range [][]string{
		nil,
		{"frobnicate"},
		{"asm", "nop"},
		{"asm", "-target", "t", "a", "b"},
		{"asm", "-bogus"},
		{"gen"},
	} {
		if code, _, _ := runCLI(t, "", args...); code != exitUsage {
			t.Errorf("run(%q) exit = %d, want %d", args, code, exitUsage)
		}
	}
}

func TestBadMode(t *testing.T) {
	useFakeToolchain(t)
	code, _, errOut := runCLI(t, "", "asm", "-target", "arm-linux-eabi", "-mode", "pipe", "mov r0, r1")
	if code != 1 || !strings.Contains(errOut, "pipe") {
		t.Errorf("exit = %d, stderr = %q", code, errOut)
	}
}

const genInput = `package regs

//go:generate bingen gen $GOFILE

//bingen:asm mrs-dbg aarch64-linux-eabi "mrs x0, DBGDTR_EL0"
//bingen:asm clearEAX x86_64-unknown-linux-gnu "xorl %eax, %eax"
`

func TestGen(t *testing.T) {
	useFakeToolchain(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "regs.go")
	if err := os.WriteFile(in, []byte(genInput), 0o600); err != nil {
		t.Fatal(err)
	}

	code, _, errOut := runCLI(t, "", "gen", in)
	if code != 0 {
		t.Fatalf("exit = %d, stderr = %s", code, errOut)
	}
	out, err := os.ReadFile(filepath.Join(dir, "regs_bingen.go"))
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	for _, want := range []string{
		"// Code generated by bingen gen. DO NOT EDIT.",
		"package regs",
		"var MrsDbg = []byte{0x00, 0x04, 0x33, 0xd5}",
		"var ClearEAX = []byte{0x31, 0xc0}",
	} {
		if !strings.Contains(string(out), want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestGenOptions(t *testing.T) {
	useFakeToolchain(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "regs.go")
	if err := os.WriteFile(in, []byte(genInput), 0o600); err != nil {
		t.Fatal(err)
	}
	target := filepath.Join(dir, "custom.go")

	code, _, errOut := runCLI(t, "", "gen", "-o", target, "-pkg", "other", "-format", "array", in)
	if code != 0 {
		t.Fatalf("exit = %d, stderr = %s", code, errOut)
	}
	out, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "package other") || !strings.Contains(string(out), "[2]byte{0x31, 0xc0}") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestGenFailureNamesDirective(t *testing.T) {
	useFakeToolchain(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "bad.go")
	src := "package bad\n\n//bingen:asm broken aarch64-linux-eabi \"not an instruction\"\n"
	if err := os.WriteFile(in, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}

	code, _, errOut := runCLI(t, "", "gen", in)
	if code != 1 {
		t.Errorf("exit = %d, want 1", code)
	}
	if !strings.Contains(errOut, "bad.go:3:1: broken:") {
		t.Errorf("stderr = %q, want directive position", errOut)
	}
	if _, err := os.Stat(filepath.Join(dir, "bad_bingen.go")); !os.IsNotExist(err) {
		t.Error("output written despite failure")
	}
}

func TestGenNoDirectives(t *testing.T) {
	useFakeToolchain(t)
	in := filepath.Join(t.TempDir(), "empty.go")
	if err := os.WriteFile(in, []byte("package empty\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if code, _, errOut := runCLI(t, "", "gen", in); code != 1 || !strings.Contains(errOut, "no //bingen:asm directives") {
		t.Errorf("exit = %d, stderr = %q", code, errOut)
	}
}

func TestLocate(t *testing.T) {
	useFakeToolchain(t)
	code, out, errOut := runCLI(t, "", "locate")
	if code != 0 {
		t.Fatalf("exit = %d, stderr = %s", code, errOut)
	}
	if !strings.Contains(out, "compiler: "+llvmtest.Toolchain.Compiler) || !strings.Contains(out, llvmtest.Toolchain.ObjCopy) {
		t.Errorf("stdout = %q", out)
	}
}

func TestTools(t *testing.T) {
	useFakeToolchain(t)
	code, out, errOut := runCLI(t, "", "tools", "-q", "assemble machine code")
	if code != 0 {
		t.Fatalf("exit = %d, stderr = %s", code, errOut)
	}
	if !strings.Contains(out, exec.AssembleToolID) {
		t.Errorf("stdout = %q, want %s", out, exec.AssembleToolID)
	}

	code, out, errOut = runCLI(t, "", "tools", "-doc", exec.AssembleToolID)
	if code != 0 {
		t.Fatalf("exit = %d, stderr = %s", code, errOut)
	}
	if !strings.Contains(out, "flat binary image") || !strings.Contains(out, "example: ") {
		t.Errorf("stdout = %q", out)
	}
}

func TestToolsWithoutToolchain(t *testing.T) {
	// A half-set override makes discovery fail outright.
	t.Setenv(toolchain.EnvClangPath, "/nonexistent/clang")
	t.Setenv(toolchain.EnvObjCopyPath, "")
	os.Unsetenv(toolchain.EnvObjCopyPath)

	tests := [][]string{
		{"tools"},
		{"tools", "-q", "assemble"},
		{"tools", "-doc", exec.LocateToolID},
	}
	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			code, out, errOut := runCLI(t, "", args...)
			if code != 0 {
				t.Fatalf("exit = %d, stderr = %s", code, errOut)
			}
			if out == "" {
				t.Error("stdout is empty")
			}
		})
	}

	if code, _, _ := runCLI(t, "", "locate"); code == 0 {
		t.Error("locate succeeded with a half-set override")
	}
}
