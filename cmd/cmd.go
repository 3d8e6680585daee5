// Package cmd implements the single-executable CLI surface of §6: one
// command with a -t/--type output selector, driving the parser, printer,
// and translate.Module façade, shelling out to the system assembler/linker
// for the asm/obj pipeline stages the way the teacher's compiler.Build
// shells out to `go build` (compiler/compiler.go).
package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/rubiojr/scopc/ast"
	"github.com/rubiojr/scopc/errs"
	"github.com/rubiojr/scopc/parser"
	"github.com/rubiojr/scopc/translate"
)

// Execute runs the scopc CLI with the given version string.
func Execute(version string) {
	cmd := &cli.Command{
		Name:                   "scopc",
		Usage:                  "Whole-program compiler for the scopc expression language",
		Version:                version,
		UseShortOptionHandling: true,
		ArgsUsage:              "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "type",
				Aliases: []string{"t"},
				Usage:   "Output type: ast, ir, asm, or obj",
				Value:   "obj",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output path ('-' for stdout)",
				Value:   "a.out",
			},
			&cli.StringFlag{
				Name:    "arch",
				Aliases: []string{"a"},
				Usage:   "Target triple",
				Value:   hostTriple(),
			},
			&cli.IntFlag{
				Name:    "optimize",
				Aliases: []string{"O"},
				Usage:   "Optimization level (1-3)",
				Value:   0,
			},
		},
		Action: compileAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, formatError(err))
		os.Exit(1)
	}
}

func compileAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() < 1 {
		return fmt.Errorf("usage: scopc [-t ast|ir|asm|obj] [-o output] [-a arch] [-O level] <file>")
	}
	src := cmd.Args().First()
	outputType := cmd.String("type")
	output := cmd.String("output")
	arch := cmd.String("arch")
	level := int(cmd.Int("optimize"))

	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("reading %s: %w", src, err)
	}

	program, err := parser.Parse(src, string(data))
	if err != nil {
		return err
	}

	if outputType == "ast" {
		return writeOutput(output, ast.Dump(program))
	}

	mod, err := translate.Create(src, program)
	if err != nil {
		return err
	}

	switch outputType {
	case "ir":
		return writeOutput(output, mod.Irgen())
	case "asm":
		return emitAsm(mod, output, arch, level)
	case "obj":
		return emitObj(mod, output, arch, level)
	default:
		return fmt.Errorf("unknown -t/--type %q (want ast, ir, asm, or obj)", outputType)
	}
}

// emitAsm invokes the back-end assembler on the generated IR (§6 "asm"
// pipeline), the way the teacher shells to `go build` rather than linking a
// code generator into the process.
func emitAsm(mod *translate.Module, output, arch string, level int) error {
	irPath, cleanup, err := writeTempModule(mod, level)
	if err != nil {
		return err
	}
	defer cleanup()

	asmPath := output
	if asmPath == "" || asmPath == "-" {
		f, err := os.CreateTemp("", "scopc-*.s")
		if err != nil {
			return err
		}
		asmPath = f.Name()
		f.Close()
		defer os.Remove(asmPath)
	}

	args := []string{"-mtriple=" + arch, "-filetype=asm", "-o", asmPath, irPath}
	if err := runTool("llc", args); err != nil {
		return err
	}
	if output == "-" {
		data, err := os.ReadFile(asmPath)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}
	return nil
}

// emitObj runs llc on the generated IR to produce an object file, then
// links that object with cc (§6 "obj" pipeline), passing -lgc plus every
// library collected from `@import … #link:<lib>` nodes during translation.
func emitObj(mod *translate.Module, output, arch string, level int) error {
	irPath, cleanup, err := writeTempModule(mod, level)
	if err != nil {
		return err
	}
	defer cleanup()

	objFile, err := os.CreateTemp("", "scopc-*.o")
	if err != nil {
		return err
	}
	objPath := objFile.Name()
	objFile.Close()
	defer os.Remove(objPath)

	if err := runTool("llc", []string{"-mtriple=" + arch, "-filetype=obj", "-o", objPath, irPath}); err != nil {
		return err
	}

	if output == "" {
		output = "a.out"
	}
	absOutput, err := filepath.Abs(output)
	if err != nil {
		return fmt.Errorf("resolving output path: %w", err)
	}

	linkArgs := []string{objPath, "-o", absOutput, "-lgc"}
	for _, lib := range mod.LinkLibs {
		linkArgs = append(linkArgs, "-l"+lib)
	}
	return runTool("cc", linkArgs)
}

func writeTempModule(mod *translate.Module, level int) (string, func(), error) {
	text := mod.Irgen()
	if level > 0 {
		optimized, err := mod.Optimize(level, 0)
		if err == nil {
			text = optimized
		}
	}
	f, err := os.CreateTemp("", "scopc-*.ll")
	if err != nil {
		return "", nil, fmt.Errorf("creating temp IR file: %w", err)
	}
	cleanup := func() { os.Remove(f.Name()) }
	if _, err := f.WriteString(text); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("writing temp IR file: %w", err)
	}
	f.Close()
	return f.Name(), cleanup, nil
}

func runTool(name string, args []string) error {
	cmd := exec.Command(name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.Stdout = os.Stdout
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %s", name, stderr.String())
	}
	return nil
}

func writeOutput(path, text string) error {
	if path == "" || path == "-" {
		fmt.Print(text)
		return nil
	}
	return os.WriteFile(path, []byte(text), 0o644)
}

// hostTriple reports a best-effort default target triple for -a/--arch,
// derived from the host's GOARCH/GOOS the way a locally-built `llc -version`
// would report its native default.
func hostTriple() string {
	arch := runtime.GOARCH
	switch arch {
	case "amd64":
		arch = "x86_64"
	case "arm64":
		arch = "aarch64"
	}
	osName := runtime.GOOS
	switch osName {
	case "linux":
		return arch + "-unknown-linux-gnu"
	case "darwin":
		return arch + "-apple-darwin"
	default:
		return arch + "-unknown-" + osName
	}
}

// formatError renders a top-level error the way the teacher's main.go does
// ("error: %v"), with source-location coloring and a caret line for
// errs.Error values (§7). Color is suppressed when stderr isn't a terminal
// or NO_COLOR is set, mirroring the teacher's own TTY-detection rule.
func formatError(err error) string {
	e, ok := errs.As(err)
	if !ok {
		return colorize("error: "+err.Error(), red)
	}
	if e.Pos.File == "" {
		return colorize("error: "+e.Error(), red)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "error: %s:%d:%d: %s", e.Pos.File, e.Pos.Line, e.Pos.Col, e.Message)
	if e.Pos.Text != "" {
		fmt.Fprintf(&b, "\n  %s\n  %s^", e.Pos.Text, strings.Repeat(" ", max(0, e.Pos.Col-1)))
	}
	return colorize(b.String(), red)
}

const red = "\x1b[31m"
const colorReset = "\x1b[0m"

func colorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}

func colorize(s, code string) string {
	if !colorEnabled() {
		return s
	}
	return code + s + colorReset
}
