package translate

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
)

// writeTempIR and runTextThroughOpt/runTextThroughOptCapture shell out to
// the back-end's own `opt` binary, the way the teacher's Compiler.Build
// shells out to `go build` (compiler/compiler.go) rather than linking a
// verifier/optimizer into the process — the collaborator library (§1)
// performs neither.
func writeTempIR(text string) (string, func(), error) {
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

func runTextThroughOpt(text string, args []string) error {
	path, cleanup, err := writeTempIR(text)
	if err != nil {
		return err
	}
	defer cleanup()

	cmd := exec.Command("opt", append(args, path)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("opt: %s", stderr.String())
	}
	return nil
}

func runTextThroughOptCapture(text string, args []string) (string, error) {
	path, cleanup, err := writeTempIR(text)
	if err != nil {
		return "", err
	}
	defer cleanup()

	cmd := exec.Command("opt", append(append(args, "-S"), path)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("opt: %s", stderr.String())
	}
	return stdout.String(), nil
}
