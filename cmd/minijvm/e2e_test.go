package main

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/cwbudde/minijvm/internal/classtest"
	"github.com/gkampitakis/go-snaps/snaps"
)

// buildMinijvm compiles the minijvm binary into a fresh temporary
// directory and returns its path; each test that calls it builds its
// own copy.
func buildMinijvm(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	binary := filepath.Join(dir, "minijvm")

	cmd := exec.Command("go", "build", "-o", binary, ".")
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to build minijvm: %v\n%s", err, out)
	}
	return binary
}

func writeClass(t *testing.T, b *classtest.Builder) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "Main.class")
	if err := os.WriteFile(path, b.Bytes(), 0o644); err != nil {
		t.Fatalf("failed to write class file: %v", err)
	}
	return path
}

func TestE2ESumLoopPrintsResult(t *testing.T) {
	binary := buildMinijvm(t)

	code := []byte{
		0x03, // iconst_0
		0x3b, // istore_0 (sum = 0)
		0x04, // iconst_1
		0x3c, // istore_1 (i = 1)
		0x1a, 0x1b, 0x60, 0x3b, // iload_0, iload_1, iadd, istore_0
		0x84, 1, 1, // iinc 1, 1
		0x1b, 0x10, 11, // iload_1, bipush 11
		0xa1, 0xff, 0xf6, // if_icmplt -> pc 4
		0x1a,
		0xb2, 0x00, 0x00,
		0xb6, 0x00, 0x00,
		0xb1,
	}
	b := classtest.New()
	b.Method("main", "([Ljava/lang/String;)V", 3, 2, code)
	classPath := writeClass(t, b)

	cmd := exec.Command(binary, classPath)
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("minijvm exited with error: %v", err)
	}

	snaps.MatchSnapshot(t, "sum_loop_stdout", string(out))
}

func TestE2EDivisionByZeroExitsSeventy(t *testing.T) {
	binary := buildMinijvm(t)

	b := classtest.New()
	b.Method("main", "([Ljava/lang/String;)V", 2, 1, []byte{
		0x08, // iconst_5
		0x03, // iconst_0
		0x6c, // idiv
		0xb1,
	})
	classPath := writeClass(t, b)

	cmd := exec.Command(binary, classPath)
	_, err := cmd.Output()
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		t.Fatalf("expected an ExitError, got %v (%T)", err, err)
	}
	if exitErr.ExitCode() != 70 {
		t.Fatalf("expected exit code 70, got %d", exitErr.ExitCode())
	}
}

func TestE2EMissingClassFileExitsOne(t *testing.T) {
	binary := buildMinijvm(t)

	cmd := exec.Command(binary, filepath.Join(t.TempDir(), "DoesNotExist.class"))
	_, err := cmd.Output()
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		t.Fatalf("expected an ExitError, got %v (%T)", err, err)
	}
	if exitErr.ExitCode() != 1 {
		t.Fatalf("expected exit code 1, got %d", exitErr.ExitCode())
	}
}

func TestE2EMainReturningValueExitsOne(t *testing.T) {
	binary := buildMinijvm(t)

	b := classtest.New()
	b.Method("main", "([Ljava/lang/String;)V", 1, 0, []byte{
		0x04, // iconst_1
		0xac, // ireturn
	})
	classPath := writeClass(t, b)

	cmd := exec.Command(binary, classPath)
	_, err := cmd.Output()
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		t.Fatalf("expected an ExitError, got %v (%T)", err, err)
	}
	if exitErr.ExitCode() != 1 {
		t.Fatalf("expected exit code 1, got %d", exitErr.ExitCode())
	}
}

func TestE2ETraceFlagWritesToStderr(t *testing.T) {
	binary := buildMinijvm(t)

	b := classtest.New()
	b.Method("main", "([Ljava/lang/String;)V", 2, 1, []byte{
		0x06, 0x07, 0x60, // iconst_3, iconst_4, iadd
		0xb2, 0x00, 0x00,
		0xb6, 0x00, 0x00,
		0xb1,
	})
	classPath := writeClass(t, b)

	cmd := exec.Command(binary, "--trace", classPath)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("minijvm exited with error: %v, stderr=%s", err, stderr.String())
	}

	if stdout.String() != "7\n" {
		t.Fatalf("expected 7\\n on stdout, got %q", stdout.String())
	}
	if stderr.Len() == 0 {
		t.Fatal("expected trace output on stderr")
	}
}

func TestE2EVerboseFlagLogsHeapAllocations(t *testing.T) {
	binary := buildMinijvm(t)

	b := classtest.New()
	b.Method("main", "([Ljava/lang/String;)V", 2, 1, []byte{
		0x10, 4, // bipush 4
		0xbc, 10, // newarray (type tag ignored)
		0x4b, // astore_0 (consume the reference)
		0xb1,
	})
	classPath := writeClass(t, b)

	cmd := exec.Command(binary, "--verbose", classPath)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("minijvm exited with error: %v, stderr=%s", err, stderr.String())
	}

	if !bytes.Contains(stderr.Bytes(), []byte("heap: 1 array(s) allocated")) {
		t.Fatalf("expected heap allocation count on stderr, got %q", stderr.String())
	}
}
