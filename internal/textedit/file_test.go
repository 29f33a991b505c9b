package textedit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func TestEditFileReplace(t *testing.T) {
	path := writeFixture(t, "name: John\n")

	op := NewOp(OpReplace)
	op.Pattern = `name: (\w+)`
	op.Content = `User \1 (active)`
	result := EditFile(path, op)
	if !result.OK {
		t.Fatalf("EditFile failed: %s", result.Message)
	}
	if !strings.Contains(result.Message, "Successfully performed replace operation") {
		t.Errorf("got message %q", result.Message)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "User John (active)\n" {
		t.Errorf("file content = %q", string(data))
	}
}

func TestEditFileNotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.txt")

	op := NewOp(OpAppend)
	op.Content = "x"
	result := EditFile(path, op)
	if result.OK {
		t.Fatal("EditFile succeeded on missing file")
	}
	if result.Message != "File not found: "+path {
		t.Errorf("got message %q", result.Message)
	}
}

func TestEditFileFailureLeavesFileUntouched(t *testing.T) {
	original := "Hello world\n"
	path := writeFixture(t, original)

	op := NewOp(OpReplace)
	op.Pattern = "goodbye"
	op.Content = "Hi"
	result := EditFile(path, op)
	if result.OK {
		t.Fatal("expected failure")
	}
	if result.NewContent != nil {
		t.Error("failed edit must carry nil NewContent")
	}

	data, _ := os.ReadFile(path)
	if string(data) != original {
		t.Errorf("file changed on failed edit: %q", string(data))
	}
}

func TestEditFilePreservesCRLFOnDisk(t *testing.T) {
	path := writeFixture(t, "Hello world\r\n")

	op := NewOp(OpReplace)
	op.Pattern = "Hello"
	op.Content = "Hi"
	result := EditFile(path, op)
	if !result.OK {
		t.Fatalf("EditFile failed: %s", result.Message)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "Hi world\r\n" {
		t.Errorf("file content = %q", string(data))
	}
}

func TestEditFileDeleteScenario(t *testing.T) {
	path := writeFixture(t, "Line 1\nLine 2\nLine 3\n")

	op := NewOp(OpDelete)
	op.Pattern = "Line 2"
	result := EditFile(path, op)
	if !result.OK {
		t.Fatalf("EditFile failed: %s", result.Message)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "Line 1\nLine 3\n" {
		t.Errorf("file content = %q", string(data))
	}
}
