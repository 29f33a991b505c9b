package textedit

import (
	"fmt"
	"os"
	"unicode/utf8"
)

// EditFile reads the file at path, applies op, writes the result back, and
// validates the written content. Line terminators are preserved end to end:
// the raw bytes are edited, never normalized on read or write.
//
// Expected failures (missing file, bad pattern, ambiguous match) come back in
// the Result; EditFile does not return Go errors across its boundary.
func EditFile(path string, op Op) Result {
	original, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return failure("File not found: %s", path)
		}
		if os.IsPermission(err) {
			return failure("Permission denied when editing: %s", path)
		}
		return failure("Failed to apply edit: %v", err)
	}

	result := Apply(string(original), op)
	if !result.OK {
		return result
	}

	if err := os.WriteFile(path, []byte(*result.NewContent), 0o644); err != nil {
		if os.IsPermission(err) {
			return failure("Permission denied when editing: %s", path)
		}
		return failure("Failed to apply edit: %v", err)
	}

	if err := validateWritten(path); err != nil {
		// Last-resort rollback: put the pre-edit bytes back before reporting.
		if werr := os.WriteFile(path, original, 0o644); werr != nil {
			return failure("Edit caused file corruption and rollback failed: %v", werr)
		}
		return failure("Edit caused file corruption. Reverted changes. Error: %v", err)
	}

	return result
}

// validateWritten re-reads the persisted file and runs a sanity pass over it.
// This is not a structural validator; it only proves the file still reads
// back as decodable line-oriented text.
func validateWritten(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if !utf8.Valid(data) {
		return fmt.Errorf("file is not valid UTF-8 after edit")
	}
	_ = SplitLines(string(data))
	return nil
}
