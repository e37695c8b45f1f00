package helpers

import (
	"fmt"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const invalidNameChars = `<>:"/\|?*`

// ValidateName checks a folder or file name: non-empty, none of <>:"/\|?* and
// no leading dot.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.ContainsAny(name, invalidNameChars) {
		return fmt.Errorf("name %q contains one of the characters %s", name, invalidNameChars)
	}
	if strings.HasPrefix(name, ".") {
		return fmt.Errorf("name %q must not start with a dot", name)
	}
	return nil
}

// ValidateStoragePath rejects absolute paths and any ".." segment.
func ValidateStoragePath(storagePath string) error {
	if storagePath == "" {
		return fmt.Errorf("storage path is required")
	}
	if strings.HasPrefix(storagePath, "/") || strings.Contains(storagePath, `\`) {
		return fmt.Errorf("storage path %q must be relative", storagePath)
	}
	for _, part := range strings.Split(storagePath, "/") {
		if part == ".." || part == "." || part == "" {
			return fmt.Errorf("storage path %q has an invalid segment", storagePath)
		}
	}
	if path.Clean(storagePath) != storagePath {
		return fmt.Errorf("storage path %q is not clean", storagePath)
	}
	return nil
}

// DetectMimeType prefers the declared type, then sniffs the leading bytes.
func DetectMimeType(declared string, head []byte) string {
	if declared != "" {
		return declared
	}
	if len(head) == 0 {
		return "application/octet-stream"
	}
	return mimetype.Detect(head).String()
}
