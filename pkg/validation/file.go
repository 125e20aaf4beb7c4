package validation

import (
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"slices"
	"strings"

	"nusantara-erp/config"

	"github.com/gabriel-vasile/mimetype"
)

// ValidateFile checks size, extension and detected content type against config.UploadContexts[contextName].
func ValidateFile(fileHeader *multipart.FileHeader, file io.ReadSeeker, contextName string) error {
	rules, ok := config.UploadContexts[contextName]
	if !ok {
		return fmt.Errorf("unknown upload context '%s'", contextName)
	}

	if rules.MaxSizeMB > 0 {
		maxSizeBytes := rules.MaxSizeMB * 1024 * 1024
		if fileHeader.Size > maxSizeBytes {
			return fmt.Errorf("file size (%.2f MB) exceeds the %d MB limit", float64(fileHeader.Size)/1024/1024, rules.MaxSizeMB)
		}
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !slices.Contains(rules.AllowedExtensions, ext) {
		return fmt.Errorf("file extension %q is not allowed", ext)
	}

	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		return fmt.Errorf("failed to read file")
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind file")
	}

	for m := mtype; m != nil; m = m.Parent() {
		if slices.Contains(rules.AllowedMimeTypes, m.String()) {
			return nil
		}
	}
	return fmt.Errorf("file type %s is not allowed", mtype.String())
}
