package validation

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/username/tradejournal/backend/src/logger"
)

// AllowedClientContentTypes is a map for quick lookup of allowed client-declared MIME types.
var AllowedClientContentTypes = map[string]bool{
	"text/csv":                  true,
	"application/csv":           true,
	"text/tab-separated-values": true,
	"application/vnd.ms-excel":  true, // Often used for CSV by older Excel
	"text/plain":                true, // CSVs are often plain text
	XLSXContentType:             true,
}

const (
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	zipContentType  = "application/zip"
)

var zipMagic = []byte("PK\x03\x04")

// ValidateClientContentType checks the Content-Type header provided by the client.
func ValidateClientContentType(contentType string) error {
	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if allowed, exists := AllowedClientContentTypes[mediaType]; !exists || !allowed {
		logger.L.Warn("Disallowed client-declared Content-Type", "contentType", contentType)
		return fmt.Errorf("%w: client-declared file type '%s' is not allowed for broker exports", ErrValidationFailed, contentType)
	}
	return nil
}

// isBinaryContent reports control bytes that never occur in a text export.
// Invalid UTF-8 alone is accepted: exports saved by Excel on Windows are cp1252
// and are decoded by the tabular reader.
func isBinaryContent(buf []byte) bool {
	if bytes.IndexByte(buf, 0) != -1 {
		return true
	}
	for _, b := range buf {
		if b < 0x20 && b != '\t' && b != '\n' && b != '\r' && b != '\f' {
			return true
		}
	}
	return false
}

// ValidateFileContentByMagicBytes checks the actual file content signature (magic bytes)
// and inspects the content to ensure it is a workbook or text-based.
func ValidateFileContentByMagicBytes(file io.ReadSeeker) (string, error) {
	if file == nil {
		return "", fmt.Errorf("file is nil")
	}

	// Read first 1024 bytes (1KB) for detection
	buffer := make([]byte, 1024)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read file for content type checking: %w", err)
	}

	// Reset so the reader sees the full file.
	if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil {
		return "", fmt.Errorf("failed to reset file read pointer: %w", seekErr)
	}

	if n == 0 {
		return "", fmt.Errorf("%w: file is empty", ErrValidationFailed)
	}

	// xlsx workbooks are ZIP containers; the reader opens them with a sheet parser.
	if bytes.HasPrefix(buffer[:n], zipMagic) {
		logger.L.Debug("File content type validated", "detectedContentType", zipContentType)
		return zipContentType, nil
	}

	if isBinaryContent(buffer[:n]) {
		logger.L.Warn("File rejected: Binary content detected in text upload")
		return "application/octet-stream", fmt.Errorf("%w: file appears to be binary, not a text export", ErrValidationFailed)
	}

	detectedContentType := http.DetectContentType(buffer[:n])
	detectedContentType = strings.ToLower(strings.Split(detectedContentType, ";")[0])

	allowedDetectedTypes := map[string]bool{
		"text/plain":      true,
		"text/csv":        true,
		"application/csv": true,
	}
	if !allowedDetectedTypes[detectedContentType] {
		logger.L.Warn("Disallowed detected file content type", "detectedContentType", detectedContentType)
		return detectedContentType, fmt.Errorf("%w: detected file content type '%s' is not allowed", ErrValidationFailed, detectedContentType)
	}

	logger.L.Debug("File content type validated", "detectedContentType", detectedContentType)
	return detectedContentType, nil
}

// ValidateDeclaredMatchesContent rejects uploads whose declared type or file
// extension disagrees with the detected content: a workbook must be declared
// and named as xlsx, and a text export must not claim to be one.
func ValidateDeclaredMatchesContent(clientContentType, filename, detectedContentType string) error {
	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(clientContentType, ";")[0]))
	ext := strings.ToLower(filepath.Ext(filename))
	isWorkbook := detectedContentType == zipContentType

	if isWorkbook && (mediaType != XLSXContentType || ext != ".xlsx") {
		logger.L.Warn("Workbook content with mismatched declaration", "contentType", clientContentType, "filename", filename)
		return fmt.Errorf("%w: spreadsheet uploads must be .xlsx files declared as %s", ErrValidationFailed, XLSXContentType)
	}
	if !isWorkbook && (mediaType == XLSXContentType || ext == ".xlsx") {
		logger.L.Warn("Text content declared as workbook", "contentType", clientContentType, "filename", filename)
		return fmt.Errorf("%w: file declared as xlsx is not a valid workbook", ErrValidationFailed)
	}
	return nil
}
