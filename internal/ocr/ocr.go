package ocr

import "context"

// LineDetector detects line-level text blocks in a document image.
// Lines are returned in detection order; non-line blocks are never included.
type LineDetector interface {
	DetectLines(ctx context.Context, document []byte) ([]string, error)
}
