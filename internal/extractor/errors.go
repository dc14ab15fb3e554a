package extractor

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyArchive     = errors.New("archive contains no supported files")
	ErrNoSupportedFiles = errors.New("no supported files were uploaded")
	ErrBinaryContent    = errors.New("file content is not text")
)

// ArchiveError reports an archive that could not be used at all.
type ArchiveError struct {
	Archive string
	Err     error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("archive %s: %v", e.Archive, e.Err)
}

func (e *ArchiveError) Unwrap() error {
	return e.Err
}
