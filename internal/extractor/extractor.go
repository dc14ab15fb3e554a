// Package extractor turns raw uploads (single files or zip archives) into
// text records ready to be stored and fed to the documentation generator.
package extractor

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"path"
	"regexp"
	"strings"
	"unicode/utf8"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// MaxArchiveEntrySize is the largest uncompressed archive entry that is kept.
const MaxArchiveEntrySize = 1 << 20

const (
	storedNameAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	storedNameLength   = 10
	textMimeType       = "text/plain"
)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

type RawUpload struct {
	Filename string
	Data     []byte
}

type ExtractedFile struct {
	OriginalName string
	StoredName   string
	Size         int64
	MimeType     string
	Content      string
}

type Extractor struct {
	logger *slog.Logger
	newID  func() (string, error)
}

func New(logger *slog.Logger) *Extractor {
	return &Extractor{
		logger: logger.With("system", "extractor"),
		newID: func() (string, error) {
			return gonanoid.Generate(storedNameAlphabet, storedNameLength)
		},
	}
}

// Extract expands archives and decodes every accepted file. An archive that
// is corrupt or yields nothing aborts the whole extraction; a single entry
// that cannot be read is skipped.
func (e *Extractor) Extract(uploads []RawUpload) ([]ExtractedFile, error) {
	var files []ExtractedFile

	for _, upload := range uploads {
		if isArchive(upload.Filename) {
			entries, err := e.extractArchive(upload)
			if err != nil {
				return nil, err
			}
			files = append(files, entries...)
			continue
		}

		if !Allowed(upload.Filename) {
			e.logger.Debug("dropping unsupported upload", "filename", upload.Filename)
			continue
		}

		file, err := e.decode(path.Base(upload.Filename), upload.Data)
		if err != nil {
			e.logger.Warn("skipping unreadable upload", "filename", upload.Filename, "error", err)
			continue
		}
		files = append(files, *file)
	}

	if len(files) == 0 {
		return nil, ErrNoSupportedFiles
	}
	return files, nil
}

func (e *Extractor) extractArchive(upload RawUpload) ([]ExtractedFile, error) {
	reader, err := zip.NewReader(bytes.NewReader(upload.Data), int64(len(upload.Data)))
	if err != nil {
		return nil, &ArchiveError{Archive: upload.Filename, Err: err}
	}

	var files []ExtractedFile
	for _, entry := range reader.File {
		name := cleanEntryName(entry.Name)
		if entry.FileInfo().IsDir() || name == "" {
			continue
		}
		if isExcludedPath(name) || !Allowed(name) {
			continue
		}
		if entry.UncompressedSize64 > MaxArchiveEntrySize {
			e.logger.Debug("skipping oversized archive entry",
				"archive", upload.Filename, "entry", name, "size", entry.UncompressedSize64)
			continue
		}

		data, err := readEntry(entry)
		if err != nil {
			e.logger.Warn("skipping unreadable archive entry",
				"archive", upload.Filename, "entry", name, "error", err)
			continue
		}

		file, err := e.decode(name, data)
		if err != nil {
			e.logger.Warn("skipping undecodable archive entry",
				"archive", upload.Filename, "entry", name, "error", err)
			continue
		}
		files = append(files, *file)
	}

	if len(files) == 0 {
		return nil, &ArchiveError{Archive: upload.Filename, Err: ErrEmptyArchive}
	}

	e.logger.Info("extracted archive", "archive", upload.Filename, "files", len(files))
	return files, nil
}

func (e *Extractor) decode(name string, data []byte) (*ExtractedFile, error) {
	mimeType := textMimeType
	var content string

	ext := extension(name)
	if docType, ok := documentExtensions[ext]; ok {
		mimeType = docType
		text, err := documentText(ext, name, data)
		if err != nil {
			return nil, err
		}
		content = text
	} else {
		text, err := decodeText(data)
		if err != nil {
			return nil, err
		}
		content = text
	}

	id, err := e.newID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate stored name: %w", err)
	}

	return &ExtractedFile{
		OriginalName: name,
		StoredName:   id + "_" + safeBaseName(name),
		Size:         int64(len(data)),
		MimeType:     mimeType,
		Content:      content,
	}, nil
}

func readEntry(entry *zip.File) ([]byte, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	// The header size can lie, so cap the actual read too.
	data, err := io.ReadAll(io.LimitReader(rc, MaxArchiveEntrySize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxArchiveEntrySize {
		return nil, fmt.Errorf("entry exceeds %d bytes", MaxArchiveEntrySize)
	}
	return data, nil
}

func decodeText(data []byte) (string, error) {
	if bytes.IndexByte(data, 0) >= 0 {
		return "", ErrBinaryContent
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return string(data), nil
	}
	return strings.ToValidUTF8(string(data), "\uFFFD"), nil
}

func cleanEntryName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	if strings.HasSuffix(name, "/") {
		return ""
	}
	name = path.Clean("/" + name)
	return strings.TrimPrefix(name, "/")
}

func safeBaseName(name string) string {
	base := unsafeNameChars.ReplaceAllString(path.Base(name), "_")
	if base == "" || base == "." {
		return "file"
	}
	return base
}
