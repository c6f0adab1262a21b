package types

import (
	"io"
	"os"
	"path/filepath"
)

// Attachment is a document selected for upload with a claim.
// The declared Size is checked when the attachment is created; the actual
// byte count is checked again when the request is built.
type Attachment struct {
	Name   string
	Size   int64
	Reader io.Reader
}

// NewAttachment validates size against MaxAttachmentBytes at selection time.
func NewAttachment(name string, size int64, r io.Reader) (*Attachment, error) {
	if err := ValidateIDPresent(name, "file"); err != nil {
		return nil, err
	}
	if err := ValidateAttachmentSize(size); err != nil {
		return nil, err
	}
	return &Attachment{Name: filepath.Base(name), Size: size, Reader: r}, nil
}

// OpenAttachment opens the file at path as an attachment. The caller must
// Close it once the claim has been submitted.
func OpenAttachment(path string) (*Attachment, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if err := ValidateAttachmentSize(fi.Size()); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Attachment{Name: filepath.Base(path), Size: fi.Size(), Reader: f}, nil
}

// Close releases the underlying reader when it is closable.
func (a *Attachment) Close() error {
	if c, ok := a.Reader.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
