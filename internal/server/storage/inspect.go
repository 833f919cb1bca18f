package storage

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxSize is the upload limit used when none is configured.
const DefaultMaxSize int64 = 2 << 20

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Image is an upload that passed the size and type policy.
type Image struct {
	Data        []byte
	ContentType string
	Ext         string
}

func (i *Image) Reader() io.Reader { return bytes.NewReader(i.Data) }

func (i *Image) Size() int64 { return int64(len(i.Data)) }

// Inspect reads at most limit bytes from r and checks the sniffed type.
// The declared content type of the upload is ignored.
func Inspect(r io.Reader, limit int64) (*Image, error) {
	if limit <= 0 {
		limit = DefaultMaxSize
	}

	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, common.ErrFileTooLarge
	}

	mt := mimetype.Detect(data)
	for m := mt; m != nil; m = m.Parent() {
		if ext, ok := allowedTypes[m.String()]; ok {
			return &Image{Data: data, ContentType: m.String(), Ext: ext}, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", common.ErrUnsupportedMediaType, mt.String())
}

// InspectFile checks the declared size of a multipart file before reading it.
func InspectFile(fh *multipart.FileHeader, limit int64) (*Image, error) {
	if limit <= 0 {
		limit = DefaultMaxSize
	}
	if fh.Size > limit {
		return nil, common.ErrFileTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	return Inspect(f, limit)
}
