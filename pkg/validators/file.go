package validators

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/viper"
)

var (
	ErrFileTooLarge        = errors.New("file too large")
	ErrFileNameTooLong     = errors.New("file name is too long")
	ErrFileTypeUnsupported = errors.New("unsupported file type")
	ErrNoFile              = errors.New("no file provided")
)

const maxFileNameSize = 255

// mediaTypes maps accepted mime types to the coarse media type
// stored on the record
var mediaTypes = map[string]string{
	"image/jpeg":      "image",
	"image/png":       "image",
	"image/gif":       "image",
	"image/webp":      "image",
	"image/heic":      "image",
	"video/mp4":       "video",
	"video/quicktime": "video",
}

// FileValidator checks an uploaded file against the size limit and the
// accepted mime types. The declared Content-Type header is only a fast
// reject, the actual bytes are sniffed afterwards since headers are
// trivial to spoof. Returns the open file and the detected media type.
func FileValidator(fh *multipart.FileHeader) (int, multipart.File, string, error) {
	if fh == nil {
		return http.StatusBadRequest, nil, "", ErrNoFile
	}

	ct := fh.Header.Get("Content-Type")
	if _, ok := mediaTypes[ct]; !ok {
		return http.StatusBadRequest, nil, "", ErrFileTypeUnsupported
	}

	if len(fh.Filename) > maxFileNameSize {
		return http.StatusBadRequest, nil, "", ErrFileNameTooLong
	}

	maxFileSize := viper.GetInt64("upload.max_size")
	if fh.Size > maxFileSize {
		return http.StatusRequestEntityTooLarge, nil, "", ErrFileTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return http.StatusInternalServerError, nil, "", err
	}

	mime, err := mimetype.DetectReader(f)
	if err != nil {
		f.Close()
		return http.StatusInternalServerError, nil, "", err
	}

	mediaType, ok := mediaTypes[mime.String()]
	if !ok {
		f.Close()
		return http.StatusBadRequest, nil, "", ErrFileTypeUnsupported
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return http.StatusInternalServerError, nil, "", err
	}

	return 0, f, mediaType, nil
}

// DetectedMime re-sniffs the content type of an already validated
// file. The reader is rewound afterwards.
func DetectedMime(f multipart.File) (string, error) {
	mime, err := mimetype.DetectReader(f)
	if err != nil {
		return "", err
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	return mime.String(), nil
}
