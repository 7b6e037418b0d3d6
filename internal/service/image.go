package service

import (
	"encoding/base64"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const fallbackImageMIME = "image/jpeg"

// imageDataURI renders stored image bytes as a data URI. The MIME type is sniffed from
// the content; anything not recognised as an image is labelled image/jpeg.
func imageDataURI(data []byte) *string {
	if len(data) == 0 {
		return nil
	}
	mime := mimetype.Detect(data).String()
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	if !strings.HasPrefix(mime, "image/") {
		mime = fallbackImageMIME
	}
	uri := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
	return &uri
}
