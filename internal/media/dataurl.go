package media

import (
	"encoding/base64"
	"errors"
	"strings"
)

// ErrNotDataURL rejects strings that are not base64 data URLs.
var ErrNotDataURL = errors.New("not a base64 data URL")

// DataURL wraps data as a base64 data URL.
func DataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// JPEGDataURL is DataURL for image/jpeg.
func JPEGDataURL(data []byte) string { return DataURL("image/jpeg", data) }

// ParseDataURL splits a base64 data URL into its media type and payload.
func ParseDataURL(s string) (mime string, data []byte, err error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, ErrNotDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrNotDataURL
	}
	mime, ok = strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, ErrNotDataURL
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, err
	}
	return mime, data, nil
}
