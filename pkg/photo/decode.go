package photo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotArray is returned when the payload is valid JSON but not an array.
var ErrNotArray = errors.New("payload is not a JSON array")

// wirePhoto mirrors the listing schema. Pointer fields let the decoder
// tell a missing key apart from an empty string.
type wirePhoto struct {
	ID          *string `json:"id"`
	Author      *string `json:"author"`
	URL         *string `json:"url"`
	DownloadURL *string `json:"download_url"`
}

// DecodeList decodes a listing payload into photos.
// Decoding is all-or-nothing: any malformed element fails the whole page.
func DecodeList(data []byte) ([]Photo, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		if !json.Valid(trimmed) {
			return nil, fmt.Errorf("invalid JSON payload (%d bytes)", len(data))
		}
		return nil, ErrNotArray
	}

	var wire []wirePhoto
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return nil, fmt.Errorf("unmarshal photo list: %w", err)
	}

	photos := make([]Photo, 0, len(wire))
	for i, w := range wire {
		switch {
		case w.ID == nil:
			return nil, missingKey(i, "id")
		case w.Author == nil:
			return nil, missingKey(i, "author")
		case w.URL == nil:
			return nil, missingKey(i, "url")
		case w.DownloadURL == nil:
			return nil, missingKey(i, "download_url")
		}
		photos = append(photos, Photo{
			ID:          *w.ID,
			Author:      *w.Author,
			URL:         *w.URL,
			DownloadURL: *w.DownloadURL,
		})
	}

	return photos, nil
}

func missingKey(index int, key string) error {
	return fmt.Errorf("element %d: missing required key %q", index, key)
}
