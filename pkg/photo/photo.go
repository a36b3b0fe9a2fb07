// Package photo defines the photo record returned by the Picsum listing API
// and the decoder for its wire format.
package photo

import "fmt"

// ThumbnailBaseURL is the image host used for grid thumbnails.
const ThumbnailBaseURL = "https://picsum.photos"

// DefaultThumbnailSize is the edge length in pixels of a grid thumbnail.
const DefaultThumbnailSize = 256

// Photo is one entry of the listing endpoint.
// Two photos with the same ID are the same logical photo.
type Photo struct {
	ID          string `json:"id"`
	Author      string `json:"author"`
	URL         string `json:"url"`
	DownloadURL string `json:"download_url"`
}

// ThumbnailURL returns a square JPEG rendition of the photo.
// A non-positive size falls back to DefaultThumbnailSize.
func (p Photo) ThumbnailURL(size int) string {
	if size <= 0 {
		size = DefaultThumbnailSize
	}
	return fmt.Sprintf("%s/id/%s/%d/%d.jpg", ThumbnailBaseURL, p.ID, size, size)
}

// IDs returns the identifiers of photos in order.
func IDs(photos []Photo) []string {
	ids := make([]string, len(photos))
	for i, p := range photos {
		ids[i] = p.ID
	}
	return ids
}
