package utils

import "fmt"

const imageBaseURL = "https://images.igdb.com/igdb/image/upload"

// Image size presets of the catalog CDN.
const (
	SizeCoverBig   = "t_cover_big"
	SizeCoverSmall = "t_cover_small"
	SizeScreenshot = "t_screenshot_big"
	SizeThumb      = "t_thumb"
)

// CoverImageURL builds the CDN URL for a cover image id. Empty image ids
// yield an empty URL so callers can pass summaries through untouched.
func CoverImageURL(imageID, size string) string {
	if imageID == "" {
		return ""
	}
	if size == "" {
		size = SizeCoverBig
	}
	return fmt.Sprintf("%s/%s/%s.jpg", imageBaseURL, size, imageID)
}
