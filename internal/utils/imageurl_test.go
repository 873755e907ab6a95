package utils

import "testing"

func TestCoverImageURL(t *testing.T) {
	tests := []struct {
		name     string
		imageID  string
		size     string
		expected string
	}{
		{
			name:     "default size",
			imageID:  "co1wyy",
			size:     "",
			expected: "https://images.igdb.com/igdb/image/upload/t_cover_big/co1wyy.jpg",
		},
		{
			name:     "thumbnail",
			imageID:  "co1wyy",
			size:     SizeThumb,
			expected: "https://images.igdb.com/igdb/image/upload/t_thumb/co1wyy.jpg",
		},
		{
			name:     "empty image id",
			imageID:  "",
			size:     SizeCoverBig,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CoverImageURL(tt.imageID, tt.size); got != tt.expected {
				t.Errorf("CoverImageURL(%q, %q) = %q, want %q", tt.imageID, tt.size, got, tt.expected)
			}
		})
	}
}
