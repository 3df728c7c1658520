package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyVideo(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		wantType  string
		wantVideo string
	}{
		{
			name:      "youtube short link",
			url:       "https://youtu.be/dQw4w9WgXcQ",
			wantType:  VideoTypeYouTube,
			wantVideo: "dQw4w9WgXcQ",
		},
		{
			name:      "youtube watch link",
			url:       "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			wantType:  VideoTypeYouTube,
			wantVideo: "dQw4w9WgXcQ",
		},
		{
			name:      "youtube embed link",
			url:       "https://youtube.com/embed/dQw4w9WgXcQ",
			wantType:  VideoTypeYouTube,
			wantVideo: "dQw4w9WgXcQ",
		},
		{
			name:      "google drive file link",
			url:       "https://drive.google.com/file/d/ABC123/view",
			wantType:  VideoTypeGoogleDrive,
			wantVideo: "ABC123",
		},
		{
			name:      "google drive open link",
			url:       "https://drive.google.com/open?id=xYz_9-8",
			wantType:  VideoTypeGoogleDrive,
			wantVideo: "xYz_9-8",
		},
		{
			name:      "direct media url",
			url:       "https://cdn.example.com/movie.mp4",
			wantType:  VideoTypeDirect,
			wantVideo: "https://cdn.example.com/movie.mp4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := ClassifyVideo(tt.url)
			assert.Equal(t, tt.wantType, state.VideoType)
			assert.Equal(t, tt.wantVideo, state.VideoID)
			assert.Zero(t, state.Time)
		})
	}
}
