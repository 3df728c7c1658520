package domain

import "regexp"

type PlaylistItem struct {
	URL       string `json:"url"`
	IsPlaying bool   `json:"isPlaying"`
}

const (
	VideoTypeYouTube     = "youtube"
	VideoTypeGoogleDrive = "googledrive"
	VideoTypeDirect      = "direct"
)

// VideoState is the classified projection of the playing item. Chat and
// rejoin consumers need this form, not the raw playlist entry.
type VideoState struct {
	VideoType string  `json:"videoType"`
	VideoID   string  `json:"videoId"`
	Time      float64 `json:"time,omitempty"`
}

var (
	youtubeIDPattern     = regexp.MustCompile(`(?:https?://)?(?:www\.)?(?:youtube\.com/(?:[^/\n\s]+/\S+/|(?:v|e(?:mbed)?)/|\S*?[?&]v=)|youtu\.be/)([A-Za-z0-9_-]{11})`)
	googleDriveIDPattern = regexp.MustCompile(`drive\.google\.com/(?:file/d/|open\?id=)([A-Za-z0-9_-]+)`)
)

// ClassifyVideo derives the playable state for a URL: a YouTube video id, a
// Google Drive file id, or the URL itself as a direct source.
func ClassifyVideo(url string) *VideoState {
	if m := youtubeIDPattern.FindStringSubmatch(url); m != nil {
		return &VideoState{VideoType: VideoTypeYouTube, VideoID: m[1]}
	}
	if m := googleDriveIDPattern.FindStringSubmatch(url); m != nil {
		return &VideoState{VideoType: VideoTypeGoogleDrive, VideoID: m[1]}
	}
	return &VideoState{VideoType: VideoTypeDirect, VideoID: url}
}
