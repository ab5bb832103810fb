package model

// Video is the media entity behind a video exercise, keyed by an opaque hash.
type Video struct {
	ID         string     `json:"id"`
	MP4Link    string     `json:"video_mp4_link,omitempty"`
	AudioLink  string     `json:"audio_link,omitempty"`
	ScriptLink string     `json:"script_link,omitempty"`
	Subtitles  []Subtitle `json:"subtitles,omitempty"`
}

// Subtitle is one subtitle stream of a video, identified by its full
// language name (e.g. "English").
type Subtitle struct {
	Language string `json:"language"`
	Link     string `json:"link"`
}

// SubtitleByLanguage returns the subtitle stream for the given full language
// name, or nil if the video has no such stream.
func (v *Video) SubtitleByLanguage(language string) *Subtitle {
	for i := range v.Subtitles {
		if v.Subtitles[i].Language == language {
			return &v.Subtitles[i]
		}
	}
	return nil
}
