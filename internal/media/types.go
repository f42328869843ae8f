// Package media defines shared types for the vidmeta application.
package media

import (
	"bytes"
	"encoding/json"
	"regexp"
)

// IDLength is the length of a video identifier.
const IDLength = 11

var idPattern = regexp.MustCompile(`^[0-9A-Za-z_-]{11}$`)

// IsValidID reports whether id has the shape of a video identifier.
func IsValidID(id string) bool {
	return idPattern.MatchString(id)
}

// WatchURL returns the canonical watch page URL for a video.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

// Video is the metadata of one successfully fetched video.
// It is the only record shape ever written to the cache.
type Video struct {
	VideoID       string `json:"video_id" yaml:"video_id"`
	URL           string `json:"url" yaml:"url"`
	Title         string `json:"title" yaml:"title"`
	Duration      string `json:"duration" yaml:"duration"`             // M:SS
	LengthSeconds int64  `json:"length_seconds" yaml:"length_seconds"` // raw total seconds
	Keywords      string `json:"keywords" yaml:"keywords"`             // comma-joined
	Description   string `json:"description" yaml:"description"`
	ViewCount     int64  `json:"view_count" yaml:"view_count"`
	Author        string `json:"author" yaml:"author"`
	Thumbnail     string `json:"thumbnail" yaml:"thumbnail"`           // highest resolution, empty if none
	UploadDate    string `json:"upload_date" yaml:"upload_date"`       // ISO-8601, may be empty
	Category      string `json:"category" yaml:"category"`
	IsLive        bool   `json:"is_live" yaml:"is_live"`
	IsFamilySafe  bool   `json:"is_family_safe" yaml:"is_family_safe"`
}

// MarshalJSON writes the video with an explicit null error field so that
// successes and failures share one on-disk shape.
func (v Video) MarshalJSON() ([]byte, error) {
	type plain Video
	return json.Marshal(struct {
		plain
		Error *string `json:"error"`
	}{plain: plain(v)})
}

// Failure describes a video that could not be fetched.
type Failure struct {
	VideoID string `json:"video_id,omitempty" yaml:"video_id,omitempty"`
	Error   string `json:"error" yaml:"error"`
}

// Result is the outcome for one fetched item. Exactly one of Video or
// Failure is set.
type Result struct {
	Video   *Video
	Failure *Failure
}

// Succeeded wraps a video as a successful result.
func Succeeded(v Video) Result {
	return Result{Video: &v}
}

// Failed builds a failure result.
func Failed(id, msg string) Result {
	return Result{Failure: &Failure{VideoID: id, Error: msg}}
}

// OK reports whether the result is a success.
func (r Result) OK() bool {
	return r.Video != nil
}

// ID returns the identifier the result belongs to.
func (r Result) ID() string {
	if r.Video != nil {
		return r.Video.VideoID
	}
	if r.Failure != nil {
		return r.Failure.VideoID
	}
	return ""
}

// MarshalJSON encodes whichever variant is set.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.Video != nil {
		return json.Marshal(r.Video)
	}
	if r.Failure != nil {
		return json.Marshal(r.Failure)
	}
	return []byte("null"), nil
}

// MarshalYAML encodes whichever variant is set.
func (r Result) MarshalYAML() (any, error) {
	if r.Video != nil {
		return r.Video, nil
	}
	return r.Failure, nil
}

// UnmarshalJSON decodes a record, treating any non-empty error field as a failure.
func (r *Result) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		*r = Result{}
		return nil
	}
	var peek struct {
		VideoID string  `json:"video_id" yaml:"video_id"`
		Error   *string `json:"error" yaml:"error"`
	}
	if err := json.Unmarshal(data, &peek); err != nil {
		return err
	}
	if peek.Error != nil && *peek.Error != "" {
		*r = Failed(peek.VideoID, *peek.Error)
		return nil
	}
	var v Video
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = Succeeded(v)
	return nil
}
