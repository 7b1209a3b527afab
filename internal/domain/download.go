package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// Container is the requested output file family
type Container string

const (
	ContainerMP4  Container = "mp4"
	ContainerWebM Container = "webm"
	ContainerMP3  Container = "mp3"
	ContainerWAV  Container = "wav"
)

// ParseContainer parses a container name such as "MP4" or "wav"
func ParseContainer(s string) (Container, error) {
	c := Container(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownContainer, s)
	}
	return c, nil
}

// Valid reports whether the container is one of the supported values
func (c Container) Valid() bool {
	return c.IsVideo() || c.IsAudio()
}

// IsVideo reports whether the container keeps a video stream
func (c Container) IsVideo() bool {
	return c == ContainerMP4 || c == ContainerWebM
}

// IsAudio reports whether the container is produced by audio extraction
func (c Container) IsAudio() bool {
	return c == ContainerMP3 || c == ContainerWAV
}

// Quality is a canonical quality token
type Quality string

// Video quality tokens
const (
	QualityBest   Quality = "BEST"
	Quality1080p  Quality = "1080p"
	Quality720p   Quality = "720p"
	Quality480p   Quality = "480p"
	Quality360p   Quality = "360p"
	QualityLowest Quality = "LOWEST"
)

// Audio quality tokens
const (
	QualityHigh   Quality = "HIGH"
	QualityMedium Quality = "MEDIUM"
	QualityLow    Quality = "LOW"
)

// VideoQualities lists the video tokens from best to worst
var VideoQualities = []Quality{QualityBest, Quality1080p, Quality720p, Quality480p, Quality360p, QualityLowest}

// AudioQualities lists the audio tokens from best to worst
var AudioQualities = []Quality{QualityHigh, QualityMedium, QualityLow}

// FileSuffix returns the suffix appended to video filenames
func (q Quality) FileSuffix() string {
	switch q {
	case QualityBest:
		return "best"
	case QualityLowest:
		return "lowest"
	case "":
		return "best"
	}
	return strings.ToLower(string(q))
}

// DownloadRequest describes one download session. It is never mutated after Start.
type DownloadRequest struct {
	SourceURL         string    `json:"source_url"`
	Container         Container `json:"container"`
	Quality           Quality   `json:"quality"`
	TreatAsCollection bool      `json:"treat_as_collection"`
	DestinationDir    string    `json:"destination_dir"`
}

// Validate checks the caller-supplied fields
func (r DownloadRequest) Validate() error {
	if strings.TrimSpace(r.SourceURL) == "" {
		return ErrEmptyURL
	}
	if !r.Container.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownContainer, r.Container)
	}
	if strings.TrimSpace(r.DestinationDir) == "" {
		return ErrNoDestination
	}
	return nil
}

var collectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)[?&]list=`),
	regexp.MustCompile(`(?i)/playlist(?:[/?#]|$)`),
	// index= also shows up on single in-playlist links; the caller resolves
	// false positives by asking the user.
	regexp.MustCompile(`(?i)[?&]index=`),
}

// LooksLikeCollection reports whether the URL references a playlist rather than a single item
func LooksLikeCollection(url string) bool {
	for _, p := range collectionPatterns {
		if p.MatchString(url) {
			return true
		}
	}
	return false
}
