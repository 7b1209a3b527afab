// Package format maps container and quality choices onto yt-dlp format
// selectors and post-processing steps.
package format

import (
	"fmt"

	"github.com/yourusername/vidfetch-go/internal/domain"
)

// FallbackSelector is used for containers the resolver does not know
const FallbackSelector = "best"

var videoHeights = map[domain.Quality]int{
	domain.Quality1080p: 1080,
	domain.Quality720p:  720,
	domain.Quality480p:  480,
	domain.Quality360p:  360,
}

var mp3Bitrates = map[domain.Quality]string{
	domain.QualityHigh:   "320K",
	domain.QualityMedium: "192K",
	domain.QualityLow:    "128K",
}

// Minimum source audio bitrate (kbps) per tier so WAV output is never
// upsampled from a weaker stream.
var wavMinSourceBitrates = map[domain.Quality]int{
	domain.QualityHigh:   256,
	domain.QualityMedium: 160,
	domain.QualityLow:    96,
}

// Resolve returns the format selector and post-processors for a container and
// canonical quality. Unknown qualities fall back to the container's best tier.
func Resolve(container domain.Container, quality domain.Quality) (string, []domain.PostProcessor) {
	switch container {
	case domain.ContainerMP4:
		return videoSelector("mp4", "m4a", quality), nil
	case domain.ContainerWebM:
		return videoSelector("webm", "webm", quality), nil
	case domain.ContainerMP3:
		bitrate, ok := mp3Bitrates[quality]
		if !ok {
			bitrate = mp3Bitrates[domain.QualityHigh]
		}
		return "bestaudio/best", []domain.PostProcessor{{
			Kind:    domain.PostProcessorExtractAudio,
			Codec:   "mp3",
			Quality: bitrate,
		}}
	case domain.ContainerWAV:
		minABR, ok := wavMinSourceBitrates[quality]
		if !ok {
			minABR = wavMinSourceBitrates[domain.QualityHigh]
		}
		selector := fmt.Sprintf("bestaudio[abr>=%d]/bestaudio/best", minABR)
		return selector, []domain.PostProcessor{{
			Kind:  domain.PostProcessorExtractAudio,
			Codec: "wav",
		}}
	}
	return FallbackSelector, nil
}

func videoSelector(ext, audioExt string, quality domain.Quality) string {
	if quality == domain.QualityLowest {
		return fmt.Sprintf("worst[ext=%s]", ext)
	}
	height, capped := videoHeights[quality]
	if !capped {
		return fmt.Sprintf("bestvideo[ext=%s]+bestaudio[ext=%s]/best[ext=%s]", ext, audioExt, ext)
	}
	return fmt.Sprintf("bestvideo[height<=%d][ext=%s]+bestaudio[ext=%s]/best[height<=%d][ext=%s]",
		height, ext, audioExt, height, ext)
}
