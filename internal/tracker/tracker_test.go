package tracker

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/vidfetch-go/internal/domain"
)

func TestTracker_DuplicateDestinationCountedOnce(t *testing.T) {
	tr := New()
	line := "[download] Destination: /tmp/out/Song [AAAAAAAAAAA]-best.mp4"
	tr.Info(line)
	tr.Info(line)

	succeeded := tr.Succeeded()
	require.Len(t, succeeded, 1)
	assert.Equal(t, "AAAAAAAAAAA", succeeded[0].ItemID)
	assert.Equal(t, "Song", succeeded[0].Title)
	assert.Equal(t, Counts{Succeeded: 1}, tr.Counts())
}

func TestTracker_SuccessAndFailureAttributed(t *testing.T) {
	tr := New()
	tr.Info("[download] Destination: /tmp/out/Song [AAAAAAAAAAA]-best.mp4")
	tr.Error("ERROR: [youtube] CCCCCCCCCCC: Private video. Sign in if you've been granted access to this video")

	succeeded := tr.Succeeded()
	failed := tr.Failed()
	require.Len(t, succeeded, 1)
	require.Len(t, failed, 1)

	assert.Equal(t, "AAAAAAAAAAA", succeeded[0].ItemID)
	assert.Equal(t, domain.ItemSucceeded, succeeded[0].Status)
	assert.Empty(t, succeeded[0].ErrorDetail)

	assert.Equal(t, "CCCCCCCCCCC", failed[0].ItemID)
	assert.Equal(t, domain.ItemFailed, failed[0].Status)
	assert.Equal(t, domain.UnknownTitle, failed[0].Title)
	assert.Contains(t, failed[0].ErrorDetail, "Private video")
	assert.Equal(t, "https://www.youtube.com/watch?v=CCCCCCCCCCC", failed[0].SourceURL)
}

func TestTracker_SkipLines(t *testing.T) {
	tr := New()
	tr.Info("[download] /tmp/out/Old [AAAAAAAAAAA]-best.mp4 has already been downloaded")
	tr.Info("[download] BBBBBBBBBBB: has already been recorded in the archive")
	tr.Info("[download] BBBBBBBBBBB: has already been recorded in the archive")

	skipped := tr.Skipped()
	require.Len(t, skipped, 2)
	assert.Equal(t, "Old", skipped[0].Title)
	assert.Equal(t, "Item BBBBBBBBBBB", skipped[1].Title)
	assert.Equal(t, Counts{Skipped: 2}, tr.Counts())
}

func TestTracker_DestinationWithoutIDUsesAnnouncedItem(t *testing.T) {
	tr := New()
	tr.Info("[youtube] DDDDDDDDDDD: Downloading webpage")
	tr.Info("[download] Destination: /tmp/out/custom-name.mp4")

	require.Len(t, tr.Succeeded(), 1)
	assert.Equal(t, "DDDDDDDDDDD", tr.Succeeded()[0].ItemID)
	assert.Equal(t, "custom-name", tr.Succeeded()[0].Title)
	assert.Equal(t, "DDDDDDDDDDD", tr.CurrentItem())
}

func TestTracker_FailureReplacesEarlierSuccess(t *testing.T) {
	tr := New()
	tr.Info("[download] Destination: /tmp/out/Long [EEEEEEEEEEE]-best.mp4")
	tr.Error("ERROR: [download] EEEEEEEEEEE: fragment 12 not found, unable to continue")

	assert.Empty(t, tr.Succeeded())
	failed := tr.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "Long", failed[0].Title)
	assert.Len(t, tr.Items(), 1)
}

func TestTracker_UnattributedErrors(t *testing.T) {
	tr := New()
	tr.Error("ERROR: Unable to connect to host")

	assert.Empty(t, tr.Items())
	assert.Equal(t, []string{"ERROR: Unable to connect to host"}, tr.Diagnostics())
	assert.Equal(t, 1, tr.LineCount(domain.LogError))
}

func TestTracker_Warnings(t *testing.T) {
	tr := New()
	tr.Warning("WARNING: [youtube] AAAAAAAAAAA: SABR streaming is forced for this client")
	tr.Warning("WARNING: unable to extract uploader")

	assert.Equal(t, []string{"WARNING: unable to extract uploader"}, tr.Warnings())
	assert.Equal(t, 1, tr.SuppressedWarnings())
	assert.Equal(t, 2, tr.LineCount(domain.LogWarning))
	assert.Empty(t, tr.Items())
}

func TestTracker_HandleDispatch(t *testing.T) {
	tr := New()
	tr.Handle(domain.LogDebug, "[debug] Command-line config")
	tr.Handle(domain.LogInfo, "[download] Destination: /tmp/out/A [AAAAAAAAAAA]-best.mp4")
	tr.Handle(domain.LogWarning, "WARNING: something")
	tr.Handle(domain.LogError, "ERROR: [youtube] BBBBBBBBBBB: Video unavailable")

	assert.Equal(t, 1, tr.LineCount(domain.LogDebug))
	assert.Equal(t, Counts{Succeeded: 1, Failed: 1}, tr.Counts())
	assert.Equal(t, 2, tr.Counts().Total())
}

func TestTracker_ConcurrentLines(t *testing.T) {
	tr := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("ID%09d", n)
			tr.Info(fmt.Sprintf("[download] Destination: /tmp/out/t%d [%s]-best.mp4", n, id))
			tr.Info(fmt.Sprintf("[download] Destination: /tmp/out/t%d [%s]-best.mp4", n, id))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, tr.Counts().Succeeded)
}
