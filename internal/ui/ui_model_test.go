package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/intervals/internal/timer"
)

func TestUIModel_NoticeExpires(t *testing.T) {
	h := newHarness(t)

	h.model.SetNotice("first")
	h.model.SetNotice("second")
	assert.Equal(t, "second", h.notice())
	assert.Equal(t, 1, h.notices.stopped)

	// The first expiry is stale and must not hide the second notice
	h.notices.fire(0)
	assert.Equal(t, "second", h.notice())

	h.notices.fire(1)
	assert.Empty(t, h.notice())
}

func TestUIModel_NoticePublishesState(t *testing.T) {
	h := newHarness(t)
	ch := make(chan UIState, 4)
	unregister := h.model.ListenToUIState(ch)
	defer unregister()

	h.model.SetNotice("hello")

	require.Eventually(t, func() bool {
		select {
		case s := <-ch:
			return s.Notice == "hello"
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestUIModel_SetModePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultStateFile)

	first := newHarness(t, withStatePath(path))
	assert.Equal(t, UIModeTimer, first.model.GetUIState().Mode)
	first.model.SetMode(UIModeCountdown)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"last_mode": "countdown"`)

	second := newHarness(t, withStatePath(path))
	assert.Equal(t, UIModeCountdown, second.model.GetUIState().Mode)
}

func TestUIModel_CorruptStateFileIsIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultStateFile)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	h := newHarness(t, withStatePath(path))

	assert.Equal(t, UIModeTimer, h.model.GetUIState().Mode)
	assert.Equal(t, timer.DefaultDefinition(), h.interval.Definition())
}

func TestUIModel_LogTail(t *testing.T) {
	h := newHarness(t)
	for i := 1; i <= 5; i++ {
		h.logChan <- fmt.Sprintf("line %d\n", i)
	}

	require.Eventually(t, func() bool {
		return len(h.model.GetLogTail(10)) == 5
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, []string{"line 4\n", "line 5\n"}, h.model.GetLogTail(2))
	assert.Empty(t, h.model.GetLogTail(0))
}

func TestUIModel_CueFired(t *testing.T) {
	h := newHarness(t)
	ch := make(chan string, 1)
	unregister := h.model.ListenToCues(ch)
	defer unregister()

	h.model.CueFired("warn: Work")

	select {
	case label := <-ch:
		assert.Equal(t, "warn: Work", label)
	case <-time.After(time.Second):
		t.Fatal("cue not published")
	}
}

func TestUIModes(t *testing.T) {
	for _, info := range AllUIModes {
		mode, ok := GetUIModeByKey(info.KeyBinding)
		require.True(t, ok)
		assert.Equal(t, info.Mode, mode)

		byName, ok := getUIModeByName(info.Key)
		require.True(t, ok)
		assert.Equal(t, info.Mode, byName)
	}

	_, ok := GetUIModeByKey('9')
	assert.False(t, ok)
	_, ok = GetUIModeInfo(UIMode(42))
	assert.False(t, ok)
}
