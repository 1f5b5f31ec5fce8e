// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package obs

// flag is a boolean output state that starts unknown in every epoch.
type flag struct {
	known bool
	on    bool
}

// sceneSource is one item of the current scene.
type sceneSource struct {
	ID      int
	Name    string
	Enabled bool
}

// snapshot mirrors the remote state of one epoch.
type snapshot struct {
	scenesKnown  bool
	currentScene string
	// scenes in display order: the peer's list reversed.
	scenes []string

	sourcesKnown bool
	sourcesScene string
	// sources in display order, topmost first.
	sources []sceneSource

	stream             flag
	streamReconnecting flag
	record             flag
	recordPaused       flag
	virtualCam         flag
	replayBuffer       flag

	framesKnown    bool
	skippedFrames  int64
	totalFrames    int64
	streamTimecode string
	recordTimecode string
}

func (s *snapshot) reset() {
	*s = snapshot{}
}

// empty reports whether nothing has been learned in this epoch.
func (s *snapshot) empty() bool {
	return !s.scenesKnown && s.currentScene == "" && len(s.scenes) == 0 &&
		!s.sourcesKnown && len(s.sources) == 0 &&
		s.stream == flag{} && s.streamReconnecting == flag{} &&
		s.record == flag{} && s.recordPaused == flag{} &&
		s.virtualCam == flag{} && s.replayBuffer == flag{} &&
		!s.framesKnown && s.skippedFrames == 0 && s.totalFrames == 0 &&
		s.streamTimecode == "" && s.recordTimecode == ""
}

// sourceIndex returns the position of the item with the given id in
// the current scene's source list, or -1.
func (s *snapshot) sourceIndex(id int) int {
	for index, source := range s.sources {
		if source.ID == id {
			return index
		}
	}
	return -1
}

// setFlag records value and reports whether the field was known and
// changed, which is what counts as news.
func setFlag(field *flag, value bool) (news bool) {
	news = field.known && field.on != value
	field.known = true
	field.on = value
	return news
}
