package main

import (
	"time"

	"github.com/loov/hrtime"
	log "github.com/sirupsen/logrus"
)

type frameReport struct {
	Frames    int
	PerSecond float64
	MeanFrame time.Duration
}

// frameStats accumulates frame times and logs a summary every interval.
type frameStats struct {
	log      *log.Entry
	interval time.Duration
	now      func() time.Duration

	windowStart time.Duration
	last        time.Duration
	frames      int
	total       time.Duration
}

func newFrameStats(entry *log.Entry, interval time.Duration) *frameStats {
	s := &frameStats{log: entry, interval: interval, now: hrtime.Now}
	s.reset(s.now())
	return s
}

func (s *frameStats) reset(now time.Duration) {
	s.windowStart = now
	s.last = now
	s.frames = 0
	s.total = 0
}

// Frame records the end of a frame.
func (s *frameStats) Frame() {
	if report, ok := s.tick(); ok {
		s.log.WithFields(log.Fields{
			"frames": report.Frames,
			"fps":    report.PerSecond,
			"mean":   report.MeanFrame,
		}).Debug("Frame stats")
	}
}

func (s *frameStats) tick() (frameReport, bool) {
	if s.interval <= 0 {
		return frameReport{}, false
	}

	now := s.now()
	s.total += now - s.last
	s.last = now
	s.frames++

	elapsed := now - s.windowStart
	if elapsed < s.interval {
		return frameReport{}, false
	}

	report := frameReport{
		Frames:    s.frames,
		PerSecond: float64(s.frames) / elapsed.Seconds(),
		MeanFrame: s.total / time.Duration(s.frames),
	}
	s.reset(now)
	return report, true
}
