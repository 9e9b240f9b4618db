package waitlist

import "math"

// displayCount projects the marketing-facing waitlist number: a linear ramp
// from baseline to target over the campaign window, wobbled by a per-day
// deterministic jitter so the figure moves a little day to day, floored at
// the actual count and capped at the target.
func (s *Service) displayCount(actual int) int {
	if s.cfg.OverrideDisplayCount != nil {
		return *s.cfg.OverrideDisplayCount
	}

	start := s.cfg.CampaignStart
	now := s.clock()
	if start.IsZero() {
		start = now
	}
	days := int(math.Floor(now.Sub(start).Hours() / 24))
	if days < 0 {
		days = 0
	}

	targetDays := s.cfg.TargetDays
	if targetDays < 1 {
		targetDays = 1
	}
	ramp := days
	if ramp > targetDays {
		ramp = targetDays
	}
	slope := float64(s.cfg.TargetCount-s.cfg.BaselineCount) / float64(targetDays)
	projected := float64(s.cfg.BaselineCount) + slope*float64(ramp)

	jitter := 0
	if s.cfg.JitterRange > 0 {
		jitter = stableJitter(days, s.cfg.JitterRange)
	}

	display := int(math.Round(projected)) + jitter
	if actual > display {
		display = actual
	}
	if display > s.cfg.TargetCount {
		display = s.cfg.TargetCount
	}
	return display
}

// stableJitter maps a day index to a pseudo-random offset in [-span, span].
// Same day always produces the same offset.
func stableJitter(dayIndex, span int) int {
	raw := math.Sin(float64(dayIndex+1)) * 10000
	fraction := raw - math.Floor(raw)
	return int(math.Round((fraction*2 - 1) * float64(span)))
}
