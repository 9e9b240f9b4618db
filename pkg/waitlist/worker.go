package waitlist

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// BatchResult summarizes one invite batch run.
type BatchResult struct {
	Invited int
	Skipped bool
	Reason  string
}

// ProcessInviteBatch invites up to the configured batch limit of fully
// verified entries that have aged past the minimum entry age, oldest first.
// Runs only inside the configured send window; a dispatch failure for one
// entry is counted and does not stop the batch.
func (s *Service) ProcessInviteBatch(ctx context.Context, cohortTag string) (*BatchResult, error) {
	now := s.clock()
	inside, err := s.withinInviteWindow(now)
	if err != nil {
		return nil, err
	}
	if !inside {
		if s.logger != nil {
			s.logger.Debug("skipping invite batch; outside invite window")
		}
		return &BatchResult{Skipped: true, Reason: "outside-window"}, nil
	}

	cutoff := now.Add(-s.cfg.InviteMinEntryAge)
	eligible, err := s.store.ListInvitable(ctx, cutoff, s.cfg.InviteBatchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitable entries: %w", err)
	}

	result := &BatchResult{}
	for _, entry := range eligible {
		if _, err := s.MarkInvited(ctx, entry.Email, cohortTag); err != nil {
			if s.logger != nil {
				s.logger.WithError(err).WithField("email", entry.Email).Error("failed to invite waitlist entry")
			}
			continue
		}
		result.Invited++
	}
	return result, nil
}

// withinInviteWindow reports whether now falls inside the configured wall
// clock window in the configured timezone, inclusive on both ends.
func (s *Service) withinInviteWindow(now time.Time) (bool, error) {
	loc, err := time.LoadLocation(s.cfg.InviteWindowTZ)
	if err != nil {
		return false, fmt.Errorf("invalid invite window timezone %q: %w", s.cfg.InviteWindowTZ, err)
	}
	start, err := parseClockMinutes(s.cfg.InviteWindowStart)
	if err != nil {
		return false, err
	}
	end, err := parseClockMinutes(s.cfg.InviteWindowEnd)
	if err != nil {
		return false, err
	}
	zoned := now.In(loc)
	minutes := zoned.Hour()*60 + zoned.Minute()
	return minutes >= start && minutes <= end, nil
}

// parseClockMinutes converts "HH:MM" to minutes since midnight.
func parseClockMinutes(value string) (int, error) {
	parts := strings.SplitN(value, ":", 2)
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q: %w", value, err)
	}
	m := 0
	if len(parts) == 2 {
		if m, err = strconv.Atoi(parts[1]); err != nil {
			return 0, fmt.Errorf("invalid clock value %q: %w", value, err)
		}
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid clock value %q: out of range", value)
	}
	return h*60 + m, nil
}
