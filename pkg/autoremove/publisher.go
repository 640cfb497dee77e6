package autoremove

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/chatprune/pkg/audit"
	"github.com/platinummonkey/chatprune/pkg/chat"
	"github.com/platinummonkey/chatprune/pkg/jobs"
	"github.com/platinummonkey/chatprune/pkg/observability"
	"github.com/platinummonkey/chatprune/pkg/storage"
)

// Kick job dispatch statuses
const (
	kickDispatched = "dispatched"
	kickFailed     = "failed"
)

// publisher applies a removal set and tells the rest of the system about it
type publisher struct {
	dispatcher jobs.Dispatcher
	kickDelay  time.Duration
	logger     logrus.FieldLogger
	metrics    *observability.Metrics
}

// evict deletes the planned memberships inside tx, refreshes member counts
// and writes one audit entry per channel. It returns what was actually
// deleted.
func (p *publisher) evict(ctx context.Context, tx storage.Tx, event Event, planned chat.RemovalMap) (chat.RemovalMap, error) {
	removed := chat.RemovalMap{}
	for _, channelID := range planned.ChannelIDs() {
		userIDs, err := tx.DeleteMemberships(ctx, channelID, planned[channelID])
		if err != nil {
			return nil, fmt.Errorf("failed to evict from channel %d: %w", channelID, err)
		}
		removed.Add(channelID, userIDs...)
	}
	removed.Normalize()
	if removed.IsEmpty() {
		return removed, nil
	}

	channelIDs := removed.ChannelIDs()
	if err := tx.RefreshUserCounts(ctx, channelIDs); err != nil {
		return nil, err
	}

	auditLog := audit.NewMultiLogger(tx.Audit(), audit.NewLogrusLogger(p.logger))
	for _, channelID := range channelIDs {
		entry := audit.NewAutoRemoveEvent(channelID, len(removed[channelID]), string(event))
		if err := auditLog.Log(ctx, entry); err != nil {
			return nil, fmt.Errorf("failed to audit channel %d: %w", channelID, err)
		}
	}

	return removed, nil
}

// notify enqueues one kick job per channel. Failures are logged and
// counted; the eviction already committed. It returns the number of
// failed dispatches.
func (p *publisher) notify(ctx context.Context, event Event, removed chat.RemovalMap) int {
	if p.dispatcher == nil {
		return 0
	}

	failed := 0
	for _, channelID := range removed.ChannelIDs() {
		job := jobs.NewKickUsersJob(channelID, removed[channelID], string(event), p.kickDelay)
		logger := p.logger.WithFields(logrus.Fields{
			"job_id":     job.ID,
			"channel_id": channelID,
			"users":      len(job.UserIDs),
		})

		if err := p.dispatcher.Dispatch(ctx, job); err != nil {
			failed++
			p.metrics.KickJobsTotal.WithLabelValues(kickFailed).Inc()
			logger.WithError(err).Warn("Failed to dispatch kick job")
			continue
		}

		p.metrics.KickJobsTotal.WithLabelValues(kickDispatched).Inc()
		logger.Debug("Dispatched kick job")
	}
	return failed
}
