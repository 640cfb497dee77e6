package events

import (
	"context"
	"sync"

	"github.com/segmentio/kafka-go"

	"github.com/platinummonkey/chatprune/pkg/autoremove"
	"github.com/platinummonkey/chatprune/pkg/chat"
)

type call struct {
	event autoremove.Event
	site  chat.SiteSettings
	input any
}

// fakeHandler records calls and returns errs in order, then nil
type fakeHandler struct {
	mu    sync.Mutex
	calls []call
	errs  []error
}

func (h *fakeHandler) record(event autoremove.Event, site chat.SiteSettings, input any) (*autoremove.Result, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, call{event: event, site: site, input: input})
	if len(h.errs) > 0 {
		err := h.errs[0]
		h.errs = h.errs[1:]
		return nil, err
	}
	return &autoremove.Result{Event: event, UsersRemoved: chat.RemovalMap{}}, nil
}

func (h *fakeHandler) HandleCategoryUpdated(ctx context.Context, site chat.SiteSettings, in autoremove.CategoryUpdatedInput) (*autoremove.Result, error) {
	return h.record(autoremove.EventCategoryUpdated, site, in)
}

func (h *fakeHandler) HandleDestroyedGroup(ctx context.Context, site chat.SiteSettings, in autoremove.DestroyedGroupInput) (*autoremove.Result, error) {
	return h.record(autoremove.EventDestroyedGroup, site, in)
}

func (h *fakeHandler) HandleUserRemovedFromGroup(ctx context.Context, site chat.SiteSettings, in autoremove.UserRemovedFromGroupInput) (*autoremove.Result, error) {
	return h.record(autoremove.EventUserRemovedFromGroup, site, in)
}

func (h *fakeHandler) HandleChatAllowedGroupsChanged(ctx context.Context, site chat.SiteSettings, in autoremove.AllowedGroupsChangedInput) (*autoremove.Result, error) {
	return h.record(autoremove.EventChatAllowedGroupsChanged, site, in)
}

func (h *fakeHandler) HandleOutsideChatAllowedGroups(ctx context.Context, site chat.SiteSettings, in autoremove.AllowedGroupsChangedInput) (*autoremove.Result, error) {
	return h.record(autoremove.EventOutsideChatAllowedGroups, site, in)
}

func (h *fakeHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.calls)
}

// cachingProvider counts invalidations
type cachingProvider struct {
	site        chat.SiteSettings
	err         error
	invalidated int
}

func (p *cachingProvider) Get(ctx context.Context) (chat.SiteSettings, error) {
	return p.site, p.err
}

func (p *cachingProvider) Invalidate() {
	p.invalidated++
}

// fakeReader serves queued messages and cancels the run once drained
type fakeReader struct {
	messages  []kafka.Message
	committed []kafka.Message
	cancel    context.CancelFunc
	fetchErr  error
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if r.fetchErr != nil {
		return kafka.Message{}, r.fetchErr
	}
	if len(r.messages) == 0 {
		r.cancel()
		return kafka.Message{}, ctx.Err()
	}
	msg := r.messages[0]
	r.messages = r.messages[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func message(offset int64, t *Trigger) kafka.Message {
	data, err := t.Encode()
	if err != nil {
		panic(err)
	}
	return kafka.Message{Offset: offset, Value: data}
}
