package platform

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockClient records every platform call for assertions in tests.
// Intentionally exported for use by other packages' tests.
type MockClient struct {
	mu sync.Mutex

	Deleted     []string // "channel/message"
	Banned      []string
	Timeouts    map[string]time.Duration
	ChannelMsgs map[string][]string
	DirectMsgs  map[string][]string

	// FailDirectMessages makes DM delivery fail, to exercise the
	// public-channel fallback path.
	FailDirectMessages bool
}

func NewMockClient() *MockClient {
	return &MockClient{
		Timeouts:    make(map[string]time.Duration),
		ChannelMsgs: make(map[string][]string),
		DirectMsgs:  make(map[string][]string),
	}
}

func (m *MockClient) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deleted = append(m.Deleted, channelID+"/"+messageID)
	return nil
}

func (m *MockClient) TimeoutAuthor(ctx context.Context, tenantID, authorID string, dur time.Duration, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Timeouts[authorID] = dur
	return nil
}

func (m *MockClient) BanAuthor(ctx context.Context, tenantID, authorID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Banned = append(m.Banned, authorID)
	return nil
}

func (m *MockClient) SendChannelMessage(ctx context.Context, channelID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChannelMsgs[channelID] = append(m.ChannelMsgs[channelID], text)
	return nil
}

func (m *MockClient) SendDirectMessage(ctx context.Context, authorID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailDirectMessages {
		return fmt.Errorf("direct messages disabled for %s", authorID)
	}
	m.DirectMsgs[authorID] = append(m.DirectMsgs[authorID], text)
	return nil
}

// ChannelMessageCount returns how many messages were sent to a channel.
func (m *MockClient) ChannelMessageCount(channelID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ChannelMsgs[channelID])
}

var _ Client = (*MockClient)(nil)
