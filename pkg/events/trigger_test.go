package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/chatprune/pkg/autoremove"
)

func TestTrigger_RoundTrip(t *testing.T) {
	trigger := NewTrigger(autoremove.EventDestroyedGroup)
	trigger.UserIDs = []int64{3, 4}
	require.NotEmpty(t, trigger.ID)

	data, err := trigger.Encode()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"destroyed_group"`)
	assert.Contains(t, string(data), `"user_ids":[3,4]`)
	assert.NotContains(t, string(data), "category_id")

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, trigger.ID, decoded.ID)
	assert.Equal(t, []int64{3, 4}, decoded.UserIDs)
	assert.True(t, trigger.OccurredAt.Equal(decoded.OccurredAt))
}

func TestDecode(t *testing.T) {
	trigger, err := Decode([]byte(`{"type":"category_updated","category_id":7}`))
	require.NoError(t, err)
	assert.Equal(t, autoremove.EventCategoryUpdated, trigger.Type)
	assert.Equal(t, int64(7), trigger.CategoryID)
	assert.NotEmpty(t, trigger.ID, "missing id is generated")

	_, err = Decode([]byte(`{"category_id":7}`))
	assert.ErrorIs(t, err, ErrUnknownTrigger)

	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestTrigger_ChangesAllowedGroups(t *testing.T) {
	assert.True(t, NewTrigger(autoremove.EventChatAllowedGroupsChanged).ChangesAllowedGroups())
	assert.True(t, NewTrigger(autoremove.EventOutsideChatAllowedGroups).ChangesAllowedGroups())
	assert.False(t, NewTrigger(autoremove.EventCategoryUpdated).ChangesAllowedGroups())
}
