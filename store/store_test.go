package store

import (
	"testing"

	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/model"
	"github.com/stretchr/testify/assert"
)

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_now \\o/`, EscapeLike(`50% off_now \o/`))
}

func TestPairKeyFor(t *testing.T) {
	two := &model.Conversation{Participants: []model.Participant{{UserID: "z"}, {UserID: "a"}}}
	three := &model.Conversation{Participants: []model.Participant{{UserID: "a"}, {UserID: "b"}, {UserID: "c"}}}

	assert.Equal(t, "1:a|1:z", PairKeyFor(two))
	assert.Empty(t, PairKeyFor(three))
}

func TestCloneConversationIsDeep(t *testing.T) {
	c := &model.Conversation{
		ID:           "c1",
		Participants: []model.Participant{{UserID: "a"}},
		UnreadCounts: map[string]int{"a": 1},
		LastMessage:  &model.LastMessage{Text: "hi"},
	}
	cp := CloneConversation(c)
	cp.UnreadCounts["a"] = 5
	cp.LastMessage.Text = "changed"
	cp.Participants[0].UserID = "b"

	assert.Equal(t, 1, c.UnreadCounts["a"])
	assert.Equal(t, "hi", c.LastMessage.Text)
	assert.Equal(t, "a", c.Participants[0].UserID)
}
