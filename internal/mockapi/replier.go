package mockapi

import (
	"hash/fnv"
	"strings"

	"github.com/guilhermegouw/unwind/internal/gateway"
)

// Replier produces the AI side of the conversation.
type Replier interface {
	Reply(text string, history []gateway.MessageDTO) string
}

// ReplierFunc adapts a function to Replier.
type ReplierFunc func(text string, history []gateway.MessageDTO) string

// Reply implements Replier.
func (f ReplierFunc) Reply(text string, history []gateway.MessageDTO) string {
	return f(text, history)
}

// CannedReplier answers with reflective prompts. The choice depends only on
// the input, so tests are deterministic.
type CannedReplier struct{}

var openers = []string{
	"Thank you for sharing that. What do you notice in your body when you think about it?",
	"That sounds like a lot to carry. What feels most pressing right now?",
	"I hear you. When did you first notice feeling this way?",
	"It makes sense that you'd feel that. What would support look like for you today?",
	"Let's slow down for a moment. Can you tell me more about what happened?",
}

var keywordReplies = []struct {
	keyword string
	reply   string
}{
	{"anxious", "Anxiety can feel overwhelming. Let's take a slow breath together. What's on your mind?"},
	{"sleep", "Rest matters a lot. How have your evenings been lately?"},
	{"work", "Work can take up so much space. What part of it weighs on you most?"},
}

// Reply implements Replier.
func (CannedReplier) Reply(text string, history []gateway.MessageDTO) string {
	lower := strings.ToLower(text)
	for _, kr := range keywordReplies {
		if strings.Contains(lower, kr.keyword) {
			return kr.reply
		}
	}
	if len(history) == 0 {
		return "Hi, I'm glad you're here. " + openers[0]
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(lower)) //nolint:errcheck // fnv never fails.
	return openers[h.Sum32()%uint32(len(openers))] //nolint:gosec // G115: len is tiny.
}
