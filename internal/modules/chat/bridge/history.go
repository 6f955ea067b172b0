package bridge

import "github.com/yungbote/flora-backend/internal/domain/chat"

// Upstream speakers. The model only knows these two.
const (
	SpeakerUser  = "user"
	SpeakerModel = "model"
)

// OpeningFiller is sent ahead of a history that starts with a model turn.
const OpeningFiller = "Hello! Let's get started."

// HistoryTurn is one prior turn in the upstream model's vocabulary.
type HistoryTurn struct {
	Speaker string
	Text    string
}

// SplitConversation separates the newest message from the prior turns and maps
// the prior turns onto the upstream vocabulary. The upstream chat API rejects a
// history whose first turn is not the user's, so a filler user turn is prepended
// when needed. msgs is only read; the returned history is a fresh slice.
func SplitConversation(msgs []chat.Message) (history []HistoryTurn, latest string) {
	if len(msgs) == 0 {
		return nil, ""
	}
	latest = msgs[len(msgs)-1].Content
	prior := msgs[:len(msgs)-1]
	if len(prior) == 0 {
		return nil, latest
	}

	history = make([]HistoryTurn, 0, len(prior)+1)
	for _, m := range prior {
		history = append(history, HistoryTurn{Speaker: speakerFor(m.Role), Text: m.Content})
	}
	if history[0].Speaker == SpeakerModel {
		history = append([]HistoryTurn{{Speaker: SpeakerUser, Text: OpeningFiller}}, history...)
	}
	return history, latest
}

func speakerFor(role chat.MessageRole) string {
	if role == chat.MessageRoleUser {
		return SpeakerUser
	}
	return SpeakerModel
}
