package bridge

import (
	"context"

	"github.com/yungbote/flora-backend/internal/platform/gemini"
)

type geminiModel struct {
	client *gemini.Client
}

// GeminiModel adapts the Gemini streaming client to Model.
func GeminiModel(client *gemini.Client) Model {
	return &geminiModel{client: client}
}

func (m *geminiModel) OpenStream(ctx context.Context, req Request) (Stream, error) {
	history := make([]gemini.Turn, 0, len(req.History))
	for _, h := range req.History {
		history = append(history, gemini.Turn{Role: h.Speaker, Text: h.Text})
	}
	s, err := m.client.OpenStream(ctx, gemini.Request{
		System:  req.System,
		History: history,
		Message: req.Message,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}
