package learning

import "strings"

// DraftLesson is a lesson as the model emits it, before it has an order or id.
type DraftLesson struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// CourseDraft is a curriculum recovered from model output and not yet persisted.
type CourseDraft struct {
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	TotalLessons int           `json:"totalLessons"`
	Topics       []string      `json:"topics"`
	Lessons      []DraftLesson `json:"lessons"`
}

// Usable reports whether the draft carries enough to become a course.
func (d *CourseDraft) Usable() bool {
	return d != nil && strings.TrimSpace(d.Title) != "" && len(d.Lessons) > 0
}
