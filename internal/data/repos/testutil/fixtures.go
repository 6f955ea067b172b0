package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/flora-backend/internal/domain/learning"
)

func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, educatorID uuid.UUID, enrollCode string) *types.Course {
	tb.Helper()
	now := time.Now().UTC()
	c := &types.Course{
		ID:           uuid.New(),
		Title:        "Molecular Cloning",
		Description:  "Plasmids, ligation and transformation",
		TotalLessons: 0,
		Topics:       types.EncodeTopics([]string{"Plasmids", "Ligation"}),
		EducatorID:   educatorID,
		EducatorName: "Dr. Vega",
		EnrollCode:   enrollCode,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

func SeedEnrollment(tb testing.TB, ctx context.Context, tx *gorm.DB, studentID uuid.UUID, course *types.Course) *types.Enrollment {
	tb.Helper()
	now := time.Now().UTC()
	lastTopic := types.DefaultLastTopic
	if topics := course.TopicList(); len(topics) > 0 {
		lastTopic = topics[0]
	}
	e := &types.Enrollment{
		ID:             uuid.New(),
		StudentID:      studentID,
		CourseID:       course.ID,
		CourseTitle:    course.Title,
		Description:    course.Description,
		TotalLessons:   course.TotalLessons,
		Topics:         course.Topics,
		EducatorName:   course.EducatorName,
		EnrollCode:     course.EnrollCode,
		LastTopic:      lastTopic,
		EnrolledAt:     now,
		LastAccessedAt: now,
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed enrollment: %v", err)
	}
	return e
}
