package learning

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/flora-backend/internal/data/repos/testutil"
	types "github.com/yungbote/flora-backend/internal/domain/learning"
)

func TestLessonRepoOrdersByPosition(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewLessonRepo(db, testutil.Logger(t))
	course := testutil.SeedCourse(t, ctx, tx, uuid.New(), "LES234")

	now := time.Now().UTC()
	_, err := repo.Create(ctx, tx, []*types.Lesson{
		{CourseID: course.ID, Title: "Third", Order: 3, CreatedAt: now},
		{CourseID: course.ID, Title: "First", Order: 1, CreatedAt: now},
		{CourseID: course.ID, Title: "Second", Order: 2, CreatedAt: now},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.ListByCourse(ctx, tx, course.ID)
	if err != nil {
		t.Fatalf("ListByCourse: %v", err)
	}
	if len(got) != 3 || got[0].Title != "First" || got[1].Title != "Second" || got[2].Title != "Third" {
		t.Fatalf("unexpected order: %+v", got)
	}

	empty, err := repo.ListByCourse(ctx, tx, uuid.New())
	if err != nil || len(empty) != 0 {
		t.Fatalf("ListByCourse (unknown): err=%v len=%d", err, len(empty))
	}
}
