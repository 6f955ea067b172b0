package learning

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/flora-backend/internal/data/repos/testutil"
	types "github.com/yungbote/flora-backend/internal/domain/learning"
)

func TestEnrollmentRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewEnrollmentRepo(db, testutil.Logger(t))
	course := testutil.SeedCourse(t, ctx, tx, uuid.New(), "ENR234")
	student := uuid.New()

	if got, err := repo.Get(ctx, tx, student, course.ID); err != nil || got != nil {
		t.Fatalf("Get before enroll: err=%v got=%+v", err, got)
	}

	testutil.SeedEnrollment(t, ctx, tx, student, course)

	got, err := repo.Get(ctx, tx, student, course.ID)
	if err != nil || got == nil || got.CourseTitle != course.Title || got.LastTopic != "Plasmids" {
		t.Fatalf("Get: err=%v got=%+v", err, got)
	}

	update := ProgressUpdate{CompletedLessons: 2, Percent: 40, LastTopic: "Ligation", At: time.Now().UTC()}
	ok, err := repo.UpdateProgress(ctx, tx, student, course.ID, update)
	if err != nil || !ok {
		t.Fatalf("UpdateProgress: err=%v ok=%v", err, ok)
	}
	ok, err = repo.UpdateProgress(ctx, tx, uuid.New(), course.ID, update)
	if err != nil || ok {
		t.Fatalf("UpdateProgress (not enrolled): err=%v ok=%v", err, ok)
	}

	list, err := repo.ListByStudent(ctx, tx, student)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListByStudent: err=%v list=%+v", err, list)
	}
	if e := list[0]; e.CompletedLessons != 2 || e.Percent != 40 || e.LastTopic != "Ligation" {
		t.Fatalf("progress not stored: %+v", e)
	}
}

func TestEnrollmentListNewestEnrolledFirst(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewEnrollmentRepo(db, testutil.Logger(t))
	student := uuid.New()
	older := testutil.SeedCourse(t, ctx, tx, uuid.New(), "OLD234")
	newer := testutil.SeedCourse(t, ctx, tx, uuid.New(), "NEW234")

	base := time.Now().UTC().Add(-time.Hour)
	for _, e := range []*types.Enrollment{
		// touched most recently but enrolled first
		{StudentID: student, CourseID: older.ID, EnrolledAt: base, LastAccessedAt: base.Add(50 * time.Minute)},
		{StudentID: student, CourseID: newer.ID, EnrolledAt: base.Add(10 * time.Minute), LastAccessedAt: base.Add(10 * time.Minute)},
	} {
		if _, err := repo.Create(ctx, tx, e); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	list, err := repo.ListByStudent(ctx, tx, student)
	if err != nil || len(list) != 2 {
		t.Fatalf("ListByStudent: err=%v len=%d", err, len(list))
	}
	if list[0].CourseID != newer.ID || list[1].CourseID != older.ID {
		t.Fatalf("order = %v, %v; want newest enrollment first", list[0].CourseID, list[1].CourseID)
	}
}
