package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/flora-backend/internal/data/repos"
	types "github.com/yungbote/flora-backend/internal/domain/learning"
	"github.com/yungbote/flora-backend/internal/platform/logger"
)

// Educator is the owner stamped on a new course.
type Educator struct {
	ID   uuid.UUID
	Name string
}

// CourseInput is a manually authored course.
type CourseInput struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	TotalLessons int      `json:"totalLessons"`
	Topics       []string `json:"topics"`
}

// ProgressInput is what a student reports after working through a course.
type ProgressInput struct {
	CompletedLessons int    `json:"completedLessons"`
	LastTopic        string `json:"lastTopic"`
}

const defaultActivityLimit = 20

type CourseService interface {
	CreateFromDraft(ctx context.Context, owner Educator, draft *types.CourseDraft) (*types.Course, error)
	Create(ctx context.Context, owner Educator, in CourseInput) (*types.Course, error)
	ListForEducator(ctx context.Context, educatorID uuid.UUID) ([]*types.Course, error)
	GetLessons(ctx context.Context, courseID uuid.UUID) ([]*types.Lesson, error)
	EnrollWithCode(ctx context.Context, studentID uuid.UUID, code string) (*types.Enrollment, error)
	ListEnrollments(ctx context.Context, studentID uuid.UUID) ([]*types.Enrollment, error)
	UpdateProgress(ctx context.Context, studentID, courseID uuid.UUID, in ProgressInput) (*types.Enrollment, error)
	ListActivity(ctx context.Context, studentID uuid.UUID, limit int) ([]*types.ActivityEvent, error)
}

type courseService struct {
	db             *gorm.DB
	log            *logger.Logger
	courseRepo     repos.CourseRepo
	lessonRepo     repos.LessonRepo
	enrollmentRepo repos.EnrollmentRepo
	activityRepo   repos.ActivityRepo
	codes          EnrollCodeGenerator
	now            func() time.Time
}

type CourseServiceOption func(*courseService)

func WithEnrollCodeGenerator(gen EnrollCodeGenerator) CourseServiceOption {
	return func(cs *courseService) {
		if gen != nil {
			cs.codes = gen
		}
	}
}

func NewCourseService(
	db *gorm.DB,
	baseLog *logger.Logger,
	courseRepo repos.CourseRepo,
	lessonRepo repos.LessonRepo,
	enrollmentRepo repos.EnrollmentRepo,
	activityRepo repos.ActivityRepo,
	opts ...CourseServiceOption,
) CourseService {
	cs := &courseService{
		db:             db,
		log:            baseLog.With("service", "CourseService"),
		courseRepo:     courseRepo,
		lessonRepo:     lessonRepo,
		enrollmentRepo: enrollmentRepo,
		activityRepo:   activityRepo,
		codes:          randomEnrollCode,
		now:            func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(cs)
	}
	return cs
}

func (cs *courseService) CreateFromDraft(ctx context.Context, owner Educator, draft *types.CourseDraft) (*types.Course, error) {
	if draft == nil || !draft.Usable() {
		return nil, ErrNoDraft
	}

	in := CourseInput{
		Title:        draft.Title,
		Description:  draft.Description,
		TotalLessons: draft.TotalLessons,
		Topics:       draft.Topics,
	}
	created, err := cs.insertCourse(ctx, owner, in, func(ctx context.Context, tx *gorm.DB, course *types.Course) error {
		// the lesson list is authoritative over the model's own count
		course.TotalLessons = len(draft.Lessons)
		course.IsAIGenerated = true
		if _, err := cs.courseRepo.Create(ctx, tx, []*types.Course{course}); err != nil {
			return err
		}

		lessons := make([]*types.Lesson, 0, len(draft.Lessons))
		for i, l := range draft.Lessons {
			lessons = append(lessons, &types.Lesson{
				ID:        uuid.New(),
				CourseID:  course.ID,
				Title:     l.Title,
				Content:   l.Content,
				Order:     i + 1,
				CreatedAt: course.CreatedAt,
			})
		}
		_, err := cs.lessonRepo.Create(ctx, tx, lessons)
		return err
	})
	if err != nil {
		cs.log.Error("Failed to create course from draft", "educator_id", owner.ID, "error", err)
		return nil, persistErr("course", err)
	}
	cs.log.Info("Course created from draft", "course_id", created.ID, "lessons", created.TotalLessons)
	return created, nil
}

func (cs *courseService) Create(ctx context.Context, owner Educator, in CourseInput) (*types.Course, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, ErrInvalidCourse
	}
	created, err := cs.insertCourse(ctx, owner, in, func(ctx context.Context, tx *gorm.DB, course *types.Course) error {
		_, err := cs.courseRepo.Create(ctx, tx, []*types.Course{course})
		return err
	})
	if err != nil {
		return nil, persistErr("course", err)
	}
	return created, nil
}

// insertCourse runs write in a transaction with a freshly allocated enroll code.
// When a concurrent insert takes the same code first, the unique index rejects
// ours and the whole transaction is retried with a new draw.
func (cs *courseService) insertCourse(
	ctx context.Context,
	owner Educator,
	in CourseInput,
	write func(ctx context.Context, tx *gorm.DB, course *types.Course) error,
) (*types.Course, error) {
	var lastErr error
	for attempt := 0; attempt < maxEnrollAttempts; attempt++ {
		var created *types.Course
		err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			course, err := cs.newCourse(ctx, tx, owner, in)
			if err != nil {
				return err
			}
			if err := write(ctx, tx, course); err != nil {
				return err
			}
			created = course
			return nil
		})
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
		lastErr = err
		cs.log.Warn("Enroll code taken concurrently, retrying", "attempt", attempt+1)
	}
	return nil, fmt.Errorf("allocate enroll code after %d attempts: %w", maxEnrollAttempts, lastErr)
}

func (cs *courseService) newCourse(ctx context.Context, tx *gorm.DB, owner Educator, in CourseInput) (*types.Course, error) {
	code, err := uniqueEnrollCode(ctx, cs.codes, func(ctx context.Context, code string) (bool, error) {
		return cs.courseRepo.EnrollCodeExists(ctx, tx, code)
	})
	if err != nil {
		return nil, err
	}
	now := cs.now()
	return &types.Course{
		ID:           uuid.New(),
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		TotalLessons: in.TotalLessons,
		Topics:       types.EncodeTopics(in.Topics),
		EducatorID:   owner.ID,
		EducatorName: owner.Name,
		EnrollCode:   code,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (cs *courseService) ListForEducator(ctx context.Context, educatorID uuid.UUID) ([]*types.Course, error) {
	out, err := cs.courseRepo.ListByEducator(ctx, nil, educatorID)
	if err != nil {
		return nil, persistErr("course", err)
	}
	return out, nil
}

func (cs *courseService) GetLessons(ctx context.Context, courseID uuid.UUID) ([]*types.Lesson, error) {
	courses, err := cs.courseRepo.GetByIDs(ctx, nil, []uuid.UUID{courseID})
	if err != nil {
		return nil, persistErr("course", err)
	}
	if len(courses) == 0 {
		return nil, ErrCourseNotFound
	}
	out, err := cs.lessonRepo.ListByCourse(ctx, nil, courseID)
	if err != nil {
		return nil, persistErr("lesson", err)
	}
	return out, nil
}

func (cs *courseService) EnrollWithCode(ctx context.Context, studentID uuid.UUID, code string) (*types.Enrollment, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrInvalidEnrollCode
	}

	var enrollment *types.Enrollment
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		course, err := cs.courseRepo.GetByEnrollCode(ctx, tx, code)
		if err != nil {
			return err
		}
		if course == nil {
			return ErrInvalidEnrollCode
		}
		existing, err := cs.enrollmentRepo.Get(ctx, tx, studentID, course.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAlreadyEnrolled
		}

		now := cs.now()
		lastTopic := types.DefaultLastTopic
		if topics := course.TopicList(); len(topics) > 0 {
			lastTopic = topics[0]
		}
		e, err := cs.enrollmentRepo.Create(ctx, tx, &types.Enrollment{
			ID:             uuid.New(),
			StudentID:      studentID,
			CourseID:       course.ID,
			CourseTitle:    course.Title,
			Description:    course.Description,
			TotalLessons:   course.TotalLessons,
			Topics:         types.EncodeTopics(course.TopicList()),
			EducatorName:   course.EducatorName,
			EnrollCode:     code,
			LastTopic:      lastTopic,
			EnrolledAt:     now,
			LastAccessedAt: now,
		})
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyEnrolled
			}
			return err
		}
		if err := cs.courseRepo.IncrementEnrolled(ctx, tx, course.ID, 1); err != nil {
			return err
		}
		if _, err := cs.activityRepo.Create(ctx, tx, []*types.ActivityEvent{{
			UserID:    studentID,
			Type:      types.ActivityEnrolled,
			Title:     "Enrolled in " + course.Title,
			CreatedAt: now,
		}}); err != nil {
			return err
		}
		enrollment = e
		return nil
	})
	if err != nil {
		return nil, persistErr("enrollment", err)
	}
	cs.log.Info("Student enrolled", "student_id", studentID, "course_id", enrollment.CourseID)
	return enrollment, nil
}

func (cs *courseService) ListEnrollments(ctx context.Context, studentID uuid.UUID) ([]*types.Enrollment, error) {
	out, err := cs.enrollmentRepo.ListByStudent(ctx, nil, studentID)
	if err != nil {
		return nil, persistErr("enrollment", err)
	}
	return out, nil
}

// UpdateProgress records how many lessons the student has completed. The
// percentage is derived from the course's current lesson count; a blank
// lastTopic keeps the previous one.
func (cs *courseService) UpdateProgress(ctx context.Context, studentID, courseID uuid.UUID, in ProgressInput) (*types.Enrollment, error) {
	var updated *types.Enrollment
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		e, err := cs.enrollmentRepo.Get(ctx, tx, studentID, courseID)
		if err != nil {
			return err
		}
		if e == nil {
			return ErrNotEnrolled
		}

		total := e.TotalLessons
		courses, err := cs.courseRepo.GetByIDs(ctx, tx, []uuid.UUID{courseID})
		if err != nil {
			return err
		}
		if len(courses) > 0 {
			total = courses[0].TotalLessons
		}

		completed := in.CompletedLessons
		if completed < 0 {
			completed = 0
		}
		if total > 0 && completed > total {
			completed = total
		}
		lastTopic := strings.TrimSpace(in.LastTopic)
		if lastTopic == "" {
			lastTopic = e.LastTopic
		}

		now := cs.now()
		update := repos.ProgressUpdate{
			CompletedLessons: completed,
			Percent:          types.ProgressPercent(completed, total),
			LastTopic:        lastTopic,
			At:               now,
		}
		if _, err := cs.enrollmentRepo.UpdateProgress(ctx, tx, studentID, courseID, update); err != nil {
			return err
		}
		if completed > e.CompletedLessons {
			if _, err := cs.activityRepo.Create(ctx, tx, []*types.ActivityEvent{{
				UserID:    studentID,
				Type:      types.ActivityLessonCompleted,
				Title:     fmt.Sprintf("Completed lesson %d of %s", completed, e.CourseTitle),
				CreatedAt: now,
			}}); err != nil {
				return err
			}
		}

		e.CompletedLessons = update.CompletedLessons
		e.Percent = update.Percent
		e.LastTopic = update.LastTopic
		e.LastAccessedAt = now
		updated = e
		return nil
	})
	if err != nil {
		return nil, persistErr("enrollment", err)
	}
	return updated, nil
}

// ListActivity returns the student's newest activity first. limit <= 0 uses a
// default page size.
func (cs *courseService) ListActivity(ctx context.Context, studentID uuid.UUID, limit int) ([]*types.ActivityEvent, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	out, err := cs.activityRepo.ListByUser(ctx, nil, studentID, limit)
	if err != nil {
		return nil, persistErr("activity", err)
	}
	return out, nil
}
