package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/flora-backend/internal/data/repos/learning"
	"github.com/yungbote/flora-backend/internal/platform/logger"
)

type CourseRepo = learning.CourseRepo
type LessonRepo = learning.LessonRepo
type EnrollmentRepo = learning.EnrollmentRepo
type ProgressUpdate = learning.ProgressUpdate

func NewCourseRepo(db *gorm.DB, log *logger.Logger) CourseRepo {
	return learning.NewCourseRepo(db, log)
}

func NewLessonRepo(db *gorm.DB, log *logger.Logger) LessonRepo {
	return learning.NewLessonRepo(db, log)
}

func NewEnrollmentRepo(db *gorm.DB, log *logger.Logger) EnrollmentRepo {
	return learning.NewEnrollmentRepo(db, log)
}

type ActivityRepo = learning.ActivityRepo

func NewActivityRepo(db *gorm.DB, log *logger.Logger) ActivityRepo {
	return learning.NewActivityRepo(db, log)
}
