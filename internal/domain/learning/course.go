package learning

import (
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Course struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Title         string         `gorm:"column:title;not null" json:"title"`
	Description   string         `gorm:"column:description;type:text" json:"description"`
	TotalLessons  int            `gorm:"column:total_lessons;not null;default:0" json:"totalLessons"`
	Topics        datatypes.JSON `gorm:"column:topics;type:jsonb" json:"topics"`
	EducatorID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"educatorId"`
	EducatorName  string         `gorm:"column:educator_name" json:"educatorName"`
	EnrollCode    string         `gorm:"column:enroll_code;not null;uniqueIndex" json:"enrollCode"`
	EnrolledCount int            `gorm:"column:enrolled_count;not null;default:0" json:"enrolledCount"`
	IsAIGenerated bool           `gorm:"column:is_ai_generated;not null;default:false" json:"isAIGenerated"`
	CreatedAt     time.Time      `gorm:"not null;index" json:"createdAt"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updatedAt"`
}

func (Course) TableName() string { return "course" }

// TopicList decodes the topics column; malformed JSON yields nil.
func (c *Course) TopicList() []string {
	if c == nil || len(c.Topics) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(c.Topics, &out); err != nil {
		return nil
	}
	return out
}

func EncodeTopics(topics []string) datatypes.JSON {
	if topics == nil {
		topics = []string{}
	}
	b, _ := json.Marshal(topics)
	return datatypes.JSON(b)
}

type Lesson struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID  uuid.UUID `gorm:"type:uuid;not null;index:idx_lesson_course_order,priority:1" json:"courseId"`
	Course    *Course   `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"-"`
	Title     string    `gorm:"column:title;not null" json:"title"`
	Content   string    `gorm:"column:content;type:text" json:"content"`
	Order     int       `gorm:"column:position;not null;index:idx_lesson_course_order,priority:2" json:"order"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}

func (Lesson) TableName() string { return "lesson" }

// Enrollment is a student's copy of the course as it was when they joined,
// plus their progress through it.
type Enrollment struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID        uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_student_course,priority:1;index:idx_enrollment_student_enrolled,priority:1" json:"studentId"`
	CourseID         uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_student_course,priority:2;index" json:"courseId"`
	Course           *Course        `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"-"`
	CourseTitle      string         `gorm:"column:course_title" json:"title"`
	Description      string         `gorm:"column:description;type:text" json:"description"`
	TotalLessons     int            `gorm:"column:total_lessons;not null;default:0" json:"totalLessons"`
	Topics           datatypes.JSON `gorm:"column:topics;type:jsonb" json:"topics"`
	EducatorName     string         `gorm:"column:educator_name" json:"educatorName"`
	EnrollCode       string         `gorm:"column:enroll_code" json:"enrollCode"`
	CompletedLessons int            `gorm:"column:completed_lessons;not null;default:0" json:"completedLessons"`
	Percent          int            `gorm:"column:percent;not null;default:0" json:"percent"`
	LastTopic        string         `gorm:"column:last_topic" json:"lastTopic"`
	EnrolledAt       time.Time      `gorm:"not null;index:idx_enrollment_student_enrolled,priority:2,sort:desc" json:"enrolledAt"`
	LastAccessedAt   time.Time      `gorm:"not null" json:"lastAccessedAt"`
}

func (Enrollment) TableName() string { return "enrollment" }

// DefaultLastTopic seeds an enrollment whose course has no topics.
const DefaultLastTopic = "Getting Started"

// ProgressPercent rounds completed/total to a whole percentage in 0..100.
func ProgressPercent(completed, total int) int {
	if total <= 0 || completed <= 0 {
		return 0
	}
	if completed >= total {
		return 100
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

type ActivityType string

const (
	ActivityEnrolled        ActivityType = "enrolled"
	ActivityLessonCompleted ActivityType = "lesson_completed"
	ActivityQuizPassed      ActivityType = "quiz_passed"
	ActivityAchievement     ActivityType = "achievement"
)

// ActivityEvent is one entry in a student's activity feed.
type ActivityEvent struct {
	ID        uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID    `gorm:"type:uuid;not null;index:idx_activity_user_created,priority:1" json:"-"`
	Type      ActivityType `gorm:"column:type;not null" json:"type"`
	Title     string       `gorm:"column:title;not null" json:"title"`
	CreatedAt time.Time    `gorm:"not null;index:idx_activity_user_created,priority:2,sort:desc" json:"createdAt"`
}

func (ActivityEvent) TableName() string { return "activity_event" }
