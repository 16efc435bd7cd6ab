package campus

import (
	"fmt"

	"github.com/campus-hub/class-routine-hub/internal/domain/schedule"
)

// Mapper is the anti-corruption layer between the feed's wire format and the
// domain model. Wire quirks (empty strings, quoted numbers, missing ids)
// stop here; the domain only ever sees normalized records.
type Mapper struct{}

// NewMapper creates a new Mapper.
func NewMapper() *Mapper {
	return &Mapper{}
}

// PayloadFromEnvelope converts a feed envelope into a raw feed payload.
// Field normalization itself happens in schedule.NewSnapshot; the mapper's
// job is structural translation only.
func (m *Mapper) PayloadFromEnvelope(env *RoutineEnvelopeDTO) *schedule.FeedPayload {
	payload := &schedule.FeedPayload{
		Version:  env.Version,
		Sessions: make([]schedule.ClassSession, 0, len(env.Routine)),
		Courses:  make([]schedule.Course, 0, len(env.Courses)),
		Teachers: make([]schedule.Teacher, 0, len(env.Teachers)),
	}

	for i, dto := range env.Routine {
		payload.Sessions = append(payload.Sessions, m.sessionFromDTO(dto, i))
	}
	for _, dto := range env.Courses {
		payload.Courses = append(payload.Courses, m.courseFromDTO(dto))
	}
	for _, dto := range env.Teachers {
		payload.Teachers = append(payload.Teachers, m.teacherFromDTO(dto))
	}

	return payload
}

func (m *Mapper) sessionFromDTO(dto SessionDTO, index int) schedule.ClassSession {
	id := dto.ID
	if id == "" {
		// The feed does not always carry row ids; synthesize a stable one
		// from the row position so records stay addressable per snapshot.
		id = fmt.Sprintf("row-%d", index)
	}
	return schedule.ClassSession{
		ID:          id,
		Section:     dto.Section,
		CourseCode:  dto.CourseCode,
		Room:        dto.Room,
		TeacherCode: dto.Teacher,
		Day:         dto.Day,
		StartTime:   dto.StartTime,
		EndTime:     dto.EndTime,
	}
}

func (m *Mapper) courseFromDTO(dto CourseDTO) schedule.Course {
	return schedule.Course{
		Code:    dto.CourseCode,
		Title:   dto.CourseTitle,
		Credits: float64(dto.Credits),
	}
}

func (m *Mapper) teacherFromDTO(dto TeacherDTO) schedule.Teacher {
	return schedule.Teacher{
		Code:        dto.Teacher,
		Name:        dto.Name,
		Designation: dto.Designation,
		Department:  dto.Department,
		Faculty:     dto.Faculty,
		Email:       dto.Email,
		Phone:       dto.Phone,
		CellPhone:   dto.CellPhone,
		Website:     dto.PersonalWebsite,
		ImageURL:    dto.ImageURL,
	}
}
