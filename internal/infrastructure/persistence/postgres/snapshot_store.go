package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/campus-hub/class-routine-hub/internal/domain/schedule"
	"github.com/campus-hub/class-routine-hub/internal/domain/shared"
	"github.com/campus-hub/class-routine-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT STORE IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// SnapshotStore implements schedule.SnapshotStore for PostgreSQL.
// Save replaces the stored snapshot wholesale in one transaction:
// the feed never delivers incremental updates, so a partial write
// would leave merged views computed against a half-replaced routine.
// Transient failures are retried; replaying the transaction is safe
// because it starts by clearing the previous snapshot.
type SnapshotStore struct {
	conn    *Connection
	retrier *retry.Retrier
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(conn *Connection) *SnapshotStore {
	return &SnapshotStore{
		conn:    conn,
		retrier: retry.DatabaseRetrier(),
	}
}

var _ schedule.SnapshotStore = (*SnapshotStore)(nil)

// ─────────────────────────────────────────────────────────────────────────────
// SAVE
// ─────────────────────────────────────────────────────────────────────────────

// Save persists the snapshot, deleting any previously stored one.
func (s *SnapshotStore) Save(ctx context.Context, snap *schedule.Snapshot) error {
	if snap == nil {
		return shared.NewDomainError("schedule", "Save", shared.ErrInvalidInput, "nil snapshot")
	}

	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		err := s.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
			// Cascades into class_sessions, courses and teachers.
			if _, err := tx.Exec(ctx, `DELETE FROM schedule_snapshots`); err != nil {
				return fmt.Errorf("failed to clear previous snapshot: %w", err)
			}

			_, err := tx.Exec(ctx, `
				INSERT INTO schedule_snapshots (id, version, loaded_at)
				VALUES ($1, $2, $3)
			`, snap.ID, snap.Version, snap.LoadedAt)
			if err != nil {
				return fmt.Errorf("failed to insert snapshot: %w", err)
			}

			if err := insertSessions(ctx, tx, snap); err != nil {
				return err
			}
			if err := insertCourses(ctx, tx, snap); err != nil {
				return err
			}
			return insertTeachers(ctx, tx, snap)
		})
		if err != nil {
			return retry.Retryable(err)
		}
		return nil
	})
	if err != nil {
		return shared.WrapError("schedule", "Save", shared.ErrServiceUnavailable,
			"persisting snapshot", err)
	}

	return nil
}

func insertSessions(ctx context.Context, tx pgx.Tx, snap *schedule.Snapshot) error {
	if len(snap.Sessions) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, sess := range snap.Sessions {
		batch.Queue(`
			INSERT INTO class_sessions
			(snapshot_id, row_id, section, course_code, room, teacher_code, day, start_time, end_time)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
			snap.ID,
			sess.ID,
			sess.Section,
			sess.CourseCode,
			sess.Room,
			sess.TeacherCode,
			sess.Day,
			sess.StartTime,
			sess.EndTime,
		)
	}

	br := tx.SendBatch(ctx, batch)
	defer br.Close()

	for range snap.Sessions {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to insert session: %w", err)
		}
	}

	return nil
}

func insertCourses(ctx context.Context, tx pgx.Tx, snap *schedule.Snapshot) error {
	if len(snap.Courses) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, course := range snap.Courses {
		batch.Queue(`
			INSERT INTO courses (snapshot_id, code, title, credits)
			VALUES ($1, $2, $3, $4)
		`,
			snap.ID,
			course.Code,
			course.Title,
			course.Credits,
		)
	}

	br := tx.SendBatch(ctx, batch)
	defer br.Close()

	for range snap.Courses {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to insert course: %w", err)
		}
	}

	return nil
}

func insertTeachers(ctx context.Context, tx pgx.Tx, snap *schedule.Snapshot) error {
	if len(snap.Teachers) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, teacher := range snap.Teachers {
		batch.Queue(`
			INSERT INTO teachers
			(snapshot_id, code, name, designation, department, faculty, email, phone, cell_phone, website, image_url)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`,
			snap.ID,
			teacher.Code,
			teacher.Name,
			teacher.Designation,
			teacher.Department,
			teacher.Faculty,
			teacher.Email,
			teacher.Phone,
			teacher.CellPhone,
			teacher.Website,
			teacher.ImageURL,
		)
	}

	br := tx.SendBatch(ctx, batch)
	defer br.Close()

	for range snap.Teachers {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to insert teacher: %w", err)
		}
	}

	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// LOAD
// ─────────────────────────────────────────────────────────────────────────────

// Load retrieves the stored snapshot.
// Returns shared.ErrSnapshotNotFound if no snapshot has been saved yet.
func (s *SnapshotStore) Load(ctx context.Context) (*schedule.Snapshot, error) {
	var snap *schedule.Snapshot

	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		loaded, err := s.loadOnce(ctx)
		if err != nil {
			if shared.IsNotFound(err) {
				return retry.Permanent(err)
			}
			return retry.Retryable(err)
		}
		snap = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// loadOnce performs a single read of the snapshot header and its three
// record collections.
func (s *SnapshotStore) loadOnce(ctx context.Context) (*schedule.Snapshot, error) {
	var snap schedule.Snapshot

	err := s.conn.QueryRow(ctx, `
		SELECT id, version, loaded_at
		FROM schedule_snapshots
		ORDER BY loaded_at DESC
		LIMIT 1
	`).Scan(&snap.ID, &snap.Version, &snap.LoadedAt)
	if IsNoRows(err) {
		return nil, shared.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, shared.WrapError("schedule", "Load", shared.ErrServiceUnavailable,
			"loading snapshot", err)
	}

	if snap.Sessions, err = s.loadSessions(ctx, &snap); err != nil {
		return nil, shared.WrapError("schedule", "Load", shared.ErrServiceUnavailable,
			"loading sessions", err)
	}
	if snap.Courses, err = s.loadCourses(ctx, &snap); err != nil {
		return nil, shared.WrapError("schedule", "Load", shared.ErrServiceUnavailable,
			"loading courses", err)
	}
	if snap.Teachers, err = s.loadTeachers(ctx, &snap); err != nil {
		return nil, shared.WrapError("schedule", "Load", shared.ErrServiceUnavailable,
			"loading teachers", err)
	}

	return &snap, nil
}

func (s *SnapshotStore) loadSessions(ctx context.Context, snap *schedule.Snapshot) ([]schedule.ClassSession, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT row_id, section, course_code, room, teacher_code, day, start_time, end_time
		FROM class_sessions
		WHERE snapshot_id = $1
		ORDER BY id
	`, snap.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []schedule.ClassSession
	for rows.Next() {
		var sess schedule.ClassSession
		if err := rows.Scan(
			&sess.ID,
			&sess.Section,
			&sess.CourseCode,
			&sess.Room,
			&sess.TeacherCode,
			&sess.Day,
			&sess.StartTime,
			&sess.EndTime,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}

	return sessions, rows.Err()
}

func (s *SnapshotStore) loadCourses(ctx context.Context, snap *schedule.Snapshot) ([]schedule.Course, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT code, title, credits
		FROM courses
		WHERE snapshot_id = $1
		ORDER BY id
	`, snap.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []schedule.Course
	for rows.Next() {
		var course schedule.Course
		if err := rows.Scan(&course.Code, &course.Title, &course.Credits); err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}

	return courses, rows.Err()
}

func (s *SnapshotStore) loadTeachers(ctx context.Context, snap *schedule.Snapshot) ([]schedule.Teacher, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT code, name, designation, department, faculty, email, phone, cell_phone, website, image_url
		FROM teachers
		WHERE snapshot_id = $1
		ORDER BY id
	`, snap.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teachers []schedule.Teacher
	for rows.Next() {
		var teacher schedule.Teacher
		if err := rows.Scan(
			&teacher.Code,
			&teacher.Name,
			&teacher.Designation,
			&teacher.Department,
			&teacher.Faculty,
			&teacher.Email,
			&teacher.Phone,
			&teacher.CellPhone,
			&teacher.Website,
			&teacher.ImageURL,
		); err != nil {
			return nil, err
		}
		teachers = append(teachers, teacher)
	}

	return teachers, rows.Err()
}
