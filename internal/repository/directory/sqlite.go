package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	domain "github.com/oshokin/room-allotment/internal/domain/allotment"
)

// SQLiteDirectory persists the directory in a single SQLite database file.
// All access goes through one connection, so transactions are serialized.
type SQLiteDirectory struct {
	// db is the connection pool, capped at one open connection.
	db *sql.DB
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const groupColumns = `g.id, g.leader_id, g.size, g.finalized, g.allotted_room_id, g.created_at,
	        s.id, s.name, s.roll_number, s.rank, s.group_id, s.allotment_status,
	        r.room_number`

const groupJoins = `FROM student_groups g
	   LEFT JOIN students s ON s.id = g.leader_id
	   LEFT JOIN rooms r ON r.id = g.allotted_room_id`

// OpenSQLite opens (creating if needed) the database at path and applies migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteDirectory, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("database path is required")
	}

	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	db.SetMaxOpenConns(1)

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if err = applyMigrations(ctx, db, migrationsFS, migrationsRoot); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteDirectory{db: db}, nil
}

// Close closes the database handle.
func (d *SQLiteDirectory) Close() error {
	if d == nil || d.db == nil {
		return nil
	}

	return d.db.Close()
}

// ListEligibleGroups returns groups that may enter a new queue, oldest first.
func (d *SQLiteDirectory) ListEligibleGroups(ctx context.Context) ([]*domain.Group, error) {
	groups, err := d.queryGroups(ctx, d.db,
		`WHERE g.finalized = 1
		   AND g.allotted_room_id IS NULL
		   AND (s.allotment_status IS NULL OR s.allotment_status != ?)`,
		string(domain.StatusSkipped),
	)
	if err != nil {
		return nil, fmt.Errorf("list eligible groups: %w", err)
	}

	return groups, nil
}

// ListGroups returns every group with leader, members and room number joined.
func (d *SQLiteDirectory) ListGroups(ctx context.Context) ([]*domain.Group, error) {
	groups, err := d.queryGroups(ctx, d.db, "")
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}

	return groups, nil
}

// GetGroup returns one group by id.
func (d *SQLiteDirectory) GetGroup(ctx context.Context, id string) (*domain.Group, error) {
	groups, err := d.queryGroups(ctx, d.db, "WHERE g.id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}

	if len(groups) == 0 {
		return nil, domain.ErrNotFound
	}

	return groups[0], nil
}

// GetStudent returns one student by id.
func (d *SQLiteDirectory) GetStudent(ctx context.Context, id string) (*domain.Student, error) {
	row := d.db.QueryRowContext(
		ctx,
		`SELECT id, name, roll_number, rank, group_id, allotment_status
		   FROM students
		  WHERE id = ?`,
		id,
	)

	var (
		student domain.Student
		rank    sql.NullInt64
		groupID sql.NullString
		status  string
	)

	err := row.Scan(&student.ID, &student.Name, &student.RollNumber, &rank, &groupID, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}

	student.Rank = rankFromNull(rank)
	student.GroupID = groupID.String
	student.Status = domain.AllotmentStatus(status)

	return &student, nil
}

// GetRoom returns one room by id.
func (d *SQLiteDirectory) GetRoom(ctx context.Context, id string) (*domain.Room, error) {
	room, err := getRoom(ctx, d.db, id)
	if err != nil {
		return nil, err
	}

	return room, nil
}

// AllotRoom commits roomID to groupID in one transaction.
// Precondition failures inside the transaction return ErrRoomUnavailableOrMismatched;
// any other failure rolls back and wraps ErrCommitFailed.
func (d *SQLiteDirectory) AllotRoom(ctx context.Context, groupID, roomID string) (*domain.Room, error) {
	var room *domain.Room

	err := d.inTx(ctx, func(tx *sql.Tx) error {
		var (
			size     int
			assigned sql.NullString
		)

		err := tx.QueryRowContext(
			ctx,
			`SELECT size, allotted_room_id FROM student_groups WHERE id = ?`,
			groupID,
		).Scan(&size, &assigned)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("group %s: %w", groupID, domain.ErrNotFound)
		}

		if err != nil {
			return fmt.Errorf("read group: %w", err)
		}

		if assigned.Valid {
			return fmt.Errorf("group %s already holds room %s", groupID, assigned.String)
		}

		result, err := tx.ExecContext(
			ctx,
			`UPDATE rooms SET available = 0 WHERE id = ? AND available = 1 AND capacity = ?`,
			roomID,
			size,
		)
		if err != nil {
			return fmt.Errorf("reserve room: %w", err)
		}

		if n, _ := result.RowsAffected(); n == 0 {
			return domain.ErrRoomUnavailableOrMismatched
		}

		_, err = tx.ExecContext(
			ctx,
			`UPDATE student_groups SET allotted_room_id = ? WHERE id = ? AND allotted_room_id IS NULL`,
			roomID,
			groupID,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrRoomUnavailableOrMismatched
			}

			return fmt.Errorf("assign room: %w", err)
		}

		_, err = tx.ExecContext(
			ctx,
			`UPDATE students SET allotment_status = ? WHERE group_id = ?`,
			string(domain.StatusAllotted),
			groupID,
		)
		if err != nil {
			return fmt.Errorf("mark members allotted: %w", err)
		}

		room, err = getRoom(ctx, tx, roomID)

		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrRoomUnavailableOrMismatched) {
			return nil, err
		}

		return nil, fmt.Errorf("%w: %w", domain.ErrCommitFailed, err)
	}

	return room, nil
}

// SkipGroup finalizes the group and marks its members Skipped in one transaction.
func (d *SQLiteDirectory) SkipGroup(ctx context.Context, groupID string) error {
	err := d.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(
			ctx,
			`UPDATE student_groups SET finalized = 1 WHERE id = ?`,
			groupID,
		); err != nil {
			return fmt.Errorf("finalize group: %w", err)
		}

		if _, err := tx.ExecContext(
			ctx,
			`UPDATE students SET allotment_status = ? WHERE group_id = ?`,
			string(domain.StatusSkipped),
			groupID,
		); err != nil {
			return fmt.Errorf("mark members skipped: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("skip group %s: %w", groupID, err)
	}

	return nil
}

// RevertAllotments frees every held room, resets the holders' members to
// Not Allotted and clears the assignments. It returns the number of groups reverted.
func (d *SQLiteDirectory) RevertAllotments(ctx context.Context) (int, error) {
	var reverted int

	err := d.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(
			ctx,
			`UPDATE rooms SET available = 1
			  WHERE id IN (SELECT allotted_room_id FROM student_groups WHERE allotted_room_id IS NOT NULL)`,
		); err != nil {
			return fmt.Errorf("free rooms: %w", err)
		}

		if _, err := tx.ExecContext(
			ctx,
			`UPDATE students SET allotment_status = ?
			  WHERE group_id IN (SELECT id FROM student_groups WHERE allotted_room_id IS NOT NULL)`,
			string(domain.StatusNotAllotted),
		); err != nil {
			return fmt.Errorf("reset members: %w", err)
		}

		result, err := tx.ExecContext(
			ctx,
			`UPDATE student_groups SET allotted_room_id = NULL WHERE allotted_room_id IS NOT NULL`,
		)
		if err != nil {
			return fmt.Errorf("clear assignments: %w", err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("count reverted groups: %w", err)
		}

		reverted = int(n)

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: revert allotments: %w", domain.ErrCommitFailed, err)
	}

	return reverted, nil
}

// FinalizeGroups locks every group that is not finalized yet.
func (d *SQLiteDirectory) FinalizeGroups(ctx context.Context) (int, error) {
	result, err := d.db.ExecContext(ctx, `UPDATE student_groups SET finalized = 1 WHERE finalized = 0`)
	if err != nil {
		return 0, fmt.Errorf("finalize groups: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("finalize groups: %w", err)
	}

	return int(n), nil
}

// SaveStudent inserts or updates a student record.
func (d *SQLiteDirectory) SaveStudent(ctx context.Context, student *domain.Student) error {
	if student == nil || strings.TrimSpace(student.ID) == "" {
		return errors.New("student id is required")
	}

	if strings.TrimSpace(student.RollNumber) == "" {
		return errors.New("roll number is required")
	}

	status := student.Status
	if status == "" {
		status = domain.StatusNotAllotted
	}

	if !status.Valid() {
		return fmt.Errorf("invalid allotment status %q", status)
	}

	var rank sql.NullInt64
	if student.Rank != nil {
		rank = sql.NullInt64{Int64: int64(*student.Rank), Valid: true}
	}

	_, err := d.db.ExecContext(
		ctx,
		`INSERT INTO students (id, name, roll_number, rank, group_id, allotment_status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   name = excluded.name,
		   roll_number = excluded.roll_number,
		   rank = excluded.rank,
		   group_id = excluded.group_id,
		   allotment_status = excluded.allotment_status`,
		student.ID,
		student.Name,
		student.RollNumber,
		rank,
		nullString(student.GroupID),
		string(status),
		toMillis(time.Now()),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}

		return fmt.Errorf("save student: %w", err)
	}

	return nil
}

// SaveGroup inserts or updates a group and points its members at it.
func (d *SQLiteDirectory) SaveGroup(ctx context.Context, group *domain.Group) error {
	if group == nil || strings.TrimSpace(group.ID) == "" {
		return errors.New("group id is required")
	}

	if !domain.ValidSize(group.Size) {
		return fmt.Errorf("invalid group size %d", group.Size)
	}

	if !group.HasMember(group.LeaderID) {
		return errors.New("group leader must be a member")
	}

	createdAt := group.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	return d.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(
			ctx,
			`INSERT INTO student_groups (id, leader_id, size, finalized, allotted_room_id, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT (id) DO UPDATE SET
			   leader_id = excluded.leader_id,
			   size = excluded.size,
			   finalized = excluded.finalized,
			   allotted_room_id = excluded.allotted_room_id`,
			group.ID,
			group.LeaderID,
			group.Size,
			group.Finalized,
			nullString(group.AllottedRoom),
			toMillis(createdAt),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrAlreadyExists
			}

			return fmt.Errorf("save group: %w", err)
		}

		for _, memberID := range group.MemberIDs {
			if _, err = tx.ExecContext(
				ctx,
				`UPDATE students SET group_id = ? WHERE id = ?`,
				group.ID,
				memberID,
			); err != nil {
				return fmt.Errorf("attach member %s: %w", memberID, err)
			}
		}

		return nil
	})
}

// SaveRoom inserts or updates a room.
func (d *SQLiteDirectory) SaveRoom(ctx context.Context, room *domain.Room) error {
	if room == nil || strings.TrimSpace(room.ID) == "" {
		return errors.New("room id is required")
	}

	if !domain.ValidSize(room.Capacity) {
		return fmt.Errorf("invalid room capacity %d", room.Capacity)
	}

	_, err := d.db.ExecContext(
		ctx,
		`INSERT INTO rooms (id, room_number, capacity, available)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   room_number = excluded.room_number,
		   capacity = excluded.capacity,
		   available = excluded.available`,
		room.ID,
		room.Number,
		room.Capacity,
		room.Available,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}

		return fmt.Errorf("save room: %w", err)
	}

	return nil
}

// inTx runs fn inside a transaction, rolling back on error.
func (d *SQLiteDirectory) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if d == nil || d.db == nil {
		return errors.New("directory is not configured")
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}

		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// queryGroups loads groups matching where and attaches their member ids.
func (d *SQLiteDirectory) queryGroups(
	ctx context.Context,
	q querier,
	where string,
	args ...any,
) ([]*domain.Group, error) {
	rows, err := q.QueryContext(
		ctx,
		"SELECT "+groupColumns+" "+groupJoins+" "+where+" ORDER BY g.created_at ASC, g.id ASC",
		args...,
	)
	if err != nil {
		return nil, err
	}

	var (
		groups []*domain.Group
		byID   = make(map[string]*domain.Group)
	)

	for rows.Next() {
		group, scanErr := scanGroup(rows)
		if scanErr != nil {
			_ = rows.Close()

			return nil, scanErr
		}

		groups = append(groups, group)
		byID[group.ID] = group
	}

	if err = rows.Err(); err != nil {
		_ = rows.Close()

		return nil, err
	}

	_ = rows.Close()

	if len(groups) == 0 {
		return groups, nil
	}

	memberRows, err := q.QueryContext(
		ctx,
		`SELECT id, group_id FROM students WHERE group_id IS NOT NULL ORDER BY group_id, id`,
	)
	if err != nil {
		return nil, err
	}
	defer memberRows.Close()

	for memberRows.Next() {
		var studentID, groupID string
		if err = memberRows.Scan(&studentID, &groupID); err != nil {
			return nil, err
		}

		if group, ok := byID[groupID]; ok {
			group.MemberIDs = append(group.MemberIDs, studentID)
		}
	}

	return groups, memberRows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanGroup(row rowScanner) (*domain.Group, error) {
	var (
		group        domain.Group
		allotted     sql.NullString
		createdAt    int64
		leaderID     sql.NullString
		leaderName   sql.NullString
		leaderRoll   sql.NullString
		leaderRank   sql.NullInt64
		leaderGroup  sql.NullString
		leaderStatus sql.NullString
		roomNumber   sql.NullString
	)

	err := row.Scan(
		&group.ID,
		&group.LeaderID,
		&group.Size,
		&group.Finalized,
		&allotted,
		&createdAt,
		&leaderID,
		&leaderName,
		&leaderRoll,
		&leaderRank,
		&leaderGroup,
		&leaderStatus,
		&roomNumber,
	)
	if err != nil {
		return nil, err
	}

	group.AllottedRoom = allotted.String
	group.CreatedAt = fromMillis(createdAt)
	group.RoomNumber = roomNumber.String

	if leaderID.Valid {
		group.Leader = &domain.Student{
			ID:         leaderID.String,
			Name:       leaderName.String,
			RollNumber: leaderRoll.String,
			Rank:       rankFromNull(leaderRank),
			GroupID:    leaderGroup.String,
			Status:     domain.AllotmentStatus(leaderStatus.String),
		}
	}

	return &group, nil
}

func getRoom(ctx context.Context, q querier, id string) (*domain.Room, error) {
	var room domain.Room

	err := q.QueryRowContext(
		ctx,
		`SELECT id, room_number, capacity, available FROM rooms WHERE id = ?`,
		id,
	).Scan(&room.ID, &room.Number, &room.Capacity, &room.Available)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}

	return &room, nil
}

func rankFromNull(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}

	rank := int(value.Int64)

	return &rank
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}

	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ AdminDirectory = (*SQLiteDirectory)(nil)
