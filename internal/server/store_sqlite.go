package server

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geoquest/routequest/internal/routequest"
)

// SQLiteStore implements Store on the shared SQLite database. All access
// is single-row keyed reads and writes; there are no cross-row
// transactions and no optimistic-concurrency version checks.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func newID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

const nowExpr = `strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`

// --- Background tasks ---

const taskColumns = `id, task_type, status, progress, description, result, error, created_at, updated_at, finished_at`

func scanTask(row interface{ Scan(...any) error }) (routequest.Task, error) {
	var t routequest.Task
	var result, errMsg, finishedAt sql.NullString
	err := row.Scan(&t.ID, &t.TaskType, &t.Status, &t.Progress, &t.Description,
		&result, &errMsg, &t.CreatedAt, &t.UpdatedAt, &finishedAt)
	if err != nil {
		return t, err
	}
	if result.Valid {
		t.Result = json.RawMessage(result.String)
	}
	if errMsg.Valid {
		t.Error = errMsg.String
	}
	if finishedAt.Valid {
		t.FinishedAt = &finishedAt.String
	}
	return t, nil
}

func (s *SQLiteStore) CreateTask(ctx context.Context, taskType, description string) (routequest.Task, error) {
	id := newID()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO background_tasks (id, task_type, status, description)
		VALUES (?, ?, 'pending', ?)
	`, id, taskType, description)
	if err != nil {
		return routequest.Task{}, err
	}
	return s.GetTask(ctx, id)
}

func (s *SQLiteStore) GetTask(ctx context.Context, id string) (routequest.Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM background_tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return t, ErrNotFound
	}
	return t, err
}

func (s *SQLiteStore) ListTasks(ctx context.Context, limit int) ([]routequest.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM background_tasks ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []routequest.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// CancelTask writes the cancelled terminal state. The guard on status
// keeps terminal states terminal even under concurrent cancels.
func (s *SQLiteStore) CancelTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE background_tasks
		SET status = 'cancelled', finished_at = `+nowExpr+`, updated_at = `+nowExpr+`
		WHERE id = ? AND status IN ('pending', 'running')
	`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	// Distinguish a missing task from a terminal one.
	var status string
	err = s.db.QueryRowContext(ctx,
		`SELECT status FROM background_tasks WHERE id = ?`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: cannot stop task with status: %s", ErrInvalidTransition, status)
}

func (s *SQLiteStore) DeleteTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM background_tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTasks removes all named tasks in one statement and reports how
// many actually existed.
func (s *SQLiteStore) DeleteTasks(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := strings.Repeat("?,", len(ids)-1) + "?"
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM background_tasks WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// --- Question bank ---

func (s *SQLiteStore) ListQuestions(ctx context.Context) ([]routequest.Question, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, question_sv, options_sv, explanation_sv,
		       question_en, options_en, explanation_en,
		       correct_option, categories, difficulty, illustration_svg,
		       ai_generated, validated, created_at, updated_at
		FROM questions ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []routequest.Question
	for rows.Next() {
		var q routequest.Question
		var optionsSV, categories string
		var svText, svExplanation string
		var enText, enOptions, enExplanation, svg sql.NullString
		var aiGenerated, validated int
		err := rows.Scan(&q.ID, &svText, &optionsSV, &svExplanation,
			&enText, &enOptions, &enExplanation,
			&q.CorrectOption, &categories, &q.Difficulty, &svg,
			&aiGenerated, &validated, &q.CreatedAt, &q.UpdatedAt)
		if err != nil {
			return nil, err
		}

		q.Languages = map[string]routequest.Localized{
			"sv": {Text: svText, Options: decodeStrings(optionsSV), Explanation: svExplanation},
		}
		if enText.Valid && enText.String != "" {
			q.Languages["en"] = routequest.Localized{
				Text:        enText.String,
				Options:     decodeStrings(enOptions.String),
				Explanation: enExplanation.String,
			}
		}
		q.Categories = decodeStrings(categories)
		q.IllustrationSVG = svg.String
		q.AIGenerated = aiGenerated == 1
		q.Validated = validated == 1
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func decodeStrings(raw string) []string {
	var out []string
	if raw != "" {
		json.Unmarshal([]byte(raw), &out)
	}
	if out == nil {
		out = []string{}
	}
	return out
}

func encodeJSON(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func (s *SQLiteStore) InsertQuestion(ctx context.Context, q routequest.Question) error {
	sv := q.Languages["sv"]
	var enText, enOptions, enExplanation any
	if en, ok := q.Languages["en"]; ok {
		enText = en.Text
		enOptions = encodeJSON(en.Options)
		enExplanation = en.Explanation
	}

	var svg any
	if q.IllustrationSVG != "" {
		svg = q.IllustrationSVG
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO questions (id, question_sv, options_sv, explanation_sv,
			question_en, options_en, explanation_en,
			correct_option, categories, difficulty, illustration_svg,
			ai_generated, validated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, q.ID, sv.Text, encodeJSON(sv.Options), sv.Explanation,
		enText, enOptions, enExplanation,
		q.CorrectOption, encodeJSON(q.Categories), q.Difficulty, svg,
		boolToInt(q.AIGenerated), boolToInt(q.Validated))
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (s *SQLiteStore) DeleteQuestions(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := strings.Repeat("?,", len(ids)-1) + "?"
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM questions WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// --- Game data ---

func (s *SQLiteStore) GetGame(ctx context.Context, id string) (GameDoc, error) {
	var g GameDoc
	var startedAt, finishedAt sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, course_id, team_id, status, started_at, finished_at, created_at
		FROM games WHERE id = ?
	`, id).Scan(&g.ID, &g.CourseID, &g.TeamID, &g.Status, &startedAt, &finishedAt, &g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return g, ErrNotFound
	}
	if startedAt.Valid {
		g.StartedAt = &startedAt.String
	}
	if finishedAt.Valid {
		g.FinishedAt = &finishedAt.String
	}
	return g, err
}

func (s *SQLiteStore) GetTeam(ctx context.Context, id string) (routequest.Team, error) {
	var t routequest.Team
	var members string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, leader_id, member_ids, join_token FROM teams WHERE id = ?
	`, id).Scan(&t.ID, &t.Name, &t.LeaderID, &members, &t.JoinToken)
	if errors.Is(err, sql.ErrNoRows) {
		return t, ErrNotFound
	}
	if err != nil {
		return t, err
	}
	t.MemberIDs = decodeStrings(members)
	return t, nil
}

func (s *SQLiteStore) GetCourse(ctx context.Context, id string) (routequest.Course, error) {
	var c routequest.Course
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, start_lat, start_lng, finish_lat, finish_lng, radius_m
		FROM courses WHERE id = ?
	`, id).Scan(&c.ID, &c.Name, &c.Start.Lat, &c.Start.Lng, &c.Finish.Lat, &c.Finish.Lng, &c.RadiusM)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	if err != nil {
		return c, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT co.obstacle_id, co.lat, co.lng, COALESCE(o.radius_m, 0)
		FROM course_obstacles co
		LEFT JOIN obstacles o ON o.id = co.obstacle_id
		WHERE co.course_id = ?
		ORDER BY co.idx
	`, id)
	if err != nil {
		return c, err
	}
	defer rows.Close()

	for rows.Next() {
		var o routequest.Obstacle
		if err := rows.Scan(&o.ID, &o.Position.Lat, &o.Position.Lng, &o.RadiusM); err != nil {
			return c, err
		}
		c.Obstacles = append(c.Obstacles, o)
	}
	return c, rows.Err()
}

func (s *SQLiteStore) GetRiddle(ctx context.Context, obstacleID string) (routequest.Riddle, error) {
	var r routequest.Riddle
	var options string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, question, options, correct_option, radius_m
		FROM obstacles WHERE id = ?
	`, obstacleID).Scan(&r.ID, &r.Question, &options, &r.CorrectOption, &r.RadiusM)
	if errors.Is(err, sql.ErrNoRows) {
		return r, ErrNotFound
	}
	if err != nil {
		return r, err
	}
	r.Options = decodeStrings(options)
	return r, nil
}

// --- Run state machine ---

// parseTime converts a stored timestamp to *time.Time, nil on NULL or a
// value that does not parse.
func parseTime(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil
	}
	return &t
}

func (s *SQLiteStore) GetRun(ctx context.Context, gameID string) (routequest.Run, error) {
	g, err := s.GetGame(ctx, gameID)
	if err != nil {
		return routequest.Run{}, err
	}

	run := routequest.Run{
		ID:              g.ID,
		CourseID:        g.CourseID,
		TeamID:          g.TeamID,
		Status:          routequest.GameStatus(g.Status),
		SolvedBy:        map[string]bool{},
		PlayersAtFinish: map[string]bool{},
		StartedAt:       parseTime(g.StartedAt),
		FinishedAt:      parseTime(g.FinishedAt),
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT obstacle_id FROM game_obstacles WHERE game_id = ?`, gameID)
	if err != nil {
		return run, err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return run, err
		}
		run.SolvedBy[id] = true
	}
	if err := rows.Err(); err != nil {
		return run, err
	}

	frows, err := s.db.QueryContext(ctx,
		`SELECT player_id FROM game_finishers WHERE game_id = ?`, gameID)
	if err != nil {
		return run, err
	}
	defer frows.Close()
	for frows.Next() {
		var id string
		if err := frows.Scan(&id); err != nil {
			return run, err
		}
		run.PlayersAtFinish[id] = true
	}
	return run, frows.Err()
}

func (s *SQLiteStore) StartRun(ctx context.Context, gameID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE games SET status = 'active', started_at = `+nowExpr+`
		WHERE id = ? AND status = 'pending'
	`, gameID)
	return err
}

// SolveObstacle records the obstacle in the run's solved set. INSERT OR
// IGNORE makes re-adding an already-present id a no-op.
func (s *SQLiteStore) SolveObstacle(ctx context.Context, gameID, obstacleID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO game_obstacles (game_id, obstacle_id) VALUES (?, ?)
	`, gameID, obstacleID)
	return err
}

func (s *SQLiteStore) AddFinisher(ctx context.Context, gameID, playerID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO game_finishers (game_id, player_id) VALUES (?, ?)
	`, gameID, playerID)
	return err
}

func (s *SQLiteStore) FinishRun(ctx context.Context, gameID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE games SET status = 'finished', finished_at = `+nowExpr+`
		WHERE id = ? AND status = 'active'
	`, gameID)
	return err
}
