package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// SeedDemo inserts a demo course, team and game on an empty database so a
// fresh install is playable immediately. Idempotent: does nothing once
// any course exists.
func SeedDemo(ctx context.Context, logger *slog.Logger, db *sql.DB) error {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM courses`).Scan(&count); err != nil {
		return fmt.Errorf("counting courses: %w", err)
	}
	if count > 0 {
		return nil
	}

	stmts := []string{
		`INSERT INTO courses (id, name, start_lat, start_lng, finish_lat, finish_lng, radius_m)
		 VALUES ('demo-course', 'Djurgården Runt', 59.3290, 18.0680, 59.3390, 18.0680, 25)`,

		`INSERT INTO obstacles (id, question, options, correct_option, radius_m)
		 VALUES ('demo-obs-1', 'Vilket år grundades Stockholm?',
		         '["1152","1252","1352","1452"]', 1, 0)`,

		`INSERT INTO obstacles (id, question, options, correct_option, radius_m)
		 VALUES ('demo-obs-2', 'Vad heter Sveriges längsta flod?',
		         '["Klarälven-Göta älv","Dalälven","Umeälven","Torne älv"]', 0, 0)`,

		`INSERT INTO course_obstacles (course_id, idx, obstacle_id, lat, lng) VALUES
		 ('demo-course', 0, 'demo-obs-1', 59.3320, 18.0680),
		 ('demo-course', 1, 'demo-obs-2', 59.3360, 18.0680)`,

		`INSERT INTO teams (id, name, leader_id, member_ids, join_token)
		 VALUES ('demo-team', 'Vildgässen', 'player-1', '["player-1","player-2"]', 'vildgass-2026')`,

		`INSERT INTO games (id, course_id, team_id, status)
		 VALUES ('demo-game', 'demo-course', 'demo-team', 'pending')`,
	}

	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("seeding demo data: %w", err)
		}
	}

	logger.Info("demo course and game seeded")
	return nil
}
