package source

import (
	"context"
	"fmt"
)

var demoUsers = []struct {
	email, username, role string
	active                int
}{
	{"ada@example.com", "ada", "admin", 1},
	{"grace@example.com", "grace", "editor", 1},
	{"linus@example.com", "linus", "viewer", 1},
	{"ken@example.com", "ken", "viewer", 0},
	{"barbara@example.com", "barbara", "editor", 1},
}

var demoEvents = []struct {
	user           int
	kind, severity string
	message        string
}{
	{1, "login", "info", "signed in"},
	{1, "deploy", "warning", "deploy took longer than usual"},
	{2, "login", "info", "signed in"},
	{2, "edit", "info", "updated dashboard"},
	{3, "login", "info", "signed in"},
	{3, "error", "danger", "upstream unreachable"},
	{5, "deploy", "info", "deploy finished"},
	{5, "login", "info", "signed in"},
}

// Seed fills the demo tables when they are empty.
func (s *Store) Seed(ctx context.Context) error {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM users").Scan(&n); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if n > 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	defer tx.Rollback()

	for _, u := range demoUsers {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO users (email, username, role, active) VALUES (?, ?, ?, ?)",
			u.email, u.username, u.role, u.active); err != nil {
			return fmt.Errorf("seed users: %w", err)
		}
	}
	for _, e := range demoEvents {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO events (user_id, kind, severity, message) VALUES (?, ?, ?, ?)",
			e.user, e.kind, e.severity, e.message); err != nil {
			return fmt.Errorf("seed events: %w", err)
		}
	}
	return tx.Commit()
}
