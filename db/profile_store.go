package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/satheeshds/repairbook/models"
	"github.com/satheeshds/repairbook/profile"
)

// ProfileStore keeps one JSONB profile per user.
type ProfileStore struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

var _ profile.Store = (*ProfileStore)(nil)

func NewProfileStore(pool *pgxpool.Pool, log *slog.Logger) *ProfileStore {
	if log == nil {
		log = slog.Default()
	}
	return &ProfileStore{pool: pool, log: log}
}

func (s *ProfileStore) Load(ctx context.Context, userID string) models.WorkshopProfile {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT profile FROM profiles WHERE user_id = $1`, userID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.DefaultProfile()
	}
	if err != nil {
		s.log.Warn("profile unreadable, using defaults", "user", userID, "error", err)
		return models.DefaultProfile()
	}
	p, err := models.MergeProfile(raw)
	if err != nil {
		s.log.Warn("profile corrupt, using defaults", "user", userID, "error", err)
	}
	return p
}

func (s *ProfileStore) Save(ctx context.Context, userID string, p models.WorkshopProfile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO profiles (user_id, profile) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET profile = EXCLUDED.profile, updated_at = now()`,
		userID, string(data))
	if err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	return nil
}
