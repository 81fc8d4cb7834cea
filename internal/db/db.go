package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Migrate applies the schema. Every statement is idempotent so it is safe to
// run on each start.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for i, q := range migrations {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to run migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS pgcrypto`,
	`CREATE TABLE IF NOT EXISTS profiles (
		id UUID PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		full_name TEXT NOT NULL DEFAULT '',
		avatar_url TEXT,
		plan TEXT NOT NULL DEFAULT 'free' CHECK (plan IN ('free','pro')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	`CREATE TABLE IF NOT EXISTS trips (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		owner_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		start_date DATE,
		end_date DATE,
		flexible_month TEXT,
		visibility TEXT NOT NULL DEFAULT 'full_details'
			CHECK (visibility IN ('full_details','dates_only','location_only','busy_only','only_me')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CHECK (end_date IS NULL OR start_date IS NULL OR end_date >= start_date)
		)`,
	`CREATE TABLE IF NOT EXISTS trip_locations (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		trip_id UUID NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		country TEXT NOT NULL DEFAULT '',
		place_id TEXT NOT NULL DEFAULT '',
		position INT NOT NULL DEFAULT 0
		)`,
	`CREATE TABLE IF NOT EXISTS trip_participants (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		trip_id UUID NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		role TEXT NOT NULL DEFAULT 'member' CHECK (role IN ('owner','member')),
		status TEXT NOT NULL CHECK (status IN ('pending','invited','accepted','declined')),
		invited_by UUID REFERENCES profiles(id) ON DELETE SET NULL,
		joined_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (trip_id, user_id)
		)`,
	`CREATE TABLE IF NOT EXISTS friendships (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		requester_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		addressee_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		status TEXT NOT NULL CHECK (status IN ('pending','accepted','declined')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CHECK (requester_id <> addressee_id)
		)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS friendships_pair_idx
		ON friendships ((LEAST(requester_id, addressee_id)), (GREATEST(requester_id, addressee_id)))`,
	`CREATE TABLE IF NOT EXISTS trip_invite_links (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		trip_id UUID NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
		code TEXT NOT NULL UNIQUE,
		created_by UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		expires_at TIMESTAMPTZ,
		max_uses INT CHECK (max_uses IS NULL OR max_uses > 0),
		usage_count INT NOT NULL DEFAULT 0,
		location_ids UUID[] NOT NULL DEFAULT '{}',
		tripbit_ids UUID[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	`CREATE TABLE IF NOT EXISTS trip_bits (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		trip_id UUID NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
		created_by UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		category TEXT NOT NULL CHECK (category IN ('flight','stay','transport','activity','dining','other')),
		title TEXT NOT NULL,
		starts_at TIMESTAMPTZ,
		ends_at TIMESTAMPTZ,
		location TEXT NOT NULL DEFAULT '',
		details JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		trip_id UUID NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
		sender_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		body TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	`CREATE INDEX IF NOT EXISTS messages_trip_created_idx ON messages (trip_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS message_reads (
		trip_id UUID NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		last_read_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (trip_id, user_id)
		)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		type TEXT NOT NULL CHECK (type IN ('friend_request','friend_accepted','trip_invite','trip_joined','trip_message')),
		from_user_id UUID REFERENCES profiles(id) ON DELETE SET NULL,
		trip_id UUID REFERENCES trips(id) ON DELETE CASCADE,
		friendship_id UUID REFERENCES friendships(id) ON DELETE CASCADE,
		read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	`CREATE TABLE IF NOT EXISTS wanderlist_items (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		city TEXT NOT NULL,
		country TEXT NOT NULL,
		place_id TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	`ALTER TABLE wanderlist_items DROP CONSTRAINT IF EXISTS wanderlist_items_user_id_city_country_key`,
	`CREATE UNIQUE INDEX IF NOT EXISTS wanderlist_items_city_idx
		ON wanderlist_items (user_id, lower(city), lower(country))`,
	`CREATE TABLE IF NOT EXISTS shared_recommendations (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		trip_id UUID REFERENCES trips(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		city TEXT NOT NULL DEFAULT '',
		country TEXT NOT NULL DEFAULT '',
		place_id TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL CHECK (category IN ('food','stay','activity','nightlife','shopping','sight','other')),
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
}
