package repositories

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrRequestForbidden  = errors.New("friend request not allowed")
	ErrRequestNotPending = errors.New("friend request is not pending")
	ErrFriendshipExists  = errors.New("friendship already exists")
	ErrInviteExpired     = errors.New("invite link expired")
	ErrInviteExhausted   = errors.New("invite link has no uses left")
	ErrParticipantExists = errors.New("user is already on this trip")
	ErrDuplicate         = errors.New("duplicate entry")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func withTx(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
