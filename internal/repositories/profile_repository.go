package repositories

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"roamwyth/internal/models"
)

const profileColumns = "id, username, full_name, avatar_url, plan, created_at"

type ProfileRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Profile, error)
	Search(ctx context.Context, query string, limit int) ([]models.Profile, error)
	GetAvatarURL(ctx context.Context, id uuid.UUID) (string, error)
	SetAvatarURL(ctx context.Context, id uuid.UUID, avatarURL string) error
	ClearAvatarURL(ctx context.Context, id uuid.UUID) error
	SetPlan(ctx context.Context, id uuid.UUID, plan models.Plan) error
}

type profileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.GetContext(ctx, &profile, "SELECT "+profileColumns+" FROM profiles WHERE id=$1", id)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Profile, error) {
	profiles := []models.Profile{}
	if len(ids) == 0 {
		return profiles, nil
	}
	err := r.db.SelectContext(ctx, &profiles,
		"SELECT "+profileColumns+" FROM profiles WHERE id = ANY($1::uuid[]) ORDER BY username", pq.Array(uuidStrings(ids)))
	return profiles, err
}

func (r *profileRepository) Search(ctx context.Context, query string, limit int) ([]models.Profile, error) {
	profiles := []models.Profile{}
	pattern := escapeLike(strings.ToLower(query)) + "%"
	err := r.db.SelectContext(ctx, &profiles, `
SELECT `+profileColumns+`
FROM profiles
WHERE lower(username) LIKE $1 OR lower(full_name) LIKE $1
ORDER BY username
LIMIT $2
`, pattern, limit)
	return profiles, err
}

func (r *profileRepository) GetAvatarURL(ctx context.Context, id uuid.UUID) (string, error) {
	var avatar sql.NullString
	if err := r.db.GetContext(ctx, &avatar, "SELECT avatar_url FROM profiles WHERE id=$1", id); err != nil {
		return "", err
	}
	if !avatar.Valid {
		return "", nil
	}
	return avatar.String, nil
}

func (r *profileRepository) SetAvatarURL(ctx context.Context, id uuid.UUID, avatarURL string) error {
	return expectOneRow(r.db.ExecContext(ctx, "UPDATE profiles SET avatar_url=$2 WHERE id=$1", id, avatarURL))
}

func (r *profileRepository) ClearAvatarURL(ctx context.Context, id uuid.UUID) error {
	return expectOneRow(r.db.ExecContext(ctx, "UPDATE profiles SET avatar_url=NULL WHERE id=$1", id))
}

func (r *profileRepository) SetPlan(ctx context.Context, id uuid.UUID, plan models.Plan) error {
	return expectOneRow(r.db.ExecContext(ctx, "UPDATE profiles SET plan=$2 WHERE id=$1", id, plan))
}

// expectOneRow turns an update that touched nothing into sql.ErrNoRows.
func expectOneRow(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
