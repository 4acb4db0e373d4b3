package teams

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/teamkeeper/internal/common"
	"github.com/dmitrijs2005/teamkeeper/internal/dbx"
	"github.com/dmitrijs2005/teamkeeper/internal/server/models"
)

const ownerNameConstraint = "teams_owner_name_key"

const selectTeam = `SELECT id, name, description, owner_id, version, created_at, updated_at FROM teams`

// PostgresRepository keeps roster rows in team_members. Create,
// ReplaceRoster and the bulk deletes issue several statements, so callers
// run them on a transaction handle.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, team *models.Team) (*models.Team, error) {
	query :=
		`INSERT INTO teams (id, name, description, owner_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING version, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, team.ID, team.Name, team.Description, team.OwnerID).
		Scan(&team.Version, &team.CreatedAt, &team.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err, ownerNameConstraint) {
			return nil, common.ErrDuplicateTeam
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if err := r.insertRoster(ctx, team); err != nil {
		return nil, err
	}

	return team, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Team, error) {
	return r.getOne(ctx, selectTeam+` WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByNameAndOwner(ctx context.Context, name, ownerID string) (*models.Team, error) {
	return r.getOne(ctx, selectTeam+` WHERE owner_id = $1 AND name = $2`, ownerID, name)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.Team, error) {
	team := &models.Team{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&team.ID, &team.Name, &team.Description, &team.OwnerID,
		&team.Version, &team.CreatedAt, &team.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if err := r.loadRoster(ctx, team); err != nil {
		return nil, err
	}
	return team, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Team, error) {
	return r.list(ctx, selectTeam+` WHERE owner_id = $1 ORDER BY created_at, id`, ownerID)
}

func (r *PostgresRepository) ListByMember(ctx context.Context, userID string) ([]*models.Team, error) {
	query := selectTeam + ` WHERE owner_id = $1
		 OR id IN (SELECT team_id FROM team_members WHERE user_id = $1)
		 ORDER BY created_at, id`
	return r.list(ctx, query, userID)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Team, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	result := make([]*models.Team, 0)
	for rows.Next() {
		team := &models.Team{}
		if err := rows.Scan(&team.ID, &team.Name, &team.Description, &team.OwnerID,
			&team.Version, &team.CreatedAt, &team.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, team)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("db error: %w", err)
	}
	// rows must be closed before the roster queries reuse the connection
	rows.Close()

	for _, team := range result {
		if err := r.loadRoster(ctx, team); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (r *PostgresRepository) loadRoster(ctx context.Context, team *models.Team) error {
	query :=
		`SELECT user_id, role FROM team_members
		 WHERE team_id = $1
		 ORDER BY role, position`

	rows, err := r.db.QueryContext(ctx, query, team.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	team.Admins = make([]string, 0)
	team.Members = make([]string, 0)
	for rows.Next() {
		var userID, role string
		if err := rows.Scan(&userID, &role); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		switch models.Role(role) {
		case models.RoleAdmin:
			team.Admins = append(team.Admins, userID)
		case models.RoleMember:
			team.Members = append(team.Members, userID)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) insertRoster(ctx context.Context, team *models.Team) error {
	query :=
		`INSERT INTO team_members (team_id, user_id, role, position)
		 VALUES ($1, $2, $3, $4)`

	insert := func(role models.Role, ids []string) error {
		for i, id := range ids {
			if _, err := r.db.ExecContext(ctx, query, team.ID, id, string(role), i); err != nil {
				return fmt.Errorf("db error: %w", err)
			}
		}
		return nil
	}

	if err := insert(models.RoleAdmin, team.Admins); err != nil {
		return err
	}
	return insert(models.RoleMember, team.Members)
}

func (r *PostgresRepository) Update(ctx context.Context, team *models.Team) (*models.Team, error) {
	query :=
		`UPDATE teams SET name = $2, description = $3, version = version + 1, updated_at = now()
		 WHERE id = $1 AND version = $4
		 RETURNING version, updated_at`

	err := r.db.QueryRowContext(ctx, query, team.ID, team.Name, team.Description, team.Version).
		Scan(&team.Version, &team.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrVersionConflict
		}
		if dbx.IsUniqueViolation(err, ownerNameConstraint) {
			return nil, common.ErrDuplicateTeam
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return team, nil
}

func (r *PostgresRepository) ReplaceRoster(ctx context.Context, team *models.Team) (*models.Team, error) {
	query :=
		`UPDATE teams SET version = version + 1, updated_at = now()
		 WHERE id = $1 AND version = $2
		 RETURNING version, updated_at`

	err := r.db.QueryRowContext(ctx, query, team.ID, team.Version).Scan(&team.Version, &team.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrVersionConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM team_members WHERE team_id = $1`, team.ID); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if err := r.insertRoster(ctx, team); err != nil {
		return nil, err
	}
	return team, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteByOwner(ctx context.Context, ownerID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM teams WHERE owner_id = $1`, ownerID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// RemoveUserEverywhere drops userID from every roster and bumps the version
// of each affected team so in-flight roster writes retry.
func (r *PostgresRepository) RemoveUserEverywhere(ctx context.Context, userID string) error {
	bump :=
		`UPDATE teams SET version = version + 1, updated_at = now()
		 WHERE id IN (SELECT team_id FROM team_members WHERE user_id = $1)`

	if _, err := r.db.ExecContext(ctx, bump, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM team_members WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
