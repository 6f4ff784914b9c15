package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/duel-system/models"
	"github.com/lib/pq"
)

var (
	ErrDuelNotFound        = errors.New("duel not found")
	ErrDuelTokenConflict   = errors.New("duel invite token conflict")
	ErrDuelUserInvalid     = errors.New("duel user conflict or invalid")
	ErrDuelConditionFailed = errors.New("duel condition not met")
)

// DuelRepository is the storage contract for duel records.
//
// AcceptByToken, ExpirePending, CompleteEnded and UpdateScore are all single
// conditional statements: the WHERE clause names the expected status and the
// database guarantees each row satisfies it at most once. Zero rows affected
// is a definitive outcome (someone else won the transition), reported as
// ErrDuelConditionFailed, never a cue to retry.
type DuelRepository interface {
	Create(ctx context.Context, duel *models.Duel) error

	GetByID(ctx context.Context, id string) (*models.Duel, error)

	GetByToken(ctx context.Context, token string) (*models.Duel, error)

	// AcceptByToken atomically transitions the duel identified by token from
	// pending to active, setting opponent, accepted_at and end_date in the
	// same statement. Returns the updated row.
	AcceptByToken(ctx context.Context, token string, opponentID int, acceptedAt, endDate time.Time) (*models.Duel, error)

	// ExpirePending moves every pending duel created before cutoff to expired
	// and returns the number of rows this call transitioned.
	ExpirePending(ctx context.Context, cutoff time.Time) (int64, error)

	// CompleteEnded moves every active duel whose end_date has passed to
	// completed, computing the winner from the scores at the moment of the
	// update. Returns the transitioned rows so callers can emit events.
	CompleteEnded(ctx context.Context, now time.Time) ([]*models.Duel, error)

	// ListByUser returns all duels where the user is challenger or opponent,
	// most recent first.
	ListByUser(ctx context.Context, userID int) ([]*models.Duel, error)

	CountPendingByChallenger(ctx context.Context, userID int) (int, error)

	// UpdateScore records the score reported by the metrics feed for one
	// participant of an active duel. It never touches lifecycle columns.
	UpdateScore(ctx context.Context, duelID string, userID int, score int64) error
}

type postgresDuelRepository struct {
	db *sql.DB
}

func NewPostgresDuelRepository(db *sql.DB) DuelRepository {
	return &postgresDuelRepository{db: db}
}

const duelColumns = `id, challenger_id, opponent_id, invite_token, status, created_at,
	accepted_at, end_date, challenger_score, opponent_score, winner_id`

func scanDuel(row interface {
	Scan(dest ...interface{}) error
}) (*models.Duel, error) {
	duel := &models.Duel{}
	err := row.Scan(
		&duel.ID,
		&duel.ChallengerID,
		&duel.OpponentID,
		&duel.InviteToken,
		&duel.Status,
		&duel.CreatedAt,
		&duel.AcceptedAt,
		&duel.EndDate,
		&duel.ChallengerScore,
		&duel.OpponentScore,
		&duel.WinnerID,
	)
	if err != nil {
		return nil, err
	}
	return duel, nil
}

func (r *postgresDuelRepository) Create(ctx context.Context, duel *models.Duel) error {
	query := `
		INSERT INTO duels (id, challenger_id, invite_token, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		duel.ID,
		duel.ChallengerID,
		duel.InviteToken,
		duel.Status,
	).Scan(&duel.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				if pqErr.Constraint == "duels_invite_token_key" {
					return ErrDuelTokenConflict
				}
			case "23503": // foreign_key_violation
				if pqErr.Constraint == "duels_challenger_id_fkey" {
					return ErrDuelUserInvalid
				}
			}
		}
		return err
	}
	return nil
}

func (r *postgresDuelRepository) GetByID(ctx context.Context, id string) (*models.Duel, error) {
	query := `SELECT ` + duelColumns + ` FROM duels WHERE id = $1`

	duel, err := scanDuel(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDuelNotFound
		}
		return nil, fmt.Errorf("failed to scan duel by id %s: %w", id, err)
	}
	return duel, nil
}

func (r *postgresDuelRepository) GetByToken(ctx context.Context, token string) (*models.Duel, error) {
	query := `SELECT ` + duelColumns + ` FROM duels WHERE invite_token = $1`

	duel, err := scanDuel(r.db.QueryRowContext(ctx, query, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDuelNotFound
		}
		return nil, fmt.Errorf("failed to scan duel by token: %w", err)
	}
	return duel, nil
}

func (r *postgresDuelRepository) AcceptByToken(ctx context.Context, token string, opponentID int, acceptedAt, endDate time.Time) (*models.Duel, error) {
	// The WHERE clause is the synchronization primitive: among concurrent
	// callers holding the same token only one UPDATE matches the pending row.
	query := `
		UPDATE duels
		SET status = $1, opponent_id = $2, accepted_at = $3, end_date = $4
		WHERE invite_token = $5 AND status = $6
		RETURNING ` + duelColumns

	duel, err := scanDuel(r.db.QueryRowContext(ctx, query,
		models.DuelStatusActive,
		opponentID,
		acceptedAt,
		endDate,
		token,
		models.DuelStatusPending,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDuelConditionFailed
		}
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return nil, ErrDuelUserInvalid
		}
		return nil, fmt.Errorf("failed to accept duel by token: %w", err)
	}
	return duel, nil
}

func (r *postgresDuelRepository) ExpirePending(ctx context.Context, cutoff time.Time) (int64, error) {
	// Same conditional-update discipline as accept: a row consumed by a
	// concurrent accept no longer matches status = 'pending' and is skipped.
	query := `
		UPDATE duels
		SET status = $1
		WHERE status = $2 AND created_at < $3`

	result, err := r.db.ExecContext(ctx, query,
		models.DuelStatusExpired,
		models.DuelStatusPending,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to expire pending duels: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return rowsAffected, nil
}

func (r *postgresDuelRepository) CompleteEnded(ctx context.Context, now time.Time) ([]*models.Duel, error) {
	// Winner is computed inside the same statement that flips the status, so
	// the scores read are exactly the scores at the moment of transition.
	// Equal scores leave winner_id NULL.
	query := `
		UPDATE duels
		SET status = $1,
		    winner_id = CASE
		        WHEN challenger_score > opponent_score THEN challenger_id
		        WHEN opponent_score > challenger_score THEN opponent_id
		        ELSE NULL
		    END
		WHERE status = $2 AND end_date <= $3
		RETURNING ` + duelColumns

	rows, err := r.db.QueryContext(ctx, query,
		models.DuelStatusCompleted,
		models.DuelStatusActive,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to complete ended duels: %w", err)
	}
	defer rows.Close()

	duels := make([]*models.Duel, 0)
	for rows.Next() {
		duel, scanErr := scanDuel(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan completed duel row: %w", scanErr)
		}
		duels = append(duels, duel)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during completed duel rows iteration: %w", err)
	}
	return duels, nil
}

func (r *postgresDuelRepository) ListByUser(ctx context.Context, userID int) ([]*models.Duel, error) {
	query := `
		SELECT ` + duelColumns + `
		FROM duels
		WHERE challenger_id = $1 OR opponent_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query duels for user %d: %w", userID, err)
	}
	defer rows.Close()

	duels := make([]*models.Duel, 0)
	for rows.Next() {
		duel, scanErr := scanDuel(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan duel row: %w", scanErr)
		}
		duels = append(duels, duel)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during duel rows iteration: %w", err)
	}
	return duels, nil
}

func (r *postgresDuelRepository) CountPendingByChallenger(ctx context.Context, userID int) (int, error) {
	query := `SELECT COUNT(*) FROM duels WHERE challenger_id = $1 AND status = $2`

	var count int
	err := r.db.QueryRowContext(ctx, query, userID, models.DuelStatusPending).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending duels for user %d: %w", userID, err)
	}
	return count, nil
}

func (r *postgresDuelRepository) UpdateScore(ctx context.Context, duelID string, userID int, score int64) error {
	query := `
		UPDATE duels
		SET challenger_score = CASE WHEN challenger_id = $1 THEN $2 ELSE challenger_score END,
		    opponent_score   = CASE WHEN opponent_id = $1 THEN $2 ELSE opponent_score END
		WHERE id = $3 AND status = $4
		  AND (challenger_id = $1 OR opponent_id = $1)`

	result, err := r.db.ExecContext(ctx, query, userID, score, duelID, models.DuelStatusActive)
	if err != nil {
		return fmt.Errorf("failed to update score for duel %s: %w", duelID, err)
	}
	return checkAffectedRows(result, ErrDuelConditionFailed)
}
