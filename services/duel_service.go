package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/duel-system/models"
	"github.com/Dosada05/duel-system/notifications"
	"github.com/Dosada05/duel-system/repositories"
	"github.com/google/uuid"
)

const tokenIssueAttempts = 3

// DuelConfig carries the lifecycle policy knobs.
type DuelConfig struct {
	// InviteWindow is how long a pending duel waits for acceptance before the
	// sweep expires it.
	InviteWindow time.Duration
	// DuelDuration is the fixed span from acceptance to end_date.
	DuelDuration time.Duration
	// MaxPendingPerUser caps concurrently pending duels per challenger.
	MaxPendingPerUser int
	// MinTier is the minimum subscription tier allowed to create duels.
	MinTier models.SubscriptionTier
}

type CreateDuelResult struct {
	DuelID      string    `json:"duel_id"`
	InviteToken string    `json:"invite_token"`
	CreatedAt   time.Time `json:"created_at"`
}

// DuelService owns every state transition of a duel. No other component may
// write status, opponent_id, end_date or winner_id.
type DuelService interface {
	CreateDuel(ctx context.Context, userID int, tier models.SubscriptionTier) (*CreateDuelResult, error)
	AcceptDuel(ctx context.Context, token string, userID int) (*models.Duel, error)
	ExpirePendingDuels(ctx context.Context) (int64, error)
	CompleteEndedDuels(ctx context.Context) (int64, error)
	GetUserDuels(ctx context.Context, userID int) ([]*models.Duel, error)
	GetDuel(ctx context.Context, duelID string, userID int) (*models.Duel, error)
	SubmitScore(ctx context.Context, duelID string, userID int, score int64) error
}

type duelService struct {
	duelRepo   repositories.DuelRepository
	userRepo   repositories.UserRepository
	tokens     TokenIssuer
	dispatcher notifications.Dispatcher
	cfg        DuelConfig
	logger     *slog.Logger
	now        func() time.Time
}

func NewDuelService(
	duelRepo repositories.DuelRepository,
	userRepo repositories.UserRepository,
	tokens TokenIssuer,
	dispatcher notifications.Dispatcher,
	cfg DuelConfig,
	logger *slog.Logger,
) DuelService {
	return &duelService{
		duelRepo:   duelRepo,
		userRepo:   userRepo,
		tokens:     tokens,
		dispatcher: dispatcher,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *duelService) CreateDuel(ctx context.Context, userID int, tier models.SubscriptionTier) (*CreateDuelResult, error) {
	if !tier.Valid() {
		return nil, ErrInvalidTier
	}
	if tier.Rank() < s.cfg.MinTier.Rank() {
		return nil, ErrTierLimitExceeded
	}

	if s.cfg.MaxPendingPerUser > 0 {
		pending, err := s.duelRepo.CountPendingByChallenger(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to count pending duels for user %d: %w", userID, err)
		}
		if pending >= s.cfg.MaxPendingPerUser {
			return nil, ErrTierLimitExceeded
		}
	}

	// The token carries no uniqueness guarantee of its own; the unique
	// constraint on invite_token does. A collision shows up as a conflict on
	// insert and we mint a fresh token.
	for attempt := 0; attempt < tokenIssueAttempts; attempt++ {
		token, err := s.tokens.Issue()
		if err != nil {
			return nil, fmt.Errorf("failed to issue invite token: %w", err)
		}

		duel := &models.Duel{
			ID:           uuid.NewString(),
			ChallengerID: userID,
			InviteToken:  token,
			Status:       models.DuelStatusPending,
		}

		err = s.duelRepo.Create(ctx, duel)
		if err == nil {
			// No notification at creation: the token is handed back to the
			// challenger for out-of-band sharing.
			return &CreateDuelResult{
				DuelID:      duel.ID,
				InviteToken: duel.InviteToken,
				CreatedAt:   duel.CreatedAt,
			}, nil
		}
		if errors.Is(err, repositories.ErrDuelTokenConflict) {
			continue
		}
		if errors.Is(err, repositories.ErrDuelUserInvalid) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create duel: %w", err)
	}

	return nil, fmt.Errorf("failed to generate unique invite token after %d attempts", tokenIssueAttempts)
}

func (s *duelService) AcceptDuel(ctx context.Context, token string, userID int) (*models.Duel, error) {
	duel, err := s.duelRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrDuelNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to resolve invite token: %w", err)
	}

	// challenger_id is immutable, so this check cannot be raced past.
	if duel.ChallengerID == userID {
		return nil, ErrSelfChallengeNotAllowed
	}

	opponent, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}

	// Single atomic conditional update. Exactly one concurrent caller can
	// match WHERE invite_token = token AND status = pending; everyone else
	// sees zero rows affected, which is terminal, not retryable.
	acceptedAt := s.now()
	accepted, err := s.duelRepo.AcceptByToken(ctx, token, userID, acceptedAt, acceptedAt.Add(s.cfg.DuelDuration))
	if err != nil {
		if errors.Is(err, repositories.ErrDuelConditionFailed) {
			return nil, s.classifyAcceptConflict(ctx, token)
		}
		return nil, fmt.Errorf("failed to accept duel: %w", err)
	}

	s.dispatcher.Send(accepted.ChallengerID, notifications.EventDuelAccepted, map[string]interface{}{
		"duel_id":       accepted.ID,
		"challenger_id": accepted.ChallengerID,
		"opponent_name": opponent.Name,
	})

	s.logger.Info("duel accepted",
		slog.String("duel_id", accepted.ID),
		slog.Int("challenger_id", accepted.ChallengerID),
		slog.Int("opponent_id", userID),
	)
	return accepted, nil
}

// classifyAcceptConflict runs after a conditional accept matched zero rows:
// another caller already moved the duel out of pending, and the current status
// tells us which user-facing outcome to report.
func (s *duelService) classifyAcceptConflict(ctx context.Context, token string) error {
	duel, err := s.duelRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrDuelNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("failed to classify accept conflict: %w", err)
	}

	if duel.Status == models.DuelStatusExpired {
		return ErrDuelExpired
	}
	return ErrAlreadyAccepted
}

func (s *duelService) ExpirePendingDuels(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.cfg.InviteWindow)

	count, err := s.duelRepo.ExpirePending(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to expire pending duels: %w", err)
	}

	if count > 0 {
		s.logger.Info("expired pending duels", slog.Int64("count", count))
	}
	// No notification on expiry.
	return count, nil
}

func (s *duelService) CompleteEndedDuels(ctx context.Context) (int64, error) {
	completed, err := s.duelRepo.CompleteEnded(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to complete ended duels: %w", err)
	}

	for _, duel := range completed {
		payload := map[string]interface{}{
			"duel_id":          duel.ID,
			"challenger_score": duel.ChallengerScore,
			"opponent_score":   duel.OpponentScore,
		}
		if duel.WinnerID != nil {
			payload["winner_id"] = *duel.WinnerID
		}

		s.dispatcher.Send(duel.ChallengerID, notifications.EventDuelCompleted, payload)
		if duel.OpponentID != nil {
			s.dispatcher.Send(*duel.OpponentID, notifications.EventDuelCompleted, payload)
		}
	}

	if len(completed) > 0 {
		s.logger.Info("completed ended duels", slog.Int("count", len(completed)))
	}
	return int64(len(completed)), nil
}

func (s *duelService) GetUserDuels(ctx context.Context, userID int) ([]*models.Duel, error) {
	duels, err := s.duelRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list duels for user %d: %w", userID, err)
	}
	return duels, nil
}

func (s *duelService) GetDuel(ctx context.Context, duelID string, userID int) (*models.Duel, error) {
	duel, err := s.duelRepo.GetByID(ctx, duelID)
	if err != nil {
		if errors.Is(err, repositories.ErrDuelNotFound) {
			return nil, ErrDuelNotFound
		}
		return nil, fmt.Errorf("failed to get duel %s: %w", duelID, err)
	}

	if !duel.IsParticipant(userID) {
		return nil, ErrForbiddenOperation
	}
	return duel, nil
}

func (s *duelService) SubmitScore(ctx context.Context, duelID string, userID int, score int64) error {
	err := s.duelRepo.UpdateScore(ctx, duelID, userID, score)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repositories.ErrDuelConditionFailed) {
		return fmt.Errorf("failed to submit score for duel %s: %w", duelID, err)
	}

	// Zero rows: the duel is missing, not active, or the reporter is not a
	// participant. Look it up once to report the precise outcome.
	duel, getErr := s.duelRepo.GetByID(ctx, duelID)
	if getErr != nil {
		if errors.Is(getErr, repositories.ErrDuelNotFound) {
			return ErrDuelNotFound
		}
		return fmt.Errorf("failed to classify score rejection for duel %s: %w", duelID, getErr)
	}
	if !duel.IsParticipant(userID) {
		return ErrForbiddenOperation
	}
	return ErrDuelNotActive
}
