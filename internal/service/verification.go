package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tandaclean/site/internal/domain"
	"github.com/tandaclean/site/internal/metrics"
	"github.com/tandaclean/site/internal/repository"
)

// VerificationStore is the persistence surface token verification needs.
type VerificationStore interface {
	ConsumeGuestVerificationToken(ctx context.Context, tokenHash string, now time.Time) error
}

// VerificationService confirms guest email addresses.
type VerificationService interface {
	Verify(ctx context.Context, rawToken string) error
}

type verificationService struct {
	store  VerificationStore
	logger *slog.Logger
}

// NewVerificationService creates the guest verification service.
func NewVerificationService(store VerificationStore, logger *slog.Logger) VerificationService {
	return &verificationService{store: store, logger: logger}
}

// Verify consumes a raw verification token. Replaying the link of an
// already verified guest succeeds; unknown, expired, and spent tokens
// fail with a user-facing message.
func (s *verificationService) Verify(ctx context.Context, rawToken string) error {
	const op = "verification.verify"

	if rawToken == "" {
		metrics.VerificationOutcomes.WithLabelValues("invalid").Inc()
		return domain.Invalid(op, "Verification token is missing.")
	}

	err := s.store.ConsumeGuestVerificationToken(ctx, HashToken(rawToken), time.Now())
	switch {
	case err == nil:
		metrics.VerificationOutcomes.WithLabelValues("verified").Inc()
		return nil
	case errors.Is(err, repository.ErrTokenNotFound):
		metrics.VerificationOutcomes.WithLabelValues("invalid").Inc()
		return domain.Invalid(op, "Verification link is invalid.")
	case errors.Is(err, repository.ErrTokenExpired):
		metrics.VerificationOutcomes.WithLabelValues("expired").Inc()
		return domain.Invalid(op, "Verification link has expired. Please book again to receive a new one.")
	default:
		s.logger.Error("token verification failed", "error", err)
		return domain.Internal(err, op, err.Error())
	}
}
