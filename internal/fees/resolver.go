// Package fees resolves the platform fee percentage charged to a seller.
package fees

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/01moynul/taptosell-settlement/internal/apperrors"
	"github.com/01moynul/taptosell-settlement/internal/repository"
)

var hundred = decimal.NewFromInt(100)

// Resolver looks up a seller's fee override and falls back to the platform default.
type Resolver struct {
	settings repository.SellerSettingsRepository
	platform repository.PlatformSettingsRepository
	fallback decimal.Decimal
	logger   *zap.Logger
}

// NewResolver creates a resolver. fallback is used when no platform default has been stored.
func NewResolver(settings repository.SellerSettingsRepository, platform repository.PlatformSettingsRepository, fallback decimal.Decimal, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{settings: settings, platform: platform, fallback: fallback, logger: logger}
}

// EffectivePercent returns the seller's override when set, else the platform default.
// A seller without a settings row is charged the default.
func (r *Resolver) EffectivePercent(ctx context.Context, sellerID uuid.UUID) (decimal.Decimal, error) {
	st, err := r.settings.Get(ctx, sellerID)
	switch {
	case err == nil:
		if st.PlatformFeePercent.Valid {
			return st.PlatformFeePercent.Decimal, nil
		}
	case apperrors.IsNotFound(err):
	default:
		return decimal.Zero, err
	}
	return r.PlatformDefault(ctx)
}

// PlatformDefault returns the stored marketplace-wide percentage, or the configured fallback.
func (r *Resolver) PlatformDefault(ctx context.Context) (decimal.Decimal, error) {
	percent, ok, err := r.platform.DefaultPlatformFeePercent(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	if !ok {
		return r.fallback, nil
	}
	return percent, nil
}

// SetSellerOverride stores a per-seller percentage. nil clears the override.
func (r *Resolver) SetSellerOverride(ctx context.Context, sellerID uuid.UUID, percent *decimal.Decimal) error {
	if percent != nil {
		if err := validatePercent(*percent); err != nil {
			return err
		}
	}
	if err := r.settings.SetPlatformFeeOverride(ctx, sellerID, percent); err != nil {
		return err
	}
	if percent == nil {
		r.logger.Info("Seller fee override cleared", zap.String("seller_id", sellerID.String()))
	} else {
		r.logger.Info("Seller fee override set", zap.String("seller_id", sellerID.String()), zap.String("percent", percent.String()))
	}
	return nil
}

// SetPlatformDefault changes the marketplace-wide percentage.
func (r *Resolver) SetPlatformDefault(ctx context.Context, percent decimal.Decimal) error {
	if err := validatePercent(percent); err != nil {
		return err
	}
	if err := r.platform.SetDefaultPlatformFeePercent(ctx, percent); err != nil {
		return err
	}
	r.logger.Info("Platform default fee changed", zap.String("percent", percent.String()))
	return nil
}

func validatePercent(p decimal.Decimal) error {
	if p.IsNegative() || p.GreaterThan(hundred) {
		return apperrors.BadRequest("platform fee percent must be between 0 and 100, got %s", p)
	}
	return nil
}
