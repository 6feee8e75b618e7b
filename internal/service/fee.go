package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ayo6706/wallet-ledger/internal/domain"
	"github.com/ayo6706/wallet-ledger/internal/models"
	"github.com/ayo6706/wallet-ledger/internal/repository"
)

// Default rates used when no fee schedule row is configured.
var (
	DefaultTransferRate    = decimal.RequireFromString("0.01")
	DefaultMaintenanceRate = decimal.RequireFromString("0.0055")
)

// FeeCalculator resolves the deployment's fee rates. Rates come from the
// fee schedule row when one exists; otherwise the documented defaults
// apply. Fee amounts themselves are pure arithmetic on the rate.
type FeeCalculator struct {
	schedules repository.FeeScheduleStore

	transferRate    decimal.Decimal
	maintenanceRate decimal.Decimal
}

func NewFeeCalculator(schedules repository.FeeScheduleStore) *FeeCalculator {
	return &FeeCalculator{
		schedules:       schedules,
		transferRate:    DefaultTransferRate,
		maintenanceRate: DefaultMaintenanceRate,
	}
}

// WithRates replaces the fallback rates, typically from deployment config.
// Non-positive rates keep the documented defaults.
func (c *FeeCalculator) WithRates(transfer, maintenance decimal.Decimal) *FeeCalculator {
	if transfer.IsPositive() {
		c.transferRate = transfer
	}
	if maintenance.IsPositive() {
		c.maintenanceRate = maintenance
	}
	return c
}

// TransferRate returns the per-transfer fee rate.
func (c *FeeCalculator) TransferRate(ctx context.Context) decimal.Decimal {
	if s := c.schedule(ctx); s != nil && s.TransferRate.IsPositive() {
		return s.TransferRate
	}
	return c.transferRate
}

// MaintenanceRate returns the rate the accrual job applies to trailing
// credited income.
func (c *FeeCalculator) MaintenanceRate(ctx context.Context) decimal.Decimal {
	if s := c.schedule(ctx); s != nil && s.MaintenanceRate.IsPositive() {
		return s.MaintenanceRate
	}
	return c.maintenanceRate
}

// TransferFee computes the fee charged on top of a transfer amount,
// rounded to two decimal places.
func (c *FeeCalculator) TransferFee(ctx context.Context, amount decimal.Decimal) decimal.Decimal {
	return domain.Scale2(amount.Mul(c.TransferRate(ctx)))
}

func (c *FeeCalculator) schedule(ctx context.Context) *models.FeeSchedule {
	s, err := c.schedules.First(ctx)
	if err != nil {
		if !errors.Is(err, repository.ErrNoFeeSchedule) {
			zap.L().Warn("fee schedule lookup failed, using defaults", zap.Error(err))
		}
		return nil
	}
	return s
}
