package services

import (
	"context"
	"strings"
	"time"

	"medicare-backend/models"
	"medicare-backend/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// VoucherService validates voucher codes against an order subtotal and
// owns the admin-facing voucher CRUD.
type VoucherService interface {
	Validate(ctx context.Context, code string, subtotal int64, now time.Time) (*models.VoucherResult, *ServiceError)
	MarkUsed(ctx context.Context, code string) error
	Create(ctx context.Context, req *models.CreateVoucherRequest) (*models.Voucher, *ServiceError)
	Get(ctx context.Context, code string) (*models.Voucher, *ServiceError)
	List(ctx context.Context, page, limit int) ([]models.Voucher, int64, *ServiceError)
	Deactivate(ctx context.Context, code string) *ServiceError
}

type voucherService struct {
	repo   repository.VoucherRepository
	logger *zap.Logger
}

func NewVoucherService(repo repository.VoucherRepository, logger *zap.Logger) VoucherService {
	return &voucherService{repo: repo, logger: logger}
}

// Validate checks the voucher window, active flag, minimum order and
// usage limit, then computes the discount by the declared kind. Invalid
// vouchers come back as a 400 ServiceError wrapping the reason code.
func (s *voucherService) Validate(ctx context.Context, code string, subtotal int64, now time.Time) (*models.VoucherResult, *ServiceError) {
	normalized := strings.ToUpper(strings.TrimSpace(code))

	voucher, err := s.repo.FindByCode(ctx, normalized)
	if err == repository.ErrNotFound {
		return nil, invalidVoucher(normalized, VoucherNotFound)
	}
	if err != nil {
		s.logger.Error("voucher lookup failed", zap.String("code", normalized), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to validate voucher"}
	}

	switch {
	case !voucher.IsActive:
		return nil, invalidVoucher(normalized, VoucherInactive)
	case !voucher.StartsAt.IsZero() && now.Before(voucher.StartsAt):
		return nil, invalidVoucher(normalized, VoucherNotYetActive)
	case !voucher.ExpiresAt.IsZero() && now.After(voucher.ExpiresAt):
		return nil, invalidVoucher(normalized, VoucherExpired)
	case voucher.MinOrderAmount > 0 && subtotal < voucher.MinOrderAmount:
		return nil, invalidVoucher(normalized, VoucherMinOrderNotMet)
	case voucher.MaxUsage > 0 && voucher.UsedCount >= voucher.MaxUsage:
		return nil, invalidVoucher(normalized, VoucherUsageLimitReached)
	}

	result := &models.VoucherResult{Code: voucher.Code, Kind: voucher.Kind}

	switch voucher.Kind {
	case models.VoucherKindPercentage:
		pct := voucher.Value
		if pct < 0 {
			pct = 0
		}
		if pct > 100 {
			pct = 100
		}
		result.DiscountAmount = PercentOf(subtotal, pct)
	case models.VoucherKindFixedAmount:
		result.DiscountAmount = voucher.Value
		if result.DiscountAmount > subtotal {
			result.DiscountAmount = subtotal
		}
	case models.VoucherKindFreeShipping:
		result.ShippingWaived = true
	default:
		s.logger.Error("voucher has unknown kind",
			zap.String("code", voucher.Code), zap.String("kind", string(voucher.Kind)))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to validate voucher"}
	}

	return result, nil
}

// MarkUsed increments the usage counter after a successful checkout.
func (s *voucherService) MarkUsed(ctx context.Context, code string) error {
	return s.repo.IncrementUsedCount(ctx, strings.ToUpper(strings.TrimSpace(code)))
}

func (s *voucherService) Create(ctx context.Context, req *models.CreateVoucherRequest) (*models.Voucher, *ServiceError) {
	if !req.ExpiresAt.IsZero() && req.ExpiresAt.Before(time.Now()) {
		return nil, &ServiceError{StatusCode: 400, Message: "Expiry date must be in the future"}
	}
	if req.Kind == models.VoucherKindPercentage && req.Value > 100 {
		return nil, &ServiceError{StatusCode: 400, Message: "Percentage discount cannot exceed 100"}
	}

	voucher := &models.Voucher{
		ID:             uuid.NewString(),
		Code:           strings.ToUpper(strings.TrimSpace(req.Code)),
		Kind:           req.Kind,
		Value:          req.Value,
		MinOrderAmount: req.MinOrderAmount,
		MaxUsage:       req.MaxUsage,
		StartsAt:       req.StartsAt,
		ExpiresAt:      req.ExpiresAt,
		IsActive:       true,
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, voucher); err != nil {
		if err == repository.ErrDuplicateCode {
			return nil, &ServiceError{StatusCode: 409, Message: "Voucher code already exists"}
		}
		s.logger.Error("failed to create voucher", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to create voucher"}
	}

	s.logger.Info("voucher created",
		zap.String("code", voucher.Code), zap.String("kind", string(voucher.Kind)))
	return voucher, nil
}

func (s *voucherService) Get(ctx context.Context, code string) (*models.Voucher, *ServiceError) {
	voucher, err := s.repo.FindByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err == repository.ErrNotFound {
		return nil, &ServiceError{StatusCode: 404, Message: "Voucher not found"}
	}
	if err != nil {
		s.logger.Error("voucher lookup failed", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch voucher"}
	}
	return voucher, nil
}

func (s *voucherService) List(ctx context.Context, page, limit int) ([]models.Voucher, int64, *ServiceError) {
	vouchers, total, err := s.repo.FindAll(ctx, page, limit)
	if err != nil {
		s.logger.Error("failed to list vouchers", zap.Error(err))
		return nil, 0, &ServiceError{StatusCode: 500, Message: "Failed to list vouchers"}
	}
	return vouchers, total, nil
}

func (s *voucherService) Deactivate(ctx context.Context, code string) *ServiceError {
	err := s.repo.Deactivate(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err == repository.ErrNotFound {
		return &ServiceError{StatusCode: 404, Message: "Voucher not found"}
	}
	if err != nil {
		s.logger.Error("failed to deactivate voucher", zap.String("code", code), zap.Error(err))
		return &ServiceError{StatusCode: 500, Message: "Failed to deactivate voucher"}
	}
	s.logger.Info("voucher deactivated", zap.String("code", code))
	return nil
}

func invalidVoucher(code, reason string) *ServiceError {
	err := &VoucherInvalidError{Code: code, Reason: reason}
	return &ServiceError{StatusCode: 400, Message: err.Error(), Reason: reason}
}
