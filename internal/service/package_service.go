package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"assetverse/internal/model"
	"assetverse/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PaymentVerifier is the boundary to the payment processor. Verify returns nil
// only if the transaction succeeded and captured at least amount.
type PaymentVerifier interface {
	Verify(ctx context.Context, transactionID string, amount decimal.Decimal) error
}

// PaymentVerifierFunc adapts a function to PaymentVerifier.
type PaymentVerifierFunc func(ctx context.Context, transactionID string, amount decimal.Decimal) error

func (f PaymentVerifierFunc) Verify(ctx context.Context, transactionID string, amount decimal.Decimal) error {
	return f(ctx, transactionID, amount)
}

// UnconfiguredPaymentVerifier rejects every transaction. Used when no processor is wired.
var UnconfiguredPaymentVerifier = PaymentVerifierFunc(func(context.Context, string, decimal.Decimal) error {
	return errors.New("payment processor not configured")
})

// TrustingPaymentVerifier accepts every transaction. Development only.
var TrustingPaymentVerifier = PaymentVerifierFunc(func(context.Context, string, decimal.Decimal) error {
	return nil
})

type ConfirmUpgradeRequest struct {
	TransactionID string `json:"transaction_id" binding:"required"`
	PackageName   string `json:"package_name" binding:"required"`
}

type PackageInfo struct {
	CapacityLimit         int    `json:"capacity_limit"`
	CurrentAffiliateCount int    `json:"current_affiliate_count"`
	Subscription          string `json:"subscription"`
}

type PackageService interface {
	ListPackages(ctx context.Context) ([]model.Package, error)
	MyPackage(ctx context.Context, hrEmail string) (PackageInfo, error)
	ConfirmUpgrade(ctx context.Context, hrEmail string, req ConfirmUpgradeRequest) (model.Payment, error)
	PaymentHistory(ctx context.Context, hrEmail string) ([]model.Payment, error)
	SeedDefaults(ctx context.Context) error
}

type packageService struct {
	packages     repository.PackageRepository
	users        repository.UserRepository
	affiliations repository.AffiliationRepository
	audit        repository.AuditRepository
	txManager    repository.TransactionManager
	verifier     PaymentVerifier
	log          *zap.Logger
	now          func() time.Time
}

func NewPackageService(
	packages repository.PackageRepository,
	users repository.UserRepository,
	affiliations repository.AffiliationRepository,
	audit repository.AuditRepository,
	txManager repository.TransactionManager,
	verifier PaymentVerifier,
	log *zap.Logger,
) PackageService {
	return &packageService{
		packages:     packages,
		users:        users,
		affiliations: affiliations,
		audit:        audit,
		txManager:    txManager,
		verifier:     verifier,
		log:          log,
		now:          time.Now,
	}
}

var defaultPackages = []model.Package{
	{Name: "basic", EmployeeLimit: 5, Price: decimal.RequireFromString("5.00"), Features: "Asset tracking, Employee management, Basic support"},
	{Name: "standard", EmployeeLimit: 10, Price: decimal.RequireFromString("8.00"), Features: "All Basic features, Advanced analytics, Priority support"},
	{Name: "premium", EmployeeLimit: 20, Price: decimal.RequireFromString("15.00"), Features: "All Standard features, Custom branding, 24/7 support"},
}

// SeedDefaults inserts the built-in tiers into an empty packages table.
func (s *packageService) SeedDefaults(ctx context.Context) error {
	n, err := s.packages.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for _, p := range defaultPackages {
			pkg := p
			if err := s.packages.Create(txCtx, &pkg); err != nil {
				return fmt.Errorf("failed to seed package %s: %w", p.Name, err)
			}
		}
		return nil
	})
}

func (s *packageService) ListPackages(ctx context.Context) ([]model.Package, error) {
	return s.packages.List(ctx)
}

func (s *packageService) MyPackage(ctx context.Context, hrEmail string) (PackageInfo, error) {
	user, err := s.users.GetByEmail(ctx, hrEmail)
	if err != nil {
		return PackageInfo{}, lookup(err, "user not found")
	}
	info := PackageInfo{
		CapacityLimit:         user.CapacityLimit,
		CurrentAffiliateCount: user.CurrentAffiliateCount,
		Subscription:          user.Subscription,
	}
	if info.Subscription == "" {
		info.Subscription = model.DefaultSubscription
	}
	return info, nil
}

// ConfirmUpgrade applies a paid package once the processor confirms the payment.
// The new capacity_limit is read by the next quota check.
func (s *packageService) ConfirmUpgrade(ctx context.Context, hrEmail string, req ConfirmUpgradeRequest) (model.Payment, error) {
	if strings.TrimSpace(req.TransactionID) == "" || strings.TrimSpace(req.PackageName) == "" {
		return model.Payment{}, invalid("transaction id and package name are required")
	}

	pkg, err := s.packages.FindByName(ctx, req.PackageName)
	if err != nil {
		return model.Payment{}, lookup(err, "package not found")
	}

	if err := s.verifier.Verify(ctx, req.TransactionID, pkg.Price); err != nil {
		return model.Payment{}, fmt.Errorf("%w: payment not completed: %v", ErrInvalidOperation, err)
	}

	payment := model.Payment{
		HREmail:       hrEmail,
		PackageName:   pkg.Name,
		EmployeeLimit: pkg.EmployeeLimit,
		Amount:        pkg.Price,
		TransactionID: req.TransactionID,
		Status:        model.PaymentCompleted,
		PaidAt:        s.now(),
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.users.GetHRForUpdate(txCtx, hrEmail); err != nil {
			return lookup(err, "hr account not found")
		}
		active, err := s.affiliations.CountActive(txCtx, hrEmail)
		if err != nil {
			return fmt.Errorf("failed to count affiliations: %w", err)
		}
		if int64(pkg.EmployeeLimit) < active {
			return invalid("package allows %d employees but %d are active", pkg.EmployeeLimit, active)
		}

		if err := s.packages.CreatePayment(txCtx, &payment); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return conflict("transaction already applied")
			}
			return fmt.Errorf("failed to record payment: %w", err)
		}
		if err := s.users.UpdateCapacity(txCtx, hrEmail, pkg.EmployeeLimit, pkg.Name); err != nil {
			return fmt.Errorf("failed to update capacity: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"package":        pkg.Name,
			"employee_limit": pkg.EmployeeLimit,
			"amount":         pkg.Price.StringFixed(2),
		})
		return s.audit.Log(txCtx, &model.AuditLog{
			ActorEmail: hrEmail,
			Action:     model.ActionUpgradePackage,
			EntityID:   payment.ID.String(),
			EntityName: pkg.Name,
			Details:    string(details),
		})
	})
	if err != nil {
		return model.Payment{}, err
	}

	s.log.Info("package upgraded",
		zap.String("hr", hrEmail),
		zap.String("package", pkg.Name),
		zap.Int("capacity_limit", pkg.EmployeeLimit))
	return payment, nil
}

func (s *packageService) PaymentHistory(ctx context.Context, hrEmail string) ([]model.Payment, error) {
	return s.packages.ListPayments(ctx, hrEmail)
}
