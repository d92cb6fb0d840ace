package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"assetverse/internal/model"
	"assetverse/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type TeamMember struct {
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	ProfileImage  string     `json:"profile_image"`
	DateOfBirth   *time.Time `json:"date_of_birth"`
	AffiliatedAt  time.Time  `json:"affiliated_at"`
	AssignedCount int64      `json:"asset_count,omitempty"`
}

type CompanyTeam struct {
	CompanyName string       `json:"company_name"`
	CompanyLogo string       `json:"company_logo"`
	HREmail     string       `json:"hr_email"`
	Members     []TeamMember `json:"team_members"`
}

type Birthday struct {
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	DateOfBirth time.Time `json:"date_of_birth"`
	CompanyName string    `json:"company_name"`
}

// AffiliationService owns employee<->HR affiliations and the HR capacity quota.
type AffiliationService interface {
	IsActive(ctx context.Context, employeeEmail, hrEmail string) (bool, error)
	ActiveCount(ctx context.Context, hrEmail string) (int64, error)
	EnsureAffiliation(ctx context.Context, employeeEmail, hrEmail string) (created bool, err error)
	Deactivate(ctx context.Context, employeeEmail, hrEmail string) error

	MyAffiliations(ctx context.Context, employeeEmail string) ([]model.Affiliation, error)
	MyTeam(ctx context.Context, employeeEmail string) ([]CompanyTeam, error)
	TeamBirthdays(ctx context.Context, employeeEmail string, month time.Month) ([]Birthday, error)
	HREmployees(ctx context.Context, hrEmail, search string, page, limit int) ([]TeamMember, int64, error)
}

type affiliationService struct {
	affiliations repository.AffiliationRepository
	users        repository.UserRepository
	assignments  repository.AssignmentRepository
	audit        repository.AuditRepository
	txManager    repository.TransactionManager
	log          *zap.Logger
	now          func() time.Time
}

func NewAffiliationService(
	affiliations repository.AffiliationRepository,
	users repository.UserRepository,
	assignments repository.AssignmentRepository,
	audit repository.AuditRepository,
	txManager repository.TransactionManager,
	log *zap.Logger,
) AffiliationService {
	return &affiliationService{
		affiliations: affiliations,
		users:        users,
		assignments:  assignments,
		audit:        audit,
		txManager:    txManager,
		log:          log,
		now:          time.Now,
	}
}

func (s *affiliationService) IsActive(ctx context.Context, employeeEmail, hrEmail string) (bool, error) {
	_, err := s.affiliations.FindActive(ctx, employeeEmail, hrEmail)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("database error: %w", err)
}

func (s *affiliationService) ActiveCount(ctx context.Context, hrEmail string) (int64, error) {
	return s.affiliations.CountActive(ctx, hrEmail)
}

// EnsureAffiliation is a no-op for an already active pair. Otherwise it locks the
// HR row, checks again, compares the active count against capacity_limit and
// creates the affiliation. Joins the caller's transaction when ctx carries one.
func (s *affiliationService) EnsureAffiliation(ctx context.Context, employeeEmail, hrEmail string) (bool, error) {
	created := false
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		active, err := s.IsActive(txCtx, employeeEmail, hrEmail)
		if err != nil {
			return err
		}
		if active {
			return nil
		}

		hr, err := s.users.GetHRForUpdate(txCtx, hrEmail)
		if err != nil {
			return lookup(err, "hr account")
		}
		// a concurrent approval may have committed the pair while we waited on the lock
		active, err = s.IsActive(txCtx, employeeEmail, hrEmail)
		if err != nil {
			return err
		}
		if active {
			return nil
		}

		count, err := s.affiliations.CountActive(txCtx, hrEmail)
		if err != nil {
			return fmt.Errorf("failed to count affiliations: %w", err)
		}
		if count >= int64(hr.CapacityLimit) {
			return fmt.Errorf("%w: employee limit of %d reached, upgrade your package", ErrQuotaExceeded, hr.CapacityLimit)
		}

		var employeeName string
		if employee, err := s.users.GetByEmail(txCtx, employeeEmail); err == nil {
			employeeName = employee.Name
		}

		aff := &model.Affiliation{
			EmployeeEmail: employeeEmail,
			EmployeeName:  employeeName,
			HREmail:       hrEmail,
			CompanyName:   hr.CompanyName,
			CompanyLogo:   hr.CompanyLogo,
			Status:        model.AffiliationActive,
			AffiliatedAt:  s.now(),
		}
		if err := s.affiliations.Create(txCtx, aff); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return conflict("employee is already affiliated")
			}
			return fmt.Errorf("failed to create affiliation: %w", err)
		}
		if err := s.users.IncrementAffiliateCount(txCtx, hrEmail); err != nil {
			return fmt.Errorf("failed to update affiliate count: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{"employee_email": employeeEmail})
		if err := s.audit.Log(txCtx, &model.AuditLog{
			ActorEmail: hrEmail,
			Action:     model.ActionAffiliate,
			EntityID:   aff.ID.String(),
			EntityName: employeeEmail,
			Details:    string(details),
		}); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}

		created = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if created {
		s.log.Info("affiliation created", zap.String("employee", employeeEmail), zap.String("hr", hrEmail))
	}
	return created, nil
}

func (s *affiliationService) Deactivate(ctx context.Context, employeeEmail, hrEmail string) error {
	if employeeEmail == "" {
		return invalid("employee email is required")
	}
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		ok, err := s.affiliations.Deactivate(txCtx, employeeEmail, hrEmail, s.now())
		if err != nil {
			return fmt.Errorf("failed to deactivate affiliation: %w", err)
		}
		if !ok {
			return notFound("employee not found in your team")
		}
		if err := s.users.DecrementAffiliateCount(txCtx, hrEmail); err != nil {
			return fmt.Errorf("failed to update affiliate count: %w", err)
		}
		return s.audit.Log(txCtx, &model.AuditLog{
			ActorEmail: hrEmail,
			Action:     model.ActionRemoveEmployee,
			EntityName: employeeEmail,
			Details:    `{"status": "inactive"}`,
		})
	})
	if err != nil {
		return err
	}
	s.log.Info("affiliation deactivated", zap.String("employee", employeeEmail), zap.String("hr", hrEmail))
	return nil
}

func (s *affiliationService) MyAffiliations(ctx context.Context, employeeEmail string) ([]model.Affiliation, error) {
	return s.affiliations.ListActiveByEmployee(ctx, employeeEmail)
}

func (s *affiliationService) MyTeam(ctx context.Context, employeeEmail string) ([]CompanyTeam, error) {
	mine, err := s.affiliations.ListActiveByEmployee(ctx, employeeEmail)
	if err != nil {
		return nil, err
	}

	teams := make([]CompanyTeam, 0, len(mine))
	for _, aff := range mine {
		members, err := s.membersOf(ctx, aff.HREmail, employeeEmail)
		if err != nil {
			return nil, err
		}
		teams = append(teams, CompanyTeam{
			CompanyName: aff.CompanyName,
			CompanyLogo: aff.CompanyLogo,
			HREmail:     aff.HREmail,
			Members:     members,
		})
	}
	return teams, nil
}

func (s *affiliationService) TeamBirthdays(ctx context.Context, employeeEmail string, month time.Month) ([]Birthday, error) {
	mine, err := s.affiliations.ListActiveByEmployee(ctx, employeeEmail)
	if err != nil {
		return nil, err
	}

	out := []Birthday{}
	for _, aff := range mine {
		members, err := s.membersOf(ctx, aff.HREmail, "")
		if err != nil {
			return nil, err
		}
		for _, m := range members {
			if m.DateOfBirth != nil && m.DateOfBirth.Month() == month {
				out = append(out, Birthday{
					Name:        m.Name,
					Email:       m.Email,
					DateOfBirth: *m.DateOfBirth,
					CompanyName: aff.CompanyName,
				})
			}
		}
	}
	return out, nil
}

func (s *affiliationService) HREmployees(ctx context.Context, hrEmail, search string, page, limit int) ([]TeamMember, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	affs, total, err := s.affiliations.ListActiveByHRPaged(ctx, hrEmail, search, page, limit)
	if err != nil {
		return nil, 0, err
	}

	members, err := s.toMembers(ctx, affs)
	if err != nil {
		return nil, 0, err
	}
	for i := range members {
		n, err := s.assignments.CountAssigned(ctx, members[i].Email, hrEmail)
		if err != nil {
			return nil, 0, err
		}
		members[i].AssignedCount = n
	}
	return members, total, nil
}

// membersOf lists active members of an HR's team, skipping exclude.
func (s *affiliationService) membersOf(ctx context.Context, hrEmail, exclude string) ([]TeamMember, error) {
	affs, err := s.affiliations.ListActiveByHR(ctx, hrEmail)
	if err != nil {
		return nil, err
	}
	kept := affs[:0]
	for _, a := range affs {
		if a.EmployeeEmail != exclude {
			kept = append(kept, a)
		}
	}
	return s.toMembers(ctx, kept)
}

func (s *affiliationService) toMembers(ctx context.Context, affs []model.Affiliation) ([]TeamMember, error) {
	emails := make([]string, 0, len(affs))
	for _, a := range affs {
		emails = append(emails, a.EmployeeEmail)
	}
	users, err := s.users.ListByEmails(ctx, emails)
	if err != nil {
		return nil, err
	}
	byEmail := make(map[string]model.User, len(users))
	for _, u := range users {
		byEmail[u.Email] = u
	}

	members := make([]TeamMember, 0, len(affs))
	for _, a := range affs {
		u, ok := byEmail[a.EmployeeEmail]
		if !ok {
			continue
		}
		members = append(members, TeamMember{
			Name:         u.Name,
			Email:        u.Email,
			ProfileImage: u.ProfileImage,
			DateOfBirth:  u.DateOfBirth,
			AffiliatedAt: a.AffiliatedAt,
		})
	}
	return members, nil
}
