package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"assetverse/internal/model"
	"assetverse/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestEnsureAffiliationIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedHR(t, "hr@acme.io", 2)
	env.seedEmployee(t, "e1@acme.io", nil)

	created, err := env.affiliationSvc.EnsureAffiliation(ctx, "e1@acme.io", "hr@acme.io")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = env.affiliationSvc.EnsureAffiliation(ctx, "e1@acme.io", "hr@acme.io")
	require.NoError(t, err)
	assert.False(t, created)

	assert.Equal(t, int64(1), env.count(t, &model.Affiliation{}, "employee_email = ? AND status = ?", "e1@acme.io", model.AffiliationActive))
	assert.Equal(t, 1, env.reloadUser(t, "hr@acme.io").CurrentAffiliateCount)
}

// racingAffiliations commits the pair the first time a lookup misses, the way a
// concurrent approval holding the HR lock would.
type racingAffiliations struct {
	repository.AffiliationRepository
	committed bool
}

func (r *racingAffiliations) FindActive(ctx context.Context, employeeEmail, hrEmail string) (*model.Affiliation, error) {
	aff, err := r.AffiliationRepository.FindActive(ctx, employeeEmail, hrEmail)
	if errors.Is(err, gorm.ErrRecordNotFound) && !r.committed {
		r.committed = true
		if cerr := r.AffiliationRepository.Create(ctx, &model.Affiliation{
			EmployeeEmail: employeeEmail,
			HREmail:       hrEmail,
			CompanyName:   "Acme",
			Status:        model.AffiliationActive,
			AffiliatedAt:  time.Now(),
		}); cerr != nil {
			return nil, cerr
		}
	}
	return aff, err
}

func TestEnsureAffiliationRechecksUnderLock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	// one seat, so a missed re-check would surface as a quota error
	env.seedHR(t, "hr@acme.io", 1)
	env.seedEmployee(t, "e1@acme.io", nil)

	racing := &racingAffiliations{AffiliationRepository: env.affiliations}
	svc := NewAffiliationService(racing, env.users, env.assignments, env.audit, repository.NewTransactionManager(env.db), zap.NewNop())

	created, err := svc.EnsureAffiliation(ctx, "e1@acme.io", "hr@acme.io")
	require.NoError(t, err)
	assert.False(t, created)
	assert.True(t, racing.committed)
	assert.Equal(t, int64(1), env.count(t, &model.Affiliation{}, "employee_email = ? AND status = ?", "e1@acme.io", model.AffiliationActive))
}

func TestEnsureAffiliationUnknownHR(t *testing.T) {
	env := newTestEnv(t)
	env.seedEmployee(t, "e1@acme.io", nil)

	_, err := env.affiliationSvc.EnsureAffiliation(context.Background(), "e1@acme.io", "ghost@acme.io")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeactivateAndReaffiliate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedHR(t, "hr@acme.io", 1)
	env.seedEmployee(t, "e1@acme.io", nil)
	env.seedEmployee(t, "e2@acme.io", nil)

	_, err := env.affiliationSvc.EnsureAffiliation(ctx, "e1@acme.io", "hr@acme.io")
	require.NoError(t, err)
	_, err = env.affiliationSvc.EnsureAffiliation(ctx, "e2@acme.io", "hr@acme.io")
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	require.NoError(t, env.affiliationSvc.Deactivate(ctx, "e1@acme.io", "hr@acme.io"))
	assert.Equal(t, 0, env.reloadUser(t, "hr@acme.io").CurrentAffiliateCount)

	var aff model.Affiliation
	require.NoError(t, env.db.First(&aff, "employee_email = ?", "e1@acme.io").Error)
	assert.Equal(t, model.AffiliationInactive, aff.Status)
	assert.NotNil(t, aff.RemovedAt)

	// the freed seat is available again
	_, err = env.affiliationSvc.EnsureAffiliation(ctx, "e2@acme.io", "hr@acme.io")
	require.NoError(t, err)

	// removed employees can come back; the inactive row is kept
	require.NoError(t, env.affiliationSvc.Deactivate(ctx, "e2@acme.io", "hr@acme.io"))
	_, err = env.affiliationSvc.EnsureAffiliation(ctx, "e1@acme.io", "hr@acme.io")
	require.NoError(t, err)
	assert.Equal(t, int64(2), env.count(t, &model.Affiliation{}, "employee_email = ?", "e1@acme.io"))
}

func TestDeactivateMissing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedHR(t, "hr@acme.io", 1)

	err := env.affiliationSvc.Deactivate(ctx, "nobody@acme.io", "hr@acme.io")
	assert.ErrorIs(t, err, ErrNotFound)
	err = env.affiliationSvc.Deactivate(ctx, "", "hr@acme.io")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeactivateCounterFloor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedHR(t, "hr@acme.io", 3)
	env.seedEmployee(t, "e1@acme.io", nil)

	_, err := env.affiliationSvc.EnsureAffiliation(ctx, "e1@acme.io", "hr@acme.io")
	require.NoError(t, err)
	// counter drifted to zero out of band
	require.NoError(t, env.db.Model(&model.User{}).Where("email = ?", "hr@acme.io").Update("current_affiliate_count", 0).Error)

	require.NoError(t, env.affiliationSvc.Deactivate(ctx, "e1@acme.io", "hr@acme.io"))
	assert.Equal(t, 0, env.reloadUser(t, "hr@acme.io").CurrentAffiliateCount)
}

func TestTeamViews(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedHR(t, "hr@acme.io", 5)
	march := time.Date(1990, time.March, 14, 0, 0, 0, 0, time.UTC)
	july := time.Date(1992, time.July, 2, 0, 0, 0, 0, time.UTC)
	env.seedEmployee(t, "e1@acme.io", &march)
	env.seedEmployee(t, "e2@acme.io", &july)
	env.seedEmployee(t, "e3@acme.io", &march)

	for _, e := range []string{"e1@acme.io", "e2@acme.io", "e3@acme.io"} {
		_, err := env.affiliationSvc.EnsureAffiliation(ctx, e, "hr@acme.io")
		require.NoError(t, err)
	}

	mine, err := env.affiliationSvc.MyAffiliations(ctx, "e1@acme.io")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Acme", mine[0].CompanyName)

	teams, err := env.affiliationSvc.MyTeam(ctx, "e1@acme.io")
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Len(t, teams[0].Members, 2)
	for _, m := range teams[0].Members {
		assert.NotEqual(t, "e1@acme.io", m.Email)
	}

	birthdays, err := env.affiliationSvc.TeamBirthdays(ctx, "e2@acme.io", time.March)
	require.NoError(t, err)
	assert.Len(t, birthdays, 2)

	members, total, err := env.affiliationSvc.HREmployees(ctx, "hr@acme.io", "", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, members, 2)

	found, total, err := env.affiliationSvc.HREmployees(ctx, "hr@acme.io", "E2@ACME", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, found, 1)
	assert.Equal(t, "e2@acme.io", found[0].Email)
}

func TestHREmployeesAssetCount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedHR(t, "hr@acme.io", 5)
	env.seedEmployee(t, "e1@acme.io", nil)
	asset := env.seedAsset(t, "hr@acme.io", model.AssetTypeReturnable, 3)

	r := env.request(t, "e1@acme.io", asset)
	_, err := env.requestSvc.ApproveRequest(ctx, "hr@acme.io", r.ID.String())
	require.NoError(t, err)

	members, _, err := env.affiliationSvc.HREmployees(ctx, "hr@acme.io", "", 1, 10)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, int64(1), members[0].AssignedCount)
}
