package service

import (
	"context"
	"testing"

	"assetverse/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditTrailFollowsWorkflow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedHR(t, "hr@acme.io", 5)
	env.seedEmployee(t, "e1@acme.io", nil)
	asset := env.seedAsset(t, "hr@acme.io", model.AssetTypeReturnable, 1)
	r := env.request(t, "e1@acme.io", asset)
	_, err := env.requestSvc.ApproveRequest(ctx, "hr@acme.io", r.ID.String())
	require.NoError(t, err)

	svc := NewAuditService(env.audit)
	logs, total, err := svc.ListAuditLogs(ctx, "hr@acme.io", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	actions := map[string]bool{}
	for _, l := range logs {
		actions[l.Action] = true
	}
	assert.True(t, actions[model.ActionCreateAsset])
	assert.True(t, actions[model.ActionAffiliate])
	assert.True(t, actions[model.ActionApproveRequest])

	mine, total, err := svc.ListAuditLogs(ctx, "e1@acme.io", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, model.ActionCreateRequest, mine[0].Action)
}

func TestFailedApprovalLeavesNoAudit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedHR(t, "hr@acme.io", 0)
	env.seedEmployee(t, "e1@acme.io", nil)
	asset := env.seedAsset(t, "hr@acme.io", model.AssetTypeReturnable, 1)
	r := env.request(t, "e1@acme.io", asset)

	_, err := env.requestSvc.ApproveRequest(ctx, "hr@acme.io", r.ID.String())
	require.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Equal(t, int64(0), env.count(t, &model.AuditLog{}, "action IN ?", []string{model.ActionApproveRequest, model.ActionAffiliate}))
}
