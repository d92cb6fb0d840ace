package service

import (
	"context"
	"testing"

	"assetverse/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestCreateAssetValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedHR(t, "hr@acme.io", 5)

	tests := []struct {
		name string
		req  CreateAssetRequest
	}{
		{"missing name", CreateAssetRequest{Type: model.AssetTypeReturnable, Quantity: 1}},
		{"bad type", CreateAssetRequest{Name: "Chair", Type: "Borrowable", Quantity: 1}},
		{"zero quantity", CreateAssetRequest{Name: "Chair", Type: model.AssetTypeReturnable}},
	}
	for _, tt := range tests {
		_, err := env.assetSvc.CreateAsset(ctx, "hr@acme.io", tt.req)
		assert.ErrorIs(t, err, ErrInvalidInput, tt.name)
	}

	asset := env.seedAsset(t, "hr@acme.io", model.AssetTypeReturnable, 4)
	assert.Equal(t, 4, asset.TotalQuantity)
	assert.Equal(t, 4, asset.AvailableQuantity)
	assert.Equal(t, "Acme", asset.CompanyName)
}

func TestUpdateAssetQuantityDelta(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedHR(t, "hr@acme.io", 5)
	env.seedEmployee(t, "e1@acme.io", nil)
	env.seedEmployee(t, "e2@acme.io", nil)
	asset := env.seedAsset(t, "hr@acme.io", model.AssetTypeReturnable, 3)

	for _, e := range []string{"e1@acme.io", "e2@acme.io"} {
		r := env.request(t, e, asset)
		_, err := env.requestSvc.ApproveRequest(ctx, "hr@acme.io", r.ID.String())
		require.NoError(t, err)
	}

	updated, err := env.assetSvc.UpdateAsset(ctx, "hr@acme.io", asset.ID.String(), UpdateAssetRequest{Quantity: intPtr(5)})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.TotalQuantity)
	assert.Equal(t, 3, updated.AvailableQuantity)

	_, err = env.assetSvc.UpdateAsset(ctx, "hr@acme.io", asset.ID.String(), UpdateAssetRequest{Quantity: intPtr(1)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	updated, err = env.assetSvc.UpdateAsset(ctx, "hr@acme.io", asset.ID.String(), UpdateAssetRequest{Quantity: intPtr(2)})
	require.NoError(t, err)
	assert.Equal(t, 0, updated.AvailableQuantity)

	stored := env.reloadAsset(t, asset)
	assert.Equal(t, 2, stored.TotalQuantity)
	assert.Equal(t, 0, stored.AvailableQuantity)
}

func TestAssetOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedHR(t, "hr@acme.io", 5)
	env.seedHR(t, "other@globex.io", 5)
	asset := env.seedAsset(t, "hr@acme.io", model.AssetTypeReturnable, 3)

	_, err := env.assetSvc.UpdateAsset(ctx, "other@globex.io", asset.ID.String(), UpdateAssetRequest{Name: "Mine now"})
	assert.ErrorIs(t, err, ErrNotFound)
	err = env.assetSvc.DeleteAsset(ctx, "other@globex.io", asset.ID.String())
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, env.assetSvc.DeleteAsset(ctx, "hr@acme.io", asset.ID.String()))
	_, err = env.assetSvc.GetAsset(ctx, asset.ID.String())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListAssets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedHR(t, "hr@acme.io", 5)
	env.seedHR(t, "other@globex.io", 5)
	env.seedEmployee(t, "e1@acme.io", nil)

	_, err := env.assetSvc.CreateAsset(ctx, "hr@acme.io", CreateAssetRequest{Name: "Office Chair", Type: model.AssetTypeReturnable, Quantity: 1})
	require.NoError(t, err)
	_, err = env.assetSvc.CreateAsset(ctx, "hr@acme.io", CreateAssetRequest{Name: "Notebook", Type: model.AssetTypeNonReturnable, Quantity: 10})
	require.NoError(t, err)
	_, err = env.assetSvc.CreateAsset(ctx, "other@globex.io", CreateAssetRequest{Name: "Desk chair", Type: model.AssetTypeReturnable, Quantity: 2})
	require.NoError(t, err)

	mine, total, err := env.assetSvc.ListHRAssets(ctx, "hr@acme.io", AssetQuery{Type: "all"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, mine, 2)

	chairs, total, err := env.assetSvc.ListAvailable(ctx, AssetQuery{Search: "CHAIR"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, chairs, 2)

	returnable, _, err := env.assetSvc.ListHRAssets(ctx, "hr@acme.io", AssetQuery{Type: model.AssetTypeNonReturnable})
	require.NoError(t, err)
	require.Len(t, returnable, 1)
	assert.Equal(t, "Notebook", returnable[0].Name)

	_, _, err = env.assetSvc.ListAvailable(ctx, AssetQuery{Type: "Borrowable"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	// an exhausted asset drops out of the available listing
	chair := chairs[0]
	for _, c := range chairs {
		if c.HREmail == "hr@acme.io" {
			chair = c
		}
	}
	r := env.request(t, "e1@acme.io", chair)
	_, err = env.requestSvc.ApproveRequest(ctx, "hr@acme.io", r.ID.String())
	require.NoError(t, err)

	_, total, err = env.assetSvc.ListAvailable(ctx, AssetQuery{Search: "chair"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	assigned, err := env.assetSvc.ListMyAssets(ctx, "e1@acme.io", "", "all")
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, "Office Chair", assigned[0].AssetName)
}
