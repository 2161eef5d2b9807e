package service

import (
	"context"
	"testing"

	"github.com/lymau/lead-app/internal/shared/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMasterService(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *testEnv) {
		ctx := context.Background()
		m := env.svc.Master

		added, err := m.AddCompany(ctx, " PT Astra ", "Automotive")
		require.NoError(t, err)
		assert.True(t, added)

		added, err = m.AddCompany(ctx, "PT Astra", "Other")
		require.NoError(t, err)
		assert.False(t, added)

		_, err = m.AddCompany(ctx, "", "Other")
		assert.True(t, apperror.Is(err, apperror.KindValidation))

		companies, err := m.ListCompanies(ctx)
		require.NoError(t, err)
		require.Len(t, companies, 1)
		assert.Equal(t, "PT Astra", companies[0].CompanyName)
		assert.Equal(t, "Automotive", companies[0].VerticalIndustry)

		channels, err := m.BrandChannels(ctx, "Cisco")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"Distributor", "Direct"}, channels)

		channels, err = m.BrandChannels(ctx, "Juniper")
		require.NoError(t, err)
		assert.Empty(t, channels)

		_, err = m.BrandChannels(ctx, "")
		assert.True(t, apperror.Is(err, apperror.KindValidation))

		pillars, err := m.ListPillars(ctx)
		require.NoError(t, err)
		assert.Len(t, pillars, 4)

		brands, err := m.ListBrands(ctx)
		require.NoError(t, err)
		assert.Len(t, brands, 4)
	})
}
