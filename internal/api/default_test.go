package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/diogo/cleanfire/internal/errors"
	"github.com/diogo/cleanfire/internal/models"
)

func TestDefault_MissingKey(t *testing.T) {
	ResetDefault()
	t.Cleanup(ResetDefault)
	t.Setenv(models.EnvAPIKey, "")
	t.Setenv(models.EnvAPIKeyFallback, "")

	client, err := Default()
	assert.Nil(t, client)
	require.Error(t, err)
	assert.True(t, apierrors.IsConfigurationError(err))

	session, err := StartCleanFire()
	assert.Nil(t, session)
	assert.True(t, apierrors.IsConfigurationError(err))
}

func TestDefault_LazySingleton(t *testing.T) {
	ResetDefault()
	t.Cleanup(ResetDefault)
	t.Setenv(models.EnvAPIKey, "")
	t.Setenv(models.EnvAPIKeyFallback, "")

	// A failed construction is not cached
	_, err := Default()
	require.Error(t, err)

	t.Setenv(models.EnvAPIKeyFallback, "from-env")
	SetDefaultOptions(WithHTTPClient(&fakeDoer{}))

	first, err := Default()
	require.NoError(t, err)
	second, err := Default()
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, "from-env", first.apiKey)

	// The key is read once; later environment changes do not matter
	t.Setenv(models.EnvAPIKeyFallback, "")
	third, err := Default()
	require.NoError(t, err)
	assert.Same(t, first, third)
}

func TestStartCleanFire_UsesFixedConfiguration(t *testing.T) {
	ResetDefault()
	t.Cleanup(ResetDefault)
	t.Setenv(models.EnvAPIKey, "key")
	SetDefaultOptions(WithHTTPClient(&fakeDoer{}))

	session, err := StartCleanFire()
	require.NoError(t, err)
	assert.Equal(t, models.SystemInstruction, session.systemPrompt)
	assert.Equal(t, models.DefaultSampling, session.sampling)
	assert.Equal(t, models.DefaultModel, session.GetModel())
	assert.Empty(t, session.History())
}
