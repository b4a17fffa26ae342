package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listings_portal/internal/domain"
)

func TestLoad_MissingWebhookIsConfigurationError(t *testing.T) {
	t.Setenv("BITRIX_WEBHOOK_URL", "")

	_, err := Load()
	var ce *domain.ConfigurationError
	require.True(t, errors.As(err, &ce), "got %v", err)
	assert.Equal(t, "BITRIX_WEBHOOK_URL", ce.Key)
}

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("BITRIX_WEBHOOK_URL", "https://example.bitrix24.com.br/rest/1/token/")
	t.Setenv("CACHE_TTL_SECONDS", "5")
	t.Setenv("BITRIX_RPS", "not-a-number")
	t.Setenv("HTTP_RATE_PER_MINUTE", "")
	t.Setenv("CRM_LAYOUT_FILE", "")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, c.CacheTTL)
	assert.Equal(t, 2, c.BitrixRPS)
	assert.Equal(t, 120, c.HTTPRatePerMin)
	assert.Equal(t, 20*time.Second, c.CRMTimeout)
	assert.Equal(t, 1138, c.Layout.EntityTypeID)
	assert.Equal(t, "STUDIO", c.Layout.Types.Resolve("2845"))
}

func TestLoad_LayoutFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "layout.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
entity_type_id: 177
fields:
  price: ufCrm7_price
types:
  "10": CASA
`), 0o600))
	t.Setenv("BITRIX_WEBHOOK_URL", "https://example.bitrix24.com.br/rest/1/token/")
	t.Setenv("CRM_LAYOUT_FILE", path)

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 177, c.Layout.EntityTypeID)
	assert.Equal(t, "ufCrm7_price", c.Layout.Fields.Price)
	assert.Equal(t, "ufCrm41_1756408436", c.Layout.Fields.Status, "unset fields keep defaults")
	assert.Equal(t, "CASA", c.Layout.Types.Resolve("10"))
	assert.Equal(t, "2845", c.Layout.Types.Resolve("2845"), "types map is replaced, not merged")
	assert.Equal(t, "Disponível", c.Layout.Statuses.Resolve("2855"))
}

func TestParseLayout_Rejects(t *testing.T) {
	for name, in := range map[string]string{
		"unknown key":     "colour: blue\n",
		"negative entity": "entity_type_id: -1\n",
		"bad yaml":        "fields: [\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseLayout([]byte(in))
			var ce *domain.ConfigurationError
			assert.True(t, errors.As(err, &ce), "got %v", err)
		})
	}
}

func TestLoadLayout_MissingFile(t *testing.T) {
	_, err := LoadLayout(filepath.Join(t.TempDir(), "nope.yaml"))
	var ce *domain.ConfigurationError
	assert.True(t, errors.As(err, &ce))
}
