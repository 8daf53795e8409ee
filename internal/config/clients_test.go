package config

import (
    "os"
    "path/filepath"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "ads-dashboard/internal/models"
)

const sampleClients = `
clients:
  "RAGE Nation Apparel":
    account_id: act_1761456877511271
    average_order_value: 50
    email:
      enabled: true
      api_key: ${TEST_RAGE_EMAIL_KEY}
    sms:
      enabled: false
  "Supplies Outlet":
    account_id: act_147523547450881
    average_order_value: 45
`

func TestParseClients(t *testing.T) {
    t.Setenv("TEST_RAGE_EMAIL_KEY", "pk_live_123")

    clients, err := ParseClients([]byte(sampleClients))
    require.NoError(t, err)
    require.Len(t, clients, 2)
    assert.Equal(t, []string{"RAGE Nation Apparel", "Supplies Outlet"}, clients.Names())

    rage, err := clients.Get("RAGE Nation Apparel")
    require.NoError(t, err)
    assert.Equal(t, "RAGE Nation Apparel", rage.Name)
    assert.Equal(t, 50.0, rage.AverageOrderValue)
    assert.Equal(t, []models.SecondaryChannel{models.ChannelEmail}, rage.EnabledChannels())

    email, ok := rage.Channel(models.ChannelEmail)
    require.True(t, ok)
    assert.Equal(t, "pk_live_123", email.APIKey)

    _, ok = rage.Channel(models.ChannelSMS)
    assert.False(t, ok)

    outlet, _ := clients.Get("Supplies Outlet")
    assert.Empty(t, outlet.EnabledChannels())
}

func TestParseClientsRejectsBadEntries(t *testing.T) {
    _, err := ParseClients([]byte("clients:\n  A:\n    account_id: act_1\n    average_order_value: 0\n"))
    assert.ErrorContains(t, err, "average_order_value")

    _, err = ParseClients([]byte("clients:\n  A:\n    average_order_value: 10\n"))
    assert.ErrorContains(t, err, "account_id")

    _, err = ParseClients([]byte("clients:\n  A:\n    account_id: act_1\n    average_order_value: 10\n    sms:\n      enabled: true\n"))
    assert.ErrorContains(t, err, "api_key")

    _, err = ParseClients([]byte("clients: {}\n"))
    assert.Error(t, err)
}

func TestGetUnknownClient(t *testing.T) {
    _, err := Clients{}.Get("nobody")
    assert.ErrorIs(t, err, ErrUnknownClient)
}

func TestLoadClientsFromFile(t *testing.T) {
    path := filepath.Join(t.TempDir(), "clients.yml")
    require.NoError(t, os.WriteFile(path, []byte("clients:\n  A:\n    account_id: act_1\n    average_order_value: 10\n"), 0o600))

    clients, err := LoadClients(path)
    require.NoError(t, err)
    assert.Contains(t, clients, "A")

    _, err = LoadClients(filepath.Join(t.TempDir(), "missing.yml"))
    assert.Error(t, err)
}
