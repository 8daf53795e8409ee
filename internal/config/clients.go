package config

import (
    "errors"
    "fmt"
    "os"
    "sort"
    "strings"

    "gopkg.in/yaml.v3"

    "ads-dashboard/internal/models"
)

var ErrUnknownClient = errors.New("unknown client")

// ClientConfig is one reporting account. AverageOrderValue is only used to
// impute revenue for rows that report purchases without a value.
type ClientConfig struct {
    Name              string         `yaml:"-" json:"name"`
    AccountID         string         `yaml:"account_id" json:"account_id"`
    LogoURL           string         `yaml:"logo_url" json:"logo_url,omitempty"`
    AverageOrderValue float64        `yaml:"average_order_value" json:"average_order_value"`
    Email             *ChannelConfig `yaml:"email" json:"-"`
    SMS               *ChannelConfig `yaml:"sms" json:"-"`
}

// ChannelConfig holds the credentials of a secondary channel. APIKey may
// reference environment variables as ${NAME}.
type ChannelConfig struct {
    Enabled  bool   `yaml:"enabled"`
    APIKey   string `yaml:"api_key"`
    SenderID string `yaml:"sender_id"`
}

// Channel returns the configuration of an enabled secondary channel.
func (c ClientConfig) Channel(channel models.SecondaryChannel) (*ChannelConfig, bool) {
    var cc *ChannelConfig
    switch channel {
    case models.ChannelEmail:
        cc = c.Email
    case models.ChannelSMS:
        cc = c.SMS
    }
    if cc == nil || !cc.Enabled {
        return nil, false
    }
    return cc, true
}

// EnabledChannels lists the secondary channels switched on for the client.
func (c ClientConfig) EnabledChannels() []models.SecondaryChannel {
    var channels []models.SecondaryChannel
    for _, channel := range []models.SecondaryChannel{models.ChannelEmail, models.ChannelSMS} {
        if _, ok := c.Channel(channel); ok {
            channels = append(channels, channel)
        }
    }
    return channels
}

type clientsFile struct {
    Clients map[string]ClientConfig `yaml:"clients"`
}

// Clients is the static client table keyed by display name.
type Clients map[string]ClientConfig

func (c Clients) Get(name string) (ClientConfig, error) {
    client, ok := c[name]
    if !ok {
        return ClientConfig{}, fmt.Errorf("%w: %s", ErrUnknownClient, name)
    }
    return client, nil
}

// Names returns the client names in a stable order; the first is the default selection.
func (c Clients) Names() []string {
    names := make([]string, 0, len(c))
    for name := range c {
        names = append(names, name)
    }
    sort.Strings(names)
    return names
}

func LoadClients(path string) (Clients, error) {
    data, err := os.ReadFile(path)
    if err != nil {
        return nil, fmt.Errorf("read clients config: %w", err)
    }
    return ParseClients(data)
}

func ParseClients(data []byte) (Clients, error) {
    var file clientsFile
    if err := yaml.Unmarshal(data, &file); err != nil {
        return nil, fmt.Errorf("parse clients config: %w", err)
    }
    if len(file.Clients) == 0 {
        return nil, errors.New("no clients configured")
    }

    out := make(Clients, len(file.Clients))
    for name, client := range file.Clients {
        name = strings.TrimSpace(name)
        if name == "" {
            continue
        }
        client.Name = name
        if err := validateClient(&client); err != nil {
            return nil, fmt.Errorf("client %q: %w", name, err)
        }
        out[name] = client
    }
    return out, nil
}

func validateClient(client *ClientConfig) error {
    if strings.TrimSpace(client.AccountID) == "" {
        return errors.New("missing account_id")
    }
    if client.AverageOrderValue <= 0 {
        return errors.New("average_order_value must be positive")
    }
    for _, cc := range []*ChannelConfig{client.Email, client.SMS} {
        if cc == nil || !cc.Enabled {
            continue
        }
        cc.APIKey = os.ExpandEnv(cc.APIKey)
        if cc.APIKey == "" {
            return errors.New("enabled channel is missing api_key")
        }
    }
    return nil
}
