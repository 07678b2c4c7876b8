package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mcoot/quizroom/internal/model"
	"github.com/mcoot/quizroom/internal/services/auth"
)

// Config holds CLI configuration
type Config struct {
	ServerURL       string
	Credential      string
	CredentialsFile string
	Player          string
	Session         string
	Output          string
	Verbose         bool

	stored Credentials
}

// Credentials is what quizctl remembers between invocations
type Credentials struct {
	DeviceID  string `json:"deviceID"`
	Token     string `json:"token"`
	PlayerID  string `json:"playerID,omitempty"`
	SessionID string `json:"sessionID,omitempty"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL:       getEnvOrDefault("QUIZCTL_SERVER", "http://localhost:8080"),
		Credential:      os.Getenv("QUIZCTL_CREDENTIAL"),
		CredentialsFile: getEnvOrDefault("QUIZCTL_CREDENTIALS", defaultCredentialsFile()),
		Output:          "text",
		Verbose:         false,
	}
}

// LoadCredentials reads the credentials file. A missing file is fine.
func (c *Config) LoadCredentials() error {
	data, err := os.ReadFile(c.CredentialsFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	if err := json.Unmarshal(data, &c.stored); err != nil {
		return fmt.Errorf("credentials file %s is corrupt: %w", c.CredentialsFile, err)
	}
	return nil
}

// SaveCredentials writes creds to the credentials file
func (c *Config) SaveCredentials(creds Credentials) error {
	c.stored = creds

	dir := filepath.Dir(c.CredentialsFile)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.CredentialsFile, data, 0600)
}

// Stored returns the credentials loaded from or last saved to the file
func (c *Config) Stored() Credentials {
	return c.stored
}

// AuthHeader builds the Authorization value for requests.
// --credential wins outright; otherwise the stored device token is used,
// with --player (or the stored player) as the third segment.
func (c *Config) AuthHeader() string {
	if c.Credential != "" {
		return c.Credential
	}
	if c.stored.DeviceID == "" || c.stored.Token == "" {
		return ""
	}

	cred := auth.Credential{
		DeviceID: model.DeviceID(c.stored.DeviceID),
		Token:    c.stored.Token,
	}
	player := c.Player
	if player == "" {
		player = c.stored.PlayerID
	}
	if player != "" {
		cred = cred.WithPlayer(model.PlayerID(player))
	}
	return cred.Header()
}

// SessionID returns the --session flag or the stored session
func (c *Config) SessionID() (string, error) {
	if c.Session != "" {
		return c.Session, nil
	}
	if c.stored.SessionID != "" {
		return c.stored.SessionID, nil
	}
	return "", fmt.Errorf("no session: pass --session or create/join one first")
}

func defaultCredentialsFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".quizctl/credentials.json"
	}
	return filepath.Join(home, ".quizctl", "credentials.json")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// DeviceAuthHeader is AuthHeader without any player segment, for
// requests made before a player exists
func (c *Config) DeviceAuthHeader() string {
	if c.Credential != "" {
		return c.Credential
	}
	if c.stored.DeviceID == "" || c.stored.Token == "" {
		return ""
	}
	return auth.Credential{DeviceID: model.DeviceID(c.stored.DeviceID), Token: c.stored.Token}.Header()
}

// remember stores the player and session a create or join produced
func (c *Config) remember(playerID, sessionID string) error {
	if c.stored.DeviceID == "" {
		// Raw --credential in use; nothing to persist against
		return nil
	}
	creds := c.stored
	creds.PlayerID = playerID
	creds.SessionID = sessionID
	return c.SaveCredentials(creds)
}
