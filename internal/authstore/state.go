package authstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
)

const SchemaVersion = 1

// DefaultRealm is the account domain appended to the user id when
// building broker credentials.
const DefaultRealm = "ecouser"

var ErrStateNotFound = errors.New("login state not found")

// LoginState is the persisted outcome of the vendor login flow. The
// broker authenticates with the user id and the bearer token, so the
// daemon can reconnect without re-running the login.
type LoginState struct {
	SchemaVersion int           `json:"schema_version"`
	UserID        string        `json:"user_id"`
	Realm         string        `json:"realm,omitempty"`
	Token         *oauth2.Token `json:"token"`
}

func LoadState(path string) (LoginState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return LoginState{}, ErrStateNotFound
		}
		return LoginState{}, fmt.Errorf("read state: %w", err)
	}
	return DecodeState(data)
}

func DecodeState(data []byte) (LoginState, error) {
	var state LoginState
	if err := json.Unmarshal(data, &state); err != nil {
		return LoginState{}, fmt.Errorf("decode state: %w", err)
	}
	if err := state.Validate(); err != nil {
		return LoginState{}, err
	}
	return state, nil
}

func (s LoginState) Validate() error {
	if s.SchemaVersion != SchemaVersion {
		return fmt.Errorf("unsupported schema_version: %d", s.SchemaVersion)
	}
	if s.UserID == "" {
		return fmt.Errorf("state missing user_id")
	}
	if s.Token == nil || s.Token.AccessToken == "" {
		return fmt.Errorf("state missing access token")
	}
	return nil
}

// BrokerUsername is the MQTT username derived from the login state.
func (s LoginState) BrokerUsername() string {
	realm := s.Realm
	if realm == "" {
		realm = DefaultRealm
	}
	return s.UserID + "@" + realm
}

// BrokerPassword is the MQTT password derived from the login state.
func (s LoginState) BrokerPassword() string {
	if s.Token == nil {
		return ""
	}
	return s.Token.AccessToken
}

func WriteState(path string, state LoginState) error {
	if state.SchemaVersion == 0 {
		state.SchemaVersion = SchemaVersion
	}
	if err := ensureParent(path); err != nil {
		return err
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

func ensureParent(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir state dir: %w", err)
	}
	return nil
}
