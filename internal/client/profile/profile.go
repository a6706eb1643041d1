// Package profile remembers the last server URL and display name so
// the TUI can pre-fill its prompts. Display names are self-declared
// labels, not credentials, so this is plain JSON on disk.
package profile

import (
	"encoding/json"
	"os"
	"path/filepath"

	pkgerrors "github.com/pkg/errors"
)

type Profile struct {
	ServerURL string `json:"server_url"`
	Username  string `json:"username"`
}

func configDir(profileName string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "roomchat", profileName)
}

// Load returns the stored profile, or nil if there is none.
func Load(profileName string) *Profile {
	dir := configDir(profileName)
	if dir == "" {
		return nil
	}

	data, err := os.ReadFile(filepath.Join(dir, "profile.json"))
	if err != nil {
		return nil
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil
	}
	return &p
}

func Save(profileName, serverURL, username string) error {
	dir := configDir(profileName)
	if dir == "" {
		return pkgerrors.New("could not resolve config directory")
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return pkgerrors.Wrap(err, "create config directory")
	}

	data, err := json.Marshal(Profile{ServerURL: serverURL, Username: username})
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, "profile.json"), data, 0600)
}

func Clear(profileName string) {
	dir := configDir(profileName)
	if dir != "" {
		os.Remove(filepath.Join(dir, "profile.json"))
	}
}
