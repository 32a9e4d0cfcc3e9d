package wallet

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// sessionDirOverride redirects the session file in tests.
var sessionDirOverride string

// sessionFilePath returns the per-user session cache file. The OS cache
// directory survives reboots on every platform, and the file carries 0600
// permissions so only the current user can read it.
//
//	macOS:   ~/Library/Caches/crowsale/session.json
//	Linux:   ~/.cache/crowsale/session.json
//	Windows: %LocalAppData%\crowsale\session.json
func sessionFilePath() string {
	if sessionDirOverride != "" {
		return filepath.Join(sessionDirOverride, "session.json")
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "crowsale", "session.json")
}

// loadSessionKeys reads the session file and returns the key map.
// Returns an empty map (never nil) on any error.
func loadSessionKeys() map[string]string {
	data, err := os.ReadFile(sessionFilePath())
	if err != nil {
		return make(map[string]string)
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return make(map[string]string)
	}
	return m
}

func saveSessionKeys(m map[string]string) error {
	path := sessionFilePath()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return err
	}
	// Best-effort on Windows, enforced on Unix.
	_ = os.Chmod(path, 0600)
	return nil
}

// GetSessionKey returns a cached key for ref, or ("", false) if not cached.
func GetSessionKey(ref string) (string, bool) {
	m := loadSessionKeys()
	v, ok := m[ref]
	return v, ok
}

// PutSessionKey caches a key for ref in the session file.
func PutSessionKey(ref, hexKey string) {
	m := loadSessionKeys()
	m[ref] = hexKey
	_ = saveSessionKeys(m) // best-effort
}

// RemoveSessionKey evicts a single key from the session file.
func RemoveSessionKey(ref string) {
	m := loadSessionKeys()
	if _, ok := m[ref]; !ok {
		return
	}
	delete(m, ref)
	_ = saveSessionKeys(m)
}

// ClearSession removes all cached keys by deleting the session file.
func ClearSession() error {
	err := os.Remove(sessionFilePath())
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// SessionActive reports whether a non-empty session file exists.
func SessionActive() bool {
	return len(loadSessionKeys()) > 0
}
