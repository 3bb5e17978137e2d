package models

import (
	"encoding/json"
	"time"
)

// JSONMap is a type alias for JSONB columns
type JSONMap map[string]interface{}

// UserPreferences holds user-specific archive settings. All preferences
// live in a single namespaced JSONB column: {ui, archive}.
type UserPreferences struct {
	UserID      string    `json:"user_id" db:"user_id"`
	Preferences JSONMap   `json:"preferences" db:"preferences"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// UIPreferences represents the ui namespace in preferences
type UIPreferences struct {
	Theme       string `json:"theme"`        // "light", "dark", "auto"
	CompactMode *bool  `json:"compact_mode"` // Pointer to allow null
}

// ArchivePreferences represents the archive namespace in preferences.
// ExpandedFolderIDs persists the tree's expanded/collapsed state across
// sessions, keyed by folder id.
type ArchivePreferences struct {
	PollIntervalSeconds *int     `json:"poll_interval_seconds"`
	DefaultCategory     *string  `json:"default_category"`
	ExpandedFolderIDs   []string `json:"expanded_folder_ids"`
}

// GetUI extracts the ui namespace from preferences
func (up *UserPreferences) GetUI() (*UIPreferences, error) {
	ui := &UIPreferences{Theme: "light"}
	if err := up.getNamespace("ui", ui); err != nil {
		return nil, err
	}
	return ui, nil
}

// SetUI sets the ui namespace in preferences
func (up *UserPreferences) SetUI(ui *UIPreferences) error {
	return up.setNamespace("ui", ui)
}

// GetArchive extracts the archive namespace from preferences
func (up *UserPreferences) GetArchive() (*ArchivePreferences, error) {
	prefs := &ArchivePreferences{ExpandedFolderIDs: []string{}}
	if err := up.getNamespace("archive", prefs); err != nil {
		return nil, err
	}
	return prefs, nil
}

// SetArchive sets the archive namespace in preferences
func (up *UserPreferences) SetArchive(prefs *ArchivePreferences) error {
	return up.setNamespace("archive", prefs)
}

// getNamespace re-marshals a namespace value into dest for type safety
func (up *UserPreferences) getNamespace(key string, dest interface{}) error {
	if up.Preferences == nil {
		return nil
	}
	raw, ok := up.Preferences[key]
	if !ok {
		return nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func (up *UserPreferences) setNamespace(key string, value interface{}) error {
	if up.Preferences == nil {
		up.Preferences = JSONMap{}
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	up.Preferences[key] = m
	return nil
}

// UpdatePreferencesRequest represents a partial preferences update.
// Only provided namespaces are replaced.
type UpdatePreferencesRequest struct {
	UI      *UIPreferences      `json:"ui"`
	Archive *ArchivePreferences `json:"archive"`
}
