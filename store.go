package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	contentAbout    = "about"
	contentProjects = "projects"
)

// snapshot is one immutable {version, data} record from the version store.
// Data is a loosely-typed document: the admin UI sends arbitrary top-level
// fields, so no rigid struct fits here.
type snapshot struct {
	Version int
	Data    map[string]any
}

// latestSnapshot returns the newest snapshot for a content type, or
// errNoContent if the type has never been written.
func latestSnapshot(contentType string) (*snapshot, error) {
	var (
		version int
		raw     string
	)
	err := db.QueryRow(`
		SELECT version, data FROM content_snapshots
		WHERE content_type = ?
		ORDER BY version DESC LIMIT 1
	`, contentType).Scan(&version, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errNoContent
	}
	if err != nil {
		return nil, fmt.Errorf("read latest snapshot: %w", err)
	}

	data := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("decode snapshot data: %w", err)
	}
	return &snapshot{Version: version, Data: data}, nil
}

// appendSnapshot inserts a new snapshot row. A UNIQUE violation on
// (content_type, version) means a concurrent writer got there first.
func appendSnapshot(contentType string, version int, data map[string]any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode snapshot data: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO content_snapshots (content_type, version, data)
		VALUES (?, ?, ?)
	`, contentType, version, string(raw))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return errVersionConflict
		}
		return fmt.Errorf("append snapshot: %w", err)
	}
	return nil
}

// writeContent shallow-merges partial over the latest data and appends a new
// version. Top-level keys from partial replace existing values wholesale;
// nested objects are not deep-merged.
func writeContent(contentType string, partial map[string]any) (int, error) {
	latest, err := latestSnapshot(contentType)
	if err != nil && !errors.Is(err, errNoContent) {
		return 0, err
	}

	merged := map[string]any{}
	version := 1
	if latest != nil {
		version = latest.Version + 1
		for k, v := range latest.Data {
			merged[k] = v
		}
	}
	for k, v := range partial {
		merged[k] = v
	}

	if err := appendSnapshot(contentType, version, merged); err != nil {
		return 0, err
	}
	return version, nil
}

// removeContentKeys drops the named top-level fields from the latest data
// and appends a new version. With no keys, the data resets to an empty
// document. Unlike writeContent this requires an existing snapshot.
func removeContentKeys(contentType string, keys []string) (int, error) {
	latest, err := latestSnapshot(contentType)
	if err != nil {
		return 0, err
	}

	data := map[string]any{}
	if len(keys) > 0 {
		for k, v := range latest.Data {
			data[k] = v
		}
		for _, k := range keys {
			delete(data, k)
		}
	}

	version := latest.Version + 1
	if err := appendSnapshot(contentType, version, data); err != nil {
		return 0, err
	}
	return version, nil
}

// seenWebhookDelivery reports whether a delivery key was already processed.
func seenWebhookDelivery(key string) (bool, error) {
	var n int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM webhook_deliveries WHERE delivery_key = ?
	`, key).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check webhook delivery: %w", err)
	}
	return n > 0, nil
}

func markWebhookDelivery(key string) error {
	_, err := db.Exec(`
		INSERT OR IGNORE INTO webhook_deliveries (delivery_key) VALUES (?)
	`, key)
	if err != nil {
		return fmt.Errorf("record webhook delivery: %w", err)
	}
	return nil
}

// bumpProjectPublished updates the lastPublished timestamp of one project
// entry inside the projects content and appends a new global version.
func bumpProjectPublished(projectID, publishedAt string) (int, error) {
	latest, err := latestSnapshot(contentProjects)
	if err != nil {
		return 0, err
	}

	entries, ok := latest.Data["projects"].([]any)
	if !ok {
		return 0, errProjectNotFound
	}

	found := false
	for _, e := range entries {
		project, ok := e.(map[string]any)
		if !ok {
			continue
		}
		if fmt.Sprint(project["id"]) == projectID {
			project["lastPublished"] = publishedAt
			found = true
			break
		}
	}
	if !found {
		return 0, errProjectNotFound
	}

	version := latest.Version + 1
	if err := appendSnapshot(contentProjects, version, latest.Data); err != nil {
		return 0, err
	}
	return version, nil
}
