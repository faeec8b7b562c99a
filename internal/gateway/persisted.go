package gateway

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// HashDocument returns the persisted key for an operation document, the
// lowercase hex SHA-256 of its text.
func HashDocument(document string) string {
	sum := sha256.Sum256([]byte(document))
	return hex.EncodeToString(sum[:])
}

// AddPersisted binds one key to an operation document.
func (g *Gateway) AddPersisted(key, document string) {
	g.persisted[key] = document
}

// LoadPersistedOperations reads the allow-list manifest, a JSON object
// mapping persisted keys to operation documents. Keys whose digest does
// not match their document are loaded anyway but logged, so a manifest
// regenerated by hand still works while the drift is visible.
func (g *Gateway) LoadPersistedOperations(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read persisted operations manifest: %w", err)
	}

	var manifest map[string]string
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return fmt.Errorf("parse persisted operations manifest: %w", err)
	}

	for key, document := range manifest {
		if HashDocument(document) != key {
			slog.Warn("persisted key does not match document digest", "key", key, "document", document)
		}
		if _, ok := g.byDoc[document]; !ok {
			slog.Warn("persisted document has no registered operation", "key", key, "document", document)
		}
		g.persisted[key] = document
	}

	slog.Info("persisted operations loaded", "path", path, "count", len(manifest))
	return nil
}
