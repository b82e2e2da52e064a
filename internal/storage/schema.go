package storage

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no ledger document has been saved yet.
	ErrNotFound = errors.New("ledger document not found")
	// ErrCorrupt wraps documents that cannot be decoded or migrated.
	ErrCorrupt = errors.New("ledger document corrupt")
)

// documentMigration upgrades a raw document from version N to N+1.
type documentMigration func(doc map[string]json.RawMessage) error

// documentMigrations[i] upgrades version i to i+1.
var documentMigrations = []documentMigration{
	migrateV0toV1,
}

// migrateDocument applies every pending migration once, before decoding.
func migrateDocument(data []byte) ([]byte, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: document is null", ErrCorrupt)
	}

	version := 0
	if v, ok := doc["schema_version"]; ok {
		if err := json.Unmarshal(v, &version); err != nil {
			return nil, fmt.Errorf("%w: schema_version: %v", ErrCorrupt, err)
		}
	}
	if version > CurrentSchemaVersion {
		return nil, fmt.Errorf("%w: schema version %d is newer than supported %d", ErrCorrupt, version, CurrentSchemaVersion)
	}
	for ; version < CurrentSchemaVersion; version++ {
		if err := documentMigrations[version](doc); err != nil {
			return nil, fmt.Errorf("%w: migrate v%d: %v", ErrCorrupt, version, err)
		}
	}
	doc["schema_version"] = json.RawMessage(fmt.Sprint(CurrentSchemaVersion))
	return json.Marshal(doc)
}

// migrateV0toV1 fills the collections that early documents did not have:
// dues, tastings, opening balance and library, plus guest lists per event.
func migrateV0toV1(doc map[string]json.RawMessage) error {
	defaults := map[string]string{
		"adherents_noms": `[]`,
		"echantillons":   `{}`,
		"cotisations":    `{}`,
		"degustations":   `{}`,
		"solde_initial":  `0`,
		"bibliotheque":   `{}`,
	}
	for k, v := range defaults {
		if raw, ok := doc[k]; !ok || string(raw) == "null" {
			doc[k] = json.RawMessage(v)
		}
	}

	var events map[string]map[string]json.RawMessage
	if err := json.Unmarshal(doc["degustations"], &events); err != nil {
		return fmt.Errorf("degustations: %w", err)
	}
	for name, ev := range events {
		if ev == nil {
			ev = map[string]json.RawMessage{}
			events[name] = ev
		}
		for k, v := range map[string]string{"prix_bouteilles": `0`, "participants": `{}`, "invites": `[]`} {
			if raw, ok := ev[k]; !ok || string(raw) == "null" {
				ev[k] = json.RawMessage(v)
			}
		}
	}
	b, err := json.Marshal(events)
	if err != nil {
		return err
	}
	doc["degustations"] = b
	return nil
}
