package store

import (
	"encoding/json"
	"fmt"

	"github.com/orderdesk/backoffice/internal/models"
)

// scanChangeRecord scans a single change_log row into a models.ChangeRecord.
func scanChangeRecord(scan func(dest ...any) error) (*models.ChangeRecord, error) {
	var rec models.ChangeRecord
	var beforeJSON, afterJSON, actorJSON []byte
	var actions []string

	err := scan(
		&rec.ID,
		&rec.EntityType,
		&rec.EntityID,
		&rec.ActorID,
		&rec.ScopeDepartmentID,
		&rec.Message,
		&beforeJSON,
		&afterJSON,
		&actorJSON,
		&actions,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if beforeJSON != nil {
		rec.Before = &models.Snapshot{}
		if err := json.Unmarshal(beforeJSON, rec.Before); err != nil {
			return nil, fmt.Errorf("unmarshalling before snapshot: %w", err)
		}
	}

	if afterJSON != nil {
		rec.After = &models.Snapshot{}
		if err := json.Unmarshal(afterJSON, rec.After); err != nil {
			return nil, fmt.Errorf("unmarshalling after snapshot: %w", err)
		}
	}

	if err := json.Unmarshal(actorJSON, &rec.Actor); err != nil {
		return nil, fmt.Errorf("unmarshalling actor snapshot: %w", err)
	}

	for _, a := range actions {
		rec.Actions = append(rec.Actions, models.ActionTag(a))
	}

	return &rec, nil
}
