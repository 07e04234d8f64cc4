package order

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
)

func notesJSON(notes map[string]any) (datatypes.JSON, error) {
	raw, err := json.Marshal(notes)
	if err != nil {
		return nil, fmt.Errorf("marshal order notes: %w", err)
	}
	return datatypes.JSON(raw), nil
}
