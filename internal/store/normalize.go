package store

import (
	"encoding/json"
	"fmt"

	"github.com/garnizeh/positionfaq/internal/models"
)

// Normalize rewrites every embedded ownership field of a document body to the
// resolved id and version, guaranteeing referential consistency regardless of
// what the caller passed in those fields. It works on the generic JSON shape
// so descriptive fields outside the typed model survive untouched.
func Normalize(docType string, body []byte, id, version int64) ([]byte, error) {
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch docType {
	case models.TypePosition:
		setHeader(m, "position", id, version)
		setOwner(m, "positionFAQs", "positionId", id)
		setOwner(m, "positionInfo", "positionId", id)
	case models.TypeCompany:
		setHeader(m, "company", id, version)
		setOwner(m, "companyFAQs", "companyId", id)
		setOwner(m, "companyInfo", "companyId", id)
	default:
		return nil, fmt.Errorf("unknown document type %q", docType)
	}

	return json.Marshal(m)
}

func setHeader(m map[string]any, key string, id, version int64) {
	h, ok := m[key].(map[string]any)
	if !ok {
		h = map[string]any{}
	}
	h["id"] = id
	h["version"] = version
	m[key] = h
}

func setOwner(m map[string]any, listKey, ownerKey string, id int64) {
	list, ok := m[listKey].([]any)
	if !ok {
		return
	}
	for _, e := range list {
		if item, ok := e.(map[string]any); ok {
			item[ownerKey] = id
		}
	}
}
