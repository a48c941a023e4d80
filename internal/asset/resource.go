package asset

import (
	"encoding/json"
	"strings"
)

// Reserved top-level keys that are lifted out of the open field map when a
// resource document is decoded.
const (
	keyID           = "id"
	keyName         = "name"
	keyResourceType = "resource_type"
	keyRegion       = "region"
)

// Resource is one discovered infrastructure asset. Documents are schema-less:
// everything beyond the identifying keys lands in Fields and is only
// interpreted at rule-evaluation time.
type Resource struct {
	ID           string
	Name         string
	ResourceType string
	Region       string
	Fields       map[string]any
}

// Field resolves a rule field key against the resource document. Dotted keys
// traverse nested maps (for example "tags.env"). The identifying columns are
// reachable by their document names, matching the original upload shape.
func (r Resource) Field(key string) (any, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false
	}

	if v, ok := lookupPath(r.Fields, key); ok {
		return v, true
	}

	switch key {
	case keyID:
		return r.ID, r.ID != ""
	case keyName:
		return r.Name, true
	case keyResourceType:
		return r.ResourceType, true
	case keyRegion:
		return r.Region, r.Region != ""
	}
	return nil, false
}

func lookupPath(fields map[string]any, key string) (any, bool) {
	if fields == nil {
		return nil, false
	}
	if v, ok := fields[key]; ok {
		return v, true
	}

	parts := strings.Split(key, ".")
	if len(parts) < 2 {
		return nil, false
	}

	var current any = fields
	for _, part := range parts {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// UnmarshalJSON decodes an uploaded resource document, lifting the
// identifying keys into columns and folding everything else into Fields.
func (r *Resource) UnmarshalJSON(data []byte) error {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	out := Resource{Fields: make(map[string]any, len(doc))}
	for k, v := range doc {
		switch k {
		case keyID:
			out.ID, _ = v.(string)
		case keyName:
			out.Name, _ = v.(string)
		case keyResourceType:
			out.ResourceType, _ = v.(string)
		case keyRegion:
			out.Region, _ = v.(string)
		default:
			out.Fields[k] = v
		}
	}
	*r = out
	return nil
}

// MarshalJSON renders the resource back into its flat document shape.
func (r Resource) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(r.Fields)+4)
	for k, v := range r.Fields {
		doc[k] = v
	}
	if r.ID != "" {
		doc[keyID] = r.ID
	}
	doc[keyName] = r.Name
	doc[keyResourceType] = r.ResourceType
	if r.Region != "" {
		doc[keyRegion] = r.Region
	}
	return json.Marshal(doc)
}
