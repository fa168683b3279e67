package domain

import "encoding/json"

// Record is a stored point of interest (a pizzeria in the default collection).
type Record struct {
	ID           string
	LastModified int64
	Name         string
	// Location is set only when the stored location is a [lon, lat] pair.
	Location *LonLat
	// Fields holds every other attribute of the record, including a location
	// in any other geo_point form. It is written back verbatim.
	Fields map[string]json.RawMessage
}

// UnmarshalJSON accepts any JSON object. Attributes that do not fit the typed
// fields are kept in Fields rather than rejected.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Record{}
	for k, v := range raw {
		switch k {
		case "id":
			if json.Unmarshal(v, &r.ID) == nil {
				continue
			}
		case "last_modified":
			if json.Unmarshal(v, &r.LastModified) == nil {
				continue
			}
		case "name":
			if json.Unmarshal(v, &r.Name) == nil {
				continue
			}
		case "location":
			var p LonLat
			if json.Unmarshal(v, &p) == nil {
				r.Location = &p
				continue
			}
		}
		if r.Fields == nil {
			r.Fields = make(map[string]json.RawMessage)
		}
		r.Fields[k] = v
	}
	return nil
}

// MarshalJSON writes Fields plus the non-empty typed attributes.
func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+4)
	for k, v := range r.Fields {
		out[k] = v
	}
	if r.ID != "" {
		out["id"] = r.ID
	}
	if r.LastModified != 0 {
		out["last_modified"] = r.LastModified
	}
	if r.Name != "" {
		out["name"] = r.Name
	}
	if r.Location != nil {
		out["location"] = r.Location
	}
	return json.Marshal(out)
}

// Hit is a single element of a search response's hits.hits array.
type Hit struct {
	ID     string  `json:"_id,omitempty"`
	Score  float64 `json:"_score,omitempty"`
	Source Record  `json:"_source"`
}

// Record change actions, matching the record store's event vocabulary.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// ImpactedRecord carries the before/after state of one changed record.
type ImpactedRecord struct {
	Old *Record `json:"old,omitempty"`
	New *Record `json:"new,omitempty"`
}

// RecordChange is published whenever records of a collection are written.
type RecordChange struct {
	Action     string           `json:"action"`
	Bucket     string           `json:"bucket"`
	Collection string           `json:"collection"`
	Records    []ImpactedRecord `json:"records"`
}
