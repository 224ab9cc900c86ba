package provider

import "time"

// Record is a loosely-typed provider payload.
type Record map[string]interface{}

// StringField returns the string value at key, or "".
func (r Record) StringField(key string) string {
	if r == nil {
		return ""
	}
	if s, ok := r[key].(string); ok {
		return s
	}
	return ""
}

// MapField returns the nested map at key, or nil.
func (r Record) MapField(key string) Record {
	if r == nil {
		return nil
	}
	if m, ok := r[key].(map[string]interface{}); ok {
		return Record(m)
	}
	return nil
}

// UnixTimeField interprets a numeric field as a unix timestamp; the second
// return value reports presence.
func (r Record) UnixTimeField(key string) (time.Time, bool) {
	if r == nil {
		return time.Time{}, false
	}
	switch v := r[key].(type) {
	case float64:
		return time.Unix(int64(v), 0).UTC(), true
	case int64:
		return time.Unix(v, 0).UTC(), true
	case int:
		return time.Unix(int64(v), 0).UTC(), true
	}
	return time.Time{}, false
}

// ExtractFileID resolves the canonical remote file id out of a vector-store
// file record. Providers alias it several ways; the priority order is:
// file_id, file (as string), file.id, file.file_id, file.fileId. The record's
// own "id" field is NOT used as a fallback — that is the collection-file id,
// and conflating the two silently mis-attributes files.
func ExtractFileID(r Record) string {
	if r == nil {
		return ""
	}

	if v := r.StringField("file_id"); v != "" {
		return v
	}

	if s, ok := r["file"].(string); ok && s != "" {
		return s
	}
	if nested := r.MapField("file"); nested != nil {
		for _, key := range []string{"id", "file_id", "fileId"} {
			if v := nested.StringField(key); v != "" {
				return v
			}
		}
	}

	return ""
}

// FileStatus extracts the per-file status string from a file record, looking
// at the top level then inside a nested "file" object.
func FileStatus(r Record) string {
	if v := r.StringField("status"); v != "" {
		return v
	}
	if nested := r.MapField("file"); nested != nil {
		return nested.StringField("status")
	}
	return ""
}

// FileName extracts a display file name from a file record, falling back to
// fallback when the record carries none.
func FileName(r Record, fallback string) string {
	if v := r.StringField("filename"); v != "" {
		return v
	}
	if nested := r.MapField("file"); nested != nil {
		if v := nested.StringField("filename"); v != "" {
			return v
		}
		if v := nested.StringField("name"); v != "" {
			return v
		}
	}
	return fallback
}

// ContentToBytes flattens a collection-file content response (a list of text
// chunks) into the raw bytes the provider indexed.
func ContentToBytes(items []Record) []byte {
	var parts []string
	for _, item := range items {
		if v := item.StringField("text"); v != "" {
			parts = append(parts, v)
			continue
		}
		if nested := item.MapField("text"); nested != nil {
			if v := nested.StringField("value"); v != "" {
				parts = append(parts, v)
				continue
			}
		}
		if v := item.StringField("content"); v != "" {
			parts = append(parts, v)
			continue
		}
		if v := item.StringField("data"); v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return nil
	}

	out := []byte(parts[0])
	for _, p := range parts[1:] {
		out = append(out, '\n')
		out = append(out, []byte(p)...)
	}
	return out
}
