package model

import "encoding/json"

// decodeJSONColumn parses a JSON text column into a map; empty or malformed
// columns yield nil.
func decodeJSONColumn(raw string) map[string]interface{} {
	if raw == "" {
		return nil
	}
	var v map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil
	}
	return v
}

func encodeJSONColumn(v map[string]interface{}) string {
	if len(v) == 0 {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
