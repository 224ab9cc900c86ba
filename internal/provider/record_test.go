package provider

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractFileIDPriority(t *testing.T) {
	cases := []struct {
		name   string
		record Record
		want   string
	}{
		{"top-level file_id wins", Record{"file_id": "f1", "file": "f2", "id": "vsf-9"}, "f1"},
		{"file as string", Record{"file": "f2"}, "f2"},
		{"nested file.id", Record{"file": map[string]interface{}{"id": "f3"}}, "f3"},
		{"nested file.file_id", Record{"file": map[string]interface{}{"file_id": "f4"}}, "f4"},
		{"nested file.fileId", Record{"file": map[string]interface{}{"fileId": "f5"}}, "f5"},
		{"record id is never a fallback", Record{"id": "vsf-9"}, ""},
		{"nil record", nil, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ExtractFileID(tc.record))
		})
	}
}

func TestFileStatus(t *testing.T) {
	require.Equal(t, "completed", FileStatus(Record{"status": "completed"}))
	require.Equal(t, "failed", FileStatus(Record{"file": map[string]interface{}{"status": "failed"}}))
	require.Equal(t, "", FileStatus(Record{}))
}

func TestFileName(t *testing.T) {
	require.Equal(t, "a.txt", FileName(Record{"filename": "a.txt"}, "fb"))
	require.Equal(t, "b.txt", FileName(Record{"file": map[string]interface{}{"filename": "b.txt"}}, "fb"))
	require.Equal(t, "c.txt", FileName(Record{"file": map[string]interface{}{"name": "c.txt"}}, "fb"))
	require.Equal(t, "fb", FileName(Record{}, "fb"))
}

func TestContentToBytes(t *testing.T) {
	items := []Record{
		{"text": "one"},
		{"text": map[string]interface{}{"value": "two"}},
		{"content": "three"},
		{"data": "four"},
		{"unrelated": "skip"},
	}
	require.Equal(t, "one\ntwo\nthree\nfour", string(ContentToBytes(items)))
	require.Nil(t, ContentToBytes(nil))
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.Register("fake", func(baseURL string, credentials map[string]interface{}) (Gateway, error) {
		return nil, nil
	})

	_, err := reg.Build("fake", "", nil)
	require.NoError(t, err)

	_, err = reg.Build("unknown", "", nil)
	require.Error(t, err)
	require.Contains(t, reg.Types(), "fake")
}
