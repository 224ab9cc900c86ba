package hashutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// sha256("hello"), a fixed vector.
const helloSHA = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"

func TestSumBytes(t *testing.T) {
	require.Equal(t, helloSHA, SumBytes([]byte("hello")))
	require.NotEqual(t, SumBytes([]byte("a")), SumBytes([]byte("b")))
}

func TestSumReader(t *testing.T) {
	got, err := SumReader(strings.NewReader("hello"))
	require.NoError(t, err)
	require.Equal(t, helloSHA, got)
}

func TestSumFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	got, err := SumFile(path)
	require.NoError(t, err)
	require.Equal(t, helloSHA, got)

	_, err = SumFile(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
