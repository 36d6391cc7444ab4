package fsdump

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrite(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "dumps")
	dir, err := New(root)
	require.NoError(t, err)

	require.NoError(t, dir.Write("1234.html", "<html></html>"))
	body, err := os.ReadFile(filepath.Join(root, "1234.html"))
	require.NoError(t, err)
	require.Equal(t, "<html></html>", string(body))

	// reopening keeps what is there
	_, err = New(root)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "1234.html"))
	require.NoError(t, err)
}

func TestPathStaysInside(t *testing.T) {
	dir := Dir{directory: "dumps"}
	require.Equal(t, filepath.Join("dumps", "__etc_passwd"), dir.Path("../etc/passwd"))
}
