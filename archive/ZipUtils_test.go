package archive

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildZipKeepsOrder(t *testing.T) {
	files := map[string][]byte{
		"manifest.json":   []byte(`{"subject":"jane@x.com"}`),
		"candidates.json": []byte(`[]`),
	}
	data, err := BuildZip([]string{"manifest.json", "candidates.json"}, files)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "manifest.json", zr.File[0].Name)
	assert.Equal(t, "candidates.json", zr.File[1].Name)

	read, err := ReadZip(data)
	require.NoError(t, err)
	assert.Equal(t, files, read)
}

func TestReadZipSkipsDirectories(t *testing.T) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	_, err := zw.Create("exports/")
	require.NoError(t, err)
	require.NoError(t, AddFileToZip(zw, "exports/a.csv", []byte("id\n1\n")))
	require.NoError(t, zw.Close())

	read, err := ReadZip(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"exports/a.csv": []byte("id\n1\n")}, read)
}

func TestReadZipRejectsGarbage(t *testing.T) {
	_, err := ReadZip([]byte("not a zip"))
	assert.Error(t, err)
}
