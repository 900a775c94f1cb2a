package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadURLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stores.txt")
	content := `
# production storefronts
shop-one.example.com
https://shop-two.example.com

  shop-three.example.com
# trailing comment
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	urls, err := readURLFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"shop-one.example.com",
		"https://shop-two.example.com",
		"shop-three.example.com",
	}, urls)
}

func TestReadURLFileMissing(t *testing.T) {
	_, err := readURLFile(filepath.Join(t.TempDir(), "absent.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open url file")
}
