package archive

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRoundTrip(t *testing.T) {
	tmp := t.TempDir()
	out := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(tmp, "note.txt"), []byte("hello rig"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(tmp, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "sub", "deep.txt"), []byte("nested"), 0o644))

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	path, err := Write(tmp, out, "myrig", at)
	require.NoError(t, err)

	base := filepath.Base(path)
	assert.Truef(t, strings.HasPrefix(base, "rig-myrig-") && strings.HasSuffix(base, ".tar.gz"),
		"unexpected archive filename: %q", base)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	found := map[string]string{}
	topDir := strings.TrimSuffix(base, ".tar.gz")
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		assert.Truef(t, strings.HasPrefix(hdr.Name, topDir+"/"), "entry %q not nested under top-level dir %q", hdr.Name, topDir)
		if hdr.Typeflag == tar.TypeReg {
			content, _ := io.ReadAll(tr)
			found[hdr.Name] = string(content)
		}
	}

	assert.Equal(t, "hello rig", found[topDir+"/note.txt"])
	assert.Equal(t, "nested", found[topDir+"/sub/deep.txt"])
}

func TestWriteSkipsWhenTmpDirEmpty(t *testing.T) {
	path, err := Write("", t.TempDir(), "myrig", time.Now())
	require.NoError(t, err)
	assert.Empty(t, path, "expected no archive path when tmpDir is empty")
}

func TestWriteSkipsWhenTmpDirHasNoEntries(t *testing.T) {
	path, err := Write(t.TempDir(), t.TempDir(), "myrig", time.Now())
	require.NoError(t, err)
	assert.Empty(t, path, "expected no archive path when tmpDir contains no files")
}
