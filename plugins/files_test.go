package plugins

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caelumsys/caelum/command"
	"github.com/caelumsys/caelum/loader"
)

func TestFiles(t *testing.T) {
	d := setup(t, func(*command.Registry) []loader.Unit {
		return []loader.Unit{Files()}
	})
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))

	res := run(t, d, "create file "+a)
	require.True(t, res.OK(), res.String())
	assert.FileExists(t, a)

	res = run(t, d, "create file "+a)
	assert.Equal(t, command.StatusFailed, res.Status, "creating twice must fail")

	require.NoError(t, os.WriteFile(a, []byte("hello caelum"), 0o644))

	res = run(t, d, "read file "+a)
	require.True(t, res.OK(), res.String())
	assert.Equal(t, "hello caelum", res.Output)

	res = run(t, d, "copy "+a+" to "+b)
	require.True(t, res.OK(), res.String())
	got, err := os.ReadFile(b)
	require.NoError(t, err)
	assert.Equal(t, "hello caelum", string(got))

	res = run(t, d, "copy "+a+" to "+sub)
	require.True(t, res.OK(), res.String())
	assert.FileExists(t, filepath.Join(sub, "a.txt"))

	res = run(t, d, "copy "+a+" to "+a)
	assert.Equal(t, command.StatusFailed, res.Status)

	moved := filepath.Join(dir, "c.txt")
	res = run(t, d, "move "+b+" to "+moved)
	require.True(t, res.OK(), res.String())
	assert.NoFileExists(t, b)
	assert.FileExists(t, moved)

	res = run(t, d, "list files in "+dir)
	require.True(t, res.OK(), res.String())
	assert.Contains(t, res.Output, "a.txt")
	assert.Contains(t, res.Output, "c.txt")
	assert.Contains(t, res.Output, "sub/")

	res = run(t, d, "delete file "+sub)
	assert.Equal(t, command.StatusFailed, res.Status)
	assert.Contains(t, res.String(), "is a directory")

	res = run(t, d, "delete file "+moved)
	require.True(t, res.OK(), res.String())
	assert.NoFileExists(t, moved)

	res = run(t, d, "read file "+moved)
	assert.Equal(t, command.StatusFailed, res.Status)
}

func TestFiles_ReadRejectsBinary(t *testing.T) {
	d := setup(t, func(*command.Registry) []loader.Unit {
		return []loader.Unit{Files()}
	})
	bin := filepath.Join(t.TempDir(), "blob.bin")
	require.NoError(t, os.WriteFile(bin, []byte{0xff, 0xfe, 0x00, 0x80}, 0o644))

	res := run(t, d, "read file "+bin)
	assert.Equal(t, command.StatusFailed, res.Status)
	assert.Contains(t, res.String(), "not a text file")
}

func TestFiles_ListEmptyDir(t *testing.T) {
	d := setup(t, func(*command.Registry) []loader.Unit {
		return []loader.Unit{Files()}
	})
	res := run(t, d, "list files in "+t.TempDir())
	require.True(t, res.OK(), res.String())
	assert.Contains(t, res.Output, "is empty")
}
