package apply

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Protocol-Lattice/lattice-edit/src/reply"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		answer string
		want   Decision
	}{
		{"s", Apply},
		{"Si", Apply},
		{" sí ", Apply},
		{"SÍ", Apply},
		{"c", Copy},
		{"copiar", Copy},
		{"n", Cancel},
		{"", Cancel},
		{"yes", Cancel},
		{"sii", Cancel},
	}
	for _, tt := range tests {
		t.Run(tt.answer, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.answer))
		})
	}
}

func TestWriteCreatesParentsAndIsIdempotent(t *testing.T) {
	root := t.TempDir()
	w := &Writer{Root: root}
	edit := reply.Edit{FilePath: "src/deep/a.txt", CodeBlock: "hello\n"}

	abs, err := w.Write(edit)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "src", "deep", "a.txt"), abs)

	_, err = w.Write(edit)
	require.NoError(t, err)

	data, err := os.ReadFile(abs)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
}

func TestWriteOverwritesVerbatim(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("old content that is longer"), 0o644))

	w := &Writer{Root: root}
	_, err := w.Write(reply.Edit{FilePath: "a.txt", CodeBlock: "new"})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestWriteRejectsEscapes(t *testing.T) {
	root := t.TempDir()
	w := &Writer{Root: root}

	for _, p := range []string{"../x.txt", "a/../../x.txt", "/etc/lattice-edit-test", "."} {
		_, err := w.Write(reply.Edit{FilePath: p, CodeBlock: "x"})
		assert.ErrorIs(t, err, ErrOutsideRoot, p)
	}
}

func TestWriteRejectsSymlinkEscapes(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "project")
	outside := filepath.Join(base, "outside")
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.MkdirAll(outside, 0o755))
	if err := os.Symlink(outside, filepath.Join(root, "link")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	require.NoError(t, os.Symlink(filepath.Join(outside, "gone.txt"), filepath.Join(root, "dangling")))

	w := &Writer{Root: root}
	for _, p := range []string{"link/pwned.txt", "link/new/dir/pwned.txt", "dangling"} {
		_, err := w.Write(reply.Edit{FilePath: p, CodeBlock: "x"})
		assert.Error(t, err, p)
	}
	_, err := w.Write(reply.Edit{FilePath: "link/pwned.txt", CodeBlock: "x"})
	assert.ErrorIs(t, err, ErrOutsideRoot)

	entries, err := os.ReadDir(outside)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriteThroughSymlinkInsideRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "real"), 0o755))
	if err := os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "alias")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	w := &Writer{Root: root}
	_, err := w.Write(reply.Edit{FilePath: "alias/a.txt", CodeBlock: "ok"})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "real", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))
}

func TestResolveAllowOutsideRoot(t *testing.T) {
	root := t.TempDir()
	w := &Writer{Root: filepath.Join(root, "project"), AllowOutsideRoot: true}

	abs, err := w.Resolve("../sibling.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "sibling.txt"), abs)
}

func TestCurrent(t *testing.T) {
	root := t.TempDir()
	w := &Writer{Root: root}

	data, err := w.Current("missing.txt")
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0o644))
	data, err = w.Current("a.txt")
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
}

func fakeClipboard(installed map[string]bool, runErr map[string]error) (*Clipboard, *[]string) {
	var ran []string
	c := &Clipboard{
		Utilities: []Utility{{Name: "primary"}, {Name: "secondary", Args: []string{"--in"}}},
		lookPath: func(name string) (string, error) {
			if installed[name] {
				return "/usr/bin/" + name, nil
			}
			return "", errors.New("not found")
		},
		run: func(_ context.Context, name string, _ []string, stdin string) (string, error) {
			ran = append(ran, name+":"+stdin)
			return "", runErr[name]
		},
	}
	return c, &ran
}

func TestCopyUsesPrimary(t *testing.T) {
	c, ran := fakeClipboard(map[string]bool{"primary": true, "secondary": true}, nil)

	via, err := c.Copy(context.Background(), "code")
	require.NoError(t, err)
	assert.Equal(t, "primary", via)
	assert.Equal(t, []string{"primary:code"}, *ran)
}

func TestCopyFallsBackToSecondary(t *testing.T) {
	c, ran := fakeClipboard(map[string]bool{"secondary": true}, nil)

	via, err := c.Copy(context.Background(), "code")
	require.NoError(t, err)
	assert.Equal(t, "secondary --in", via)
	assert.Equal(t, []string{"secondary:code"}, *ran)
}

func TestCopyFailingUtilityTriesNext(t *testing.T) {
	c, ran := fakeClipboard(
		map[string]bool{"primary": true, "secondary": true},
		map[string]error{"primary": errors.New("no display")},
	)

	via, err := c.Copy(context.Background(), "code")
	require.NoError(t, err)
	assert.Equal(t, "secondary --in", via)
	assert.Len(t, *ran, 2)
}

func TestCopyNothingAvailable(t *testing.T) {
	c, ran := fakeClipboard(nil, nil)

	_, err := c.Copy(context.Background(), "code")
	require.ErrorIs(t, err, ErrNoClipboard)
	assert.Empty(t, *ran)
}

func TestDefaultUtilitiesNotEmpty(t *testing.T) {
	assert.NotEmpty(t, DefaultUtilities())
}

func TestClipboardHint(t *testing.T) {
	assert.Equal(t, "pbcopy", NewClipboard([]Utility{{Name: "pbcopy"}}).Hint())
	assert.Equal(t, "xclip o xsel", NewClipboard([]Utility{{Name: "xclip"}, {Name: "xsel"}}).Hint())
	assert.Equal(t, "wl-copy, xclip o xsel", NewClipboard([]Utility{{Name: "wl-copy"}, {Name: "xclip"}, {Name: "xsel"}}).Hint())
}
