package workspace

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel string, data []byte) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, data, 0o644))
}

func TestCollectIncludesTextFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", []byte("package main\n"))
	writeFile(t, root, "src/a.txt", []byte("hello"))
	writeFile(t, root, "src/deep/b.md", []byte("# b"))

	got, err := NewCollector(root, nil, nil).Collect(context.Background())
	require.NoError(t, err)

	var rels []string
	for _, f := range got.Files {
		rels = append(rels, f.Rel)
	}
	assert.ElementsMatch(t, []string{"main.go", "src/a.txt", "src/deep/b.md"}, rels)
	assert.Contains(t, got.Text, Header("src/a.txt")+"hello"+Footer("src/a.txt"))
	assert.Contains(t, got.Text, "package main\n")
	assert.Equal(t, int64(len("package main\n")+len("hello")+len("# b")), got.Bytes)
}

func TestCollectSkipsIgnoredNamesAndExtensions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "keep.js", []byte("x"))
	writeFile(t, root, ".git/config", []byte("secret"))
	writeFile(t, root, "node_modules/pkg/index.js", []byte("dep"))
	writeFile(t, root, "package-lock.json", []byte("{}"))
	writeFile(t, root, "dist/bundle.js", []byte("built"))
	writeFile(t, root, ".env", []byte("TOKEN=1"))
	writeFile(t, root, ToolName, []byte("self"))
	writeFile(t, root, "img/Logo.PNG", []byte("png"))
	writeFile(t, root, "fonts/a.woff2", []byte("font"))

	got, err := NewCollector(root, nil, nil).Collect(context.Background())
	require.NoError(t, err)

	require.Len(t, got.Files, 1)
	assert.Equal(t, "keep.js", got.Files[0].Rel)
	for _, banned := range []string{"secret", "dep", "built", "TOKEN", "self", "png", "font"} {
		assert.NotContains(t, got.Text, banned)
	}
}

func TestCollectExtraIgnore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "keep.txt", []byte("k"))
	writeFile(t, root, "tmp/scratch.txt", []byte("s"))

	got, err := NewCollector(root, []string{"tmp"}, nil).Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, got.Files, 1)
	assert.Equal(t, "keep.txt", got.Files[0].Rel)
}

func TestCollectSkipsInvalidUTF8WithWarning(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "ok.txt", []byte("fine"))
	writeFile(t, root, "blob.dat", []byte{0xff, 0xfe, 0x00, 0x81})

	log, hook := test.NewNullLogger()
	got, err := NewCollector(root, nil, log).Collect(context.Background())
	require.NoError(t, err)

	require.Len(t, got.Files, 1)
	assert.Equal(t, []string{"blob.dat"}, got.Skipped)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "blob.dat", hook.LastEntry().Data["path"])
}

func TestCollectSkipsUnreadableFile(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
	root := t.TempDir()
	writeFile(t, root, "ok.txt", []byte("fine"))
	writeFile(t, root, "locked.txt", []byte("nope"))
	require.NoError(t, os.Chmod(filepath.Join(root, "locked.txt"), 0o000))

	got, err := NewCollector(root, nil, nil).Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, got.Files, 1)
	assert.Equal(t, []string{"locked.txt"}, got.Skipped)
}

func TestCollectMissingRoot(t *testing.T) {
	_, err := NewCollector(filepath.Join(t.TempDir(), "nope"), nil, nil).Collect(context.Background())
	require.Error(t, err)
}

func TestCollectHonoursCancellation(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", []byte("a"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCollector(root, nil, nil).Collect(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestTreeAndSummary(t *testing.T) {
	c := Context{
		Files: []FileEntry{{Rel: "src/a.go"}, {Rel: "README.md"}},
		Bytes: 2048,
	}
	tree := c.Tree()
	assert.Equal(t, strings.Join([]string{"└─ README.md", "└─ src/", "  └─ a.go"}, "\n"), tree)
	assert.Equal(t, "2 archivos (2 KB)", c.Summary())

	c.Skipped = []string{"x"}
	assert.Equal(t, "2 archivos (2 KB), 1 omitidos", c.Summary())
}

func TestHumanSize(t *testing.T) {
	assert.Equal(t, "512 B", HumanSize(512))
	assert.Equal(t, "1 KB", HumanSize(1024))
	assert.Equal(t, "1.5 MB", HumanSize(1536*1024))
}
