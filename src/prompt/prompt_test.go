package prompt

import (
	"strings"
	"testing"

	"github.com/Protocol-Lattice/lattice-edit/src/reply"
	"github.com/Protocol-Lattice/lattice-edit/src/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildOrdersSections(t *testing.T) {
	ctx := workspace.Context{
		Text:  workspace.Header("a.txt") + "hello" + workspace.Footer("a.txt"),
		Files: []workspace.FileEntry{{Rel: "a.txt"}},
	}
	out := Build(ctx, "  cambia el saludo \n")

	iSys := strings.Index(out, "ARCHIVO:")
	iTree := strings.Index(out, "└─ a.txt")
	iBody := strings.Index(out, "--- INICIO a.txt ---")
	iReq := strings.Index(out, "cambia el saludo\n")
	require.True(t, iSys >= 0 && iTree > iSys && iBody > iTree && iReq > iBody, out)
}

// The example embedded in the instructions must itself be parseable.
func TestSystemExampleParses(t *testing.T) {
	example := System[strings.Index(System, "ARCHIVO: math"):]
	edit, err := reply.Parse(example)
	require.NoError(t, err)
	assert.Equal(t, "math/primes.go", edit.FilePath)
	assert.Contains(t, edit.CodeBlock, "func IsPrime")
}
