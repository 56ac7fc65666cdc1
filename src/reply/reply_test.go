package reply

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Edit
	}{
		{
			name:  "label then fence then explanation",
			input: "ARCHIVO: src/a.txt\n```text\nhello\n```\nEXPLICACIÓN: ...",
			want:  Edit{FilePath: "src/a.txt", CodeBlock: "hello", Lang: "text"},
		},
		{
			name:  "label is case insensitive and trimmed",
			input: "archivo:    cmd/main.go   \n\n```go\npackage main\n\nfunc main() {}\n```",
			want:  Edit{FilePath: "cmd/main.go", CodeBlock: "package main\n\nfunc main() {}", Lang: "go"},
		},
		{
			name:  "fence without language tag",
			input: "Archivo: README.md\n```\n# Title\n```",
			want:  Edit{FilePath: "README.md", CodeBlock: "# Title"},
		},
		{
			name:  "label not adjacent to fence",
			input: "Here is the change.\n```js\nconsole.log(1)\n```\nSome notes.\nARCHIVO: web/app.js\n",
			want:  Edit{FilePath: "web/app.js", CodeBlock: "console.log(1)", Lang: "js"},
		},
		{
			name:  "only first of several blocks",
			input: "ARCHIVO: a.py\n```python\nprint(1)\n```\n```python\nprint(2)\n```",
			want:  Edit{FilePath: "a.py", CodeBlock: "print(1)", Lang: "python"},
		},
		{
			name:  "markdown emphasis around the path",
			input: "**ARCHIVO:** `src/x.ts`\n```ts\nexport {}\n```",
			want:  Edit{FilePath: "src/x.ts", CodeBlock: "export {}", Lang: "ts"},
		},
		{
			name:  "leading blank line inside block is kept",
			input: "ARCHIVO: a.txt\n```\n\nbody\n```",
			want:  Edit{FilePath: "a.txt", CodeBlock: "\nbody"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFailures(t *testing.T) {
	tests := []struct {
		name  string
		input string
		cause error
	}{
		{"no label", "```text\nhello\n```", ErrNoFilePath},
		{"empty label", "ARCHIVO:   \n```text\nhello\n```", ErrNoFilePath},
		{"no fence", "ARCHIVO: src/a.txt\nhello", ErrNoCodeBlock},
		{"unterminated fence", "ARCHIVO: src/a.txt\n```go\npackage a\n", ErrNoCodeBlock},
		{"empty reply", "", ErrNoFilePath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrParse)
			assert.ErrorIs(t, err, tt.cause)
			assert.Equal(t, Edit{}, got)
		})
	}
}

func TestCountBlocks(t *testing.T) {
	assert.Equal(t, 0, CountBlocks("nothing"))
	assert.Equal(t, 2, CountBlocks("```a\n1\n```\ntext\n```b\n2\n```"))
}
