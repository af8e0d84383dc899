package gen

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"
)

func TestCleanGolden(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "clean", "*.txtar"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)
	for _, path := range paths {
		t.Run(strings.TrimSuffix(filepath.Base(path), ".txtar"), func(t *testing.T) {
			buf, err := os.ReadFile(path)
			require.NoError(t, err)
			files := make(map[string]string)
			for _, f := range txtar.Parse(buf).Files {
				files[f.Name] = string(f.Data)
			}
			require.Contains(t, files, "input")
			require.Contains(t, files, "output")
			out := Clean(files["input"])
			assert.Equal(t, files["output"], out)
			assert.Equal(t, out, Clean(out))
		})
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "line endings",
			input:    "a\r\nb\rc",
			expected: "a\nb\nc\n",
		},
		{
			name:     "final line break",
			input:    "<?php",
			expected: "<?php\n",
		},
		{
			name:     "empty",
			input:    "",
			expected: "",
		},
		{
			name:     "tabs after code are kept",
			input:    "\t$a\t= 1;\n",
			expected: "    $a\t= 1;\n",
		},
		{
			name:     "use matched case-insensitively",
			input:    "use Foo\\Bar;\n$x = new bar();\n",
			expected: "use Foo\\Bar;\n$x = new bar();\n",
		},
		{
			name:     "use matched on word boundaries",
			input:    "use Foo\\Bar;\n$x = new BarBaz();\n",
			expected: "$x = new BarBaz();\n",
		},
		{
			name:     "aliased use",
			input:    "use A\\Item as Thing;\nuse B\\Other as Gone;\n$t = new Thing();\n",
			expected: "use A\\Item as Thing;\n$t = new Thing();\n",
		},
		{
			name:     "unused use without final line break",
			input:    "use Foo\\Bar;",
			expected: "",
		},
		{
			name:     "used use on the last line",
			input:    "$b = new Bar();\nuse Foo\\Bar;",
			expected: "$b = new Bar();\nuse Foo\\Bar;\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Clean(tt.input)
			assert.Equal(t, tt.expected, out)
			assert.Equal(t, out, Clean(out))
		})
	}
}
