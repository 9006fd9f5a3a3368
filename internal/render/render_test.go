package render

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m4sc0/new/internal/image"
)

func writeFile(t *testing.T, path string, content []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, content, 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestRender_ProjectNameScenario(t *testing.T) {
	tmpl := t.TempDir()
	writeFile(t, filepath.Join(tmpl, "{{project_name}}", "README.md"), []byte("Hello {{project_name}}!"))
	writeFile(t, filepath.Join(tmpl, "template.json"), []byte(`{"name":"x"}`))

	target := filepath.Join(t.TempDir(), "out")
	res, err := New(nil).Render(tmpl, target, map[string]string{"project_name": "acme"})
	require.NoError(t, err)

	assert.Equal(t, "Hello acme!", readFile(t, filepath.Join(target, "acme", "README.md")))
	assert.Equal(t, []string{"acme/README.md"}, res.Files)
	assert.NoFileExists(t, filepath.Join(target, "template.json"))
}

func TestRender_ExistingTargetUntouched(t *testing.T) {
	tmpl := t.TempDir()
	writeFile(t, filepath.Join(tmpl, "sub", "a.txt"), []byte("a"))

	target := t.TempDir()
	writeFile(t, filepath.Join(target, "keep.txt"), []byte("mine"))

	_, err := New(nil).Render(tmpl, target, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, image.ErrAlreadyExists))

	entries, err := os.ReadDir(target)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "keep.txt", entries[0].Name())
	assert.Equal(t, "mine", readFile(t, filepath.Join(target, "keep.txt")))
}

func TestRender_ExistingFileTarget(t *testing.T) {
	tmpl := t.TempDir()
	target := filepath.Join(t.TempDir(), "file")
	writeFile(t, target, []byte("x"))

	_, err := New(nil).Render(tmpl, target, nil)
	assert.True(t, errors.Is(err, image.ErrAlreadyExists))
}

func TestRender_MissingTemplate(t *testing.T) {
	target := filepath.Join(t.TempDir(), "out")
	_, err := New(nil).Render(filepath.Join(t.TempDir(), "absent"), target, nil)
	assert.True(t, errors.Is(err, image.ErrNotFound))
	assert.NoDirExists(t, target)
}

func TestRender_BinaryPassthrough(t *testing.T) {
	tmpl := t.TempDir()
	binary := []byte{0xff, 0xfe, '{', '{', 'x', '}', '}', 0x00}
	writeFile(t, filepath.Join(tmpl, "logo.bin"), binary)
	writeFile(t, filepath.Join(tmpl, "{{x}}.txt"), []byte("{{x}}"))

	target := filepath.Join(t.TempDir(), "out")
	res, err := New(nil).Render(tmpl, target, map[string]string{"x": "y"})
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(target, "logo.bin"))
	require.NoError(t, err)
	assert.Equal(t, binary, got)
	assert.Equal(t, "y", readFile(t, filepath.Join(target, "y.txt")))
	assert.Equal(t, []string{"logo.bin"}, res.Binary)
}

func TestRender_UnknownTokensAndSinglePass(t *testing.T) {
	tmpl := t.TempDir()
	writeFile(t, filepath.Join(tmpl, "f.txt"), []byte("{{a}} {{b}} {{unknown}} {{ a }}"))

	target := filepath.Join(t.TempDir(), "out")
	_, err := New(nil).Render(tmpl, target, map[string]string{"a": "{{b}}", "b": "B"})
	require.NoError(t, err)

	assert.Equal(t, "{{b}} B {{unknown}} {{ a }}", readFile(t, filepath.Join(target, "f.txt")))
}

func TestRender_EmptyDirsAndModes(t *testing.T) {
	tmpl := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(tmpl, "{{name}}", "empty"), 0o755))
	writeFile(t, filepath.Join(tmpl, "run.sh"), []byte("#!/bin/sh\necho {{name}}\n"))
	require.NoError(t, os.Chmod(filepath.Join(tmpl, "run.sh"), 0o755))

	target := filepath.Join(t.TempDir(), "out")
	_, err := New(nil).Render(tmpl, target, map[string]string{"name": "demo"})
	require.NoError(t, err)

	assert.DirExists(t, filepath.Join(target, "demo", "empty"))
	assert.Equal(t, "#!/bin/sh\necho demo\n", readFile(t, filepath.Join(target, "run.sh")))
	if runtime.GOOS != "windows" {
		info, err := os.Stat(filepath.Join(target, "run.sh"))
		require.NoError(t, err)
		assert.Equal(t, fs.FileMode(0o755), info.Mode().Perm())
	}
}

func TestRender_RejectsEscapingPaths(t *testing.T) {
	tmpl := t.TempDir()
	writeFile(t, filepath.Join(tmpl, "{{name}}", "x.txt"), []byte("x"))

	target := filepath.Join(t.TempDir(), "out")
	_, err := New(nil).Render(tmpl, target, map[string]string{"name": "../../evil"})
	require.Error(t, err)
	assert.NoDirExists(t, target, "nothing written when planning fails")
}

func TestRender_RejectsCollidingPaths(t *testing.T) {
	tmpl := t.TempDir()
	writeFile(t, filepath.Join(tmpl, "{{a}}.txt"), []byte("1"))
	writeFile(t, filepath.Join(tmpl, "{{b}}.txt"), []byte("2"))

	target := filepath.Join(t.TempDir(), "out")
	_, err := New(nil).Render(tmpl, target, map[string]string{"a": "same", "b": "same"})
	require.Error(t, err)
	assert.NoDirExists(t, target)
}

func TestRender_MergesDirectoriesRenderingToSamePath(t *testing.T) {
	tmpl := t.TempDir()
	writeFile(t, filepath.Join(tmpl, "src", "main.go"), []byte("package main"))
	writeFile(t, filepath.Join(tmpl, "src", "{{pkg}}", "lib.go"), []byte("package {{name}}"))

	target := filepath.Join(t.TempDir(), "out")
	res, err := New(nil).Render(tmpl, target, map[string]string{"pkg": "", "name": "demo"})
	require.NoError(t, err)

	assert.Equal(t, "package main", readFile(t, filepath.Join(target, "src", "main.go")))
	assert.Equal(t, "package demo", readFile(t, filepath.Join(target, "src", "lib.go")))
	assert.ElementsMatch(t, []string{"src/main.go", "src/lib.go"}, res.Files)
}

func TestRender_RejectsFileAndDirectoryCollision(t *testing.T) {
	tmpl := t.TempDir()
	writeFile(t, filepath.Join(tmpl, "config"), []byte("file"))
	writeFile(t, filepath.Join(tmpl, "{{dir}}", "x.txt"), []byte("x"))

	target := filepath.Join(t.TempDir(), "out")
	_, err := New(nil).Render(tmpl, target, map[string]string{"dir": "config"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "both render to")
	assert.NoDirExists(t, target)
}

func TestRender_CopiesEveryEntry(t *testing.T) {
	tmpl := t.TempDir()
	writeFile(t, filepath.Join(tmpl, "node_modules", "dep.js"), []byte("module.exports = '{{name}}'"))
	writeFile(t, filepath.Join(tmpl, ".git", "HEAD"), []byte("ref: refs/heads/main"))
	writeFile(t, filepath.Join(tmpl, ".DS_Store"), []byte("junk"))

	target := filepath.Join(t.TempDir(), "out")
	res, err := New(nil).Render(tmpl, target, map[string]string{"name": "demo"})
	require.NoError(t, err)

	assert.Equal(t, "module.exports = 'demo'", readFile(t, filepath.Join(target, "node_modules", "dep.js")))
	assert.FileExists(t, filepath.Join(target, ".git", "HEAD"))
	assert.FileExists(t, filepath.Join(target, ".DS_Store"))
	assert.Len(t, res.Files, 3)
}

func TestSubstitute(t *testing.T) {
	tests := []struct {
		name string
		in   string
		repl map[string]string
		want string
	}{
		{"plain", "Hello {{n}}", map[string]string{"n": "acme"}, "Hello acme"},
		{"repeated", "{{n}}-{{n}}", map[string]string{"n": "x"}, "x-x"},
		{"unknown kept", "{{n}} {{m}}", map[string]string{"n": "x"}, "x {{m}}"},
		{"no replacements", "{{n}}", nil, "{{n}}"},
		{"no re-substitution", "{{a}}", map[string]string{"a": "{{b}}", "b": "no"}, "{{b}}"},
		{"empty value", "[{{n}}]", map[string]string{"n": ""}, "[]"},
		{"nested braces", "{{{n}}}", map[string]string{"n": "x"}, "{x}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Substitute(tt.in, tt.repl); got != tt.want {
				t.Errorf("Substitute(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
