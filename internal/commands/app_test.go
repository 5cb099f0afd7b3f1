package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/sourcebin/internal/apperror"
	"github.com/sakif/sourcebin/internal/config"
	"github.com/sakif/sourcebin/internal/model"
	"github.com/sakif/sourcebin/internal/repository"
	"github.com/sakif/sourcebin/internal/repository/memory"
	"github.com/sakif/sourcebin/internal/service"
)

type fakeClipboard struct {
	text string
	err  error
}

func (c *fakeClipboard) WriteText(_ context.Context, text string) error {
	if c.err != nil {
		return c.err
	}
	c.text = text
	return nil
}

type testEnv struct {
	kv        *memory.Store
	stdout    bytes.Buffer
	stderr    bytes.Buffer
	clipboard fakeClipboard
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return &testEnv{kv: memory.New()}
}

// run executes one sourcebin invocation with stdin and returns what it
// printed.
func (e *testEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	e.stdout.Reset()
	app := NewApp(Env{
		Stdin:     strings.NewReader(stdin),
		Stdout:    &e.stdout,
		Stderr:    &e.stderr,
		Clipboard: &e.clipboard,
		OpenStore: func(context.Context, *config.Config, *slog.Logger) (repository.KVStore, error) {
			return e.kv, nil
		},
	})
	err := app.Run(append([]string{"sourcebin", "--backend", "memory"}, args...))
	return e.stdout.String(), err
}

func (e *testEnv) bins(t *testing.T) []model.Bin {
	t.Helper()
	raw, err := e.kv.Get(context.Background(), service.DefaultStorageKey)
	require.NoError(t, err)
	var bins []model.Bin
	require.NoError(t, json.Unmarshal(raw, &bins))
	return bins
}

func TestNewAndList(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "", "new")
	require.NoError(t, err)
	assert.Contains(t, out, "New bin created")

	_, err = env.run(t, "", "edit", "--title", "Alpha notes")
	require.NoError(t, err)

	out, err = env.run(t, "", "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Alpha notes")
	assert.True(t, strings.HasPrefix(lines[0], "*"), "current bin is marked")

	out, err = env.run(t, "", "list", "--query", "ALPHA")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestBackendFlagOverridesEnvironment(t *testing.T) {
	t.Setenv("STORE_BACKEND", "etcd")
	env := newTestEnv(t)

	out, err := env.run(t, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, model.DefaultBinTitle)
}

func TestEditAndShow(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "fmt.Println(\"hi\")\n",
		"edit", "--title", "Go demo", "--name", "main.go", "--language", "go", "--content-file", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Bin saved")

	out, err = env.run(t, "", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Go demo")
	assert.Contains(t, out, "[0] main.go (go) *")
	assert.Contains(t, out, `fmt.Println("hi")`)
	assert.Contains(t, out, "18 chars • 2 lines")

	bins := env.bins(t)
	require.Len(t, bins, 1)
	assert.Equal(t, model.LanguageGo, bins[0].Files[0].Language)
}

func TestDelete(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "", "delete", "--yes")
	require.Error(t, err)
	assert.Equal(t, "Cannot delete the only remaining bin", apperror.Message(err, ""))

	_, err = env.run(t, "", "new")
	require.NoError(t, err)

	out, err := env.run(t, "n\n", "delete")
	require.NoError(t, err)
	assert.Contains(t, out, "[y/N]")
	assert.Contains(t, out, "Cancelled")
	assert.Len(t, env.bins(t), 2)

	out, err = env.run(t, "y\n", "delete")
	require.NoError(t, err)
	assert.Contains(t, out, "Bin deleted")
	assert.Len(t, env.bins(t), 1)
}

func TestFiles(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "", "remove-file")
	assert.True(t, errors.Is(err, apperror.ErrRefused))

	out, err := env.run(t, "", "add-file")
	require.NoError(t, err)
	assert.Contains(t, out, "File added")
	require.Len(t, env.bins(t)[0].Files, 2)

	_, err = env.run(t, "", "--file", "1", "edit", "--name", "second.txt")
	require.NoError(t, err)
	assert.Equal(t, "second.txt", env.bins(t)[0].Files[1].Name)

	_, err = env.run(t, "", "--file", "7", "show")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	out, err = env.run(t, "", "--file", "1", "remove-file")
	require.NoError(t, err)
	assert.Contains(t, out, "File removed")
	assert.Len(t, env.bins(t)[0].Files, 1)
}

func TestBinSelection(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "", "edit", "--title", "Older")
	require.NoError(t, err)
	_, err = env.run(t, "", "new")
	require.NoError(t, err)
	older := env.bins(t)[1].ID

	out, err := env.run(t, "", "--bin", "http://localhost:8080/?bin="+older, "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Older")

	out, err = env.run(t, "", "--bin", older, "duplicate")
	require.NoError(t, err)
	assert.Contains(t, out, `"Older (copy)"`)

	_, err = env.run(t, "", "--bin", "bin-missing", "show")
	require.Error(t, err)
	assert.Equal(t, "Shared bin not found locally", apperror.Message(err, ""))
}

func TestExportImport(t *testing.T) {
	env := newTestEnv(t)
	dir := t.TempDir()
	_, err := env.run(t, "console.log(1)", "edit", "--title", "My Bin", "--content-file", "-")
	require.NoError(t, err)

	path := filepath.Join(dir, "out.json")
	out, err := env.run(t, "", "export", "--out", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Bin exported as JSON")

	out, err = env.run(t, "", "export", "--out", "-")
	require.NoError(t, err)
	assert.Contains(t, out, `"title": "My Bin"`)

	out, err = env.run(t, "", "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, "JSON imported")
	bins := env.bins(t)
	require.Len(t, bins, 2)
	assert.NotEqual(t, bins[0].ID, bins[1].ID)
	assert.Equal(t, "console.log(1)", bins[0].Files[0].Content)

	_, err = env.run(t, "not json", "import", "-")
	require.Error(t, err)
	assert.Equal(t, "Failed to import JSON", apperror.Message(err, ""))
	assert.Len(t, env.bins(t), 2)

	_, err = env.run(t, "", "import")
	assert.Error(t, err)
}

func TestDownload(t *testing.T) {
	env := newTestEnv(t)
	dir := filepath.Join(t.TempDir(), "files")
	_, err := env.run(t, "a", "edit", "--name", "a.txt", "--content-file", "-")
	require.NoError(t, err)
	_, err = env.run(t, "", "add-file")
	require.NoError(t, err)

	out, err := env.run(t, "", "download", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "All files downloaded")

	got, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "a", string(got))
	assert.FileExists(t, filepath.Join(dir, "file-2.txt"))
}

func TestShare(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "", "new")
	require.NoError(t, err)
	id := env.bins(t)[0].ID

	out, err := env.run(t, "", "share", "--base-url", "https://bins.example/")
	require.NoError(t, err)
	assert.Contains(t, out, "Share link copied")
	assert.Equal(t, "https://bins.example/?bin="+id, env.clipboard.text)

	env.clipboard.err = errors.New("no display")
	out, err = env.run(t, "", "share", "--base-url", "https://bins.example/")
	require.NoError(t, err)
	assert.Contains(t, out, "Copy failed. Link: https://bins.example/?bin="+id)
}

func TestLanguages(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "", "languages")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 21)
	assert.Equal(t, "plaintext", lines[0])
}

func TestPromptConfirmer(t *testing.T) {
	tests := map[string]bool{"y\n": true, "YES\n": true, "n\n": false, "\n": false, "": false, "yes": true}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			var out bytes.Buffer
			c := promptConfirmer{in: strings.NewReader(in), out: &out}
			assert.Equal(t, want, c.Confirm(context.Background(), `Delete "x"?`))
			assert.Equal(t, `Delete "x"? [y/N] `, out.String())
		})
	}
}

func TestDirDownloader_StaysInDir(t *testing.T) {
	dir := t.TempDir()
	d := &dirDownloader{dir: dir}

	require.NoError(t, d.Download(context.Background(), "../../escape.txt", "", []byte("x")))

	assert.FileExists(t, filepath.Join(dir, "escape.txt"))
}
