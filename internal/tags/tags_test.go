package tags

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/htmlinject/internal/dom"
	"github.com/conneroisu/htmlinject/internal/errors"
	"github.com/conneroisu/htmlinject/internal/outputs"
)

func inject(t *testing.T, src string, opts Options, sel outputs.Selection) string {
	t.Helper()
	doc, err := dom.ParseString(src)
	require.NoError(t, err)
	require.NoError(t, New(opts).Inject(context.Background(), doc, sel))
	out, err := dom.RenderString(doc)
	require.NoError(t, err)
	return out
}

func TestLinkPlacement(t *testing.T) {
	sel := outputs.Selection{CSS: []string{"/out/b.css", "/out/c.css"}}

	tests := []struct {
		name string
		src  string
		pos  Position
		want string
	}{
		{
			name: "below after existing link",
			src:  `<head><link rel="stylesheet" href="a.css"><title>t</title></head>`,
			want: `<head><link rel="stylesheet" href="a.css"/><link rel="stylesheet" href="b.css"/><link rel="stylesheet" href="c.css"/><title>t</title></head>`,
		},
		{
			name: "below after trailing style",
			src:  `<head><link rel="stylesheet" href="a.css"><style>p{}</style><title>t</title></head>`,
			want: `<style>p{}</style><link rel="stylesheet" href="b.css"/><link rel="stylesheet" href="c.css"/><title>t</title>`,
		},
		{
			name: "above first existing",
			src:  `<head><title>t</title><style>p{}</style><link rel="stylesheet" href="a.css"></head>`,
			pos:  Above,
			want: `<title>t</title><link rel="stylesheet" href="b.css"/><link rel="stylesheet" href="c.css"/><style>p{}</style>`,
		},
		{
			name: "below with nothing existing goes first",
			src:  `<head><title>t</title></head>`,
			pos:  Below,
			want: `<head><link rel="stylesheet" href="b.css"/><link rel="stylesheet" href="c.css"/><title>t</title></head>`,
		},
		{
			name: "above with nothing existing goes first",
			src:  `<head><title>t</title></head>`,
			pos:  Above,
			want: `<head><link rel="stylesheet" href="b.css"/><link rel="stylesheet" href="c.css"/><title>t</title></head>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := inject(t, tt.src, Options{LinkPosition: tt.pos}, sel)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestScriptPlacement(t *testing.T) {
	src := `<head><script src="h.js"></script></head><body><p>x</p><script src="b.js"></script><footer></footer></body>`
	sel := outputs.Selection{JS: []string{"/out/app.js"}}
	app := `<script src="app.js"></script>`

	tests := []struct {
		placement Placement
		want      string
	}{
		{"", `<script src="b.js"></script>` + app + `<footer></footer>`},
		{BodyBelow, `<script src="b.js"></script>` + app + `<footer></footer>`},
		{BodyAbove, `<p>x</p>` + app + `<script src="b.js"></script>`},
		{HeadBelow, `<head><script src="h.js"></script>` + app + `</head>`},
		{HeadAbove, `<head>` + app + `<script src="h.js"></script></head>`},
	}

	for _, tt := range tests {
		t.Run(string(tt.placement), func(t *testing.T) {
			out := inject(t, src, Options{ScriptPlacement: tt.placement}, sel)
			assert.Contains(t, out, tt.want)
			assert.Equal(t, 1, strings.Count(out, app))
		})
	}
}

func TestScriptAttributes(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"plain", Options{}, `<script src="app.js"></script>`},
		{"defer", Options{Defer: true}, `<script src="app.js" defer=""></script>`},
		{"module ignores defer", Options{Module: true, Defer: true}, `<script src="app.js" type="module"></script>`},
		{"crossorigin and public path", Options{CrossOrigin: "anonymous", PublicPath: "https://cdn.example.com/"},
			`<script src="https://cdn.example.com/app.js" crossorigin="anonymous"></script>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := inject(t, "<body></body>", tt.opts, outputs.Selection{JS: []string{"/out/app.js"}})
			assert.Contains(t, out, tt.want)
			if tt.opts.Module {
				assert.NotContains(t, out, "defer")
			}
		})
	}
}

func TestLinkAttributes(t *testing.T) {
	out := inject(t, "", Options{CrossOrigin: "use-credentials", PublicPath: "/static"},
		outputs.Selection{CSS: []string{"/out/site.css"}})
	assert.Contains(t, out, `<link rel="stylesheet" href="/static/site.css" crossorigin="use-credentials"/>`)
}

func TestIntegrity(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.js")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o644))

	first, err := Integrity(SHA256, path)
	require.NoError(t, err)
	assert.Equal(t, "sha256-ungWv48Bz+pBQUDeXa4iI7ADYaOWF3qctBD/YfIAFa0=", first)

	second, err := Integrity(SHA256, path)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	for _, alg := range []Algorithm{SHA384, SHA512} {
		sri, err := Integrity(alg, path)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(sri, string(alg)+"-"), sri)
	}

	_, err = Integrity(SHA256, filepath.Join(dir, "missing.js"))
	assert.True(t, errors.IsIOError(err))
}

func TestInjectIntegrityAttribute(t *testing.T) {
	dir := t.TempDir()
	css := filepath.Join(dir, "a.css")
	js := filepath.Join(dir, "a.js")
	require.NoError(t, os.WriteFile(css, []byte("abc"), 0o644))
	require.NoError(t, os.WriteFile(js, []byte("abc"), 0o644))

	out := inject(t, "", Options{Integrity: SHA256}, outputs.Selection{CSS: []string{css}, JS: []string{js}})
	assert.Equal(t, 2, strings.Count(out, `integrity="sha256-ungWv48Bz+pBQUDeXa4iI7ADYaOWF3qctBD/YfIAFa0="`))
}

func TestInjectFailsOnUnreadableOutput(t *testing.T) {
	doc, err := dom.ParseString("")
	require.NoError(t, err)

	err = New(Options{Integrity: SHA512}).Inject(context.Background(), doc,
		outputs.Selection{JS: []string{filepath.Join(t.TempDir(), "gone.js")}})
	require.Error(t, err)
	assert.True(t, errors.IsIOError(err))
	assert.Empty(t, dom.FindAll(dom.Body(doc), "script"))
}

func TestParseOptions(t *testing.T) {
	p, err := ParsePlacement("HEAD-above")
	require.NoError(t, err)
	assert.Equal(t, HeadAbove, p)
	assert.True(t, p.InHead())
	assert.Equal(t, Above, p.Position())

	p, err = ParsePlacement("")
	require.NoError(t, err)
	assert.Equal(t, BodyBelow, p)
	assert.False(t, p.InHead())
	assert.Equal(t, Below, p.Position())

	_, err = ParsePlacement("footer")
	assert.True(t, errors.IsConfigError(err))

	pos, err := ParsePosition("")
	require.NoError(t, err)
	assert.Equal(t, Below, pos)
	_, err = ParsePosition("middle")
	assert.True(t, errors.IsConfigError(err))

	alg, err := ParseAlgorithm("SHA384")
	require.NoError(t, err)
	assert.Equal(t, SHA384, alg)
	_, err = ParseAlgorithm("md5")
	assert.True(t, errors.IsConfigError(err))
}
