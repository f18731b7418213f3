package i18n

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestLoadEmbeddedHasExpectedLocales(t *testing.T) {
	b, err := LoadEmbedded()
	require.NoError(t, err)
	assert.Equal(t, []string{"en-US", "pt-BR"}, b.Locales())
	assert.Empty(t, b.MissingKeys("pt-BR"), "pt-BR must translate every key")

	msg, ok := b.Message("en-US", "users.error.title")
	require.True(t, ok)
	assert.Equal(t, "Error Loading Data", msg)
}

func TestLoadFromFSRejectsMismatchedLocale(t *testing.T) {
	dir := t.TempDir()
	mustWriteFile(t, filepath.Join(dir, "locales/en-US.yaml"), "locale: \"pt-BR\"\nmessages:\n  \"a\": \"b\"\n")

	_, err := LoadFromFS(os.DirFS(dir))
	assert.Error(t, err)
}

func TestLoadFromFSRequiresBaseLocale(t *testing.T) {
	dir := t.TempDir()
	mustWriteFile(t, filepath.Join(dir, "locales/pt-BR.yaml"), "locale: \"pt-BR\"\nmessages:\n  \"a\": \"b\"\n")

	_, err := LoadFromFS(os.DirFS(dir))
	assert.Error(t, err)
}

func TestMessageFallsBackToBase(t *testing.T) {
	dir := t.TempDir()
	mustWriteFile(t, filepath.Join(dir, "locales/en-US.yaml"), "locale: \"en-US\"\nmessages:\n  \"a\": \"one\"\n  \"b\": \"two\"\n")
	mustWriteFile(t, filepath.Join(dir, "locales/pt-BR.yaml"), "locale: \"pt-BR\"\nmessages:\n  \"a\": \"um\"\n")

	b, err := LoadFromFS(os.DirFS(dir))
	require.NoError(t, err)

	got, ok := b.Message("pt-BR", "b")
	assert.True(t, ok)
	assert.Equal(t, "two", got)
	assert.Equal(t, []string{"b"}, b.MissingKeys("pt-BR"))
}

func TestPrinterTranslatesAndGroupsNumbers(t *testing.T) {
	require.NoError(t, Init())

	en := Printer(language.MustParse("en-US"))
	assert.Equal(t, "1,234 total records", en.Sprintf("users.total_records", 1234))
	assert.Equal(t, "Showing 11 to 20 of 25 results", en.Sprintf("users.footer.showing", 11, 20, 25))

	pt := Printer(language.MustParse("pt-BR"))
	assert.Equal(t, "1.234 registros no total", pt.Sprintf("users.total_records", 1234))
	assert.Equal(t, "Página 1 de 5", pt.Sprintf("users.footer.page", 1, 5))
}

func TestResolveTag(t *testing.T) {
	cases := []struct {
		name    string
		target  string
		cookie  string
		accept  string
		want    string
		persist bool
	}{
		{name: "default", target: "/users", want: "en-US"},
		{name: "query param", target: "/users?lang=pt-BR", want: "pt-BR", persist: true},
		{name: "unsupported query falls through", target: "/users?lang=fr", accept: "pt-BR", want: "pt-BR"},
		{name: "cookie", target: "/users", cookie: "pt-BR", accept: "en-US", want: "pt-BR"},
		{name: "accept language", target: "/users", accept: "pt-BR,pt;q=0.9,en;q=0.5", want: "pt-BR"},
		{name: "accept unsupported", target: "/users", accept: "fr-FR", want: "en-US"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tc.target, nil)
			if tc.cookie != "" {
				r.Header.Set("Cookie", LangCookieName+"="+tc.cookie)
			}
			if tc.accept != "" {
				r.Header.Set("Accept-Language", tc.accept)
			}
			tag, persist := ResolveTag(r)
			assert.Equal(t, tc.want, tag.String())
			assert.Equal(t, tc.persist, persist)
		})
	}
}

func TestSetLanguageCookie(t *testing.T) {
	w := httptest.NewRecorder()
	SetLanguageCookie(w, language.MustParse("pt-BR"))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, LangCookieName, cookies[0].Name)
	assert.Equal(t, "pt-BR", cookies[0].Value)
}

func TestTWithoutLocalizer(t *testing.T) {
	assert.Equal(t, "users.title", T(nil, "users.title"))
	assert.Equal(t, "users.footer.page", T(nil, "users.footer.page", 2, 5))
}

func TestTFormatsComputedKeys(t *testing.T) {
	require.NoError(t, Init())
	en := Printer(language.MustParse("en-US"))

	key := "users.footer." + "showing"
	assert.Equal(t, "Showing 1 to 5 of 42 results", T(en, key, 1, 5, 42))
	bucket := "46+"
	assert.Equal(t, "46+", T(en, "age."+bucket))
	assert.Equal(t, "All Ages", T(en, "age."+"all"))
}

func mustWriteFile(t *testing.T, p, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}
