package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "wikigraph/backend/pkg/errors"
)

// newWikiServer serves canned MediaWiki responses. The intro request carries
// exintro and gets HTML; the full request gets plain text with page metadata.
func newWikiServer(t *testing.T, fullBody, summaryBody string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "query", q.Get("action"))
		assert.Equal(t, "json", q.Get("format"))
		assert.Equal(t, "1", q.Get("redirects"))

		w.Header().Set("Content-Type", "application/json")
		if q.Get("exintro") == "1" {
			fmt.Fprint(w, summaryBody)
			return
		}
		assert.Equal(t, "1", q.Get("explaintext"))
		fmt.Fprint(w, fullBody)
	}))
}

func TestWiki_FetchContent(t *testing.T) {
	full := `{"query":{"pages":{"39555":{
		"pageid":39555,
		"title":"Albedo",
		"extract":"Albedo is the fraction of sunlight that is diffusely reflected by a body.",
		"thumbnail":{"source":"https://upload.example.org/albedo.jpg"},
		"links":[{"title":"Climate change"},{"title":"Reflectivity"}]
	}}}}`
	summary := `{"query":{"pages":{"39555":{
		"pageid":39555,
		"title":"Albedo",
		"extract":"<p><b>Albedo</b> measures diffuse reflection of sunlight.</p>"
	}}}}`
	srv := newWikiServer(t, full, summary)
	defer srv.Close()

	w := NewWiki(srv.URL)
	src, err := w.FetchContent(context.Background(), "albedo")

	require.NoError(t, err)
	require.NotNil(t, src)
	assert.Equal(t, "39555", src.ID)
	assert.Equal(t, "Albedo", src.PageName)
	assert.Equal(t, "Albedo is the fraction of sunlight that is diffusely reflected by a body.", src.FullText)
	assert.Equal(t, "Albedo measures diffuse reflection of sunlight.", src.Summary, "intro HTML must be stripped to text")
	assert.Equal(t, "https://upload.example.org/albedo.jpg", src.DescImg)
	assert.Equal(t, []string{"Climate change", "Reflectivity"}, src.Links)
}

func TestWiki_FetchContent_MissingPage(t *testing.T) {
	body := `{"query":{"pages":{"-1":{"title":"Nonexistent","missing":""}}}}`
	srv := newWikiServer(t, body, body)
	defer srv.Close()

	w := NewWiki(srv.URL)
	src, err := w.FetchContent(context.Background(), "Nonexistent")

	assert.Nil(t, src)
	var notFound *apperrors.ErrContentNotFound
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "Nonexistent", notFound.Subject)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestWiki_FetchContent_Disambiguation(t *testing.T) {
	full := `{"query":{"pages":{"18617":{
		"pageid":18617,
		"title":"Mercury",
		"extract":"Mercury may refer to:",
		"pageprops":{"disambiguation":""}
	}}}}`
	summary := `{"query":{"pages":{"18617":{
		"pageid":18617,
		"title":"Mercury",
		"extract":"<p>Mercury may refer to:</p>"
	}}}}`
	srv := newWikiServer(t, full, summary)
	defer srv.Close()

	w := NewWiki(srv.URL)
	src, err := w.FetchContent(context.Background(), "Mercury")

	assert.Nil(t, src)
	var ambiguous *apperrors.ErrSubjectAmbiguous
	require.ErrorAs(t, err, &ambiguous)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestWiki_FetchContent_NoLinksOrThumbnail(t *testing.T) {
	full := `{"query":{"pages":{"1":{
		"pageid":1,
		"title":"Obscure_Topic",
		"extract":"An article with no outbound links."
	}}}}`
	summary := `{"query":{"pages":{"1":{
		"pageid":1,
		"title":"Obscure_Topic",
		"extract":"<p>An article with no outbound links.</p>"
	}}}}`
	srv := newWikiServer(t, full, summary)
	defer srv.Close()

	w := NewWiki(srv.URL)
	src, err := w.FetchContent(context.Background(), "Obscure_Topic")

	require.NoError(t, err)
	assert.Empty(t, src.Links)
	assert.Empty(t, src.DescImg)
}

func TestWiki_FetchContent_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	w := NewWiki(srv.URL)
	src, err := w.FetchContent(context.Background(), "Albedo")

	assert.Nil(t, src)
	var fetchFailed *apperrors.ErrContentFetchFailed
	require.ErrorAs(t, err, &fetchFailed)
	assert.False(t, apperrors.IsNotFound(err), "a transport failure is not an expected absence")
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain text", "no markup here", "no markup here"},
		{"nested tags", "<p><b>Albedo</b> is a <i>measure</i>.</p>", "Albedo is a measure."},
		{"surrounding whitespace", "  <p>trimmed</p>\n", "trimmed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripHTML(tt.input))
		})
	}
}
