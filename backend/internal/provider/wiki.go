package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"wikigraph/backend/internal/view"
	apperrors "wikigraph/backend/pkg/errors"
	"wikigraph/backend/pkg/logger"
)

// Wiki fetches subject content from the MediaWiki API
type Wiki struct {
	apiURL     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewWiki creates a new MediaWiki content client
func NewWiki(apiURL string) *Wiki {
	return &Wiki{
		apiURL: apiURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.Get(),
	}
}

// wikiResponse is the subset of the MediaWiki query response the client reads
type wikiResponse struct {
	Query struct {
		Pages map[string]wikiPage `json:"pages"`
	} `json:"query"`
}

type wikiPage struct {
	PageID    int               `json:"pageid"`
	Title     string            `json:"title"`
	Missing   *string           `json:"missing,omitempty"`
	Extract   string            `json:"extract"`
	PageProps map[string]string `json:"pageprops,omitempty"`
	Thumbnail *struct {
		Source string `json:"source"`
	} `json:"thumbnail,omitempty"`
	Links []struct {
		Title string `json:"title"`
	} `json:"links,omitempty"`
}

// FetchContent resolves a subject name to its source page: full plain-text
// extract, intro summary, thumbnail and outbound link titles. The summary and
// full-data requests run concurrently. Missing pages yield ErrContentNotFound
// and disambiguation pages ErrSubjectAmbiguous.
func (w *Wiki) FetchContent(ctx context.Context, subject string) (*view.SourceContent, error) {
	baseParams := url.Values{
		"action":    {"query"},
		"format":    {"json"},
		"redirects": {"1"},
		"titles":    {subject},
	}

	// The intro extract comes back as HTML and is stripped below; the full
	// extract is requested as plain text.
	summaryParams := cloneValues(baseParams)
	summaryParams.Set("prop", "extracts")
	summaryParams.Set("exintro", "1")

	fullParams := cloneValues(baseParams)
	fullParams.Set("prop", "extracts|pageprops|pageimages|links")
	fullParams.Set("explaintext", "1")
	fullParams.Set("pithumbsize", "500")
	fullParams.Set("pllimit", "max")

	var summaryResp, fullResp *wikiResponse
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summaryResp, err = w.query(gctx, summaryParams)
		return err
	})
	g.Go(func() error {
		var err error
		fullResp, err = w.query(gctx, fullParams)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperrors.NewContentFetchFailed(subject, err)
	}

	page, ok := firstPage(fullResp)
	if !ok {
		return nil, apperrors.NewContentFetchFailed(subject, fmt.Errorf("no page data in API response"))
	}
	if page.Missing != nil {
		return nil, apperrors.NewContentNotFound(subject)
	}
	if _, disambiguation := page.PageProps["disambiguation"]; disambiguation {
		return nil, apperrors.NewSubjectAmbiguous(subject)
	}

	summaryPage, ok := firstPage(summaryResp)
	if !ok {
		return nil, apperrors.NewContentFetchFailed(subject, fmt.Errorf("no summary data in API response"))
	}
	summary := stripHTML(summaryPage.Extract)

	if page.Extract == "" || summary == "" {
		return nil, apperrors.NewContentFetchFailed(subject,
			fmt.Errorf("missing extract for page %q", page.Title))
	}

	links := make([]string, 0, len(page.Links))
	for _, l := range page.Links {
		links = append(links, l.Title)
	}

	src := &view.SourceContent{
		ID:       strconv.Itoa(page.PageID),
		PageName: page.Title,
		FullText: page.Extract,
		Summary:  summary,
		DescImg:  "",
		Links:    links,
	}
	if page.Thumbnail != nil {
		src.DescImg = page.Thumbnail.Source
	}

	w.logger.Debug("Fetched source content",
		zap.String("subject", subject),
		zap.String("page", src.PageName),
		zap.Int("links", len(src.Links)),
	)
	return src, nil
}

func (w *Wiki) query(ctx context.Context, params url.Values) (*wikiResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from MediaWiki API", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed wikiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse MediaWiki response: %w", err)
	}
	return &parsed, nil
}

// firstPage returns the single page entry of a query response. The API keys
// pages by page id, with one entry per requested title.
func firstPage(resp *wikiResponse) (*wikiPage, bool) {
	if resp == nil || len(resp.Query.Pages) == 0 {
		return nil, false
	}
	for _, page := range resp.Query.Pages {
		return &page, true
	}
	return nil, false
}

// stripHTML reduces an HTML fragment to its text content
func stripHTML(fragment string) string {
	if fragment == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	return strings.TrimSpace(doc.Text())
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
