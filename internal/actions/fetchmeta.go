package actions

import (
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/trovekit/trove/internal/core"
	"github.com/trovekit/trove/pkg/models"
)

const (
	fetchTimeout   = 20 * time.Second
	maxPageBytes   = 2 << 20
	fetchUserAgent = "trove/1.0 (+https://github.com/trovekit/trove)"
)

// FetchPageMetadata fills in the title and description of URL resources
// by fetching the page and reading its HTML metadata. The enriched item
// replaces the input.
type FetchPageMetadata struct {
	core.ActionBase
	client *http.Client
}

func NewFetchPageMetadata() *FetchPageMetadata {
	return &FetchPageMetadata{
		ActionBase: core.ActionBase{
			ActionName:    "fetch_page_metadata",
			ActionDesc:    "Fetch title and description for URL resources from the page itself.",
			Args:          core.OneOrMoreArgs,
			ActionPrecond: core.IsURLResource,
		},
		client: &http.Client{Timeout: fetchTimeout},
	}
}

func (a *FetchPageMetadata) FetchesMetadata() bool { return true }

func (a *FetchPageMetadata) RunsPerItem() bool { return true }

func (a *FetchPageMetadata) Run(r *core.Runner, items []models.Item) (core.ActionResult, error) {
	out := make([]models.Item, 0, len(items))
	for _, item := range items {
		meta, err := a.fetch(item.URL)
		if err != nil {
			return core.ActionResult{}, &models.SkippableError{
				Path: item.StorePath,
				Msg:  fmt.Sprintf("fetch %s failed", item.URL),
				Err:  err,
			}
		}
		next := item
		if next.Title == "" {
			next.Title = meta.title
		}
		if next.Description == "" {
			next.Description = meta.description
		}
		next.Touch()
		out = append(out, next)
	}
	return core.ActionResult{Items: out, ReplacesInput: true}, nil
}

type pageMeta struct {
	title       string
	description string
}

func (a *FetchPageMetadata) fetch(url string) (pageMeta, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return pageMeta{}, err
	}
	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return pageMeta{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return pageMeta{}, fmt.Errorf("unexpected status %s", resp.Status)
	}

	// Metadata lives in the head, so a bounded read is enough.
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return pageMeta{}, err
	}
	return parsePageMeta(string(data)), nil
}

var (
	titleRe   = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	metaTagRe = regexp.MustCompile(`(?is)<meta\s+[^>]*>`)
	attrRe    = regexp.MustCompile(`(?is)([a-z:-]+)\s*=\s*("([^"]*)"|'([^']*)')`)
)

// parsePageMeta extracts a page title and description from raw HTML,
// preferring opengraph tags over the plain tags.
func parsePageMeta(page string) pageMeta {
	var meta pageMeta

	if m := titleRe.FindStringSubmatch(page); m != nil {
		meta.title = cleanText(m[1])
	}

	var ogTitle, ogDesc, plainDesc string
	for _, tag := range metaTagRe.FindAllString(page, -1) {
		attrs := map[string]string{}
		for _, am := range attrRe.FindAllStringSubmatch(tag, -1) {
			val := am[3]
			if val == "" {
				val = am[4]
			}
			attrs[strings.ToLower(am[1])] = val
		}
		content := cleanText(attrs["content"])
		if content == "" {
			continue
		}
		switch {
		case attrs["property"] == "og:title":
			ogTitle = content
		case attrs["property"] == "og:description":
			ogDesc = content
		case strings.EqualFold(attrs["name"], "description"):
			plainDesc = content
		}
	}

	if ogTitle != "" {
		meta.title = ogTitle
	}
	meta.description = plainDesc
	if ogDesc != "" {
		meta.description = ogDesc
	}
	return meta
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(s)), " ")
}
