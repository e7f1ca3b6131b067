package crawler

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/politewalk/internal/config"
	"github.com/nao1215/politewalk/internal/model"
)

// Parser extracts listing items and the next-page link from one page.
//
// Design decision: We use PuerkitoBio/goquery rather than walking the
// x/net/html tree by hand because:
//  1. Listing shapes are naturally described by CSS selectors, and the
//     selectors live in user configuration
//  2. goquery tolerates the malformed markup common on real sites
//  3. A selector change is a config edit, not a code change
type Parser struct {
	// baseURL is the URL of the page being parsed, used for resolving
	// relative hrefs.
	baseURL *url.URL

	// selectors drive item and next-link extraction.
	selectors config.Selectors
}

// Listing is everything extracted from one listing page.
type Listing struct {
	// Items are the discovered entries in document order, with absolute
	// URLs.
	Items []model.Item

	// NextURL is the absolute URL of the next listing page, or empty when
	// the pagination chain has ended.
	NextURL string
}

// NewParser creates a Parser for the page at baseURL.
// The base URL is used to resolve relative links.
func NewParser(baseURL string, selectors config.Selectors) (*Parser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	return &Parser{baseURL: u, selectors: selectors}, nil
}

// Parse extracts the listing from HTML content.
// Malformed markup never fails the parse; selectors that match nothing
// simply yield an empty listing.
func (p *Parser) Parse(content io.Reader) (*Listing, error) {
	doc, err := goquery.NewDocumentFromReader(content)
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	listing := &Listing{Items: make([]model.Item, 0)}

	doc.Find(p.selectors.Item).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		resolved := p.resolveURL(href)
		if resolved == "" {
			return
		}

		title := ""
		if p.selectors.TitleAttr != "" {
			title, _ = sel.Attr(p.selectors.TitleAttr)
		}
		if title == "" {
			title = strings.TrimSpace(sel.Text())
		}

		listing.Items = append(listing.Items, model.Item{
			Title: title,
			URL:   resolved,
		})
	})

	if href, ok := doc.Find(p.selectors.Next).First().Attr("href"); ok {
		listing.NextURL = p.resolveURL(href)
	}

	return listing, nil
}

// resolveURL resolves a relative href against the base URL.
//
// Design decision: We resolve URLs at parse time rather than storing them
// as-is because:
//  1. Deduplication needs a canonical form
//  2. The crawl loop only ever holds absolute URLs
//  3. Non-navigable schemes can be filtered in one place
func (p *Parser) resolveURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" ||
		strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:") ||
		href == "#" {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	return p.baseURL.ResolveReference(u).String()
}
