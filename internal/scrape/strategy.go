// Package scrape extracts job postings from job board pages. Each board is a
// Strategy keyed by host; pages from unknown hosts fall back to metadata tags.
package scrape

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pysugar/careertracker/internal/util"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// JobRecord is what a capture yields. Any field but URL may be empty.
type JobRecord struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Source      string `json:"source"`
}

// Empty reports whether nothing beyond the URL was captured.
func (r JobRecord) Empty() bool {
	return r.Title == "" && r.Company == "" && r.Location == "" && r.Description == ""
}

// Strategy pulls a JobRecord out of a parsed page.
type Strategy interface {
	Name() string
	Extract(doc *goquery.Document, page *url.URL) (JobRecord, bool)
}

// Selectors lists candidate CSS selectors per field, tried in order.
type Selectors struct {
	Title       []string
	Company     []string
	Location    []string
	Description []string
}

// SelectorStrategy reads the first non-empty match of each selector list.
type SelectorStrategy struct {
	Label     string
	Selectors Selectors
}

func (s SelectorStrategy) Name() string { return s.Label }

func (s SelectorStrategy) Extract(doc *goquery.Document, page *url.URL) (JobRecord, bool) {
	rec := JobRecord{
		Title:       firstText(doc, s.Selectors.Title),
		Company:     firstText(doc, s.Selectors.Company),
		Location:    firstText(doc, s.Selectors.Location),
		Description: firstBlock(doc, s.Selectors.Description),
		URL:         page.String(),
		Source:      s.Label,
	}
	return rec, !rec.Empty()
}

// MetaStrategy reads Open Graph tags and the document title.
type MetaStrategy struct{}

func (MetaStrategy) Name() string { return "meta" }

func (MetaStrategy) Extract(doc *goquery.Document, page *url.URL) (JobRecord, bool) {
	title := metaContent(doc, "og:title")
	if title == "" {
		title = util.CollapseSpace(doc.Find("title").First().Text())
	}
	rec := JobRecord{
		Title:       title,
		Description: metaContent(doc, "og:description"),
		URL:         page.String(),
		Source:      page.Hostname(),
	}
	return rec, !rec.Empty()
}

// Board strategies.
var (
	LinkedIn = SelectorStrategy{Label: "LinkedIn", Selectors: Selectors{
		Title: []string{
			".job-details-jobs-unified-top-card__job-title h1",
			".jobs-unified-top-card__job-title h1",
			"h1.topcard__title",
		},
		Company: []string{
			".job-details-jobs-unified-top-card__company-name a",
			".jobs-unified-top-card__company-name a",
			".topcard__org-name-link",
		},
		Location: []string{
			".job-details-jobs-unified-top-card__bullet",
			".jobs-unified-top-card__bullet",
			".topcard__flavor--bullet",
		},
		Description: []string{".jobs-description__content", ".description__text"},
	}}

	Indeed = SelectorStrategy{Label: "Indeed", Selectors: Selectors{
		Title: []string{
			`h1[data-testid="jobsearch-JobInfoHeader-title"] span`,
			"h1.jobsearch-JobInfoHeader-title",
		},
		Company: []string{
			`[data-testid="inlineHeader-companyName"] a`,
			"[data-company-name]",
			".jobsearch-InlineCompanyRating-companyName",
		},
		Location: []string{
			`[data-testid="job-location"]`,
			`[data-testid="inlineHeader-companyLocation"]`,
		},
		Description: []string{"#jobDescriptionText", ".jobsearch-jobDescriptionText"},
	}}

	Glassdoor = SelectorStrategy{Label: "Glassdoor", Selectors: Selectors{
		Title:       []string{`[data-test="job-title"]`, `h1[data-test="jobTitle"]`},
		Company:     []string{`[data-test="employer-name"]`, ".EmployerProfile_profileContainer__63w3R span"},
		Location:    []string{`[data-test="location"]`},
		Description: []string{`[class*="JobDetails_jobDescription"]`, ".desc"},
	}}

	Naukri = SelectorStrategy{Label: "Naukri", Selectors: Selectors{
		Title: []string{
			"h1.styles_jd-header-title__rZwM1",
			"h1.jd-header-title",
			`[class*="jd-header-title"]`,
		},
		Company:     []string{".jd-header-comp-name a", `[class*="jd-header-comp-name"]`},
		Location:    []string{".location-details li", `[class*="location"]`},
		Description: []string{".job-desc", `[class*="job-desc"]`},
	}}
)

func firstText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		if text := util.CollapseSpace(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// firstBlock keeps line structure: each non-blank line trimmed, blank runs dropped.
func firstBlock(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		var lines []string
		for _, line := range strings.Split(blockText(node), "\n") {
			if line = util.CollapseSpace(line); line != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			return strings.Join(lines, "\n")
		}
	}
	return ""
}

var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Li: true, atom.Ul: true, atom.Ol: true,
	atom.Section: true, atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true,
	atom.Tr: true, atom.Blockquote: true,
}

// blockText renders text like innerText would: line breaks at <br> and after
// block elements, scripts and styles skipped.
func blockText(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Br:
				b.WriteByte('\n')
				return
			case atom.Script, atom.Style, atom.Noscript:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.DataAtom] {
			b.WriteByte('\n')
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return b.String()
}

func metaContent(doc *goquery.Document, property string) string {
	content, _ := doc.Find(`meta[property="` + property + `"]`).First().Attr("content")
	return strings.TrimSpace(content)
}
