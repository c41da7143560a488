// Package linkfetch builds short previews of referenced web pages.
package linkfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/sync/errgroup"

	"github.com/xiaot623/legalflow/internal/domain"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"

	defaultPreviewChars = 250
	minParagraphChars   = 100
	maxBodyBytes        = 2 << 20

	noTitle   = "No title found"
	noSummary = "Content summary not available."
)

// Options configures a Fetcher.
type Options struct {
	MaxLinks     int
	PreviewChars int
	Timeout      time.Duration
	Client       *http.Client
}

// Fetcher downloads pages and extracts a title and summary from each.
type Fetcher struct {
	client       *http.Client
	maxLinks     int
	previewChars int
	logger       *zap.Logger
}

// New creates a Fetcher.
func New(opts Options, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	preview := opts.PreviewChars
	if preview <= 0 {
		preview = defaultPreviewChars
	}
	return &Fetcher{
		client:       client,
		maxLinks:     opts.MaxLinks,
		previewChars: preview,
		logger:       logger,
	}
}

// SummarizeAll fetches up to MaxLinks urls concurrently. Results keep the
// order of urls. Failures become entries with StatusError.
func (f *Fetcher) SummarizeAll(ctx context.Context, urls []string) []domain.LinkSummary {
	if f.maxLinks > 0 && len(urls) > f.maxLinks {
		urls = urls[:f.maxLinks]
	}
	out := make([]domain.LinkSummary, len(urls))

	var g errgroup.Group
	for i, u := range urls {
		g.Go(func() error {
			out[i] = f.Summarize(ctx, u)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Summarize fetches one page.
func (f *Fetcher) Summarize(ctx context.Context, url string) domain.LinkSummary {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return failure(url, fmt.Sprintf("An exception occurred: %v", err))
	}
	req.Header.Set("User-Agent", "legalflow/1.0 (+link preview)")

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Debug("link fetch failed", zap.String("url", url), zap.Error(err))
		return failure(url, fmt.Sprintf("An exception occurred: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return failure(url, fmt.Sprintf("Failed to fetch with status: %d", resp.StatusCode))
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return failure(url, fmt.Sprintf("An exception occurred: %v", err))
	}

	title, summary := extract(doc)
	if title == "" {
		title = noTitle
	}
	if summary == "" {
		summary = noSummary
	}
	return domain.LinkSummary{
		URL:     url,
		Title:   title,
		Summary: preview(summary, f.previewChars),
		Status:  StatusSuccess,
	}
}

func failure(url, msg string) domain.LinkSummary {
	return domain.LinkSummary{URL: url, Title: "Error", Summary: msg, Status: StatusError}
}

// extract returns the document title and the best available summary: the
// meta description, else the first long paragraph.
func extract(doc *html.Node) (title, summary string) {
	var description, paragraph string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Title:
				if title == "" {
					title = textOf(n)
				}
			case atom.Meta:
				if description == "" && strings.EqualFold(attr(n, "name"), "description") {
					description = strings.TrimSpace(attr(n, "content"))
				}
			case atom.P:
				if paragraph == "" {
					if text := textOf(n); utf8.RuneCountInString(text) > minParagraphChars {
						paragraph = text
					}
				}
				return
			case atom.Script, atom.Style:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if description != "" {
		return title, description
	}
	return title, paragraph
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

// textOf concatenates the text under n with whitespace collapsed.
func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
