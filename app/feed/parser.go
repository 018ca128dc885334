package feed

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	xpp "github.com/mmcdole/goxpp"
	"golang.org/x/net/html/charset"
)

// Parser is safe for concurrent use. gofeed parsers keep per-document state,
// so each Run gets its own.
type Parser struct {
	now func() time.Time
}

func NewParser() *Parser {
	return &Parser{
		now: time.Now,
	}
}

// Run parses an RSS document. Parsing stops early with ctx.Err() once ctx is
// done. Items without a title or an audio reference are skipped; an empty item
// list is not an error.
func (p *Parser) Run(ctx context.Context, data []byte) (*Feed, error) {
	parsed, err := gofeed.NewParser().Parse(&contextReader{ctx: ctx, r: bytes.NewReader(data)})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidStructure, err)
	}

	if parsed.FeedType != "rss" {
		return nil, fmt.Errorf("%w: expected an RSS channel, got %s", ErrInvalidStructure, cmp.Or(parsed.FeedType, "unknown format"))
	}

	if !hasChannel(data) {
		return nil, fmt.Errorf("%w: document has no channel element", ErrInvalidStructure)
	}

	metadata := Metadata{
		Title:    strings.TrimSpace(parsed.Title),
		ImageURL: p.extractImage(parsed),
	}

	items := make([]Item, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		normalized, ok := p.normalizeItem(item, metadata.Title)
		if !ok {
			continue
		}
		items = append(items, normalized)
	}

	return &Feed{Metadata: metadata, Items: items}, nil
}

func (p *Parser) extractImage(parsed *gofeed.Feed) string {
	if parsed.ITunesExt != nil {
		if image := strings.TrimSpace(parsed.ITunesExt.Image); image != "" {
			return image
		}
	}
	if parsed.Image != nil {
		return strings.TrimSpace(parsed.Image.URL)
	}
	return ""
}

func (p *Parser) normalizeItem(item *gofeed.Item, podcastTitle string) (Item, bool) {
	title := strings.TrimSpace(item.Title)
	audioURL := p.extractAudioURL(item)
	if title == "" || audioURL == "" {
		return Item{}, false
	}

	normalized := Item{
		GUID: cmp.Or(
			strings.TrimSpace(item.GUID),
			audioURL,
			strings.TrimSpace(item.Link),
			title+"-"+podcastTitle,
		),
		Title:    title,
		AudioURL: audioURL,
	}

	if item.PublishedParsed != nil {
		normalized.PubDate = item.PublishedParsed.UTC()
	} else {
		normalized.PubDate = p.now().UTC()
	}

	if item.ITunesExt != nil {
		normalized.Duration = ParseDuration(item.ITunesExt.Duration)
	}

	return normalized, true
}

// extractAudioURL prefers the enclosure, then media:content, then the item link.
func (p *Parser) extractAudioURL(item *gofeed.Item) string {
	for _, enclosure := range item.Enclosures {
		if enclosure != nil && strings.TrimSpace(enclosure.URL) != "" {
			return strings.TrimSpace(enclosure.URL)
		}
	}

	if media, ok := item.Extensions["media"]; ok {
		for _, content := range media["content"] {
			if url := strings.TrimSpace(content.Attrs["url"]); url != "" {
				return url
			}
		}
	}

	return strings.TrimSpace(item.Link)
}

var utf8BOM = []byte("\xef\xbb\xbf")

// hasChannel reports whether the document root has a channel child element.
func hasChannel(data []byte) bool {
	p := xpp.NewXMLPullParser(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)), false, charset.NewReaderLabel)

	depth := 0
	for {
		event, err := p.Next()
		if err != nil {
			return false
		}

		switch event {
		case xpp.StartTag:
			if depth == 1 && strings.EqualFold(p.Name, "channel") {
				return true
			}
			depth++
		case xpp.EndTag:
			depth--
			if depth <= 0 {
				return false
			}
		case xpp.EndDocument:
			return false
		}
	}
}

const readChunkSize = 32 << 10

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *contextReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	if len(p) > readChunkSize {
		p = p[:readChunkSize]
	}
	return r.r.Read(p)
}
