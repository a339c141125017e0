package plugins

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/caelumsys/caelum/command"
	"github.com/caelumsys/caelum/loader"
)

// Metadata is what a page says about itself in its head.
type Metadata struct {
	Title       string
	Description string
	Site        string
	URL         string
}

// Web returns commands that fetch pages.
func Web(opts ...Option) loader.Unit {
	o := newOptions(opts)

	return loader.Static("web",
		command.Definition{
			Pattern:     "get title of {url}",
			Description: "Fetch a web page and show its title",
			Safe:        true,
			Handler: func(ctx context.Context, args command.Args) (string, error) {
				md, err := o.fetchMetadata(ctx, args.Get("url"))
				if err != nil {
					return "", err
				}
				out := "🌐 " + md.Title
				if md.Site != "" && md.Site != md.Title {
					out += " (" + md.Site + ")"
				}
				if md.Description != "" {
					out += "\n" + md.Description
				}
				return out, nil
			},
		},
	)
}

func (o *options) fetchMetadata(ctx context.Context, raw string) (*Metadata, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("no url given")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "caelum/1.0")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", u, resp.Status)
	}

	d, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}
	md := parseMetadata(d)
	if md.URL == "" {
		md.URL = u.String()
	}
	if md.Title == "" {
		return nil, fmt.Errorf("%s has no title", u)
	}
	return md, nil
}

// parseMetadata prefers og: and twitter: tags over the plain title.
func parseMetadata(d *goquery.Document) *Metadata {
	md := &Metadata{}

	d.Find("meta").Each(func(_ int, s *goquery.Selection) {
		key, ok := s.Attr("property")
		if !ok {
			key, ok = s.Attr("name")
		}
		content, hasContent := s.Attr("content")
		if !ok || !hasContent {
			return
		}

		p := strings.Split(key, ":")
		if len(p) < 2 || (p[0] != "twitter" && p[0] != "og") {
			if key == "description" && md.Description == "" {
				md.Description = content
			}
			return
		}

		switch p[1] {
		case "site_name":
			md.Site = content
		case "site":
			if md.Site == "" {
				md.Site = content
			}
		case "title":
			if md.Title == "" {
				md.Title = content
			}
		case "description":
			md.Description = content
		case "url":
			md.URL = content
		}
	})

	if md.Title == "" {
		md.Title = strings.TrimSpace(d.Find("title").First().Text())
	}
	return md
}
