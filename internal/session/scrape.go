package session

import (
	"strings"

	"golang.org/x/net/html"
)

// embedHosts orders the iframe probes. Earlier entries win even when a later
// one appears first in the document.
var embedHosts = []string{"vimeo", "youtube", "wistia", "player"}

// playerAttrs orders the data-attribute probes on player containers.
var playerAttrs = []string{"data-video-url", "data-src", "data-video-id"}

// playerClasses marks container elements worth probing for data attributes.
var playerClasses = []string{"video-player", "wistia_embed", "vimeo-player"}

// findVideoElementSource returns the src of the first <source> nested in a
// <video>, or of a bare <video>.
func findVideoElementSource(doc *html.Node) (string, bool) {
	var found string
	walk(doc, func(n *html.Node) bool {
		switch n.Data {
		case "video":
			if src := attr(n, "src"); src != "" {
				found = src
				return false
			}
		case "source":
			if n.Parent != nil && n.Parent.Type == html.ElementNode && n.Parent.Data == "video" {
				if src := attr(n, "src"); src != "" {
					found = src
					return false
				}
			}
		}
		return true
	})
	return found, found != ""
}

// findEmbedIframe probes for known embed iframes in host-priority order. A
// vimeo embed cannot be fetched directly, so it resolves to the page itself
// with a referer hint; other embeds resolve to the iframe address.
func findEmbedIframe(doc *html.Node, pageURL string) (Source, bool) {
	for _, host := range embedHosts {
		var src string
		walk(doc, func(n *html.Node) bool {
			if n.Data != "iframe" {
				return true
			}
			if s := attr(n, "src"); strings.Contains(s, host) {
				src = s
				return false
			}
			return true
		})
		if src == "" {
			continue
		}
		if host == "vimeo" {
			return Source{Locator: pageURL, NeedsReferer: true, Referer: pageURL}, true
		}
		return Source{Locator: src}, true
	}
	return Source{}, false
}

// findPlayerDataAttribute probes player containers for a media address held
// in a data attribute.
func findPlayerDataAttribute(doc *html.Node) (string, bool) {
	var found string
	probe := func(n *html.Node) bool {
		for _, name := range playerAttrs {
			if v := attr(n, name); v != "" {
				found = v
				return false
			}
		}
		return true
	}

	walk(doc, func(n *html.Node) bool {
		if attr(n, "data-video-url") != "" || attr(n, "data-src") != "" || hasPlayerClass(n) {
			return probe(n)
		}
		return true
	})
	return found, found != ""
}

// findAuthenticityToken extracts the hidden CSRF token of a login form, when
// the platform embeds one.
func findAuthenticityToken(page string) string {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return ""
	}
	var token string
	walk(doc, func(n *html.Node) bool {
		if n.Data == "input" && attr(n, "name") == "authenticity_token" {
			token = attr(n, "value")
			return false
		}
		return true
	})
	return token
}

func hasPlayerClass(n *html.Node) bool {
	classes := strings.Fields(attr(n, "class"))
	for _, class := range classes {
		for _, want := range playerClasses {
			if class == want {
				return true
			}
		}
	}
	return false
}

// walk visits element nodes in document order until visit returns false.
func walk(n *html.Node, visit func(*html.Node) bool) bool {
	if n.Type == html.ElementNode {
		if !visit(n) {
			return false
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if !walk(child, visit) {
			return false
		}
	}
	return true
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}
