package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"roamwyth/internal/observability"
)

const (
	upstreamScraper   = "metadata"
	scrapeTimeout     = 5 * time.Second
	maxScrapeBytes    = 2 << 20
	maxScrapeRedirect = 3
	maxPageTextRunes  = 8000
)

var errBlockedAddress = errors.New("address is not allowed")

// Carrier-grade NAT is not covered by netip's IsPrivate.
var cgnatPrefix = netip.MustParsePrefix("100.64.0.0/10")

// IsBlockedAddr reports whether ip must never be fetched on a user's behalf.
func IsBlockedAddr(ip netip.Addr) bool {
	ip = ip.Unmap()
	return !ip.IsValid() ||
		ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() ||
		ip.IsMulticast() ||
		ip.IsUnspecified() ||
		cgnatPrefix.Contains(ip)
}

type PageMetadata struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image,omitempty"`
	SiteName    string `json:"site_name,omitempty"`
	Text        string `json:"-"`
}

// MetadataScraper fetches public web pages and reads their Open Graph tags.
type MetadataScraper struct {
	client   *http.Client
	resolver *net.Resolver
	blocked  func(netip.Addr) bool
	policy   *bluemonday.Policy
}

func NewMetadataScraper() *MetadataScraper {
	s := &MetadataScraper{
		resolver: net.DefaultResolver,
		blocked:  IsBlockedAddr,
		policy:   bluemonday.StrictPolicy(),
	}

	dialer := &net.Dialer{
		Timeout: scrapeTimeout,
		// Runs after DNS resolution, so a name that re-resolves to an
		// internal address between validation and connect is still refused.
		Control: func(network, address string, _ syscall.RawConn) error {
			host, _, err := net.SplitHostPort(address)
			if err != nil {
				return err
			}
			ip, err := netip.ParseAddr(host)
			if err != nil || s.blocked(ip) {
				return errBlockedAddress
			}
			return nil
		},
	}

	s.client = &http.Client{
		Timeout: scrapeTimeout,
		Transport: &http.Transport{
			Proxy:                 nil,
			DialContext:           dialer.DialContext,
			TLSHandshakeTimeout:   scrapeTimeout,
			ResponseHeaderTimeout: scrapeTimeout,
			MaxIdleConns:          10,
			IdleConnTimeout:       30 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > maxScrapeRedirect {
				return fmt.Errorf("stopped after %d redirects", maxScrapeRedirect)
			}
			return s.validate(req.Context(), req.URL)
		},
	}
	return s
}

// ValidateURL parses raw and checks it is an http(s) URL whose host resolves
// only to public addresses.
func (s *MetadataScraper) ValidateURL(ctx context.Context, raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return nil, newError(ErrBadRequest, "invalid url")
	}
	if err := s.validate(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *MetadataScraper) validate(ctx context.Context, u *url.URL) error {
	if u.Scheme != "http" && u.Scheme != "https" {
		return newError(ErrBadRequest, "only http and https urls are allowed")
	}
	if u.User != nil {
		return newError(ErrBadRequest, "urls with credentials are not allowed")
	}
	host := u.Hostname()
	if host == "" || strings.EqualFold(host, "localhost") || strings.HasSuffix(strings.ToLower(host), ".localhost") {
		return newError(ErrBadRequest, "url host is not allowed")
	}

	if ip, err := netip.ParseAddr(host); err == nil {
		if s.blocked(ip) {
			return newError(ErrBadRequest, "url host is not allowed")
		}
		return nil
	}

	addrs, err := s.resolver.LookupNetIP(ctx, "ip", host)
	if err != nil || len(addrs) == 0 {
		return newError(ErrBadRequest, "url host could not be resolved")
	}
	for _, ip := range addrs {
		if s.blocked(ip) {
			return newError(ErrBadRequest, "url host is not allowed")
		}
	}
	return nil
}

func (s *MetadataScraper) Fetch(ctx context.Context, raw string) (*PageMetadata, error) {
	u, err := s.ValidateURL(ctx, raw)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, newError(ErrBadRequest, "invalid url")
	}
	req.Header.Set("User-Agent", "roamwyth-link-preview/1.0")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.client.Do(req)
	if err != nil {
		var svcErr *Error
		if errors.As(err, &svcErr) {
			return nil, svcErr
		}
		if errors.Is(err, errBlockedAddress) {
			return nil, newError(ErrBadRequest, "url host is not allowed")
		}
		observability.RecordUpstream(upstreamScraper, observability.OutcomeError)
		return nil, newError(ErrBadGateway, "failed to fetch url")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		observability.RecordUpstream(upstreamScraper, observability.OutcomeError)
		return nil, newError(ErrBadGateway, "url returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxScrapeBytes))
	if err != nil {
		observability.RecordUpstream(upstreamScraper, observability.OutcomeUnparseable)
		return nil, newError(ErrBadGateway, "url did not return readable html")
	}
	observability.RecordUpstream(upstreamScraper, observability.OutcomeSuccess)

	meta := s.extract(doc)
	meta.URL = resp.Request.URL.String()
	if meta.Image != "" {
		if ref, err := url.Parse(meta.Image); err == nil {
			meta.Image = resp.Request.URL.ResolveReference(ref).String()
		}
	}
	return meta, nil
}

func (s *MetadataScraper) extract(doc *goquery.Document) *PageMetadata {
	meta := &PageMetadata{
		Title:       s.clean(firstNonEmpty(metaContent(doc, "og:title"), doc.Find("title").First().Text())),
		Description: s.clean(firstNonEmpty(metaContent(doc, "og:description"), metaContent(doc, "description"))),
		Image:       strings.TrimSpace(metaContent(doc, "og:image")),
		SiteName:    s.clean(metaContent(doc, "og:site_name")),
	}

	doc.Find("script, style, noscript, template").Remove()
	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	if runes := []rune(text); len(runes) > maxPageTextRunes {
		text = string(runes[:maxPageTextRunes])
	}
	meta.Text = text
	return meta
}

// clean strips any markup and returns plain text.
func (s *MetadataScraper) clean(value string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(value)))
}

func metaContent(doc *goquery.Document, name string) string {
	selector := fmt.Sprintf(`meta[property=%q], meta[name=%q]`, name, name)
	content, _ := doc.Find(selector).First().Attr("content")
	return content
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
