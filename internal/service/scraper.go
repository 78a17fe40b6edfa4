package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/rodrigueslp/ca-youtube-go/internal/constants"
	"github.com/rodrigueslp/ca-youtube-go/internal/domain"
	"github.com/rodrigueslp/ca-youtube-go/internal/service/cache"
	"github.com/rodrigueslp/ca-youtube-go/internal/util"
	"github.com/rodrigueslp/ca-youtube-go/pkg/errors"
)

// ScraperResolver resolves @handles to channel ids by scraping the public
// channel page. Used as a fallback when the search API is unavailable or
// quota-exhausted (a search costs 100 units, a page fetch costs none).
type ScraperResolver struct {
	httpClient *http.Client
	cache      *cache.CacheService
	logger     *zap.Logger
	baseURL    string
}

const youtubeBaseURL = "https://www.youtube.com"

func NewScraperResolver(cacheSvc *cache.CacheService, logger *zap.Logger) *ScraperResolver {
	return &ScraperResolver{
		httpClient: &http.Client{
			Timeout: constants.ScraperConfig.Timeout,
		},
		cache:   cacheSvc,
		logger:  logger,
		baseURL: youtubeBaseURL,
	}
}

// ResolveHandle fetches the channel page for the handle and extracts the
// canonical channel id from its metadata.
func (s *ScraperResolver) ResolveHandle(ctx context.Context, handle string) (string, error) {
	normalized := strings.TrimPrefix(util.Normalize(handle), "@")
	if normalized == "" {
		return "", errors.NewValidationError("handle must not be empty", "handle", handle)
	}

	if s.cache != nil {
		if channelID, hit := s.cache.GetResolvedHandle(ctx, normalized); hit {
			s.logger.Debug("Scraper cache hit", zap.String("handle", normalized))
			return channelID, nil
		}
	}

	s.logger.Info("Resolving handle via channel page (FALLBACK MODE)",
		zap.String("handle", normalized))

	url := fmt.Sprintf("%s/@%s", s.baseURL, normalized)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", constants.ScraperConfig.UserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", errors.NewUpstreamError("channel page request failed", "scrape", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", errors.NewNotFoundError("channel handle", handle)
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.NewUpstreamError(
			fmt.Sprintf("unexpected status code: %d", resp.StatusCode), "scrape", nil)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", errors.NewUpstreamError("channel page parse failed", "scrape", err)
	}

	channelID := extractChannelID(doc)
	if channelID == "" {
		return "", &PageStructureError{
			Message: "no channel id found in page metadata",
			Handle:  normalized,
		}
	}

	if s.cache != nil {
		s.cache.SetResolvedHandle(ctx, normalized, channelID)
	}

	s.logger.Info("Handle resolved via scraper",
		zap.String("handle", normalized),
		zap.String("channel", channelID))

	return channelID, nil
}

// extractChannelID checks the page's identifier meta, canonical link, and
// og:url in that order.
func extractChannelID(doc *goquery.Document) string {
	if id, ok := doc.Find(`meta[itemprop="identifier"]`).Attr("content"); ok {
		if strings.HasPrefix(id, "UC") {
			return id
		}
	}

	if href, ok := doc.Find(`link[rel="canonical"]`).Attr("href"); ok {
		if id := channelIDFromURL(href); id != "" {
			return id
		}
	}

	if content, ok := doc.Find(`meta[property="og:url"]`).Attr("content"); ok {
		if id := channelIDFromURL(content); id != "" {
			return id
		}
	}

	return ""
}

func channelIDFromURL(url string) string {
	const marker = "/channel/"
	idx := strings.Index(url, marker)
	if idx == -1 {
		return ""
	}

	id := url[idx+len(marker):]
	if cut := strings.IndexAny(id, "/?&"); cut != -1 {
		id = id[:cut]
	}

	if strings.HasPrefix(id, "UC") {
		return id
	}
	return ""
}

// PageStructureError signals that the channel page markup no longer
// carries the expected metadata.
type PageStructureError struct {
	Message string
	Handle  string
}

func (e *PageStructureError) Error() string {
	return fmt.Sprintf("%s (handle: %s)", e.Message, e.Handle)
}

func IsPageStructureError(err error) bool {
	_, ok := err.(*PageStructureError)
	return ok
}

var _ domain.HandleResolver = (*ScraperResolver)(nil)
