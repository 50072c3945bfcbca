package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly"

	"retmusic/types"
)

// Scraper extracts search results straight from the YouTube results
// page when no API-based source is available.
type Scraper struct {
	timeout time.Duration
}

// NewScraper creates a page scraper
func NewScraper() *Scraper {
	return &Scraper{timeout: 15 * time.Second}
}

var ytInitialDataPattern = regexp.MustCompile(`(?s)var ytInitialData = (\{.*?\});`)

// Regex fallbacks for when the results page layout changes
var videoPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?s)"videoId":"([^"]+)".*?"title":\{"runs":\[\{"text":"([^"]+)"\}.*?"ownerText":\{"runs":\[\{"text":"([^"]+)"\}`),
	regexp.MustCompile(`(?s)"videoId":"([^"]+)".*?"title":\{"simpleText":"([^"]+)"\}.*?"longBylineText":\{"runs":\[\{"text":"([^"]+)"\}`),
}

// Search fetches the results page for query and parses the embedded
// ytInitialData JSON, falling back to regex extraction.
func (s *Scraper) Search(query string, maxResults int) ([]types.ProviderVideo, error) {
	body, err := s.fetchResultsPage(query)
	if err != nil {
		return nil, err
	}

	script, ok := s.findInitialData(body)
	if ok {
		videos := s.parseInitialData(script, maxResults)
		if len(videos) > 0 {
			log.Printf("Scraper: extracted %d videos from page data", len(videos))
			return videos, nil
		}
	}

	videos := s.extractWithRegex(string(body), maxResults)
	if len(videos) == 0 {
		return nil, fmt.Errorf("no videos found in results page")
	}
	log.Printf("Scraper: extracted %d videos with regex fallback", len(videos))
	return videos, nil
}

// fetchResultsPage downloads the search results page with browser-like
// headers
func (s *Scraper) fetchResultsPage(query string) ([]byte, error) {
	var body []byte
	var fetchErr error

	c := colly.NewCollector(colly.AllowURLRevisit())
	c.SetRequestTimeout(s.timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
		r.Headers.Set("Cache-Control", "no-cache")
	})
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})
	c.OnError(func(r *colly.Response, err error) {
		fetchErr = err
	})

	searchURL := "https://www.youtube.com/results?search_query=" + url.QueryEscape(query)
	if err := c.Visit(searchURL); err != nil {
		return nil, err
	}
	if fetchErr != nil {
		return nil, fetchErr
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("empty results page")
	}
	return body, nil
}

// findInitialData locates the ytInitialData blob inside the page's
// script tags
func (s *Scraper) findInitialData(body []byte) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", false
	}

	var script string
	doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := sel.Text()
		if matches := ytInitialDataPattern.FindStringSubmatch(text); len(matches) > 1 {
			script = matches[1]
			return false
		}
		return true
	})
	return script, script != ""
}

// parseInitialData walks the decoded ytInitialData structure down to
// the videoRenderer entries
func (s *Scraper) parseInitialData(script string, maxResults int) []types.ProviderVideo {
	var data map[string]any
	if err := json.Unmarshal([]byte(script), &data); err != nil {
		log.Printf("Scraper: failed to parse page data: %v", err)
		return nil
	}

	sections, ok := navigate(data,
		"contents", "twoColumnSearchResultsRenderer", "primaryContents",
		"sectionListRenderer", "contents").([]any)
	if !ok {
		return nil
	}

	var videos []types.ProviderVideo
	for _, section := range sections {
		items, ok := navigate(section, "itemSectionRenderer", "contents").([]any)
		if !ok {
			continue
		}
		for _, item := range items {
			renderer, ok := navigate(item, "videoRenderer").(map[string]any)
			if !ok {
				continue
			}
			if video, ok := s.extractVideo(renderer); ok {
				videos = append(videos, video)
				if len(videos) >= maxResults {
					return videos
				}
			}
		}
	}
	return videos
}

// extractVideo pulls one provider record out of a videoRenderer object
func (s *Scraper) extractVideo(renderer map[string]any) (types.ProviderVideo, bool) {
	videoID, _ := renderer["videoId"].(string)
	if videoID == "" {
		return types.ProviderVideo{}, false
	}

	title := textFromRuns(renderer["title"])
	author := textFromRuns(renderer["ownerText"])
	if title == "" {
		title = "Unknown Title"
	}
	if author == "" {
		author = "Unknown Author"
	}

	thumbnailURL := fmt.Sprintf("https://img.youtube.com/vi/%s/mqdefault.jpg", videoID)
	if thumbs, ok := navigate(renderer, "thumbnail", "thumbnails").([]any); ok && len(thumbs) > 0 {
		if last, ok := thumbs[len(thumbs)-1].(map[string]any); ok {
			if u, ok := last["url"].(string); ok && u != "" {
				thumbnailURL = u
			}
		}
	}

	return types.ProviderVideo{
		VideoID:         videoID,
		Title:           title,
		Author:          author,
		LengthSeconds:   parseDuration(textFromRuns(renderer["lengthText"])),
		ViewCount:       parseViewCount(textFromRuns(renderer["viewCountText"])),
		VideoThumbnails: []types.Thumbnail{{URL: thumbnailURL, Quality: "default"}},
	}, true
}

// extractWithRegex is the last-ditch parser for unrecognized layouts
func (s *Scraper) extractWithRegex(html string, maxResults int) []types.ProviderVideo {
	var videos []types.ProviderVideo
	seen := make(map[string]bool)

	for _, pattern := range videoPatterns {
		for _, match := range pattern.FindAllStringSubmatch(html, maxResults) {
			if len(match) < 4 || seen[match[1]] {
				continue
			}
			seen[match[1]] = true
			videos = append(videos, types.ProviderVideo{
				VideoID: match[1],
				Title:   match[2],
				Author:  match[3],
				VideoThumbnails: []types.Thumbnail{{
					URL: fmt.Sprintf("https://img.youtube.com/vi/%s/mqdefault.jpg", match[1]),
				}},
			})
			if len(videos) >= maxResults {
				return videos
			}
		}
		if len(videos) > 0 {
			break
		}
	}
	return videos
}

// navigate walks nested maps by key, returning nil when any hop is
// missing
func navigate(data any, path ...string) any {
	current := data
	for _, key := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = m[key]
		if !ok {
			return nil
		}
	}
	return current
}

// textFromRuns extracts text from YouTube's {"runs":[{"text":...}]} or
// {"simpleText":...} shapes
func textFromRuns(obj any) string {
	m, ok := obj.(map[string]any)
	if !ok {
		return ""
	}
	if simple, ok := m["simpleText"].(string); ok {
		return simple
	}
	runs, ok := m["runs"].([]any)
	if !ok {
		return ""
	}
	var b strings.Builder
	for _, run := range runs {
		if rm, ok := run.(map[string]any); ok {
			if text, ok := rm["text"].(string); ok {
				b.WriteString(text)
			}
		}
	}
	return b.String()
}

// parseDuration converts "3:45" or "1:23:45" to seconds
func parseDuration(text string) int {
	if text == "" {
		return 0
	}
	parts := strings.Split(text, ":")
	values := make([]int, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return 0
		}
		values = append(values, v)
	}
	switch len(values) {
	case 2:
		return values[0]*60 + values[1]
	case 3:
		return values[0]*3600 + values[1]*60 + values[2]
	default:
		return 0
	}
}

var viewCountPattern = regexp.MustCompile(`([\d,\.]+)\s*([KMB]?)`)

// parseViewCount converts "1.2M views" style text to a number
func parseViewCount(text string) int64 {
	if text == "" {
		return 0
	}
	match := viewCountPattern.FindStringSubmatch(strings.ToUpper(text))
	if match == nil {
		return 0
	}
	num, err := strconv.ParseFloat(strings.ReplaceAll(match[1], ",", ""), 64)
	if err != nil {
		return 0
	}
	switch match[2] {
	case "K":
		num *= 1_000
	case "M":
		num *= 1_000_000
	case "B":
		num *= 1_000_000_000
	}
	return int64(num)
}
