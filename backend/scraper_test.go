package backend

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	tests := map[string]int{
		"3:45":    225,
		"0:59":    59,
		"10:00":   600,
		"1:23:45": 5025,
		"":        0,
		"bogus":   0,
		"5":       0,
	}
	for text, expected := range tests {
		assert.Equal(t, expected, parseDuration(text), "parseDuration(%q)", text)
	}
}

func TestParseViewCount(t *testing.T) {
	tests := map[string]int64{
		"1,234 views":      1234,
		"1.2M views":       1_200_000,
		"875K views":       875_000,
		"2.1B views":       2_100_000_000,
		"12 views":         12,
		"":                 0,
		"no views at all?": 0,
	}
	for text, expected := range tests {
		assert.Equal(t, expected, parseViewCount(text), "parseViewCount(%q)", text)
	}
}

func TestTextFromRuns(t *testing.T) {
	var runsShape map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{"runs":[{"text":"Hello "},{"text":"World"}]}`), &runsShape))
	assert.Equal(t, "Hello World", textFromRuns(runsShape))

	var simpleShape map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{"simpleText":"Plain"}`), &simpleShape))
	assert.Equal(t, "Plain", textFromRuns(simpleShape))

	assert.Empty(t, textFromRuns(nil))
	assert.Empty(t, textFromRuns(map[string]any{"other": 1}))
}

func TestNavigate(t *testing.T) {
	var data map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{"a":{"b":{"c":[1,2,3]}}}`), &data))

	assert.NotNil(t, navigate(data, "a", "b", "c"))
	assert.Nil(t, navigate(data, "a", "missing"))
	assert.Nil(t, navigate(data, "a", "b", "c", "too-deep"))
	assert.Nil(t, navigate(nil, "a"))
}

const initialDataPage = `<html><head>
<script>var other = 1;</script>
<script>var ytInitialData = {"contents":{"twoColumnSearchResultsRenderer":{"primaryContents":{"sectionListRenderer":{"contents":[{"itemSectionRenderer":{"contents":[
{"videoRenderer":{"videoId":"abc123","title":{"runs":[{"text":"First Song"}]},"ownerText":{"runs":[{"text":"First Artist"}]},"lengthText":{"simpleText":"3:45"},"viewCountText":{"simpleText":"1.2M views"},"thumbnail":{"thumbnails":[{"url":"https://i.ytimg.com/small.jpg"},{"url":"https://i.ytimg.com/large.jpg"}]}}},
{"adSlotRenderer":{"junk":true}},
{"videoRenderer":{"videoId":"def456","title":{"simpleText":"Second Song"},"ownerText":{"runs":[{"text":"Second Artist"}]}}}
]}}]}}}}};</script>
</head><body></body></html>`

func TestFindInitialData(t *testing.T) {
	s := NewScraper()

	script, ok := s.findInitialData([]byte(initialDataPage))
	require.True(t, ok)
	assert.True(t, json.Valid([]byte(script)), "extracted blob must be valid JSON")

	_, ok = s.findInitialData([]byte("<html><script>nothing here</script></html>"))
	assert.False(t, ok)
}

func TestParseInitialData(t *testing.T) {
	s := NewScraper()

	script, ok := s.findInitialData([]byte(initialDataPage))
	require.True(t, ok)

	videos := s.parseInitialData(script, 10)
	require.Len(t, videos, 2)

	first := videos[0]
	assert.Equal(t, "abc123", first.VideoID)
	assert.Equal(t, "First Song", first.Title)
	assert.Equal(t, "First Artist", first.Author)
	assert.Equal(t, 225, first.LengthSeconds)
	assert.Equal(t, int64(1_200_000), first.ViewCount)
	require.Len(t, first.VideoThumbnails, 1)
	assert.Equal(t, "https://i.ytimg.com/large.jpg", first.VideoThumbnails[0].URL, "largest thumbnail wins")

	second := videos[1]
	assert.Equal(t, "def456", second.VideoID)
	assert.Equal(t, "Second Song", second.Title)
	// No thumbnail data falls back to the predictable image URL
	require.Len(t, second.VideoThumbnails, 1)
	assert.Contains(t, second.VideoThumbnails[0].URL, "def456")
}

func TestParseInitialDataRespectsLimit(t *testing.T) {
	s := NewScraper()

	script, ok := s.findInitialData([]byte(initialDataPage))
	require.True(t, ok)

	videos := s.parseInitialData(script, 1)
	assert.Len(t, videos, 1)
}

func TestExtractWithRegex(t *testing.T) {
	s := NewScraper()

	html := `junk "videoId":"xyz789","stuff":1,"title":{"runs":[{"text":"Regex Song"}]},"more":2,"ownerText":{"runs":[{"text":"Regex Artist"}]} trailing`

	videos := s.extractWithRegex(html, 5)
	require.Len(t, videos, 1)
	assert.Equal(t, "xyz789", videos[0].VideoID)
	assert.Equal(t, "Regex Song", videos[0].Title)
	assert.Equal(t, "Regex Artist", videos[0].Author)
}

func TestExtractWithRegexDeduplicates(t *testing.T) {
	s := NewScraper()

	fragment := `"videoId":"dup1","title":{"runs":[{"text":"Song"}]},"ownerText":{"runs":[{"text":"Artist"}]}`
	videos := s.extractWithRegex(fragment+" "+fragment, 5)
	assert.Len(t, videos, 1)
}

func TestExtractWithRegexNoMatches(t *testing.T) {
	s := NewScraper()
	assert.Empty(t, s.extractWithRegex("<html>nothing</html>", 5))
}
