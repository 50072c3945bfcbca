package services

import (
	"sort"
	"strings"

	"retmusic/types"
)

const maxSuggestions = 6

// cannedSong is one entry in the offline suggestion tables
type cannedSong struct {
	id     string
	title  string
	author string
}

// genreCatalog maps genre keywords to canned suggestions. Matched before
// the artist catalog; matches from both are concatenated without dedup.
var genreCatalog = map[string][]cannedSong{
	"rock": {
		{"fJ9rUzIMcZQ", "Queen - Bohemian Rhapsody", "Queen"},
		{"iYYRH4apXDo", "Led Zeppelin - Stairway to Heaven", "Led Zeppelin"},
		{"v2AC41dglnM", "AC/DC - Thunderstruck", "AC/DC"},
	},
	"pop": {
		{"Zi_XLOBDo_Y", "Michael Jackson - Billie Jean", "Michael Jackson"},
		{"79fzeNUqQbQ", "Madonna - Like a Prayer", "Madonna"},
		{"TvnYmWpD_T8", "Prince - Purple Rain", "Prince"},
	},
	"classical": {
		{"o1FSN8_pp_o", "Mozart - Eine kleine Nachtmusik", "Mozart"},
		{"t3217H8JppI", "Beethoven - 9th Symphony", "Beethoven"},
		{"e2shtmSCBFA", "Bach - Air on the G String", "Bach"},
	},
	"jazz": {
		{"zqNTltOGh5c", "Miles Davis - So What", "Miles Davis"},
		{"KwIC6B_dvW4", "John Coltrane - Giant Steps", "John Coltrane"},
		{"vmDDOFXSgAs", "Dave Brubeck - Take Five", "Dave Brubeck"},
	},
	"hip hop": {
		{"omrqGdmKnmU", "2Pac - California Love", "2Pac"},
		{"_JZom_gVfuw", "The Notorious B.I.G. - Juicy", "The Notorious B.I.G."},
		{"_Yhyp-_hX2s", "Eminem - Lose Yourself", "Eminem"},
	},
	"country": {
		{"It7107ELQvY", "Johnny Cash - Ring of Fire", "Johnny Cash"},
		{"Ixrje2rXLMA", "Dolly Parton - Jolene", "Dolly Parton"},
		{"OJCq05ZTSn0", "Willie Nelson - On the Road Again", "Willie Nelson"},
	},
	"80s": {
		{"1k8craCGpgs", "Journey - Don't Stop Believin'", "Journey"},
		{"lDK9QqIzhwk", "Bon Jovi - Livin' on a Prayer", "Bon Jovi"},
		{"mKKPliplLCk", "Def Leppard - Pour Some Sugar on Me", "Def Leppard"},
	},
	"90s": {
		{"hTWKbfoikeg", "Nirvana - Smells Like Teen Spirit", "Nirvana"},
		{"qM0zINtulhM", "Pearl Jam - Alive", "Pearl Jam"},
		{"3mbBbFH9fAg", "Soundgarden - Black Hole Sun", "Soundgarden"},
	},
}

// artistCatalog maps artist-name keywords to canned suggestions
var artistCatalog = map[string][]cannedSong{
	"queen": {
		{"fJ9rUzIMcZQ", "Queen - Bohemian Rhapsody", "Queen"},
		{"-tJYN-eG1zk", "Queen - We Will Rock You", "Queen"},
	},
	"beatles": {
		{"A_MjCqQoLLA", "The Beatles - Hey Jude", "The Beatles"},
		{"2Q_ZzBGPdqE", "The Beatles - Help!", "The Beatles"},
	},
	"michael jackson": {
		{"Zi_XLOBDo_Y", "Michael Jackson - Billie Jean", "Michael Jackson"},
		{"sOnqjkJTMaA", "Michael Jackson - Thriller", "Michael Jackson"},
	},
	"nirvana": {
		{"hTWKbfoikeg", "Nirvana - Smells Like Teen Spirit", "Nirvana"},
		{"vabnZ9-ex7o", "Nirvana - Come as You Are", "Nirvana"},
	},
	"eminem": {
		{"_Yhyp-_hX2s", "Eminem - Lose Yourself", "Eminem"},
		{"YVkUvmDQ3HY", "Eminem - Without Me", "Eminem"},
	},
	"elvis": {
		{"gj0Rz-uP4Mk", "Elvis Presley - Jailhouse Rock", "Elvis Presley"},
		{"e9BLw4W5KU8", "Elvis Presley - Suspicious Minds", "Elvis Presley"},
	},
	"led zeppelin": {
		{"iYYRH4apXDo", "Led Zeppelin - Stairway to Heaven", "Led Zeppelin"},
		{"HQmmM_qwG4k", "Led Zeppelin - Whole Lotta Love", "Led Zeppelin"},
	},
	"abba": {
		{"XEjLoHdbVeE", "ABBA - Dancing Queen", "ABBA"},
		{"iyIOl-s7JTU", "ABBA - Take a Chance on Me", "ABBA"},
	},
}

// defaultSuggestions is returned when nothing in either table matches
var defaultSuggestions = []cannedSong{
	{"dQw4w9WgXcQ", "Rick Astley - Never Gonna Give You Up", "Rick Astley"},
	{"fJ9rUzIMcZQ", "Queen - Bohemian Rhapsody", "Queen"},
	{"YkgkThdzX-8", "John Lennon - Imagine", "John Lennon"},
}

// PopularQueries is the fixed list offered by the manual-mode panel
var PopularQueries = []string{
	"bohemian rhapsody",
	"hotel california",
	"stairway to heaven",
	"imagine",
	"billie jean",
	"smells like teen spirit",
}

// Suggest produces 1-6 offline results for a query. Matching is a
// case-insensitive substring check of each table keyword against the
// query; genre matches come first. Duplicates across tables are kept.
func Suggest(query string) []types.SearchResult {
	queryLower := strings.ToLower(query)

	var matched []cannedSong
	for _, keyword := range sortedKeys(genreCatalog) {
		if strings.Contains(queryLower, keyword) {
			matched = append(matched, genreCatalog[keyword]...)
		}
	}
	for _, keyword := range sortedKeys(artistCatalog) {
		if strings.Contains(queryLower, keyword) {
			matched = append(matched, artistCatalog[keyword]...)
		}
	}

	if len(matched) == 0 {
		matched = defaultSuggestions
	}
	if len(matched) > maxSuggestions {
		matched = matched[:maxSuggestions]
	}

	results := make([]types.SearchResult, 0, len(matched))
	for i, song := range matched {
		results = append(results, types.SearchResult{
			ID:              song.id,
			Title:           song.title,
			Author:          song.author,
			DurationSeconds: syntheticDuration(i),
			ViewCount:       syntheticViewCount(i),
			ThumbnailURL:    "https://img.youtube.com/vi/" + song.id + "/mqdefault.jpg",
			Tier:            types.TierSuggestion,
		})
	}
	return results
}

// Synthetic metadata is decorative. The original randomized these; fixed
// index-derived values keep suggestions deterministic for a given query.
func syntheticDuration(i int) int {
	return 180 + 30*(i%5)
}

func syntheticViewCount(i int) int64 {
	return int64(1_500_000 * (i + 1))
}

// Map iteration order is random; a stable key order keeps results
// deterministic for a fixed query.
func sortedKeys(catalog map[string][]cannedSong) []string {
	keys := make([]string, 0, len(catalog))
	for k := range catalog {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
