package main

import (
	"flag"
	"fmt"
	"log"

	ansi "github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"

	"retmusic/backend"
	"retmusic/cmd"
	"retmusic/services"
)

func main() {
	var (
		server      bool
		backendMode bool
		scan        string
		port        int
		cfgPath     string
		cachePath   string
	)

	flag.BoolVar(&server, "server", false, "Start the player web server")
	flag.BoolVar(&backendMode, "backend", false, "Start the companion search backend")
	flag.StringVar(&scan, "scan", "", "Scan a music directory and print its contents")
	flag.IntVar(&port, "port", 0, "Port override for server modes")
	flag.StringVar(&cfgPath, "config", "", "Path to config file")
	flag.StringVar(&cachePath, "cache", "backend_cache.json", "Path to the backend cache file (backend mode)")
	flag.Parse()

	switch {
	case server:
		cmd.StartWebServer(port, cfgPath)
	case backendMode:
		startBackend(port, cachePath)
	case scan != "":
		scanLibrary(scan)
	default:
		flag.Usage()
	}
}

func startBackend(port int, cachePath string) {
	if port <= 0 {
		port = 8080
	}
	srv, err := backend.NewServer(cachePath)
	if err != nil {
		log.Fatalf("Failed to start backend: %v", err)
	}
	if err := srv.Run(port); err != nil {
		log.Fatalf("Backend server error: %v", err)
	}
}

// scanLibrary walks a music directory and prints every playable file
// with whatever metadata its tags carry
func scanLibrary(dir string) {
	library := services.NewLibrary()

	files, err := library.Scan(dir)
	if err != nil {
		log.Fatalf("Scan failed: %v", err)
	}
	if len(files) == 0 {
		fmt.Printf("No audio files found under %s\n", dir)
		return
	}

	bar := progressbar.NewOptions(
		len(files),
		progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
		progressbar.OptionFullWidth(),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Scanning library...[reset]"),
	)

	type scanned struct {
		path     string
		title    string
		artist   string
		album    string
		hasTags  bool
		sizeInMB float64
	}

	results := make([]scanned, 0, len(files))
	for _, f := range files {
		entry := scanned{path: f.Path, sizeInMB: float64(f.Size) / (1024 * 1024)}
		if f.Metadata != nil {
			entry.title = f.Metadata.Title
			entry.artist = f.Metadata.Artist
			entry.album = f.Metadata.Album
			entry.hasTags = true
		}
		results = append(results, entry)
		bar.Add(1)
	}
	fmt.Println()

	tagged := 0
	for _, r := range results {
		if r.hasTags {
			tagged++
			fmt.Printf("  %s - %s (%s) [%.1f MB]\n", r.artist, r.title, r.album, r.sizeInMB)
		} else {
			fmt.Printf("  %s [%.1f MB]\n", r.path, r.sizeInMB)
		}
	}
	fmt.Printf("\n%d audio files, %d with tags\n", len(results), tagged)
}
