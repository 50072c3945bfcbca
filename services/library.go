package services

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/dhowden/tag"

	"retmusic/types"
)

// Library interface defines methods for the local media collection
type Library interface {
	Scan(rootPath string) ([]types.AudioFile, error)
	ExtractMetadata(filePath string) *types.AudioMetadata
	ValidatePath(path string) error
	ContentType(filePath string) string
	Reference(rootPath string, file types.AudioFile) types.MediaReference
}

type library struct{}

// NewLibrary creates a local media library scanner
func NewLibrary() Library {
	return &library{}
}

var audioExtensions = map[string]string{
	".flac": "flac",
	".mp3":  "mp3",
	".ogg":  "ogg",
	".m4a":  "m4a",
}

// Scan recursively walks rootPath collecting playable audio files
func (l *library) Scan(rootPath string) ([]types.AudioFile, error) {
	var files []types.AudioFile

	err := filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.Printf("Library: error accessing %s: %v", path, err)
			return nil // keep walking
		}
		if info.IsDir() {
			return nil
		}

		format, ok := audioExtensions[strings.ToLower(filepath.Ext(path))]
		if !ok {
			return nil
		}

		relativePath, err := filepath.Rel(rootPath, path)
		if err != nil {
			relativePath = path
		}

		files = append(files, types.AudioFile{
			Filename: info.Name(),
			Path:     relativePath,
			Size:     info.Size(),
			Format:   format,
			Metadata: l.ExtractMetadata(path),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// ContentType returns the MIME type for an audio file path
func (l *library) ContentType(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".flac":
		return "audio/flac"
	case ".mp3":
		return "audio/mpeg"
	case ".ogg":
		return "audio/ogg"
	case ".m4a":
		return "audio/mp4"
	default:
		return "application/octet-stream"
	}
}

// Reference builds a playable local-file media reference for a scanned
// file
func (l *library) Reference(rootPath string, file types.AudioFile) types.MediaReference {
	title := strings.TrimSuffix(file.Filename, filepath.Ext(file.Filename))
	if file.Metadata != nil && file.Metadata.Title != "" {
		title = file.Metadata.Title
		if file.Metadata.Artist != "" {
			title = file.Metadata.Artist + " - " + title
		}
	}
	return types.MediaReference{
		Kind:   types.MediaLocalFile,
		Title:  title,
		Source: file.Path,
	}
}

// ExtractMetadata reads embedded tags, falling back to path conventions
// (Artist/Album/NN - Title.ext) for anything missing
func (l *library) ExtractMetadata(filePath string) *types.AudioMetadata {
	file, err := os.Open(filePath)
	if err != nil {
		log.Printf("Library: could not open %s: %v", filePath, err)
		return l.metadataFromPath(filePath)
	}
	defer file.Close()

	meta, err := tag.ReadFrom(file)
	if err != nil {
		return l.metadataFromPath(filePath)
	}

	metadata := &types.AudioMetadata{
		Title:  meta.Title(),
		Artist: meta.Artist(),
		Album:  meta.Album(),
	}
	metadata.TrackNumber, _ = meta.Track()

	if metadata.Title == "" || metadata.Artist == "" || metadata.Album == "" {
		fallback := l.metadataFromPath(filePath)
		if metadata.Title == "" {
			metadata.Title = fallback.Title
		}
		if metadata.Artist == "" {
			metadata.Artist = fallback.Artist
		}
		if metadata.Album == "" {
			metadata.Album = fallback.Album
		}
	}
	return metadata
}

var trackPrefixPattern = regexp.MustCompile(`^(\d+)[\.\-\s]+(.+)`)

func (l *library) metadataFromPath(filePath string) *types.AudioMetadata {
	metadata := &types.AudioMetadata{}

	parts := strings.Split(filepath.ToSlash(filePath), "/")
	if len(parts) >= 3 {
		metadata.Artist = parts[len(parts)-3]
	}
	if len(parts) >= 2 {
		metadata.Album = parts[len(parts)-2]
	}

	title := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	if matches := trackPrefixPattern.FindStringSubmatch(title); len(matches) > 2 {
		title = matches[2]
		if trackNum, err := strconv.Atoi(matches[1]); err == nil {
			metadata.TrackNumber = trackNum
		}
	}
	metadata.Title = title
	return metadata
}

// ValidatePath rejects path traversal and absolute paths in stream
// requests
func (l *library) ValidatePath(path string) error {
	if strings.Contains(path, "..") {
		return fmt.Errorf("path traversal not allowed")
	}
	if strings.HasPrefix(path, "/") {
		return fmt.Errorf("absolute paths not allowed")
	}
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("empty path not allowed")
	}
	return nil
}
