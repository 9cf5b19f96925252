// package formatter renders track lists (search results, favorites, the queue) as text, Markdown, CSV or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/mixdeck/internal/models"
	"github.com/desertthunder/mixdeck/internal/playback"
	"github.com/desertthunder/mixdeck/internal/shared"
)

// Format is an output format for track lists.
type Format string

const (
	Text     Format = "text"
	JSON     Format = "json"
	CSV      Format = "csv"
	Markdown Format = "markdown"
)

// Formats lists the accepted --format values.
var Formats = []Format{Text, JSON, CSV, Markdown}

// ParseFormat maps a flag value onto a [Format]. "md" is accepted for Markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return Text, nil
	case "json":
		return JSON, nil
	case "csv":
		return CSV, nil
	case "markdown", "md":
		return Markdown, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
	}
}

// Render formats tracks under title in format f.
func Render(f Format, title string, tracks []models.Track) ([]byte, error) {
	switch f {
	case JSON:
		return ToJSON(tracks, true)
	case CSV:
		return ToCSV(tracks)
	case Markdown:
		return ToMarkdown(title, tracks)
	default:
		return ToText(title, tracks)
	}
}

// Write renders tracks to w.
func Write(w io.Writer, f Format, title string, tracks []models.Track) error {
	data, err := Render(f, title, tracks)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// WriteFile renders tracks to path, replacing any existing file.
func WriteFile(path string, f Format, title string, tracks []models.Track) error {
	data, err := Render(f, title, tracks)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ToCSV converts tracks to CSV with columns: Provider, ID, Title, Artists, Album Type, Duration (ms), URL, Favorite
func ToCSV(tracks []models.Track) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Provider", "ID", "Title", "Artists", "Album Type", "Duration (ms)", "URL", "Favorite"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range tracks {
		record := []string{
			track.Provider.String(),
			track.ID,
			track.Title,
			track.Artists(),
			track.AlbumType,
			strconv.FormatInt(track.Duration, 10),
			track.TrackURL,
			strconv.FormatBool(track.IsFavorited),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ToMarkdown converts tracks to a numbered Markdown list linking each track page.
func ToMarkdown(title string, tracks []models.Track) ([]byte, error) {
	var buf bytes.Buffer

	if title != "" {
		fmt.Fprintf(&buf, "# %s\n\n", title)
	}
	fmt.Fprintf(&buf, "**Tracks**: %d\n\n", len(tracks))

	for i, track := range tracks {
		name := track.Title
		if track.TrackURL != "" {
			name = fmt.Sprintf("[%s](%s)", track.Title, track.TrackURL)
		}
		fav := ""
		if track.IsFavorited {
			fav = " ♥"
		}
		fmt.Fprintf(&buf, "%d. %s - %s [%s] _%s_%s\n", i+1, track.Artists(), name, playback.FormatDuration(track.Length()), track.Provider, fav)
	}

	return buf.Bytes(), nil
}

// ToText converts tracks to plain aligned lines.
func ToText(title string, tracks []models.Track) ([]byte, error) {
	var buf bytes.Buffer

	if title != "" {
		fmt.Fprintf(&buf, "%s\n", title)
	}
	if len(tracks) == 0 {
		buf.WriteString("No tracks.\n")
		return buf.Bytes(), nil
	}

	for i, track := range tracks {
		fav := " "
		if track.IsFavorited {
			fav = "♥"
		}
		fmt.Fprintf(&buf, "%3d. %s %-10s %7s  %s - %s\n", i+1, fav, track.Provider, playback.FormatDuration(track.Length()), track.Artists(), track.Title)
	}

	return buf.Bytes(), nil
}

// ToJSON marshals tracks, indented when pretty is set. A nil slice encodes as [].
func ToJSON(tracks []models.Track, pretty bool) ([]byte, error) {
	if tracks == nil {
		tracks = []models.Track{}
	}

	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(tracks, "", "  ")
	} else {
		data, err = json.Marshal(tracks)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tracks: %w", err)
	}
	return append(data, '\n'), nil
}
