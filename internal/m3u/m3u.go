// Package m3u writes extended M3U playlists to audition rendered tones.
package m3u

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"time"

	"golang.org/x/text/unicode/norm"
)

type item struct {
	absFilePath string
	title       string
	dur         time.Duration
}

type Playlist struct {
	w     io.Writer
	items []item
}

func NewPlaylist(w io.Writer) *Playlist {
	return &Playlist{w: w}
}

// Add appends a file. An empty title falls back to the file name.
func (p *Playlist) Add(absFilePath string, title string, dur time.Duration) {
	if title == "" {
		title = filepath.Base(absFilePath)
	}
	p.items = append(p.items, item{absFilePath, title, dur})
}

// Write writes durations with two decimals, rounded down,
// because tones are shorter than a second.
func (p *Playlist) Write() error {
	_, err := io.WriteString(p.w, "#EXTM3U\n")
	if err != nil {
		return err
	}
	for _, it := range p.items {
		roundedDown := math.Floor(it.dur.Seconds()*100) / 100
		_, err = fmt.Fprintf(p.w, "#EXTINF:%.2f,%s\n", roundedDown, it.title)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(p.w, "file://%s\n", escape(it.absFilePath))
		if err != nil {
			return err
		}
	}
	return nil
}

func escape(input string) string {
	s := norm.NFD.String(input)
	var escaped []byte
	for _, b := range []byte(s) {
		if b > 127 || b == '%' || b == ' ' {
			escaped = fmt.Appendf(escaped, "%%%02X", b)
		} else {
			escaped = append(escaped, b)
		}
	}
	return string(escaped)
}
