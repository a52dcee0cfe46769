package tui

import (
	"strings"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{"     _      _          _       __ ", "#818cf8"},
	{"  __| | ___| |__  _ __(_) ___ / _|", "#a78bfa"},
	{" / _` |/ _ \\ '_ \\| '__| |/ _ \\ |_ ", "#c084fc"},
	{"| (_| |  __/ |_) | |  | |  __/  _|", "#e879f9"},
	{" \\__,_|\\___|_.__/|_|  |_|\\___|_|  ", "#f472b6"},
}

// Banner returns the ASCII art header, colored for the current terminal profile.
func Banner() string {
	p := termenv.ColorProfile()
	var b strings.Builder
	b.WriteString("\n")
	for _, line := range bannerLines {
		b.WriteString(termenv.String(line.text).Foreground(p.Color(line.color)).String())
		b.WriteString("\n")
	}
	b.WriteString(termenv.String("  end-of-day reflection coach").Faint().String())
	b.WriteString("\n")
	return b.String()
}
