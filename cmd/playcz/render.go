package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/sWski/plugin.audio.play.cz/modules/plugin"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

var (
	labelStyle    = lipgloss.NewStyle().Bold(true)
	playableStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	commentStyle  = lipgloss.NewStyle().PaddingLeft(4).Foreground(lipgloss.Color("7"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

type listing struct {
	Items []plugin.Item       `json:"items" yaml:"items"`
	Sorts []plugin.SortMethod `json:"sorts,omitempty" yaml:"sorts,omitempty"`
}

// termRenderer writes navigation lists to a terminal, ordered by the first
// sort hint.
type termRenderer struct {
	w      io.Writer
	format string
	lang   language.Tag
}

func newTermRenderer(w io.Writer, format string, lang language.Tag) (*termRenderer, error) {
	switch format {
	case "", outputText:
		format = outputText
	case outputJSON, outputYAML:
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
	return &termRenderer{w: w, format: format, lang: lang}, nil
}

func (r *termRenderer) Render(items []plugin.Item, sorts []plugin.SortMethod) error {
	items = append([]plugin.Item(nil), items...)
	if len(sorts) > 0 {
		r.sortItems(items, sorts[0])
	}

	switch r.format {
	case outputJSON:
		enc := json.NewEncoder(r.w)
		enc.SetIndent("", "  ")
		return enc.Encode(listing{Items: items, Sorts: sorts})
	case outputYAML:
		enc := yaml.NewEncoder(r.w)
		enc.SetIndent(2)
		if err := enc.Encode(listing{Items: items, Sorts: sorts}); err != nil {
			return err
		}
		return enc.Close()
	default:
		return r.renderText(items)
	}
}

func (r *termRenderer) sortItems(items []plugin.Item, by plugin.SortMethod) {
	switch by {
	case plugin.SortLabel:
		c := collate.New(r.lang, collate.IgnoreCase)
		sort.SliceStable(items, func(i, j int) bool {
			return c.CompareString(items[i].Label, items[j].Label) < 0
		})
	case plugin.SortListeners:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Info.Listeners > items[j].Info.Listeners
		})
	case plugin.SortBitrate:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Info.Size > items[j].Info.Size
		})
	}
}

func (r *termRenderer) renderText(items []plugin.Item) error {
	var b strings.Builder
	for i, it := range items {
		label := labelStyle.Render(it.Label)
		if it.Playable {
			label = playableStyle.Render("▶ " + it.Label)
		}

		var details []string
		if it.Info.Genre != "" {
			details = append(details, it.Info.Genre)
		}
		if it.Info.Listeners > 0 {
			details = append(details, humanize.Comma(int64(it.Info.Listeners))+" listeners")
		}
		if it.Info.Size > 0 {
			details = append(details, fmt.Sprintf("%d kbps", it.Info.Size))
		}
		details = append(details, it.Target.Path())

		fmt.Fprintf(&b, "%3d. %s  %s\n", i+1, label, dimStyle.Render(strings.Join(details, " · ")))
		if it.Info.Comment != "" {
			b.WriteString(commentStyle.Render(it.Info.Comment))
			b.WriteString("\n")
		}
	}
	_, err := io.WriteString(r.w, b.String())
	return err
}

// printPlayer prints the resolved stream URL so it can be piped to a player.
type printPlayer struct {
	w io.Writer
}

func (p printPlayer) SetResolvedURL(url string) error {
	_, err := fmt.Fprintln(p.w, url)
	return err
}

type stderrNotifier struct {
	w io.Writer
}

func (n stderrNotifier) Notify(message string) {
	fmt.Fprintln(n.w, warnStyle.Render(message))
}
