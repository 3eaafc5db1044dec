// Package plugin turns play.cz listings into navigation lists for a media
// center host. The host supplies rendering, localisation, playback and
// notification through the interfaces below.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/sWski/plugin.audio.play.cz/common"
	"github.com/sWski/plugin.audio.play.cz/modules/playcz"
)

// Renderer shows a navigation list. sorts are in order of preference.
type Renderer interface {
	Render(items []Item, sorts []SortMethod) error
}

// Localizer looks up a UI string. ok is false when no translation exists.
type Localizer interface {
	String(id StringID) (text string, ok bool)
}

// Player receives the resolved URL of the stream the user picked.
type Player interface {
	SetResolvedURL(url string) error
}

// Notifier shows a short message to the user.
type Notifier interface {
	Notify(message string)
}

// Deps are the collaborators of a Plugin. Logger may be nil.
type Deps struct {
	Service   playcz.PlayService
	Renderer  Renderer
	Localizer Localizer
	Player    Player
	Notifier  Notifier
	Logger    *log.Logger
}

// Plugin implements the add-on's menu actions.
type Plugin struct {
	svc      playcz.PlayService
	renderer Renderer
	strings  Localizer
	player   Player
	notifier Notifier
	logger   *log.Logger
}

// New validates deps and builds a Plugin.
func New(deps Deps) (*Plugin, error) {
	switch {
	case deps.Service == nil:
		return nil, errors.New("plugin: service is required")
	case deps.Renderer == nil:
		return nil, errors.New("plugin: renderer is required")
	case deps.Localizer == nil:
		return nil, errors.New("plugin: localizer is required")
	case deps.Player == nil:
		return nil, errors.New("plugin: player is required")
	case deps.Notifier == nil:
		return nil, errors.New("plugin: notifier is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Plugin{
		svc:      deps.Service,
		renderer: deps.Renderer,
		strings:  deps.Localizer,
		player:   deps.Player,
		notifier: deps.Notifier,
		logger:   logger,
	}, nil
}

// StationFilter selects which station listing to show.
type StationFilter struct {
	GenreID  string
	RegionID string
	Top25    bool
}

// Dispatch runs the action named by target. A failed request is reported to
// the user through the Notifier, logged, and returned; nothing is rendered.
func (p *Plugin) Dispatch(ctx context.Context, target Target) error {
	err := p.run(ctx, target)
	if err != nil && common.IsRequestFailure(err) {
		p.notifier.Notify(p.T(StrNetworkError))
		p.logFailure(target, err)
	}
	return err
}

func (p *Plugin) run(ctx context.Context, target Target) error {
	switch target.Route {
	case RouteRoot, "":
		return p.RootMenu()
	case RouteStations:
		return p.Stations(ctx, StationFilter{GenreID: target.GenreID, RegionID: target.RegionID})
	case RouteTop25:
		return p.Stations(ctx, StationFilter{Top25: true})
	case RouteByGenre:
		return p.Stations(ctx, StationFilter{GenreID: target.GenreID})
	case RouteByRegion:
		return p.Stations(ctx, StationFilter{RegionID: target.RegionID})
	case RouteGenres:
		return p.Genres(ctx)
	case RouteRegions:
		return p.Regions(ctx)
	case RouteStreams:
		var station StationContext
		if target.Station != nil {
			station = *target.Station
		}
		return p.Streams(ctx, target.StationID, station)
	case RoutePlay:
		return p.Play(ctx, target.StationID, target.Format, target.Bitrate)
	default:
		return fmt.Errorf("unknown route %q", target.Route)
	}
}

func (p *Plugin) logFailure(target Target, err error) {
	var netErr *common.NetworkError
	var decErr *common.DecodeError
	switch {
	case errors.As(err, &netErr):
		p.logger.Error("Network request failed", "route", target.Route, "url", netErr.URL, "error", netErr.Message)
	case errors.As(err, &decErr):
		p.logger.Error("Unexpected API response", "route", target.Route, "url", decErr.URL, "error", decErr.Err)
	}
}

// RootMenu lists the four entry points.
func (p *Plugin) RootMenu() error {
	items := []Item{
		{Label: p.T(StrAllStations), Target: Target{Route: RouteStations}},
		{Label: p.T(StrTop25Stations), Target: Target{Route: RouteTop25}},
		{Label: p.T(StrGenres), Target: Target{Route: RouteGenres}},
		{Label: p.T(StrRegions), Target: Target{Route: RouteRegions}},
	}
	return p.renderer.Render(items, nil)
}

// Stations lists stations matching filter. Each item leads to the station's streams.
func (p *Plugin) Stations(ctx context.Context, filter StationFilter) error {
	stations, err := p.svc.ListStations(ctx, filter.GenreID, filter.RegionID, filter.Top25)
	if err != nil {
		return err
	}

	items := make([]Item, 0, len(stations))
	for _, st := range stations {
		items = append(items, Item{
			Label:     st.Title,
			Thumbnail: st.Thumbnail,
			Info: ItemInfo{
				Comment:   p.prepareComment(st.Comment, st.Web),
				Genre:     st.Genre,
				Listeners: atoi(st.Listeners),
			},
			Target: Target{
				Route:     RouteStreams,
				StationID: st.ID,
				Station: &StationContext{
					Name:      st.Title,
					Genre:     st.Genre,
					Listeners: st.Listeners,
					Thumbnail: st.Thumbnail,
				},
			},
		})
	}

	sorts := []SortMethod{SortLabel, SortListeners}
	if filter.Top25 {
		sorts = []SortMethod{SortListeners}
	}
	return p.renderer.Render(items, sorts)
}

// Genres lists genres, each leading to the stations of that genre.
func (p *Plugin) Genres(ctx context.Context) error {
	genres, err := p.svc.ListGenres(ctx)
	if err != nil {
		return err
	}
	items := make([]Item, 0, len(genres))
	for _, g := range genres {
		items = append(items, Item{
			Label:  g.Title,
			Target: Target{Route: RouteByGenre, GenreID: g.ID},
		})
	}
	return p.renderer.Render(items, []SortMethod{SortLabel})
}

// Regions lists regions, each leading to the stations of that region.
func (p *Plugin) Regions(ctx context.Context) error {
	regions, err := p.svc.ListRegions(ctx)
	if err != nil {
		return err
	}
	items := make([]Item, 0, len(regions))
	for _, r := range regions {
		items = append(items, Item{
			Label:  r.Title,
			Target: Target{Route: RouteByRegion, RegionID: r.ID},
		})
	}
	return p.renderer.Render(items, []SortMethod{SortLabel})
}

// Streams lists the playable format/bitrate variants of a station.
func (p *Plugin) Streams(ctx context.Context, stationID string, station StationContext) error {
	streams, err := p.svc.ListStreams(ctx, stationID)
	if err != nil {
		return err
	}

	name := station.Name
	if name == "" {
		name = stationID
	}
	listeners := atoi(station.Listeners)

	items := make([]Item, 0, len(streams))
	for _, s := range streams {
		label := name + " | " + strings.ToUpper(s.Format)
		items = append(items, Item{
			Label:     label,
			Thumbnail: station.Thumbnail,
			Info: ItemInfo{
				Title:     label,
				Genre:     station.Genre,
				Listeners: listeners,
				Size:      atoi(s.Bitrate),
			},
			Target: Target{
				Route:     RoutePlay,
				StationID: stationID,
				Format:    s.Format,
				Bitrate:   s.Bitrate,
			},
			Playable: true,
		})
	}
	return p.renderer.Render(items, []SortMethod{SortLabel, SortBitrate})
}

// Play resolves a stream and hands it to the player.
func (p *Plugin) Play(ctx context.Context, stationID, format, bitrate string) error {
	streamURL, err := p.svc.ResolveStreamURL(ctx, stationID, format, bitrate)
	if err != nil {
		return err
	}
	p.logger.Debug("Resolved stream", "station", stationID, "format", format, "bitrate", bitrate, "url", streamURL)
	return p.player.SetResolvedURL(streamURL)
}

// T returns the localised string, or its symbolic name when untranslated.
func (p *Plugin) T(id StringID) string {
	if s, ok := p.strings.String(id); ok {
		return s
	}
	p.logger.Warn("String is missing", "id", int(id), "name", id.Name())
	return id.Name()
}

// prepareComment makes the description read as a sentence and appends the website.
func (p *Plugin) prepareComment(comment, web string) string {
	if comment != "" {
		if r, size := utf8.DecodeRuneInString(comment); r != utf8.RuneError {
			comment = string(unicode.ToUpper(r)) + comment[size:]
		}
		if !strings.HasSuffix(comment, ".") && !strings.HasSuffix(comment, "!") && !strings.HasSuffix(comment, "?") {
			comment += "."
		}
	}
	if web != "" {
		if comment != "" {
			comment += "\n"
		}
		web = p.T(StrWebsite) + ": " + web
	}
	return comment + web
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
