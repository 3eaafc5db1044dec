package plugin

import (
	"fmt"
	"net/url"
)

// StringID is the numeric id of a localised UI string.
type StringID int

const (
	StrAllStations   StringID = 30000
	StrTop25Stations StringID = 30001
	StrGenres        StringID = 30002
	StrRegions       StringID = 30003
	StrWebsite       StringID = 30004
	StrNetworkError  StringID = 30010
)

var stringNames = map[StringID]string{
	StrAllStations:   "all_stations",
	StrTop25Stations: "top25_stations",
	StrGenres:        "genres",
	StrRegions:       "regions",
	StrWebsite:       "website",
	StrNetworkError:  "network_error",
}

// Name is the symbolic name of the string, used when no translation exists.
func (id StringID) Name() string {
	if name, ok := stringNames[id]; ok {
		return name
	}
	return fmt.Sprintf("string_%d", int(id))
}

// StringIDs lists every string the plugin asks for.
func StringIDs() []StringID {
	return []StringID{StrAllStations, StrTop25Stations, StrGenres, StrRegions, StrWebsite, StrNetworkError}
}

// Route names a plugin action.
type Route string

const (
	RouteRoot     Route = "root"
	RouteStations Route = "stations"
	RouteTop25    Route = "top25"
	RouteByGenre  Route = "by_genre"
	RouteByRegion Route = "by_region"
	RouteGenres   Route = "genres"
	RouteRegions  Route = "regions"
	RouteStreams  Route = "streams"
	RoutePlay     Route = "play"
)

// StationContext carries what a station listing already knows into the
// streams listing, so it does not need another request.
type StationContext struct {
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
	Genre     string `json:"genre,omitempty" yaml:"genre,omitempty"`
	Listeners string `json:"listeners,omitempty" yaml:"listeners,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty" yaml:"thumbnail,omitempty"`
}

// Target is where selecting an item leads.
type Target struct {
	Route     Route           `json:"route" yaml:"route"`
	GenreID   string          `json:"genre_id,omitempty" yaml:"genre_id,omitempty"`
	RegionID  string          `json:"region_id,omitempty" yaml:"region_id,omitempty"`
	StationID string          `json:"station_id,omitempty" yaml:"station_id,omitempty"`
	Format    string          `json:"format,omitempty" yaml:"format,omitempty"`
	Bitrate   string          `json:"bitrate,omitempty" yaml:"bitrate,omitempty"`
	Station   *StationContext `json:"station,omitempty" yaml:"station,omitempty"`
}

// Path renders the target in the add-on's path scheme, e.g. /station/radio1/mp3/128/.
func (t Target) Path() string {
	esc := url.PathEscape
	switch t.Route {
	case RouteRoot:
		return "/"
	case RouteStations:
		return "/stations/"
	case RouteTop25:
		return "/stations/top25/"
	case RouteByGenre:
		return "/stations/by_genre/" + esc(t.GenreID) + "/"
	case RouteByRegion:
		return "/stations/by_region/" + esc(t.RegionID) + "/"
	case RouteGenres:
		return "/genres/"
	case RouteRegions:
		return "/regions/"
	case RouteStreams:
		return "/station/" + esc(t.StationID) + "/"
	case RoutePlay:
		return "/station/" + esc(t.StationID) + "/" + esc(t.Format) + "/" + esc(t.Bitrate) + "/"
	default:
		return ""
	}
}

// ItemInfo holds the description fields shown next to an item.
type ItemInfo struct {
	Title     string `json:"title,omitempty" yaml:"title,omitempty"`
	Comment   string `json:"comment,omitempty" yaml:"comment,omitempty"`
	Genre     string `json:"genre,omitempty" yaml:"genre,omitempty"`
	Listeners int    `json:"listeners,omitempty" yaml:"listeners,omitempty"`
	Size      int    `json:"size,omitempty" yaml:"size,omitempty"` // bitrate for stream items
}

// Item is one entry of a navigation list.
type Item struct {
	Label     string   `json:"label" yaml:"label"`
	Thumbnail string   `json:"thumbnail,omitempty" yaml:"thumbnail,omitempty"`
	Info      ItemInfo `json:"info" yaml:"info"`
	Target    Target   `json:"target" yaml:"target"`
	Playable  bool     `json:"playable,omitempty" yaml:"playable,omitempty"`
}

// SortMethod is a hint for how the host may order a list.
type SortMethod string

const (
	SortLabel     SortMethod = "label"
	SortListeners SortMethod = "listeners"
	SortBitrate   SortMethod = "bitrate"
)
