package playcz

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/sWski/plugin.audio.play.cz/common"
	"github.com/sWski/plugin.audio.play.cz/common/model"
)

// Upstream operation names.
const (
	OpStations    = "getRadios"
	OpTopStations = "getTopRadios"
	OpGenres      = "getStyles"
	OpRegions     = "getRegions"
	OpStreams     = "getAllStreams"
	OpStream      = "getStream"
)

// Filter query parameters understood by getRadios.
const (
	ParamGenre  = "styl"
	ParamRegion = "kraj"
)

// PlayService is the higher-level interface returning normalised records.
type PlayService interface {
	// ListStations lists all stations, optionally filtered by genre and region.
	// With top25 set the curated top list is returned and the filters are ignored.
	ListStations(ctx context.Context, genreID, regionID string, top25 bool) ([]model.Station, error)
	ListGenres(ctx context.Context) ([]model.Genre, error)
	ListRegions(ctx context.Context) ([]model.Region, error)
	ListStreams(ctx context.Context, stationID string) ([]model.Stream, error)
	// ResolveStreamURL returns the playable URL of one stream. The arguments
	// must come from a ListStreams result for the same station.
	ResolveStreamURL(ctx context.Context, stationID, format, bitrate string) (string, error)
}

type playService struct {
	client PlayClient
}

// NewPlayService constructs a PlayService.
func NewPlayService(client PlayClient) PlayService {
	return &playService{client: client}
}

func (s *playService) ListStations(ctx context.Context, genreID, regionID string, top25 bool) ([]model.Station, error) {
	operation := OpStations
	query := url.Values{}
	if top25 {
		operation = OpTopStations
	} else {
		if genreID != "" {
			query.Set(ParamGenre, genreID)
		}
		if regionID != "" {
			query.Set(ParamRegion, regionID)
		}
	}

	var resp model.StationsResponse
	if err := s.client.GetJSON(ctx, operation, nil, query, &resp); err != nil {
		return nil, err
	}
	return ParseStations(resp.Data), nil
}

func (s *playService) ListGenres(ctx context.Context) ([]model.Genre, error) {
	var resp model.BasicInfoResponse
	if err := s.client.GetJSON(ctx, OpGenres, nil, nil, &resp); err != nil {
		return nil, err
	}
	genres := make([]model.Genre, 0, len(resp.Data))
	for _, item := range resp.Data {
		genres = append(genres, model.Genre{ID: item.ID.String(), Title: item.Title})
	}
	return genres, nil
}

func (s *playService) ListRegions(ctx context.Context) ([]model.Region, error) {
	var resp model.BasicInfoResponse
	if err := s.client.GetJSON(ctx, OpRegions, nil, nil, &resp); err != nil {
		return nil, err
	}
	regions := make([]model.Region, 0, len(resp.Data))
	for _, item := range resp.Data {
		regions = append(regions, model.Region{ID: item.ID.String(), Title: item.Title})
	}
	return regions, nil
}

func (s *playService) ListStreams(ctx context.Context, stationID string) ([]model.Stream, error) {
	var resp model.StreamsResponse
	if err := s.client.GetJSON(ctx, OpStreams, []string{stationID}, nil, &resp); err != nil {
		return nil, err
	}
	return ParseStreams(resp.Data.Streams), nil
}

func (s *playService) ResolveStreamURL(ctx context.Context, stationID, format, bitrate string) (string, error) {
	params := []string{stationID, format, bitrate}
	var resp model.StreamResponse
	if err := s.client.GetJSON(ctx, OpStream, params, nil, &resp); err != nil {
		return "", err
	}
	pubpoint := strings.TrimSpace(resp.Data.Stream.Pubpoint)
	if pubpoint == "" {
		urlStr, _ := s.client.BuildURL(OpStream, params, nil)
		return "", &common.DecodeError{URL: urlStr, Err: errors.New("response has no stream pubpoint")}
	}
	return pubpoint, nil
}

// ParseStations normalises the getRadios data map, keeping response order.
func ParseStations(stations model.StationMap) []model.Station {
	items := make([]model.Station, 0, len(stations))
	for _, entry := range stations {
		raw := entry.Station

		id := entry.Key
		if raw.Shortcut != nil {
			id = raw.Shortcut.String()
		}
		thumbnail := ""
		switch {
		case raw.LogoMedium != nil:
			thumbnail = *raw.LogoMedium
		case raw.Logo != nil:
			thumbnail = *raw.Logo
		}

		items = append(items, model.Station{
			ID:        id,
			Title:     strings.TrimSpace(raw.Title),
			Thumbnail: thumbnail,
			Listeners: raw.Listeners.String(),
			Comment:   strings.TrimSpace(raw.Description),
			Genre:     stationGenre(raw.Style, raw.StyleTitle),
			Web:       strings.TrimSpace(raw.RadioInfo.Web1),
		})
	}
	return items
}

// stationGenre returns the first style title, else the first style code.
func stationGenre(style, styleTitle model.FlexList) string {
	if len(styleTitle) > 0 {
		return styleTitle[0]
	}
	return style.First()
}

// ParseStreams flattens format -> bitrates into one Stream per pair.
func ParseStreams(streams model.StreamMap) []model.Stream {
	items := make([]model.Stream, 0)
	for _, fb := range streams {
		for _, bitrate := range fb.Bitrates {
			items = append(items, model.Stream{Format: fb.Format, Bitrate: bitrate})
		}
	}
	return items
}
