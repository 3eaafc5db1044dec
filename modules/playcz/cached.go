package playcz

import (
	"context"
	"time"

	"github.com/sWski/plugin.audio.play.cz/common/model"
	"github.com/sWski/plugin.audio.play.cz/modules/cachedcall"
)

// TTLConfig holds how long each kind of response stays cached.
type TTLConfig struct {
	Stations    time.Duration
	TopStations time.Duration
	Genres      time.Duration
	Regions     time.Duration
	Streams     time.Duration
	StreamURL   time.Duration
}

// DefaultTTLConfig: one day for listings, five minutes for the top 25,
// a week for genres and regions.
func DefaultTTLConfig() TTLConfig {
	return TTLConfig{
		Stations:    cachedcall.DefaultTTL,
		TopStations: 5 * time.Minute,
		Genres:      cachedcall.TTLWeek,
		Regions:     cachedcall.TTLWeek,
		Streams:     cachedcall.DefaultTTL,
		StreamURL:   cachedcall.DefaultTTL,
	}
}

type cachedService struct {
	svc    PlayService
	caller *cachedcall.Caller
	ttl    TTLConfig
}

// NewCachedService wraps svc so every call goes through caller.
func NewCachedService(svc PlayService, caller *cachedcall.Caller, ttl TTLConfig) PlayService {
	return &cachedService{svc: svc, caller: caller, ttl: ttl}
}

func (s *cachedService) ListStations(ctx context.Context, genreID, regionID string, top25 bool) ([]model.Station, error) {
	ttl := s.ttl.Stations
	if top25 {
		ttl = s.ttl.TopStations
	}
	return cachedcall.Call(ctx, s.caller, "ListStations", func(ctx context.Context) ([]model.Station, error) {
		return s.svc.ListStations(ctx, genreID, regionID, top25)
	}, ttl, genreID, regionID, top25)
}

func (s *cachedService) ListGenres(ctx context.Context) ([]model.Genre, error) {
	return cachedcall.Call(ctx, s.caller, "ListGenres", s.svc.ListGenres, s.ttl.Genres)
}

func (s *cachedService) ListRegions(ctx context.Context) ([]model.Region, error) {
	return cachedcall.Call(ctx, s.caller, "ListRegions", s.svc.ListRegions, s.ttl.Regions)
}

func (s *cachedService) ListStreams(ctx context.Context, stationID string) ([]model.Stream, error) {
	return cachedcall.Call(ctx, s.caller, "ListStreams", func(ctx context.Context) ([]model.Stream, error) {
		return s.svc.ListStreams(ctx, stationID)
	}, s.ttl.Streams, stationID)
}

func (s *cachedService) ResolveStreamURL(ctx context.Context, stationID, format, bitrate string) (string, error) {
	return cachedcall.Call(ctx, s.caller, "ResolveStreamURL", func(ctx context.Context) (string, error) {
		return s.svc.ResolveStreamURL(ctx, stationID, format, bitrate)
	}, s.ttl.StreamURL, stationID, format, bitrate)
}
