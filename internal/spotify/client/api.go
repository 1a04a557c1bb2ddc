package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	// MaxRecentlyPlayed is the largest page the recently played endpoint
	// returns.
	MaxRecentlyPlayed = 50

	audioFeaturesBatch = 100
	artistsBatch       = 50
)

// TimeRange selects the window used for top items.
type TimeRange string

const (
	ShortTerm  TimeRange = "short_term"  // about four weeks
	MediumTerm TimeRange = "medium_term" // about six months
	LongTerm   TimeRange = "long_term"   // about a year
)

// ParseTimeRange accepts the API names and the short forms short, medium and
// long.
func ParseTimeRange(s string) (TimeRange, error) {
	switch strings.ToLower(s) {
	case "", "medium", string(MediumTerm):
		return MediumTerm, nil
	case "short", string(ShortTerm):
		return ShortTerm, nil
	case "long", string(LongTerm):
		return LongTerm, nil
	}
	return "", fmt.Errorf("invalid time range %q (use short, medium or long)", s)
}

// GetCurrentUser returns the current user's profile.
func (c *Client) GetCurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.Get(ctx, "/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// RecentlyPlayedOptions configures a recently played query. Before and After
// are mutually exclusive cursors.
type RecentlyPlayedOptions struct {
	Limit  int
	Before time.Time
	After  time.Time
}

// GetRecentlyPlayed returns the user's recently played tracks.
func (c *Client) GetRecentlyPlayed(ctx context.Context, opts RecentlyPlayedOptions) (*RecentlyPlayedResponse, error) {
	if opts.Limit < 0 || opts.Limit > MaxRecentlyPlayed {
		return nil, fmt.Errorf("limit must be between 1 and %d", MaxRecentlyPlayed)
	}
	if !opts.Before.IsZero() && !opts.After.IsZero() {
		return nil, errors.New("before and after cannot both be set")
	}

	params := make(map[string]string)
	if opts.Limit > 0 {
		params["limit"] = strconv.Itoa(opts.Limit)
	}
	if !opts.Before.IsZero() {
		params["before"] = strconv.FormatInt(opts.Before.UnixMilli(), 10)
	}
	if !opts.After.IsZero() {
		params["after"] = strconv.FormatInt(opts.After.UnixMilli(), 10)
	}

	var resp RecentlyPlayedResponse
	if err := c.Get(ctx, BuildURL("/me/player/recently-played", params), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TopOptions configures a top items query.
type TopOptions struct {
	TimeRange TimeRange
	Limit     int
	Offset    int
}

func (o TopOptions) params() map[string]string {
	params := make(map[string]string)
	if o.TimeRange != "" {
		params["time_range"] = string(o.TimeRange)
	}
	if o.Limit > 0 {
		params["limit"] = strconv.Itoa(o.Limit)
	}
	if o.Offset > 0 {
		params["offset"] = strconv.Itoa(o.Offset)
	}
	return params
}

// GetTopTracks returns the user's most played tracks.
func (c *Client) GetTopTracks(ctx context.Context, opts TopOptions) (*Paging[Track], error) {
	var resp Paging[Track]
	if err := c.Get(ctx, BuildURL("/me/top/tracks", opts.params()), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetTopArtists returns the user's most played artists.
func (c *Client) GetTopArtists(ctx context.Context, opts TopOptions) (*Paging[Artist], error) {
	var resp Paging[Artist]
	if err := c.Get(ctx, BuildURL("/me/top/artists", opts.params()), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetTrack returns a single track.
func (c *Client) GetTrack(ctx context.Context, id string) (*Track, error) {
	if id == "" {
		return nil, errors.New("track id cannot be empty")
	}
	var track Track
	if err := c.Get(ctx, "/tracks/"+url.PathEscape(id), &track); err != nil {
		return nil, err
	}
	return &track, nil
}

// GetTrackAudioFeatures returns the audio features of a single track.
func (c *Client) GetTrackAudioFeatures(ctx context.Context, id string) (*AudioFeatures, error) {
	if id == "" {
		return nil, errors.New("track id cannot be empty")
	}
	var features AudioFeatures
	if err := c.Get(ctx, "/audio-features/"+url.PathEscape(id), &features); err != nil {
		return nil, err
	}
	return &features, nil
}

// GetAudioFeatures returns audio features for many tracks, issuing one request
// per 100 ids. Tracks the provider has no analysis for are left out.
func (c *Client) GetAudioFeatures(ctx context.Context, ids []string) ([]AudioFeatures, error) {
	var out []AudioFeatures
	for batch := range slices.Chunk(ids, audioFeaturesBatch) {
		var resp audioFeaturesResponse
		path := BuildURL("/audio-features", map[string]string{"ids": strings.Join(batch, ",")})
		if err := c.Get(ctx, path, &resp); err != nil {
			return out, err
		}
		for _, f := range resp.AudioFeatures {
			if f != nil {
				out = append(out, *f)
			}
		}
	}
	return out, nil
}

// GetSeveralArtists returns full artist objects, genres included, issuing one
// request per 50 ids.
func (c *Client) GetSeveralArtists(ctx context.Context, ids []string) ([]Artist, error) {
	var out []Artist
	for batch := range slices.Chunk(ids, artistsBatch) {
		var resp artistsResponse
		path := BuildURL("/artists", map[string]string{"ids": strings.Join(batch, ",")})
		if err := c.Get(ctx, path, &resp); err != nil {
			return out, err
		}
		for _, a := range resp.Artists {
			if a != nil {
				out = append(out, *a)
			}
		}
	}
	return out, nil
}

// GetCurrentlyPlaying returns what the user is listening to, or nil when
// nothing is playing.
func (c *Client) GetCurrentlyPlaying(ctx context.Context) (*CurrentlyPlaying, error) {
	var resp CurrentlyPlaying
	if err := c.Get(ctx, "/me/player/currently-playing", &resp); err != nil {
		return nil, err
	}
	if resp.Item == nil {
		return nil, nil
	}
	return &resp, nil
}
