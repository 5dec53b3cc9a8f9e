package companion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// CharacterSummary is the slice of a character profile the call screen
// needs: the display name and whether an emotion pack exists to render
// artwork from.
type CharacterSummary struct {
	Name              string
	HasEmotionArtwork bool
}

// CharacterDirectory looks up the current character. Profile CRUD is
// external plumbing; this is the only view of it the call client takes.
type CharacterDirectory interface {
	Summary(ctx context.Context, characterID string) (CharacterSummary, error)
}

// MediaResolver turns an emotion key into a fetchable artwork URL.
type MediaResolver interface {
	EmotionImageURL(characterID, emotionKey string) (*url.URL, error)
}

// RESTLookup implements both lookup interfaces against the companion
// REST API.
type RESTLookup struct {
	base   *url.URL
	userID string
	http   *http.Client
}

// NewRESTLookup creates a lookup client for the API at baseURL.
// Character reads are scoped by userID.
func NewRESTLookup(baseURL, userID string) (*RESTLookup, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("companion: parse base url: %w", err)
	}
	return &RESTLookup{
		base:   base,
		userID: userID,
		http:   &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Summary fetches the character name and emotion-pack availability.
func (l *RESTLookup) Summary(ctx context.Context, characterID string) (CharacterSummary, error) {
	var character struct {
		Name string `json:"name"`
	}
	if err := l.getJSON(ctx, "/characters/"+url.PathEscape(characterID), &character); err != nil {
		return CharacterSummary{}, err
	}

	var pack struct {
		Generated int `json:"generated"`
	}
	if err := l.getJSON(ctx, "/characters/"+url.PathEscape(characterID)+"/emotion-pack", &pack); err != nil {
		// A character without a pack is still callable; artwork is
		// simply unavailable.
		return CharacterSummary{Name: character.Name}, nil
	}
	return CharacterSummary{
		Name:              character.Name,
		HasEmotionArtwork: pack.Generated > 0,
	}, nil
}

// EmotionImageURL resolves the artwork file endpoint for one emotion
// key.
func (l *RESTLookup) EmotionImageURL(characterID, emotionKey string) (*url.URL, error) {
	ref := &url.URL{
		Path: "/characters/" + url.PathEscape(characterID) + "/emotion-pack/" + url.PathEscape(emotionKey) + "/file",
	}
	return l.base.ResolveReference(ref), nil
}

func (l *RESTLookup) getJSON(ctx context.Context, path string, out any) error {
	u := l.base.ResolveReference(&url.URL{Path: path})
	q := u.Query()
	q.Set("user_id", l.userID)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("companion: %w", err)
	}
	resp, err := l.http.Do(req)
	if err != nil {
		return fmt.Errorf("companion: get %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("companion: get %s: status %s", path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("companion: decode %s: %w", path, err)
	}
	return nil
}
