package companion

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRESTLookup_Summary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("user_id") != "u1" {
			t.Errorf("missing user_id on %s", r.URL.Path)
		}
		switch r.URL.Path {
		case "/characters/char-1":
			fmt.Fprint(w, `{"id":"char-1","name":"Mio"}`)
		case "/characters/char-1/emotion-pack":
			fmt.Fprint(w, `{"character_id":"char-1","total_expected":63,"generated":63}`)
		case "/characters/char-2":
			fmt.Fprint(w, `{"id":"char-2","name":"Kai"}`)
		case "/characters/char-2/emotion-pack":
			http.NotFound(w, r)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	l, err := NewRESTLookup(srv.URL, "u1")
	if err != nil {
		t.Fatalf("NewRESTLookup: %v", err)
	}

	got, err := l.Summary(context.Background(), "char-1")
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if got.Name != "Mio" || !got.HasEmotionArtwork {
		t.Errorf("summary = %+v; want Mio with artwork", got)
	}

	// No emotion pack is not an error; artwork is just unavailable.
	got, err = l.Summary(context.Background(), "char-2")
	if err != nil {
		t.Fatalf("Summary without pack: %v", err)
	}
	if got.Name != "Kai" || got.HasEmotionArtwork {
		t.Errorf("summary = %+v; want Kai without artwork", got)
	}
}

func TestRESTLookup_EmotionImageURL(t *testing.T) {
	l, err := NewRESTLookup("http://api.example.test", "u1")
	if err != nil {
		t.Fatalf("NewRESTLookup: %v", err)
	}
	u, err := l.EmotionImageURL("char-1", "happy_mid")
	if err != nil {
		t.Fatalf("EmotionImageURL: %v", err)
	}
	want := "http://api.example.test/characters/char-1/emotion-pack/happy_mid/file"
	if u.String() != want {
		t.Errorf("url = %s; want %s", u, want)
	}
}
