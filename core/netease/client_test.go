package netease

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "exhigh", 100, nil), srv
}

func TestSongURL(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/song/url/v1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("id") != "42" {
			t.Errorf("unexpected id %s", r.URL.Query().Get("id"))
		}
		if r.URL.Query().Get("level") != "exhigh" {
			t.Errorf("unexpected level %s", r.URL.Query().Get("level"))
		}
		w.Write([]byte(`{"data":[{"id":42,"url":"http://upstream/42.mp3","br":320000}],"code":200}`))
	}))

	url, err := client.SongURL(context.Background(), 42)
	if err != nil {
		t.Fatalf("SongURL: %v", err)
	}
	if url != "http://upstream/42.mp3" {
		t.Fatalf("unexpected url %q", url)
	}
}

func TestSongURLUnavailable(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":42,"url":""}],"code":200}`))
	}))

	_, err := client.SongURL(context.Background(), 42)
	if !errors.Is(err, ErrSongUnavailable) {
		t.Fatalf("expected ErrSongUnavailable, got %v", err)
	}
}

func TestSongURLGatewayError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[],"code":301,"msg":"need login"}`))
	}))

	_, err := client.SongURL(context.Background(), 42)
	if err == nil {
		t.Fatal("expected error on non-200 gateway code")
	}
	if errors.Is(err, ErrSongUnavailable) {
		t.Fatal("gateway errors must not be reported as unavailable")
	}
}

func TestSongURLHTTPFailure(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	if _, err := client.SongURL(context.Background(), 42); err == nil {
		t.Fatal("expected error on non-200 HTTP status")
	}
}

func TestUserPlaylists(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user/playlist" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"playlist":[
			{"id":100,"name":"Daily Mix","coverImgUrl":"http://img/100.jpg","trackCount":30},
			{"id":101,"name":"Favourites","coverImgUrl":"","trackCount":2}
		],"code":200}`))
	}))

	playlists, err := client.UserPlaylists(context.Background(), "555")
	if err != nil {
		t.Fatalf("UserPlaylists: %v", err)
	}
	if len(playlists) != 2 {
		t.Fatalf("expected 2 playlists, got %d", len(playlists))
	}
	if playlists[0].ID != 100 || playlists[0].Name != "Daily Mix" || playlists[0].TrackCount != 30 {
		t.Fatalf("unexpected playlist payload: %+v", playlists[0])
	}
	if playlists[0].CoverURL != "http://img/100.jpg" {
		t.Fatalf("coverImgUrl not mapped: %+v", playlists[0])
	}
}

func TestPlaylistTracks(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"songs":[
			{"id":1,"name":"One","artists":[{"id":9,"name":"A"}],"album":{"id":7,"name":"Alb","picUrl":"http://img/a.jpg"},"duration":201000}
		],"code":200}`))
	}))

	songs, err := client.PlaylistTracks(context.Background(), 100)
	if err != nil {
		t.Fatalf("PlaylistTracks: %v", err)
	}
	if len(songs) != 1 {
		t.Fatalf("expected 1 song, got %d", len(songs))
	}
	song := songs[0]
	if song.ID != 1 || song.Name != "One" || song.Duration != 201000 {
		t.Fatalf("unexpected song payload: %+v", song)
	}
	if song.Album.ID != 7 || song.Album.PicURL != "http://img/a.jpg" {
		t.Fatalf("unexpected album payload: %+v", song.Album)
	}
}

func TestSearchFallsBackToArtistPortrait(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":{"songs":[
			{"id":1,"name":"One","artists":[{"id":9,"name":"A","img1v1Url":"http://img/artist.jpg"}],
			 "album":{"id":7,"name":"Alb","picUrl":""},"duration":1000}
		],"songCount":1},"code":200}`))
	}))

	result, err := client.Search(context.Background(), "one", 10, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if result.Total != 1 || len(result.Songs) != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Songs[0].Album.PicURL != "http://img/artist.jpg" {
		t.Fatalf("expected artist portrait fallback, got %q", result.Songs[0].Album.PicURL)
	}
}

func TestLyric(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"lrc":{"lyric":"[00:01] hello"},"tlyric":{"lyric":"[00:01] 你好"},"code":200}`))
	}))

	lyric, err := client.Lyric(context.Background(), 42)
	if err != nil {
		t.Fatalf("Lyric: %v", err)
	}
	if lyric.SongID != 42 || lyric.Lyric != "[00:01] hello" || lyric.TransLyric != "[00:01] 你好" {
		t.Fatalf("unexpected lyric: %+v", lyric)
	}
}
