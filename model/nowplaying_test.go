package model

import "testing"

func TestTrackIDStable(t *testing.T) {
	a := TrackID("Muse", "Hysteria")
	b := TrackID(" muse ", "HYSTERIA")
	if a != b {
		t.Errorf("TrackID not case/whitespace insensitive: %s != %s", a, b)
	}
	if a == "" {
		t.Error("TrackID returned empty id")
	}
}

func TestTrackIDWhitespaceRuns(t *testing.T) {
	a := TrackID("Nine  Inch\tNails", "The   Hand That Feeds")
	b := TrackID("nine inch nails", "the hand that feeds")
	if a != b {
		t.Errorf("inner whitespace runs should not change identity: %s != %s", a, b)
	}
}

func TestTrackIDDistinguishesTracks(t *testing.T) {
	if TrackID("Muse", "Hysteria") == TrackID("Muse", "Bliss") {
		t.Error("different titles must yield different ids")
	}
	if TrackID("Muse", "Hysteria") == TrackID("Def Leppard", "Hysteria") {
		t.Error("different artists must yield different ids")
	}
}

func TestTrackIDFieldBoundary(t *testing.T) {
	// (artist, title) pairs must not collide across the separator
	if TrackID("ab", "c") == TrackID("a", "bc") {
		t.Error("identity must keep artist and title separate")
	}
}

func TestNowPlayingEqual(t *testing.T) {
	a := &NowPlaying{ID: "x", Artist: "Muse", Track: "Hysteria", NowPlaying: true}
	b := a.Clone()
	if !a.Equal(b) {
		t.Error("clone should be equal")
	}

	b.AlbumArt = "https://example.com/art.jpg"
	if a.Equal(b) {
		t.Error("metadata difference should break equality")
	}

	var nilNP *NowPlaying
	if a.Equal(nilNP) {
		t.Error("non-nil should not equal nil")
	}
	if !nilNP.Equal(nil) {
		t.Error("nil should equal nil")
	}
}
