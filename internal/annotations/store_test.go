package annotations

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/scripture/internal/corpus"
	"github.com/mrlokans/scripture/internal/entities"
	"github.com/mrlokans/scripture/internal/kvstore"
)

func newTestStore(t *testing.T) (*Store, *kvstore.Memory) {
	t.Helper()
	kv := kvstore.NewMemory()
	return New(kv, nil), kv
}

func rng(book string, chapter, start, end int) entities.VerseRange {
	return entities.VerseRange{BookID: book, Chapter: chapter, StartVerse: start, EndVerse: end}
}

func TestStore_ToggleBookmark(t *testing.T) {
	s, kv := newTestStore(t)
	r := rng("gn", 1, 1, 3)

	added, err := s.ToggleBookmark(r)
	require.NoError(t, err)
	assert.True(t, added)
	require.Len(t, s.Bookmarks(), 1)
	assert.Equal(t, "gn 1:1-3", s.Bookmarks()[0].ID)

	raw, ok, _ := kv.Get(entities.SettingKeyBookmarks)
	require.True(t, ok)
	var stored []entities.Bookmark
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.Equal(t, s.Bookmarks(), stored)

	added, err = s.ToggleBookmark(r)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Empty(t, s.Bookmarks())
}

func TestStore_ToggleBookmarkIsItsOwnInverse(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.ToggleBookmark(rng("ex", 2, 1, 1))
	require.NoError(t, err)

	ranges := []entities.VerseRange{
		rng("gn", 1, 1, 1),
		rng("gn", 1, 1, 5),
		rng("ex", 2, 1, 1),
		rng("rv", 22, 21, 21),
	}
	for _, r := range ranges {
		before := s.Bookmarks()
		_, err := s.ToggleBookmark(r)
		require.NoError(t, err)
		_, err = s.ToggleBookmark(r)
		require.NoError(t, err)
		assert.ElementsMatch(t, before, s.Bookmarks(), "range %+v", r)
	}
}

func TestStore_IsBookmarkedContainment(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.ToggleBookmark(rng("mt", 5, 3, 7))
	require.NoError(t, err)

	for v := 3; v <= 7; v++ {
		b := s.IsBookmarked("mt", 5, v)
		require.NotNil(t, b, "verse %d", v)
		assert.Equal(t, "mt 5:3-7", b.ID)
	}
	assert.Nil(t, s.IsBookmarked("mt", 5, 2))
	assert.Nil(t, s.IsBookmarked("mt", 5, 8))
	assert.Nil(t, s.IsBookmarked("mt", 6, 3))
	assert.Nil(t, s.IsBookmarked("mk", 5, 3))
}

func TestStore_OverlappingRangesCoexist(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.ToggleBookmark(rng("jo", 3, 16, 16))
	require.NoError(t, err)
	_, err = s.ToggleBookmark(rng("jo", 3, 14, 18))
	require.NoError(t, err)
	assert.Len(t, s.Bookmarks(), 2)

	// first inserted record wins on lookup
	assert.Equal(t, "jo 3:16", s.IsBookmarked("jo", 3, 16).ID)
	assert.Equal(t, "jo 3:14-18", s.IsBookmarked("jo", 3, 15).ID)

	// toggling the single verse only removes the exact id
	_, err = s.ToggleBookmark(rng("jo", 3, 16, 16))
	require.NoError(t, err)
	require.Len(t, s.Bookmarks(), 1)
	assert.Equal(t, "jo 3:14-18", s.IsBookmarked("jo", 3, 16).ID)
}

func TestStore_InvalidRange(t *testing.T) {
	s, kv := newTestStore(t)
	writes := kv.Writes()

	_, err := s.ToggleBookmark(rng("gn", 1, 5, 2))
	assert.ErrorIs(t, err, entities.ErrInvalidRange)
	assert.ErrorIs(t, s.SetHighlight(rng("", 1, 1, 1), "yellow"), entities.ErrInvalidRange)
	assert.ErrorIs(t, s.SaveNote(rng("gn", 0, 1, 1), "x"), entities.ErrInvalidRange)
	assert.Equal(t, writes, kv.Writes())
}

func TestStore_Highlights(t *testing.T) {
	t.Run("overwrite keeps one record", func(t *testing.T) {
		s, _ := newTestStore(t)
		r := rng("ps", 23, 1, 6)
		require.NoError(t, s.SetHighlight(r, "yellow"))
		require.NoError(t, s.SetHighlight(r, "blue"))

		require.Len(t, s.Highlights(), 1)
		color, ok := s.GetHighlight("ps", 23, 4)
		assert.True(t, ok)
		assert.Equal(t, "blue", color)
	})

	t.Run("empty color removes", func(t *testing.T) {
		s, _ := newTestStore(t)
		r := rng("ps", 23, 1, 1)
		require.NoError(t, s.SetHighlight(r, "yellow"))
		require.NoError(t, s.SetHighlight(r, ""))

		assert.Empty(t, s.Highlights())
		_, ok := s.GetHighlight("ps", 23, 1)
		assert.False(t, ok)
	})

	t.Run("removing a missing highlight is a no-op", func(t *testing.T) {
		s, _ := newTestStore(t)
		require.NoError(t, s.SetHighlight(rng("ps", 1, 1, 1), ""))
		assert.Empty(t, s.Highlights())
	})
}

func TestStore_Notes(t *testing.T) {
	s, _ := newTestStore(t)
	r := rng("jo", 1, 1, 3)

	require.NoError(t, s.SaveNote(r, "hello"))
	n := s.GetNote("jo", 1, 2)
	require.NotNil(t, n)
	assert.Equal(t, "hello", n.Text)
	assert.Equal(t, "jo 1:1-3", n.ID)

	require.NoError(t, s.SaveNote(r, "updated"))
	require.Len(t, s.Notes(), 1)
	assert.Equal(t, "updated", s.GetNote("jo", 1, 1).Text)

	require.NoError(t, s.SaveNote(r, "   "))
	assert.Nil(t, s.GetNote("jo", 1, 2))
	assert.Empty(t, s.Notes())
}

func TestStore_PersistenceFailureLeavesMemoryUnchanged(t *testing.T) {
	s, kv := newTestStore(t)
	require.NoError(t, s.SetHighlight(rng("gn", 1, 1, 1), "yellow"))
	kv.FailWrites(true)

	added, err := s.ToggleBookmark(rng("gn", 1, 1, 1))
	assert.ErrorIs(t, err, kvstore.ErrWriteFailed)
	assert.False(t, added)
	assert.Empty(t, s.Bookmarks())

	assert.ErrorIs(t, s.SetHighlight(rng("gn", 1, 1, 1), "blue"), kvstore.ErrWriteFailed)
	color, _ := s.GetHighlight("gn", 1, 1)
	assert.Equal(t, "yellow", color)

	assert.ErrorIs(t, s.SaveNote(rng("gn", 1, 1, 1), "x"), kvstore.ErrWriteFailed)
	assert.Nil(t, s.GetNote("gn", 1, 1))
}

func TestStore_ReloadsFromStorage(t *testing.T) {
	s, kv := newTestStore(t)
	_, err := s.ToggleBookmark(rng("gn", 1, 1, 1))
	require.NoError(t, err)
	require.NoError(t, s.SetHighlight(rng("gn", 1, 2, 4), "green"))
	require.NoError(t, s.SaveNote(rng("ex", 3, 14, 14), "I AM"))

	reloaded := New(kv, nil)
	assert.Equal(t, s.Bookmarks(), reloaded.Bookmarks())
	assert.Equal(t, s.Highlights(), reloaded.Highlights())
	assert.Equal(t, s.Notes(), reloaded.Notes())
	assert.Equal(t, Counts{Bookmarks: 1, Highlights: 1, Notes: 1}, reloaded.Counts())
}

func TestStore_CanonicalBookIDs(t *testing.T) {
	books := corpus.New("en", []entities.Book{
		{ID: "gn", Name: "Genesis", Chapters: [][]string{{"In the beginning"}}},
		{ID: "ex", Name: "Exodus", Chapters: [][]string{{"Now these are the names"}}},
	})
	s := New(kvstore.NewMemory(), books)

	_, err := s.ToggleBookmark(rng("Genesis", 1, 1, 1))
	require.NoError(t, err)
	require.Len(t, s.Bookmarks(), 1)
	assert.Equal(t, "gn", s.Bookmarks()[0].BookID)
	assert.Equal(t, "gn 1:1", s.Bookmarks()[0].ID)
	assert.Equal(t, "gn 1:1", s.RangeID(rng("Genesis", 1, 1, 1)))

	assert.NotNil(t, s.IsBookmarked("gn", 1, 1))
	assert.NotNil(t, s.IsBookmarked("genesis", 1, 1))
	assert.Nil(t, s.IsBookmarked("Exodus", 1, 1))
}

func TestStore_UnreadableCollectionLoadsEmpty(t *testing.T) {
	kv := kvstore.NewMemoryFrom(map[string]string{
		entities.SettingKeySchemaVersion: "1",
		entities.SettingKeyBookmarks:     "not json",
		entities.SettingKeyNotes:         `[{"bookId":"gn","chapter":1,"startVerse":1,"endVerse":1,"id":"gn 1:1","text":"kept"}]`,
	})
	s := New(kv, nil)
	assert.Empty(t, s.Bookmarks())
	require.NotNil(t, s.GetNote("gn", 1, 1))
	assert.Equal(t, "kept", s.GetNote("gn", 1, 1).Text)
}
