package entities

// Book is one book of a verse corpus as supplied by the bible JSON files.
// Chapters are indexed from zero: Chapters[chapter-1][verse-1].
type Book struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Chapters [][]string `json:"chapters"`
}
