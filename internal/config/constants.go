package config

// Default paths
const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./scripture.db"

	// DefaultCorpusDir holds one {language}.json bible per reader language
	DefaultCorpusDir = "./bibles"
)
