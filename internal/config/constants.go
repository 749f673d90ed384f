package config

// Default paths
const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./deckport.db"

	// DefaultVaultDir is the default root for exported notes and attachments
	DefaultVaultDir = "./vault"
)
