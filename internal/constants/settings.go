package constants

const (
	// Default settings values
	DefaultTimezone   = "Local" // Use system local timezone by default
	DefaultMedication = "OZEMPIC"
	DefaultUserID     = "local"
)
