package logger

// Component-specific logger functions

// Store returns a logger for entity store operations
func Store() Logger {
	return WithField("component", "store")
}

// Query returns a logger for query building operations
func Query() Logger {
	return WithField("component", "query")
}

// Assembler returns a logger for read-view assembly operations
func Assembler() Logger {
	return WithField("component", "assembler")
}

// Tx returns a logger for transaction lifecycle events
func Tx() Logger {
	return WithField("component", "tx")
}

// DB returns a logger for database connection operations
func DB() Logger {
	return WithField("component", "db")
}

// CLI returns a logger for CLI operations
func CLI() Logger {
	return WithField("component", "cli")
}
