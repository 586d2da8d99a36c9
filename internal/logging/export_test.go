package logging

// NewLoggerForTest exposes newLogger with an injectable stdout.
var NewLoggerForTest = newLogger
