package core

// Logger is any structured logger the app can report to.
// expected args: error | map[string]interface{} | Person
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Person identifies the acting user in log reports.
// ID is the opaque user ID handed out by the identity provider.
type Person struct {
	ID    string
	Email string
}
