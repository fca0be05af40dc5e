package logger

// Console implements a console based logger.
type Console struct {
	Enabled          bool
	UseConsoleWriter bool
}

// Rotation configures one lumberjack rolling file.
type Rotation struct {
	Name       string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
}

// LogFile implements a file based logger with one rolling file per level group.
type LogFile struct {
	Enabled bool
	Path    string

	Access Rotation
	Error  Rotation
	Info   Rotation
	Trace  Rotation
	Warn   Rotation
}

// Log implements the logger config.
type Log struct {
	LogLevel string // trace, debug, info, warn, error.

	// EnableAccessLogToConsole if true the webservice access log goes to the console too.
	// Does not overrule flag Console.Enabled!
	EnableAccessLogToConsole bool
	ReportCaller             bool
	DisableCheckAlive        bool // do not log /healthz calls

	AppName     string
	ServiceName string

	// Console used mainly for docker and dev.
	Console Console

	File LogFile
}

// withDefaults fills empty rolling file names.
func (f LogFile) withDefaults() LogFile {
	def := func(r Rotation, name string) Rotation {
		if r.Name == "" {
			r.Name = name
		}

		return r
	}

	f.Access = def(f.Access, "access.log")
	f.Error = def(f.Error, "error.log")
	f.Info = def(f.Info, "info.log")
	f.Trace = def(f.Trace, "trace.log")
	f.Warn = def(f.Warn, "warn.log")

	return f
}
