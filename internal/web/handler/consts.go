package handler

const (
	// BaseLayout is the default path for layout templates.
	BaseLayout = "layouts/base"

	// RootPath is the root path the route group.
	RootPath = "/"

	// ErrNilDepsFatalLogMsg is used if app or one of the required dependencies is nil.
	ErrNilDepsFatalLogMsg = "app or handler dependencies are nil"
)
