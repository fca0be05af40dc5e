package main

import (
	"os"

	"github.com/logmonitor/logmonitor/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
