package main

import (
	"exusiai.dev/stageflow/cmd/app"
)

func main() {
	app.Run()
}
