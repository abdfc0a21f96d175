package main

import (
	"log"

	_ "toolgate/docs"
	"toolgate/internal/app"
)

// @title toolgate API
// @version 1.0
// @description Admission control for tool execution and discovery calls
// @BasePath /
func main() {
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
