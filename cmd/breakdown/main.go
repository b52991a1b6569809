package main

import (
	"os"

	"horse.fit/breakdown/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
