package main

import "github.com/twmiller/dl-44/internal/app"

func main() {
	app.New().Run()
}
