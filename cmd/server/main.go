package main

import "emsconsole/internal/app/server"

func main() {
	server.Run()
}
