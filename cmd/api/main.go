package main

import "github.com/adanyl0v/taskboard/internal/app"

func main() {
	app.InitDefaultLogger("taskboard-api")
	app.MustReadEnv()
	app.MustInitApplicationLogger()

	app.MustInitStorage()
	defer app.CloseStorage()

	app.InitRateLimiter()
	defer app.CloseRateLimiter()

	app.MustListenAndServeHTTP()
}
