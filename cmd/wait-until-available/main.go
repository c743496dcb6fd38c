package main

import (
	"flag"
	"net/http"
	"os"
	"time"

	"gitlab.com/dirk.krummacker/contacts-api/internal/logger"
)

// Usage example on the command line:
// > go run ./cmd/wait-until-available -url=http://localhost:3000/contacts -timeout=2m
func main() {
	url := flag.String("url", "http://localhost:3000/contacts", "the endpoint that must answer with 200 OK")
	interval := flag.Duration("interval", 5*time.Second, "the time between two attempts")
	timeout := flag.Duration("timeout", 5*time.Minute, "the time after which to give up")
	flag.Parse()

	log, err := logger.New(os.Getenv("LOG_MODE"))
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	client := &http.Client{Timeout: *interval}
	deadline := time.Now().Add(*timeout)
	start := time.Now()
	for {
		res, err := client.Get(*url)
		if err == nil {
			res.Body.Close()
			if res.StatusCode == http.StatusOK {
				log.Info("Service is available", "url", *url, "waited", time.Since(start).Round(time.Second))
				return
			}
			log.Info("Service not ready", "url", *url, "status", res.StatusCode)
		} else {
			log.Info("Service not reachable", "url", *url, "error", err)
		}
		if time.Now().Add(*interval).After(deadline) {
			log.Error("Giving up", "url", *url, "timeout", *timeout)
			log.Sync()
			os.Exit(1)
		}
		log.Info("Waiting", "seconds", time.Since(start).Round(time.Second).Seconds()+interval.Seconds())
		time.Sleep(*interval)
	}
}
