// SPDX-License-Identifier: MIT

// Command tzf-server answers time zone lookups over HTTP from a built
// binary index.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tzfinder"
)

var dataLoader *DataLoader

var lookupCounter = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tzfinder_lookups_total",
		Help: "Number of /tz lookups by outcome.",
	},
	[]string{"status"},
)

func main() {
	var portFlag = flag.Int("port", 0, "port for serving HTTP requests")
	var dataFlag = flag.String("data", tzfinder.DefaultDataFilename, "path to the binary index")
	flag.Parse()

	port := *portFlag
	if port == 0 {
		port, _ = strconv.Atoi(os.Getenv("PORT"))
	}

	var err error
	dataLoader, err = NewDataLoader(*dataFlag)
	if err != nil {
		log.Fatal(err)
		return
	}

	prometheus.MustRegister(lookupCounter)

	ticker := time.NewTicker(30 * time.Second)
	done := make(chan bool)
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := dataLoader.Reload(); err != nil {
					// Log an error, but keep serving previous data.
					log.Printf("failed to reload data: %q", err)
				}
			}
		}
	}()
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/", handleMain)
	http.HandleFunc("/tz", handleLookup)
	http.ListenAndServe(":"+strconv.Itoa(port), nil)
	done <- true
}

func handleMain(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "%s",
		`<html>
<head><title>TZFinder</title></head>
<body><h1>TZFinder</h1>

<p>Answers which IANA time zone applies at a coordinate, from a
pre-computed spatial index. Query with
<a href="/tz?lng=2.255419&amp;lat=47.479083">/tz?lng=&hellip;&amp;lat=&hellip;</a>.
Over open water the response falls back to a nautical
<code>Etc/GMT</code> zone derived from the longitude.</p>

</body></html>`)
}

type lookupResponse struct {
	TimeZones []string `json:"timezones"`
}

func handleLookup(w http.ResponseWriter, r *http.Request) {
	lng, errLng := strconv.ParseFloat(r.URL.Query().Get("lng"), 32)
	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 32)
	if errLng != nil || errLat != nil {
		lookupCounter.WithLabelValues("bad_request").Inc()
		http.Error(w, "need numeric lng and lat query parameters", http.StatusBadRequest)
		return
	}

	ids, err := dataLoader.Get().AllIDsAt(float32(lng), float32(lat))
	if err != nil {
		if errors.Is(err, tzfinder.ErrOutOfRange) {
			lookupCounter.WithLabelValues("out_of_range").Inc()
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		lookupCounter.WithLabelValues("error").Inc()
		http.Error(w, http.StatusText(http.StatusInternalServerError),
			http.StatusInternalServerError)
		return
	}

	lookupCounter.WithLabelValues("ok").Inc()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(lookupResponse{TimeZones: ids})
}
