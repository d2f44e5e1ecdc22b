// Command calc_load drives concurrent pricing requests against a running
// bsprice server and reports throughput.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

type calculateRequest struct {
	S     float64 `json:"S"`
	K     float64 `json:"K"`
	T     float64 `json:"T"`
	R     float64 `json:"r"`
	Sigma float64 `json:"sigma"`
}

func main() {
	var (
		targetURL    string
		workers      int
		testDuration time.Duration
		invalidShare float64
	)

	flag.StringVar(&targetURL, "url", "http://localhost:8080/api/calculate", "calculate endpoint URL")
	flag.IntVar(&workers, "workers", 50, "number of concurrent workers")
	flag.DurationVar(&testDuration, "dur", 30*time.Second, "test duration (0 for until interrupted)")
	flag.Float64Var(&invalidShare, "invalid", 0.05, "share of requests sent with invalid inputs")
	flag.Parse()

	if workers <= 0 {
		log.Fatalf("invalid workers: %d", workers)
	}

	log.Printf("starting calculate load: url=%s workers=%d duration=%s", targetURL, workers, testDuration)

	transport := &http.Transport{
		MaxConnsPerHost:     workers + 10,
		MaxIdleConns:        workers + 10,
		MaxIdleConnsPerHost: workers + 10,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}
	client := &http.Client{Transport: transport, Timeout: 10 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if testDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, testDuration)
		defer cancel()
	}

	var st stats

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(i)))
		g.Go(func() error {
			for gctx.Err() == nil {
				body, err := json.Marshal(randomRequest(rng, invalidShare))
				if err != nil {
					return err
				}

				req, err := http.NewRequestWithContext(gctx, http.MethodPost, targetURL, bytes.NewReader(body))
				if err != nil {
					return err
				}
				req.Header.Set("Content-Type", "application/json")

				sent := time.Now()
				resp, err := client.Do(req)
				if err != nil {
					if gctx.Err() == nil {
						st.transportError()
					}
					continue
				}
				_, _ = io.Copy(io.Discard, resp.Body)
				_ = resp.Body.Close()
				st.record(resp.StatusCode, time.Since(sent))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Fatalf("load failed: %v", err)
	}

	elapsed := time.Since(start)
	total := st.total()
	fmt.Fprintf(os.Stdout, "requests=%d ok=%d rejected=%d failed=%d elapsed=%s rps=%.1f avg_latency=%s\n",
		total, st.ok.Load(), st.rejected.Load(), st.failed.Load(), elapsed.Round(time.Millisecond),
		float64(total)/elapsed.Seconds(), st.avgLatency())
}

// stats counts outcomes; latency covers every request that got a response.
type stats struct {
	ok         atomic.Int64
	rejected   atomic.Int64
	failed     atomic.Int64
	responses  atomic.Int64
	latencySum atomic.Int64
}

func (s *stats) record(status int, latency time.Duration) {
	s.responses.Add(1)
	s.latencySum.Add(int64(latency))

	switch status {
	case http.StatusOK:
		s.ok.Add(1)
	case http.StatusBadRequest:
		s.rejected.Add(1)
	default:
		s.failed.Add(1)
	}
}

// transportError counts a request that never got a response.
func (s *stats) transportError() {
	s.failed.Add(1)
}

func (s *stats) total() int64 {
	return s.ok.Load() + s.rejected.Load() + s.failed.Load()
}

func (s *stats) avgLatency() time.Duration {
	n := s.responses.Load()
	if n == 0 {
		return 0
	}
	return time.Duration(s.latencySum.Load() / n)
}

func randomRequest(rng *rand.Rand, invalidShare float64) calculateRequest {
	req := calculateRequest{
		S:     50 + rng.Float64()*100,
		K:     50 + rng.Float64()*100,
		T:     rng.Float64() * 3,
		R:     rng.Float64() * 0.1,
		Sigma: 0.05 + rng.Float64()*0.75,
	}
	if rng.Float64() < invalidShare {
		req.S = -req.S
	}
	return req
}
