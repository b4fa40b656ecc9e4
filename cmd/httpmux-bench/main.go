// Command httpmux-bench drives concurrent ranged GETs against a single
// remote URL across a sweep of block sizes, timing each sweep. All
// fan-out goes through one shared httpmux engine rather than one
// transport handle per worker thread.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dentiny/httpmux/httpmux/client"
	"github.com/dentiny/httpmux/httpmux/engine"
	"github.com/dentiny/httpmux/httpmux/netinfo"
	"github.com/dentiny/httpmux/httpmux/pools"
	"github.com/dentiny/httpmux/httpmux/transfer"
)

func main() {
	url := flag.String("url", "https://raw.githubusercontent.com/dentiny/duck-read-cache-fs/main/test/data/stock-exchanges.csv", "remote file to range-read")
	concurrency := flag.Int("concurrency", 64, "concurrent in-flight range requests per block size")
	blockSizesFlag := flag.String("block-sizes", "16,128,1024,8192,65536,524288,2097152", "comma-separated block sizes in bytes")
	flag.Parse()

	blockSizes, err := parseBlockSizes(*blockSizesFlag)
	if err != nil {
		log.Fatalf("bad -block-sizes: %v", err)
	}

	endpoints := netinfo.NewRecorder()
	cl, err := client.New(client.WithConnInfoSink(func(ci netinfo.ConnInfo) {
		endpoints.Record(ci.RemoteIP)
	}))
	if err != nil {
		log.Fatalf("client.New: %v", err)
	}

	fileSize, err := headContentLength(cl, *url)
	if err != nil {
		log.Fatalf("HEAD %s: %v", *url, err)
	}
	log.Printf("benchmarking %s (%d bytes) with concurrency=%d", *url, fileSize, *concurrency)

	for _, blockSize := range blockSizes {
		runSweep(cl, *url, fileSize, blockSize, *concurrency)
	}
	log.Printf("remote endpoints reached: %v", endpoints.AllIPs())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := engine.Shutdown(ctx); err != nil {
		log.Printf("engine shutdown: %v", err)
	}
}

func parseBlockSizes(csv string) ([]int, error) {
	parts := strings.Split(csv, ",")
	sizes := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("%q: %w", p, err)
		}
		sizes = append(sizes, n)
	}
	return sizes, nil
}

func headContentLength(cl *client.Client, url string) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	resp, err := cl.Head(ctx, url, nil)
	if err != nil {
		return 0, err
	}
	contentLength, ok := resp.Headers.Get("Content-Length")
	if !ok {
		return 0, fmt.Errorf("no Content-Length header in HEAD response")
	}
	return strconv.ParseInt(contentLength, 10, 64)
}

// runSweep splits [0, fileSize) into blockSize-sized ranges and reads
// every range through a worker pool, waiting for the whole sweep before
// reporting.
func runSweep(cl *client.Client, url string, fileSize int64, blockSize, concurrency int) {
	offsets := make([]int64, 0, fileSize/int64(blockSize)+1)
	for off := int64(0); off < fileSize; off += int64(blockSize) {
		offsets = append(offsets, off)
	}

	wp := pools.NewWorkerPool(concurrency)
	var wg sync.WaitGroup
	var failed int64
	var mu sync.Mutex

	start := time.Now()
	for _, off := range offsets {
		off := off
		end := off + int64(blockSize) - 1
		if end >= fileSize {
			end = fileSize - 1
		}
		wg.Add(1)
		task := func() {
			defer wg.Done()
			if err := readRange(cl, url, off, end); err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}
		if !wp.Submit(task) {
			task()
		}
	}
	wg.Wait()
	wp.Close()
	elapsed := time.Since(start)

	log.Printf("block size %7d: %4d ranges in %v (failed=%d)", blockSize, len(offsets), elapsed, failed)
}

func readRange(cl *client.Client, url string, start, end int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	headers := map[string]string{"Range": fmt.Sprintf("bytes=%d-%d", start, end)}
	resp, err := cl.Get(ctx, url, headers)
	if err != nil {
		return err
	}
	if transfer.IsErrorStatus(resp.Status) {
		return fmt.Errorf("range %d-%d: status %d", start, end, resp.Status)
	}
	return nil
}
