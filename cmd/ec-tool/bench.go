package main

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/journeymidnight/liberasure/erasure_code"
	"github.com/journeymidnight/liberasure/utils"
	"github.com/journeymidnight/liberasure/xlog"
	"github.com/urfave/cli/v2"
)

// bench runs one coder per worker; each loop encodes the buffer and decodes
// it back from the last k fragments.
func bench(c *cli.Context) error {
	threadNum := utils.Max(1, c.Int("thread"))
	duration := time.Duration(c.Int("duration")) * time.Second
	size := c.Int("size")

	coders := make([]*erasure_code.ErasureCoder, 0, threadNum)
	defer func() {
		for _, coder := range coders {
			coder.Close()
		}
	}()
	for i := 0; i < threadNum; i++ {
		coder, err := coderFromContext(c)
		if err != nil {
			return err
		}
		coders = append(coders, coder)
	}

	data := make([]byte, size)
	utils.SetRandStringBytes(data)

	var lock sync.Mutex //protect latency, dropped and failed
	latency := utils.NewLatencyStatus(time.Microsecond, time.Minute)
	var count, dropped uint64
	var failed error

	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()
	stopper := utils.NewStopper(ctx)
	stopper.StopOnSignal(syscall.SIGINT, syscall.SIGTERM)
	start := time.Now()
	for _, coder := range coders {
		coder := coder
		stopper.RunWorker(func(ctx context.Context) {
			k := coder.DataFragments()
			for {
				select {
				case <-ctx.Done():
					return
				default:
				}
				begin := time.Now()
				fragments, err := coder.Encode(data)
				if err == nil {
					_, err = coder.Decode(fragments[len(fragments)-k:])
				}
				elapsed := time.Since(begin)

				lock.Lock()
				if err != nil {
					if failed == nil {
						failed = err
					}
					lock.Unlock()
					stopper.Close()
					return
				}
				if err := latency.Record(elapsed); err != nil {
					if dropped == 0 {
						xlog.Logger.Warnf("latency sample dropped: %v", err)
					}
					dropped++
				}
				lock.Unlock()
				atomic.AddUint64(&count, 1)
			}
		})
	}

	stopper.Wait()
	stopper.Close()

	if failed != nil {
		return failed
	}
	elapsed := time.Since(start)
	ops := atomic.LoadUint64(&count)
	w := c.App.Writer
	p := latency.Percentiles([]float64{50, 95, 99}, nil)
	fmt.Fprintf(w, "threads:%d size:%d ops:%d elapsed:%s\n", threadNum, size, ops, elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "ops:%.0f/s throughput:%s\n", float64(ops)/elapsed.Seconds(),
		utils.HumanReadableThroughput(float64(ops)*float64(size)/elapsed.Seconds()))
	fmt.Fprintf(w, "latency p50:%s p95:%s p99:%s\n", p[0], p[1], p[2])
	if dropped > 0 {
		fmt.Fprintf(w, "latency samples out of range: %d\n", dropped)
	}
	xlog.Logger.Infof("bench finished: %d ops in %s, %d samples out of range", ops, elapsed, dropped)
	return nil
}
