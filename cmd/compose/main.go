// story-compose is the isolated composition worker. The parent service
// starts one process per job and kills it on deadline, so a stuck ffmpeg
// never wedges the watcher loop.
//
// Usage: story-compose <video> <music> <caption> <output>
//
// The final stdout line is "result: ok|degraded|simulated"; errors go to
// stderr with a non-zero exit code.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"story-agent/internal/compose"
	"story-agent/internal/logging"
)

func main() {
	if len(os.Args) != 5 {
		fmt.Fprintf(os.Stderr, "usage: %s <video> <music> <caption> <output>\n", os.Args[0])
		os.Exit(2)
	}
	videoPath, musicPath, caption, outputPath := os.Args[1], os.Args[2], os.Args[3], os.Args[4]

	logDir := os.Getenv("STORY_LOG_DIR")
	if logDir == "" {
		logDir = "logs"
	}
	log, err := logging.Reopen(logDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	fmt.Printf("composing %s\n", videoPath)
	engine := compose.NewEngine(log, os.Getenv("STORY_FFMPEG_BIN"), os.Getenv("STORY_FFPROBE_BIN"), os.Getenv("STORY_WORK_DIR"))
	result, err := engine.Compose(ctx, videoPath, musicPath, caption, outputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "compose: %v\n", err)
		os.Exit(1)
	}

	switch {
	case result.Simulated:
		fmt.Println("result: simulated")
	case result.Degraded:
		fmt.Println("result: degraded")
	default:
		fmt.Println("result: ok")
	}
}
