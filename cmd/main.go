package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"story-agent/internal/logging"
	"story-agent/internal/model"
	"story-agent/internal/service"
)

func main() {
	// Load .env file if it exists (try multiple paths)
	envPaths := []string{".env", "../.env", "../../.env"}
	for _, path := range envPaths {
		_ = godotenv.Load(path)
	}

	videoPath := flag.String("video", "", "process a single video file and exit")
	captionPath := flag.String("caption", "", "classify a file name and print caption/style, no composition")
	musicStyle := flag.String("music", "", "pick a music track for a style and exit")
	flag.Parse()

	logDir := firstNonEmpty(os.Getenv("STORY_LOG_DIR"), "logs")
	log, err := logging.New(logDir)
	if err != nil {
		panic(err)
	}
	defer log.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Stop on SIGINT/SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Infof("shutdown signal received")
		cancel()
	}()

	svc, err := service.BuildService(ctx, log)
	if err != nil {
		log.Errorf("build service: %v", err)
		os.Exit(1)
	}

	switch {
	case *videoPath != "":
		job, err := svc.ProcessFile(ctx, *videoPath)
		if err != nil {
			log.Errorf("process %s: %v", *videoPath, err)
			os.Exit(1)
		}
		fmt.Println(job.OutputPath)

	case *captionPath != "":
		caption, style := svc.CaptionFor(ctx, *captionPath)
		fmt.Printf("%s\t%s\n", caption, style)

	case *musicStyle != "":
		style := model.Style(*musicStyle)
		if !style.Valid() {
			log.Errorf("unknown style %q, known: %v", *musicStyle, model.AllStyles())
			os.Exit(1)
		}
		track, err := svc.TrackFor(style)
		if err != nil {
			log.Errorf("select track: %v", err)
			os.Exit(1)
		}
		fmt.Println(track)

	default:
		if err := svc.Run(ctx); err != nil {
			log.Errorf("service stopped: %v", err)
			os.Exit(1)
		}
	}
}

func firstNonEmpty(v ...string) string {
	for _, s := range v {
		if s != "" {
			return s
		}
	}
	return ""
}
