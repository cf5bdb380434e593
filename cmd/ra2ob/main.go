package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"ra2ob/attach"
	"ra2ob/catalog"
	"ra2ob/config"
	"ra2ob/engine"
	"ra2ob/process_blob"
	"ra2ob/process_finder"
	"ra2ob/publish"
	"ra2ob/snapshot"

	"github.com/mattn/go-isatty"
)

func main() {
	configFlag := flag.String("config", "", "Observer configuration file (YAML)")
	jsonFlag := flag.Bool("json", false, "Print JSON lines even on a terminal")
	briefFlag := flag.Bool("brief", false, "Print one line per player")
	everyFlag := flag.Duration("every", time.Second, "Print interval")
	listenFlag := flag.String("listen", "", "Serve snapshots over websocket on this address")
	recordFlag := flag.String("record", "", "Record the memory the observer reads to this file")
	replayFlag := flag.String("replay", "", "Replay a recorded file instead of attaching")
	flag.Parse()

	// --------------------
	// Load + validate config
	// --------------------

	cfg := config.Default()
	if *configFlag != "" {
		var err error
		cfg, err = config.Load(*configFlag)
		if err != nil {
			log.Fatalf("config load failed: %v", err)
		}
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}
	config.Normalize(cfg)
	o := cfg.Observer

	if *listenFlag != "" {
		o.Publish.Listen = *listenFlag
	}
	if *recordFlag != "" && *replayFlag != "" {
		log.Fatal("-record and -replay cannot be combined")
	}

	cat, err := catalog.LoadFiles(o.Catalog.Panel, o.Catalog.Units)
	if err != nil {
		log.Fatalf("catalog load failed: %v", err)
	}

	// --------------------
	// Attacher
	// --------------------

	var (
		attacher engine.Attacher
		recorded *process_blob.ProcessDump
	)
	if *replayFlag != "" {
		r, err := attach.LoadReplay(*replayFlag)
		if err != nil {
			log.Fatalf("replay load failed: %v", err)
		}
		attacher = r
	} else {
		m := attach.NewManager(process_finder.New(), attach.DefaultOpener(), o.ProcessName, o.InstallDir)
		if *recordFlag != "" {
			recorded = process_blob.NewProcessDump()
			m.Record(recorded)
		}
		attacher = m
	}

	ecfg := engine.Config{
		AttachInterval: o.AttachInterval(),
		FetchInterval:  o.FetchInterval(),
		Layout:         o.Layout,
		Catalog:        cat,
		Countries:      catalog.DefaultCountries().Merge(o.Countries),
	}

	// the hub reads from the engine, the engine pushes to the hub
	var hub *publish.Hub
	if o.Publish.Listen != "" {
		ecfg.OnPublish = func(s *snapshot.GameSnapshot) { hub.Broadcast(s) }
	}
	eng, err := engine.New(ecfg, attacher)
	if err != nil {
		log.Fatalf("engine: %v", err)
	}
	if o.Publish.Listen != "" {
		hub = publish.NewHub(eng)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		eng.Run(ctx)
	}()

	if hub != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := hub.ListenAndServe(ctx, o.Publish.Listen, o.Publish.Path); err != nil {
				log.Printf("publish: %v", err)
			}
		}()
	}

	asJSON := *jsonFlag || !(isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()))
	printLoop(ctx, eng, *everyFlag, asJSON, *briefFlag)

	wg.Wait()

	if recorded != nil {
		if err := recorded.Save(*recordFlag); err != nil {
			log.Fatalf("save recording: %v", err)
		}
		log.Printf("recorded %d regions to %s", len(recorded.Regions()), *recordFlag)
	}
}

func printLoop(ctx context.Context, eng *engine.Engine, every time.Duration, asJSON, brief bool) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	enc := json.NewEncoder(os.Stdout)
	var last uint64
	printed := false

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		s := eng.Snapshot()
		if asJSON {
			if err := enc.Encode(s); err != nil {
				log.Printf("encode: %v", err)
			}
			continue
		}
		if !s.Valid && printed && s.Generation == last {
			continue
		}
		printed = true
		last = s.Generation
		printSnapshot(os.Stdout, s, brief)
	}
}
