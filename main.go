package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/nickysemenza/gola"
	"github.com/robmorgan/hypertone/audio"
	"github.com/robmorgan/hypertone/choreography"
	"github.com/robmorgan/hypertone/config"
	"github.com/robmorgan/hypertone/engine"
	"github.com/robmorgan/hypertone/logger"
	"github.com/robmorgan/hypertone/monitor"
	"github.com/robmorgan/hypertone/output"
	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"
)

// Flags are the command line overrides applied on top of the config file.
type Flags struct {
	ConfigFile string
	WAV        string
	Library    string
	Watch      bool
	Pattern    string
	FPS        int
	OSC        bool
	DMX        bool
	Monitor    bool
	LogFile    string
}

func main() {
	var f Flags
	flag.StringVar(&f.ConfigFile, "config", "", "configuration file path (YAML)")
	flag.StringVar(&f.WAV, "wav", "", "WAV file analysed in real time")
	flag.StringVar(&f.Library, "library", "", "sequence library document (YAML or JSON)")
	flag.BoolVar(&f.Watch, "watch", false, "reload the sequence library when it changes")
	flag.StringVar(&f.Pattern, "pattern", "", "initial rotation pattern")
	flag.IntVar(&f.FPS, "fps", 0, "ticks per second")
	flag.BoolVar(&f.OSC, "osc", false, "send parameter values over OSC")
	flag.BoolVar(&f.DMX, "dmx", false, "send patched parameter values to OLA")
	flag.BoolVar(&f.Monitor, "monitor", false, "show the terminal monitor")
	flag.StringVar(&f.LogFile, "log-file", "hypertone.log", "log destination while the monitor is shown")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := Run(context.Background(), f); err != nil {
		logger.GetProjectLogger().Fatalf("hypertone: %v", err)
	}
}

func loadConfig(f Flags) (*config.Config, error) {
	cfg := config.NewConfig()
	if f.ConfigFile != "" {
		loaded, err := config.Load(f.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if f.WAV != "" {
		cfg.Audio.File = f.WAV
	}
	if f.Library != "" {
		cfg.Library.Path = f.Library
	}
	cfg.Library.Watch = cfg.Library.Watch || f.Watch
	if f.Pattern != "" {
		cfg.Pattern = f.Pattern
	}
	if f.FPS > 0 {
		cfg.FPS = f.FPS
	}
	cfg.OSC.Enabled = cfg.OSC.Enabled || f.OSC
	cfg.DMX.Enabled = cfg.DMX.Enabled || f.DMX
	cfg.Monitor = cfg.Monitor || f.Monitor

	return cfg, cfg.Validate()
}

// Run starts the engine and its collaborators and blocks until interrupted or the monitor quits.
func Run(ctx context.Context, f Flags) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	log := logger.GetProjectLogger()

	log.Info("Initializing config...")
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}
	if os.Getenv(logger.LevelEnvVar) == "" && cfg.LogLevel != "" {
		if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
			log.SetLevel(lvl)
		}
	}
	if cfg.Monitor {
		out, err := os.OpenFile(f.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		defer out.Close()
		log.SetOutput(out)
	}

	log.Info("Initializing engine...")
	e, err := engine.New(cfg.EngineOptions(), log)
	if err != nil {
		return err
	}

	if cfg.Library.Path != "" {
		seqs, err := choreography.ReadLibraryFile(cfg.Library.Path, log)
		if err != nil {
			log.Errorf("could not load sequence library, continuing without sequences: %v", err)
		} else if err := e.Orchestrator().Replace(seqs); err != nil {
			log.Errorf("could not install sequence library: %v", err)
		} else {
			log.WithField("sequences", len(seqs)).Info("Sequence library loaded")
		}
	}

	var source audio.Source
	if cfg.Audio.File != "" {
		wav, err := audio.OpenWAV(cfg.Audio.File, cfg.Audio.WindowSize, cfg.Audio.HopSize, cfg.Audio.Loop)
		if err != nil {
			return err
		}
		defer wav.Close()
		source = wav
		log.WithField("file", cfg.Audio.File).Infof("Analysing WAV at %.0f Hz", wav.SampleRate())
	} else {
		log.Warn("No audio source configured, frames will be silent")
	}

	wg := sync.WaitGroup{}
	var sinks []engine.Sink

	if cfg.OSC.Enabled {
		log.Infof("Sending OSC to %s:%d", cfg.OSC.Host, cfg.OSC.Port)
		sinks = append(sinks, output.NewOSCSink(cfg.OSC.Host, cfg.OSC.Port, cfg.OSC.Prefix))
	}

	if cfg.DMX.Enabled {
		log.Info("Connecting to OLA...")
		client, err := gola.New(cfg.DMX.OLA)
		if err != nil {
			log.Errorf("could not connect to OLA: %v", err)
		} else {
			state := output.NewDMXState()
			sinks = append(sinks, output.NewDMXSink(state, cfg.DMX.Patch, cfg.Profiles))
			wg.Add(1)
			go output.SendDMXWorker(ctx, client, clock.RealClock{}, cfg.DMX.Interval, state, log, &wg)
		}
	}

	var mon *monitor.Sink
	if cfg.Monitor {
		mon = monitor.NewSink()
		sinks = append(sinks, mon)
	}

	runner := engine.NewRunner(e, source, clock.RealClock{}, cfg.FPS, log, sinks...)
	submit := func(cmd engine.Command) {
		if err := runner.Do(ctx, cmd); err != nil {
			log.Debugf("dropped command: %v", err)
		}
	}

	if cfg.Library.Path != "" && cfg.Library.Watch {
		w, err := choreography.NewWatcher(cfg.Library.Path, log)
		if err != nil {
			log.Errorf("could not watch sequence library: %v", err)
		} else {
			runner.WatchLibrary(w.Updates())
			wg.Add(1)
			go w.Run(ctx, &wg)
		}
	}

	if cfg.OSC.Listen != "" {
		listener := output.NewControlListener(cfg.OSC.Listen, cfg.OSC.Prefix, submit, clock.RealClock{}, log)
		wg.Add(1)
		go func() {
			if err := listener.Run(ctx, &wg); err != nil {
				log.Errorf("OSC control listener stopped: %v", err)
			}
		}()
	}

	// patterns are read before the runner owns the engine
	patterns := e.Orchestrator().Patterns().Names()

	log.Info("Processing ticks forever...")
	wg.Add(1)
	go runner.Run(ctx, &wg)

	if mon != nil {
		m := monitor.New(mon.Snapshots(), submit, cfg.Profiles, patterns)
		if _, err := tea.NewProgram(m).Run(); err != nil {
			log.Errorf("monitor: %v", err)
		}
	} else {
		// handle CTRL+C interrupt
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt)
		select {
		case <-quit:
		case <-ctx.Done():
		}
	}

	log.Println("shutting down hypertone")
	cancel()
	wg.Wait()
	return nil
}
