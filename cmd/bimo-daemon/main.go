package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	"github.com/lmittmann/tint"
	log "log/slog"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"bimo/internal/audio"
	"bimo/internal/brain"
	"bimo/internal/dispatch"
	"bimo/internal/feed"
	"bimo/internal/ipc"
	"bimo/internal/listen"
	"bimo/internal/lookup"
	"bimo/internal/loop"
	"bimo/internal/playback"
	"bimo/internal/proxy"
	"bimo/internal/sched"
	"bimo/internal/speech"
	"bimo/internal/state"
	"bimo/internal/tts"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	proxyAddr := cli.StringP("proxy", "p", "", "SOCKS proxy address (empty = direct)")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	ttsBackend := cli.String("tts", "openai", "TTS backend: openai or espeak")
	feedAddr := cli.String("feed", ":8092", "Renderer state feed listen address")
	whisperModel := cli.String("whisper", "third_party/whisper.cpp/models/ggml-medium.bin", "Whisper model path")
	chimePath := cli.String("chime", "chime.ogg", "Wake acknowledgement sound")
	language := cli.String("language", "es", "Recognition language")
	decay := cli.Duration("emotion-decay", state.DefaultDecay, "Emotion decay back to neutral")
	alarmPoll := cli.Duration("alarm-poll", sched.DefaultAlarmPoll, "Alarm wall-clock poll interval")
	cli.Parse()

	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: logLevelMap[*logLevel],
	})))

	log.Info("Booting up")

	godotenv.Load(*envFile)
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Error("OPENAI_API_KEY not set")
		os.Exit(1)
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	lookupClient := &http.Client{Timeout: 5 * time.Second}
	if *proxyAddr != "" {
		httpClient, err := proxy.NewSocksClient(*proxyAddr, 120*time.Second)
		if err != nil {
			log.Error("Failed to dial socks proxy", "proxy", *proxyAddr, "err", err)
			os.Exit(1)
		}
		opts = append(opts, option.WithHTTPClient(httpClient))

		lookupClient, err = proxy.NewSocksClient(*proxyAddr, 5*time.Second)
		if err != nil {
			log.Error("Failed to dial socks proxy", "proxy", *proxyAddr, "err", err)
			os.Exit(1)
		}
		log.Debug("Loaded proxy")
	}

	client := openai.NewClient(opts...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := state.NewStore(*decay)
	player := playback.NewPlayer(44100)

	var synth speech.Synthesizer
	switch *ttsBackend {
	case "espeak":
		synth = tts.NewEspeak()
	default:
		synth = tts.NewOpenAI(client, player)
	}
	speaker := speech.NewSpeaker(synth, store, speech.DefaultTimeout)

	scheduler := sched.New(speaker, *alarmPoll)
	go scheduler.Run(ctx)

	locator := lookup.NewLocator(lookupClient)
	weather := lookup.NewWeather(lookupClient, locator)
	rates := lookup.NewRates(lookupClient)

	// Warm the location cache so the first weather request is snappy.
	go func() {
		loc := locator.Auto(ctx)
		log.Info("Location ready", "city", loc.City, "country", loc.Country)
	}()

	session := brain.NewSession(client)
	dispatcher := dispatch.New(session, speaker, scheduler, weather, rates, store)

	rec := audio.NewRecorder()
	if err := rec.Init(); err != nil {
		log.Error("Failed to init audio", "err", err)
		os.Exit(1)
	}
	defer rec.Close()

	log.Debug("Loaded recorder")

	transcriber, err := listen.NewTranscriber(*whisperModel)
	if err != nil {
		log.Error("Failed to init whisper", "err", err)
		os.Exit(1)
	}
	defer transcriber.Close()

	log.Debug("Loaded whisper")

	recognizer := listen.NewRecognizer(rec, transcriber, *language)

	coordinator := loop.New(recognizer, session, dispatcher, speaker, store, loop.Config{
		Chime: loadChime(player, *chimePath),
	})
	go coordinator.Run(ctx)

	feedServer := feed.NewServer(store, feed.DefaultInterval)
	go func() {
		if err := feedServer.ListenAndServe(ctx, *feedAddr); err != nil {
			log.Error("State feed stopped", "err", err)
		}
	}()

	if err := ipc.StartServer(func(msg ipc.ControlMessage) {
		switch msg.Cmd {
		case "trigger":
			coordinator.Activate()
		case "say":
			speaker.Say(msg.Arg)
		default:
			log.Warn("Unknown command", "cmd", msg.Cmd)
		}
	}); err != nil {
		log.Error("Failed ipc server", "err", err)
		os.Exit(1)
	}

	log.Info("Boot up - successful")

	<-ctx.Done()
	log.Info("Shutting down")
}

// loadChime decodes the wake sound once; a missing file just means silent
// activation.
func loadChime(player *playback.Player, path string) func() {
	clip, err := playback.DecodeFile(path)
	if err != nil {
		log.Warn("No wake chime", "path", path, "err", err)
		return nil
	}
	return func() {
		if err := player.Play(clip); err != nil {
			log.Warn("Chime playback failed", "err", err)
		}
	}
}
