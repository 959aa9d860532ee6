package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/sweeney/ir-remote/internal/action"
	"github.com/sweeney/ir-remote/internal/config"
	"github.com/sweeney/ir-remote/internal/gpio"
	"github.com/sweeney/ir-remote/internal/logging"
	"github.com/sweeney/ir-remote/internal/mqtt"
	"github.com/sweeney/ir-remote/internal/nec"
	"github.com/sweeney/ir-remote/internal/status"
	"github.com/sweeney/ir-remote/internal/tick"
	"github.com/sweeney/ir-remote/internal/web"
)

// defaultEnvFile is where pi-helper writes network state.
const defaultEnvFile = "/run/pi-helper.env"

// refreshInterval is how often the run loop refreshes MQTT state and checks
// for a due heartbeat. It is independent of the decoder tick.
const refreshInterval = time.Second

func runCommand() *cli.Command {
	def := config.Default()
	return &cli.Command{
		Name:  "run",
		Usage: "Watch the IR receiver and drive LEDs and MQTT (daemon mode)",
		Flags: append(profileFlags(),
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Path to YAML config file"},
			&cli.StringFlag{Name: "chip", Value: def.GPIO.Chip, Usage: "GPIO character device"},
			&cli.IntFlag{Name: "pin-ir", Value: def.GPIO.PinIR, Usage: "BCM line of the IR receiver"},
			&cli.IntSliceFlag{Name: "pins-led", Value: cli.NewIntSlice(def.GPIO.PinsLED...), Usage: "BCM lines of the UP, LEFT, RIGHT, DOWN LEDs"},
			&cli.StringFlag{Name: "broker", Value: def.MQTT.Broker, Usage: "MQTT broker address"},
			&cli.StringFlag{Name: "client-id", Value: def.MQTT.ClientID, Usage: "MQTT client ID"},
			&cli.StringFlag{Name: "encoding", Value: def.MQTT.Encoding, Usage: "Action payload encoding: json or msgpack"},
			&cli.DurationFlag{Name: "heartbeat", Value: def.Heartbeat.Duration, Usage: "Heartbeat interval (0 to disable)"},
			&cli.StringFlag{Name: "http", Value: def.HTTP, Usage: "HTTP status address (empty to disable)"},
			&cli.StringFlag{Name: "ws-broker", Value: def.WSBroker, Usage: `MQTT websocket URL for live UI ("=broker" derives from --broker, "off" disables)`},
			&cli.StringFlag{Name: "log-level", Value: def.Log.Level, Usage: "Log level: debug, info, warn, error"},
			&cli.StringFlag{Name: "log-format", Value: def.Log.Format, Usage: "Log format: json or console"},
			&cli.StringFlag{Name: "env-file", Value: defaultEnvFile, Usage: "pi-helper network env file"},
		),
		Action: runAction,
	}
}

// loadConfig reads the optional config file and applies explicitly set flags
// over it.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if c.IsSet("tick") {
		cfg.Profile.Tick.Duration = c.Duration("tick")
	}
	if c.IsSet("bit-threshold") {
		cfg.Profile.BitOne.Duration = c.Duration("bit-threshold")
	}
	if c.IsSet("frame-start") {
		cfg.Profile.FrameStart.Duration = c.Duration("frame-start")
	}
	if c.IsSet("chip") {
		cfg.GPIO.Chip = c.String("chip")
	}
	if c.IsSet("pin-ir") {
		cfg.GPIO.PinIR = c.Int("pin-ir")
	}
	if c.IsSet("pins-led") {
		cfg.GPIO.PinsLED = c.IntSlice("pins-led")
	}
	if c.IsSet("broker") {
		cfg.MQTT.Broker = c.String("broker")
	}
	if c.IsSet("client-id") {
		cfg.MQTT.ClientID = c.String("client-id")
	}
	if c.IsSet("encoding") {
		cfg.MQTT.Encoding = c.String("encoding")
	}
	if c.IsSet("heartbeat") {
		cfg.Heartbeat.Duration = c.Duration("heartbeat")
	}
	if c.IsSet("http") {
		cfg.HTTP = c.String("http")
	}
	if c.IsSet("ws-broker") {
		cfg.WSBroker = c.String("ws-broker")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.Log.Format = c.String("log-format")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	logger, err := logging.New(logging.Options{
		Format: logging.Format(cfg.Log.Format),
		Level:  cfg.Log.Level,
		Output: c.App.ErrWriter,
	})
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	defer logger.Sync()

	if err := run(cfg, c.String("env-file"), logger); err != nil {
		logger.Errorf("fatal: %v", err)
		return cli.Exit("", 1)
	}
	return nil
}

func run(cfg *config.Config, envFile string, logger *zap.SugaredLogger) error {
	profile := cfg.NECProfile()
	table, err := cfg.Table()
	if err != nil {
		return err
	}
	encoding, err := mqtt.ParseEncoding(cfg.MQTT.Encoding)
	if err != nil {
		return err
	}
	wsBroker := resolveWSBroker(cfg.WSBroker, cfg.MQTT.Broker, logger)

	// Initialize LED output
	output, err := gpio.NewRealOutput(cfg.GPIO.Chip, cfg.GPIO.PinsLED)
	if err != nil {
		return fmt.Errorf("init led output: %w", err)
	}
	defer output.Close()

	// Initialize MQTT
	publisher, err := mqtt.NewRealPublisher(mqtt.Options{
		Broker:   cfg.MQTT.Broker,
		ClientID: cfg.MQTT.ClientID,
		Encoding: encoding,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		TickUs:       profile.Tick.Microseconds(),
		BitUs:        profile.BitOne.Microseconds(),
		FrameStartUs: profile.FrameStart.Microseconds(),
		HeartbeatMs:  cfg.Heartbeat.Milliseconds(),
		PinIR:        cfg.GPIO.PinIR,
		PinsLED:      cfg.GPIO.PinsLED,
		Broker:       cfg.MQTT.Broker,
		HTTPAddr:     cfg.HTTP,
		WSBroker:     wsBroker,
	})
	if net := readNetworkInfo(envFile); net != nil {
		tracker.SetNetwork(net)
	}

	// The counter is the only state shared between the tick loop and the
	// edge handler.
	counter := tick.NewCounter(profile.FrameStartTicks())
	dispatcher := action.NewDispatcher(table, output,
		tracker,
		mqtt.Observer(publisher, logger),
		frameLogger(logger),
	)
	decoder := nec.NewDecoder(profile, counter, dispatcher)

	edges := gpio.NewRealEdgeSource(cfg.GPIO.Chip, cfg.GPIO.PinIR)
	if err := edges.Start(decoder.HandleEdge); err != nil {
		return fmt.Errorf("init ir receiver: %w", err)
	}
	defer edges.Close()
	tracker.SetReady(true)

	// Publish startup event with full status snapshot
	tracker.SetMQTTConnected(publisher.IsConnected())
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		logger.Warnf("failed to publish startup event: %v", err)
	} else {
		logger.Infof("published startup event")
	}

	// Start HTTP status server
	if cfg.HTTP != "" {
		srv := web.New(cfg.HTTP, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Errorf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		logger.Infof("http status server listening on %s", cfg.HTTP)
	}

	logger.Infof("started: tick=%v bit=%v frame_start=%v ir=%s/%d leds=%v broker=%s heartbeat=%v",
		profile.Tick, profile.BitOne, profile.FrameStart, cfg.GPIO.Chip, cfg.GPIO.PinIR, cfg.GPIO.PinsLED, cfg.MQTT.Broker, cfg.Heartbeat.Duration)

	ticker := time.NewTicker(profile.Tick)
	defer ticker.Stop()

	refresh := time.NewTicker(refreshInterval)
	defer refresh.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	l := &loop{
		counter:    counter,
		publisher:  publisher,
		mqttStatus: publisher,
		tracker:    tracker,
		heartbeat:  cfg.Heartbeat.Duration,
		envFile:    envFile,
		now:        time.Now,
		log:        logger,
	}
	return l.run(ticker.C, refresh.C, sigCh)
}

// frameLogger logs every completed frame.
func frameLogger(logger *zap.SugaredLogger) action.Observer {
	return action.ObserverFunc(func(e action.Event) {
		if !e.Matched() {
			logger.Debugf("unmatched command %s", e.Command)
			return
		}
		logger.Infof("action: %s (command %s)", e.Action, e.Command)
		if !e.Command.Conforms() {
			logger.Debugf("command %s fails the NEC complement check", e.Command)
		}
		if e.Err != nil {
			logger.Warnf("led output error: %v", e.Err)
		}
	})
}

// loop owns the tick source and the daemon's lifecycle events.
type loop struct {
	counter    *tick.Counter
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	heartbeat  time.Duration
	envFile    string
	now        func() time.Time
	log        *zap.SugaredLogger
}

// run publishes heartbeats on refresh and SHUTDOWN when a signal arrives.
// The counter is advanced by a separate goroutine that never touches the
// broker.
func (l *loop) run(ticks, refresh <-chan time.Time, sig <-chan os.Signal) error {
	done := make(chan struct{})
	counted := make(chan struct{})
	go func() {
		defer close(counted)
		countTicks(l.counter, ticks, done)
	}()
	defer func() {
		close(done)
		<-counted
	}()

	for {
		select {
		case s := <-sig:
			l.log.Infof("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: l.now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if l.tracker != nil {
				l.refreshMQTT()
				l.tracker.SetReady(false)
				snap := l.tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := l.publisher.PublishSystem(event); err != nil {
				l.log.Warnf("failed to publish shutdown event: %v", err)
			} else {
				l.log.Infof("published shutdown event")
			}
			return nil

		case <-refresh:
			if l.tracker == nil {
				continue
			}
			l.refreshMQTT()

			t := l.now()
			if !l.tracker.CheckHeartbeat(t, l.heartbeat) {
				continue
			}

			// Refresh network info for heartbeat
			if net := readNetworkInfo(l.envFile); net != nil {
				l.tracker.SetNetwork(net)
			}
			snap := l.tracker.Snapshot()
			c := snap.Counts
			l.log.Infof("heartbeat: uptime=%v up=%d left=%d right=%d down=%d unmatched=%d",
				snap.Uptime().Truncate(time.Second), c.Up, c.Left, c.Right, c.Down, c.Unmatched)

			hbEvent := mqtt.SystemEvent{
				Timestamp:  t,
				Event:      "HEARTBEAT",
				RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
			}
			if err := l.publisher.PublishSystem(hbEvent); err != nil {
				l.log.Warnf("heartbeat publish error: %v", err)
			}
		}
	}
}

// countTicks advances counter once per tick until done is closed. It does
// nothing else.
func countTicks(counter *tick.Counter, ticks <-chan time.Time, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-ticks:
			counter.Tick()
		}
	}
}

func (l *loop) refreshMQTT() {
	if l.mqttStatus != nil {
		l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

// readNetworkInfo reads pi-helper state from envFile, falling back to the
// process environment for keys the file lacks or when it cannot be read.
func readNetworkInfo(envFile string) *status.NetworkInfo {
	lookup := os.Getenv
	if envFile != "" {
		if env, err := godotenv.Read(envFile); err == nil {
			lookup = func(key string) string {
				if v, ok := env[key]; ok {
					return v
				}
				return os.Getenv(key)
			}
		}
	}

	s := lookup(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       lookup(envNetworkType),
		IP:         lookup(envNetworkIP),
		Status:     s,
		Gateway:    lookup(envNetworkGateway),
		WifiStatus: lookup(envNetworkWifiStatus),
		SSID:       lookup(envNetworkWifiSSID),
	}
}

// resolveWSBroker converts the --ws-broker value into a concrete URL.
// "=broker" derives ws://host:9001 from the TCP broker address; "off" and
// empty disable.
func resolveWSBroker(ws, broker string, logger *zap.SugaredLogger) string {
	if ws == "off" {
		return ""
	}
	if ws != "=broker" {
		return ws
	}
	u, err := url.Parse(broker)
	if err != nil {
		logger.Warnf("ws-broker: cannot parse broker %q: %v", broker, err)
		return ""
	}
	u.Scheme = "ws"
	u.Host = u.Hostname() + ":9001"
	return u.String()
}
