package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"

	"github.com/alexcesaro/log"
	"github.com/alexcesaro/log/golog"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/redis/go-redis/v9"

	"github.com/simplechat/relay"
	"github.com/simplechat/relay/chat"
	"github.com/simplechat/relay/pubsub"
	"github.com/simplechat/relay/tcpd"
	"github.com/simplechat/relay/ws"
)

// Options are command-line flags. Anything left empty falls back to the
// RELAY_* environment (see Env), so deployments can configure the relay
// from a .env file and operators can still override per run.
type Options struct {
	Verbose  []bool `short:"v" long:"verbose" description:"Show verbose logging."`
	Bind     string `long:"bind" description:"Host and port to listen on."`
	HTTPBind string `long:"http" description:"Host and port for the websocket front-end (disabled when empty)."`
	Redis    string `long:"redis" description:"Redis address for the pub/sub backend (in-memory when empty)."`
	Motd     string `long:"motd" description:"Message of the day shown at login."`
}

// Env is the RELAY_* environment configuration.
type Env struct {
	Bind        string `default:"0.0.0.0:6667"`
	HTTPBind    string `envconfig:"http_bind"`
	RedisAddr   string `envconfig:"redis_addr"`
	RedisPrefix string `envconfig:"redis_prefix" default:"relay:"`
	Motd        string
}

var logLevels = []log.Level{
	log.Warning,
	log.Info,
	log.Debug,
}

func main() {
	options := Options{}
	parser := flags.NewParser(&options, flags.Default)

	p, err := parser.Parse()
	if err != nil {
		if p == nil {
			fmt.Print(err)
		}
		os.Exit(1)
	}

	// Figure out the log level
	numVerbose := len(options.Verbose)
	if numVerbose >= len(logLevels) {
		numVerbose = len(logLevels) - 1
	}

	logLevel := logLevels[numVerbose]
	logger := golog.New(os.Stderr, logLevel)
	relay.SetLogger(logger)

	if logLevel == log.Debug {
		// Enable logging from submodules
		chat.SetLogger(os.Stderr)
		pubsub.SetLogger(os.Stderr)
		tcpd.SetLogger(os.Stderr)
		ws.SetLogger(os.Stderr)
	}

	godotenv.Load()
	env := Env{}
	if err := envconfig.Process("relay", &env); err != nil {
		logger.Errorf("Failed to read environment: %v", err)
		os.Exit(1)
	}
	if options.Bind != "" {
		env.Bind = options.Bind
	}
	if options.HTTPBind != "" {
		env.HTTPBind = options.HTTPBind
	}
	if options.Redis != "" {
		env.RedisAddr = options.Redis
	}
	if options.Motd != "" {
		env.Motd = options.Motd
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var broker pubsub.Broker
	if env.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: env.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Errorf("Failed to reach Redis at %s: %v", env.RedisAddr, err)
			os.Exit(1)
		}
		broker = pubsub.NewRedisBroker(client, env.RedisPrefix)
		logger.Infof("Routing rooms through Redis at %s", env.RedisAddr)
	} else {
		broker = pubsub.NewMemoryBroker()
		logger.Infof("Routing rooms through the in-memory broker")
	}

	host := relay.NewHost(broker)
	if env.Motd != "" {
		host.SetMotd(env.Motd)
	}

	listener, err := tcpd.Listen(env.Bind)
	if err != nil {
		logger.Errorf("Failed to listen on %s: %v", env.Bind, err)
		os.Exit(1)
	}
	logger.Infof("Listening on %s", env.Bind)
	go host.Serve(ctx, listener.ServeConns(ctx))

	if env.HTTPBind != "" {
		front := ws.New(host.Hub())
		go host.Serve(ctx, front.Conns())
		go func() {
			logger.Infof("Websocket front-end on %s", env.HTTPBind)
			if err := http.ListenAndServe(env.HTTPBind, front.Router()); err != nil {
				logger.Errorf("Front-end server stopped: %v", err)
			}
		}()
	}

	// Construct interrupt handler
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)

	<-sig // Wait for ^C signal
	logger.Warningf("Interrupt signal detected, shutting down.")
	cancel()
	host.Close()
}
