package commands

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/attainly/voicebridge/pkg/archive"
	"github.com/attainly/voicebridge/pkg/bridge"
	"github.com/attainly/voicebridge/pkg/callstore"
	"github.com/attainly/voicebridge/pkg/domaincall"
	"github.com/attainly/voicebridge/pkg/persona"
	"github.com/attainly/voicebridge/pkg/realtime"
	"github.com/attainly/voicebridge/pkg/telephony"
)

var flagDebug bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bridge server",
	Long: `Run the bridge server.

It exposes the telephony answer webhook and the websocket media stream
endpoint, and bridges each accepted stream to the realtime speech service.

Example:
  voicebridge serve -c config.yaml`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
}

func runServe(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if flagDebug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})))
	logger := slog.Default()

	cfg, err := loadConfig(cfgFile)
	if err != nil {
		return err
	}
	if cfg.OpenAI.APIKey == "" {
		return errors.New("no OpenAI API key configured")
	}

	records, err := callstore.Open(cfg.Data.Dir)
	if err != nil {
		return fmt.Errorf("open call store: %w", err)
	}
	defer records.Close()

	arch, err := newArchive(cfg)
	if err != nil {
		return err
	}

	personas := persona.Default()
	if cfg.PersonaFile != "" {
		personas, err = persona.LoadFile(cfg.PersonaFile)
		if err != nil {
			return fmt.Errorf("load personas: %w", err)
		}
	}

	var rtOpts []realtime.Option
	if cfg.OpenAI.Model != "" {
		rtOpts = append(rtOpts, realtime.WithModel(cfg.OpenAI.Model))
	}

	b, err := bridge.New(&bridge.Bridge{
		Realtime: realtime.NewClient(cfg.OpenAI.APIKey, rtOpts...),
		Records:  records,
		Domain:   domaincall.NewClient(cfg.Domain.BaseURL, cfg.Domain.Token),
		Personas: personas,
		Archive:  arch,
		Voice:    cfg.OpenAI.Voice,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	// Canceled on shutdown so in-flight calls finalize instead of hanging
	// on their provider sockets.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := &server{bridge: b, cfg: cfg, log: logger, ctx: ctx}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /voice/answer", srv.handleAnswer)
	mux.HandleFunc("GET /voice/stream", srv.handleStream)
	mux.HandleFunc("GET /healthz", srv.handleHealth)

	httpSrv := &http.Server{
		Addr:    cfg.Listen,
		Handler: mux,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("Shutting down...")
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		httpSrv.Shutdown(shutdownCtx)
		cancel()
	}()

	logger.Info("Bridge server listening", "addr", cfg.Listen)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newArchive(cfg *Config) (archive.Store, error) {
	switch cfg.Archive.Backend {
	case "":
		return nil, nil
	case "local":
		return archive.NewLocal(cfg.Archive.Dir)
	case "s3":
		opts := s3.Options{Region: cfg.Archive.Region}
		if cfg.Archive.Endpoint != "" {
			opts.BaseEndpoint = aws.String(cfg.Archive.Endpoint)
			opts.UsePathStyle = true
		}
		opts.Credentials = aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
				SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
				SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
			}, nil
		})
		return archive.NewS3(s3.New(opts), cfg.Archive.Bucket, cfg.Archive.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.Archive.Backend)
	}
}

type server struct {
	bridge *bridge.Bridge
	cfg    *Config
	log    *slog.Logger

	// ctx spans the server's lifetime; its cancellation tells every
	// in-flight call to finalize.
	ctx context.Context
}

// paramKeys are the webhook query parameters forwarded to the media stream
// as custom parameters.
var paramKeys = []string{"userId", "callMode", "topic", "taskRef", "recordId"}

// handleAnswer responds to the provider's answer webhook with instructions
// to open a media stream back to this server, forwarding call routing
// parameters from the webhook URL.
func (s *server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	host := s.cfg.PublicHost
	if host == "" {
		host = r.Host
	}

	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	buf.WriteString("<Response>\n  <Connect>\n")
	fmt.Fprintf(&buf, "    <Stream url=%q>\n", "wss://"+host+"/voice/stream")
	q := r.URL.Query()
	for _, key := range paramKeys {
		if v := q.Get(key); v != "" {
			buf.WriteString(`      <Parameter name="` + key + `" value="`)
			xml.EscapeText(&buf, []byte(v))
			buf.WriteString("\"/>\n")
		}
	}
	buf.WriteString("    </Stream>\n  </Connect>\n</Response>\n")

	w.Header().Set("Content-Type", "text/xml")
	w.Write(buf.Bytes())
}

// handleStream accepts one provider media stream. It consumes the stream
// preamble to learn which call this is, then hands the connection to the
// bridge for the life of the call.
func (s *server) handleStream(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer ws.Close()

	conn := telephony.NewConn(ws)
	start, preamble, err := readStart(conn)
	if err != nil {
		s.log.Warn("stream without start event", "err", err)
		return
	}

	userID := start.CustomParameters["userId"]
	if userID == "" {
		s.log.Warn("stream without user id", "call", start.CallSID)
		return
	}

	p := bridge.StartParams{
		UserID:    userID,
		CallID:    start.CallSID,
		RecordID:  start.CustomParameters["recordId"],
		Mode:      persona.ParseMode(start.CustomParameters),
		StreamSID: start.StreamSID,
		Preamble:  preamble,
	}
	if err := s.bridge.HandleStream(s.ctx, conn, p); err != nil {
		s.log.Error("bridge stream failed", "call", p.CallID, "err", err)
	}
}

// readStart consumes envelopes until the start event arrives. The provider
// sends a connected preamble first, and some transports deliver media ahead
// of start; those media envelopes are returned for replay into the session.
func readStart(conn *telephony.Conn) (*telephony.StartPayload, []*telephony.Envelope, error) {
	var preamble []*telephony.Envelope
	for range 16 {
		env, err := conn.ReadEnvelope()
		if err != nil {
			var perr *telephony.ProtocolError
			if errors.As(err, &perr) {
				continue
			}
			return nil, nil, err
		}
		switch env.Event {
		case telephony.EventStart:
			if env.Start != nil {
				return env.Start, preamble, nil
			}
		case telephony.EventMedia:
			preamble = append(preamble, env)
		}
	}
	return nil, nil, errors.New("no start event in stream preamble")
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "ok active_calls=%d\n", s.bridge.Sessions.Len())
}
