// Command mrcpgw runs the MRCP gateway session core: the signaling
// orchestrator, session table, and media engine, wired to a logging
// stand-in for the wire-level transport adapter (non-goal: SDP/SIP/RTSP
// parsing and the client connection itself).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/sebas/mrcpgw/internal/banner"
	"github.com/sebas/mrcpgw/internal/config"
	"github.com/sebas/mrcpgw/internal/gwlog"
	"github.com/sebas/mrcpgw/internal/mpf"
	"github.com/sebas/mrcpgw/internal/mrcp"
)

// loggingConnectionAgent stands in for the real control-channel
// transport: it logs every outbound MRCP message instead of writing it
// to a socket.
type loggingConnectionAgent struct {
	logger zerolog.Logger
}

func (a loggingConnectionAgent) Send(channelID string, msg *mrcp.MRCPMessage) error {
	a.logger.Info().Str("channel", channelID).Str("type", msgTypeName(msg.Type)).Str("method", msg.Method).Int("status", msg.StatusCode).Msg("-> client")
	return nil
}

// loggingSignalingAgent stands in for the SDP offer/answer transport.
type loggingSignalingAgent struct {
	logger zerolog.Logger
}

func (a loggingSignalingAgent) SendAnswer(sessionID string, answer *mrcp.SessionDescriptor) {
	a.logger.Info().Str("session", sessionID).Str("status", answer.Status.String()).Msg("answer")
}

func (a loggingSignalingAgent) SendTerminateResponse(sessionID string) {
	a.logger.Info().Str("session", sessionID).Msg("terminate-response")
}

func msgTypeName(t mrcp.MessageType) string {
	switch t {
	case mrcp.TypeRequest:
		return "request"
	case mrcp.TypeResponse:
		return "response"
	case mrcp.TypeEvent:
		return "event"
	default:
		return "unknown"
	}
}

func main() {
	cfg := config.Load()
	logger := gwlog.Init(cfg.LogLevel, os.Stdout)

	banner.Print("MRCP GATEWAY", []banner.ConfigLine{
		{Label: "Log Level", Value: cfg.LogLevel},
		{Label: "Context Capacity", Value: fmt.Sprintf("%d", cfg.DefaultContextCapacity)},
		{Label: "Session ID Length", Value: fmt.Sprintf("%d", cfg.SessionIDLength)},
		{Label: "Media Engine Tick", Value: cfg.MediaEngineTick.String()},
		{Label: "RTP Bind IP", Value: cfg.RTPBindIP},
		{Label: "RTP Port Range", Value: fmt.Sprintf("%d-%d", cfg.RTPPortMin, cfg.RTPPortMax)},
	})

	mediaEngine := mpf.NewEngine(cfg.MediaEngineTick, gwlog.Component(logger, "mpf"))

	engines := mrcp.NewEngineTable()
	engines.Register(mrcp.NewEchoEngine("speechsynth"))
	engines.Register(mrcp.NewEchoEngine("speechrecog"))

	profile := mrcp.NewProfile(
		"default",
		engines,
		loggingConnectionAgent{logger: gwlog.Component(logger, "control")},
		mediaEngine,
		mrcp.NewStaticRTPTerminationFactory(cfg.RTPBindIP, cfg.RTPPortMin, cfg.RTPPortMax),
		cfg.DefaultContextCapacity,
	)

	table := mrcp.NewTable(profile, gwlog.Component(logger, "mrcp"), cfg.SessionIDLength)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := mediaEngine.Run(ctx); err != nil {
			logger.Error().Err(err).Msg("media engine stopped")
		}
	}()

	logger.Info().Msg("mrcp gateway core running; no wire-level listener attached (non-goal)")
	_ = table.CreateSession(loggingSignalingAgent{logger: gwlog.Component(logger, "signaling")})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info().Str("signal", sig.String()).Msg("shutting down")
	cancel()
}
