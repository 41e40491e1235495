package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"rubin.dev/peeragent/addrbook"
	"rubin.dev/peeragent/agentcrypto"
	"rubin.dev/peeragent/headprovider"
	"rubin.dev/peeragent/netchannel"
	"rubin.dev/peeragent/netconf"
	"rubin.dev/peeragent/p2p"
	"rubin.dev/peeragent/peeraddr"
)

// protocolMagic is this demo deployment's frame magic number (netchannel's
// envelope header, spec.md §6 doesn't fix a value for it).
const protocolMagic uint32 = 0xD00DFEED

type config struct {
	Network     string
	DataDir     string
	BindAddr    string
	DialAddr    string
	LogLevel    string
	GenesisHash string
}

func defaultConfig() config {
	return config{
		Network:  "devnet",
		DataDir:  "./peeragent-data",
		BindAddr: "",
		LogLevel: "info",
	}
}

func validateConfig(cfg config) error {
	if strings.TrimSpace(cfg.DataDir) == "" {
		return fmt.Errorf("peeragentd: datadir is required")
	}
	if cfg.BindAddr == "" && cfg.DialAddr == "" {
		return fmt.Errorf("peeragentd: one of -bind or -dial is required")
	}
	return nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	defaults := defaultConfig()
	cfg := defaults

	fs := flag.NewFlagSet("peeragentd", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.Network, "network", defaults.Network, "network name, used only for logging")
	fs.StringVar(&cfg.DataDir, "datadir", defaults.DataDir, "address-book data directory")
	fs.StringVar(&cfg.BindAddr, "bind", defaults.BindAddr, "TCP address to accept inbound peers on (host:port)")
	fs.StringVar(&cfg.DialAddr, "dial", defaults.DialAddr, "TCP address of a peer to dial (host:port)")
	fs.StringVar(&cfg.LogLevel, "log-level", defaults.LogLevel, "log level: debug|info|warn|error")
	fs.StringVar(&cfg.GenesisHash, "genesis", "", "hex-encoded 32-byte genesis hash")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if err := validateConfig(cfg); err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "logger init failed: %v\n", err)
		return 2
	}
	defer func() { _ = logger.Sync() }()

	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		_, _ = fmt.Fprintf(stderr, "datadir create failed: %v\n", err)
		return 2
	}

	book, err := addrbook.Open(cfg.DataDir, 0)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "addrbook open failed: %v\n", err)
		return 2
	}
	defer func() { _ = book.Close() }()

	priv, pub, err := agentcrypto.GenerateKeyPair()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "keypair generation failed: %v\n", err)
		return 2
	}
	crypto := agentcrypto.New()

	locator := cfg.BindAddr
	if locator == "" {
		locator = cfg.DialAddr
	}
	netCfg := netconf.Default()
	netCfg.PeerAddr = peeraddr.PeerAddress{
		Protocol:  peeraddr.ProtocolWebSocket,
		Locator:   locator,
		Services:  0,
		PublicKey: pub,
	}
	if err := netCfg.PeerAddr.Sign(crypto, priv, pub); err != nil {
		_, _ = fmt.Fprintf(stderr, "peer address signing failed: %v\n", err)
		return 2
	}
	netCfg.PrivKey = priv
	netCfg.PubKey = pub
	if err := netconf.Validate(netCfg); err != nil {
		_, _ = fmt.Fprintf(stderr, "network config invalid: %v\n", err)
		return 2
	}

	genesisHash, err := parseGenesisHash(cfg.GenesisHash)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}
	chain := headprovider.NewStatic(genesisHash)

	logger.Info("peeragentd starting",
		zap.String("network", cfg.Network), zap.String("locator", locator))

	observers := p2p.Observers{
		OnHandshake: func(peer peeraddr.PeerID) {
			logger.Info("peer handshake complete", zap.String("peer_id", peer.String()))
		},
		OnClose: func(peer peeraddr.PeerID, reason p2p.CloseReason) {
			logger.Info("peer channel closed", zap.String("peer_id", peer.String()), zap.String("reason", string(reason)))
		},
	}

	if cfg.DialAddr != "" {
		transport, err := netchannel.Dial("tcp", cfg.DialAddr, protocolMagic, genesisHash, logger)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "dial failed: %v\n", err)
			return 2
		}
		agent := p2p.New(p2p.Config{
			Channel: transport, Chain: chain, Book: book, Net: netCfg, Crypto: crypto,
			GenesisHash: genesisHash, Observers: observers, Logger: logger,
		})
		agent.Run()
		agent.Handshake()
	}

	if cfg.BindAddr != "" {
		ln, err := net.Listen("tcp", cfg.BindAddr)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "listen failed: %v\n", err)
			return 2
		}
		defer func() { _ = ln.Close() }()
		go acceptLoop(ln, genesisHash, chain, book, netCfg, crypto, observers, logger)
	}

	_, _ = fmt.Fprintln(stdout, "peeragentd running")
	waitForSignal()
	_, _ = fmt.Fprintln(stdout, "peeragentd stopped")
	return 0
}

func acceptLoop(ln net.Listener, genesisHash [32]byte, chain *headprovider.Static,
	book *addrbook.Store, netCfg netconf.Config, crypto agentcrypto.Provider,
	observers p2p.Observers, logger *zap.Logger) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			logger.Warn("accept failed", zap.Error(err))
			return
		}
		transport := netchannel.NewTransport(conn, protocolMagic, genesisHash, logger)
		agent := p2p.New(p2p.Config{
			Channel: transport, Chain: chain, Book: book, Net: netCfg, Crypto: crypto,
			GenesisHash: genesisHash, Observers: observers, Logger: logger,
		})
		agent.Run()
	}
}

func waitForSignal() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	var zlevel zap.AtomicLevel
	if err := zlevel.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return nil, fmt.Errorf("peeragentd: invalid log level %q: %w", level, err)
	}
	cfg.Level = zlevel
	return cfg.Build()
}

func parseGenesisHash(hexStr string) ([32]byte, error) {
	var out [32]byte
	if hexStr == "" {
		return out, nil
	}
	raw, err := hex.DecodeString(hexStr)
	if err != nil {
		return out, fmt.Errorf("peeragentd: invalid -genesis hex: %w", err)
	}
	if len(raw) != 32 {
		return out, fmt.Errorf("peeragentd: -genesis must decode to 32 bytes, got %d", len(raw))
	}
	copy(out[:], raw)
	return out, nil
}
