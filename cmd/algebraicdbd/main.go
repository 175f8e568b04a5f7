// Command algebraicdbd runs the database as a standalone server, listening
// for client connections over TCP and a local Unix domain socket.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/bobboyms/algebraicdb/pkg/cliopts"
	"github.com/bobboyms/algebraicdb/pkg/dbms"
	"github.com/bobboyms/algebraicdb/pkg/session"
	"github.com/bobboyms/algebraicdb/pkg/wal"
)

type config struct {
	address         string
	port            int
	udsAddress      string
	noPersistence   bool
	dataDir         string
	walTruncateAt   cliopts.NumBytes
	diskFlushTiming string
}

func parseConfig() (config, error) {
	cfg := config{
		address:         envOr("ALGDB_ADDRESS", "localhost"),
		port:            2345,
		udsAddress:      "/tmp/adbsocket",
		dataDir:         envOr("ALGDB_DATA_DIR", "./data"),
		diskFlushTiming: envOr("ALGDB_SNAPSHOT_TIMING", "30s"),
	}
	walTruncateAt := envOr("ALGDB_WAL_TRUNCATE_AT", "1G")

	flag.StringVar(&cfg.address, "address", cfg.address, "host to listen on")
	flag.StringVar(&cfg.address, "a", cfg.address, "host to listen on (shorthand)")
	flag.IntVar(&cfg.port, "port", cfg.port, "TCP port to listen on")
	flag.IntVar(&cfg.port, "p", cfg.port, "TCP port to listen on (shorthand)")
	flag.StringVar(&cfg.udsAddress, "uds-address", cfg.udsAddress, "unix domain socket path")
	flag.StringVar(&cfg.udsAddress, "u", cfg.udsAddress, "unix domain socket path (shorthand)")
	flag.BoolVar(&cfg.noPersistence, "no-persistence", false, "keep all data in memory only")
	flag.StringVar(&cfg.dataDir, "data-dir", cfg.dataDir, "directory for WAL and snapshots")
	flag.StringVar(&walTruncateAt, "wal-truncate-at", walTruncateAt, "WAL size before truncation, e.g. 1G, 64M, 512K")
	flag.StringVar(&cfg.diskFlushTiming, "disk-flush-timing", cfg.diskFlushTiming, "snapshot interval, e.g. 30s, 5m, 1h, or never")
	flag.Parse()

	n, err := cliopts.ParseNumBytes(walTruncateAt)
	if err != nil {
		return config{}, err
	}
	cfg.walTruncateAt = n
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func logf(format string, args ...any) {
	fmt.Printf(format+"\n", args...)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "algebraicdbd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := parseConfig()
	if err != nil {
		return err
	}

	flushSeconds, err := cliopts.ParseTiming(cfg.diskFlushTiming)
	if err != nil {
		return err
	}

	opts := dbms.Options{
		DataDir:       cfg.dataDir,
		Persistent:    !cfg.noPersistence,
		WalTruncateAt: uint64(cfg.walTruncateAt),
		WalOptions: wal.Options{
			FlushInterval: time.Duration(flushSeconds) * time.Second,
		},
	}
	if flushSeconds > 0 {
		opts.SnapshotInterval = time.Duration(flushSeconds) * time.Second
	}

	db, err := dbms.Open(opts)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	fmt.Printf("setting up server\n")

	errCh := make(chan error, 2)
	go serveTCP(cfg.address, cfg.port, db, errCh)
	go serveUDS(cfg.udsAddress, db, errCh)

	return <-errCh
}

func serveTCP(address string, port int, db *dbms.DB, errCh chan<- error) {
	addr := fmt.Sprintf("%s:%d", address, port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		errCh <- fmt.Errorf("tcp listen on %s: %w", addr, err)
		return
	}
	fmt.Printf("listening on %s\n", addr)

	for {
		conn, err := listener.Accept()
		if err != nil {
			fmt.Printf("error accepting tcp connection: %v\n", err)
			continue
		}
		fmt.Printf("new client [%s] connected\n", conn.RemoteAddr())
		go func() {
			defer conn.Close()
			if err := session.Run(conn, conn, db, logf); err != nil {
				fmt.Printf("client [%s] errored: %v\n", conn.RemoteAddr(), err)
			} else {
				fmt.Printf("client [%s] socket closed\n", conn.RemoteAddr())
			}
		}()
	}
}

func serveUDS(path string, db *dbms.DB, errCh chan<- error) {
	os.Remove(path)
	listener, err := net.Listen("unix", path)
	if err != nil {
		errCh <- fmt.Errorf("unix listen on %s: %w", path, err)
		return
	}
	fmt.Printf("listening on socket: %s\n", path)

	for {
		conn, err := listener.Accept()
		if err != nil {
			fmt.Printf("error accepting uds connection: %v\n", err)
			continue
		}
		fmt.Printf("new client connected on %s\n", path)
		go func() {
			defer conn.Close()
			if err := session.Run(conn, conn, db, logf); err != nil {
				fmt.Printf("client errored: %v\n", err)
			} else {
				fmt.Printf("client socket closed\n")
			}
		}()
	}
}
