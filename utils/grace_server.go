package utils

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

const (
	DefaultReadTimeout     = 60 * time.Second
	DefaultWriteTimeout    = DefaultReadTimeout
	DefaultShutdownTimeout = 30 * time.Second

	gracefulEnvKey     = "VITALCIRCLE_GRACEFUL"
	gracefulEnvValue   = gracefulEnvKey + "=1"
	gracefulListenerFD = 3
)

// Server wraps http.Server to support graceful shutdown (SIGTERM, SIGINT) and
// zero-downtime restart (SIGUSR2) by handing the listener to a child process.
type Server struct {
	*http.Server

	// OnShutdown runs once after the HTTP server stopped accepting requests.
	OnShutdown func()

	listener     net.Listener
	isGraceful   bool
	signalChan   chan os.Signal
	shutdownChan chan struct{}
	shutdownOnce sync.Once
}

// NewServer creates a Server with timeouts and handler.
func NewServer(addr string, handler http.Handler, readTimeout, writeTimeout time.Duration) *Server {
	return &Server{
		Server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       readTimeout,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      writeTimeout,
		},
		isGraceful:   os.Getenv(gracefulEnvKey) != "",
		signalChan:   make(chan os.Signal, 1),
		shutdownChan: make(chan struct{}),
	}
}

// ListenAndServe starts serving on tcp and handles signals.
func (srv *Server) ListenAndServe() error {
	addr := srv.Addr
	if addr == "" {
		addr = ":http"
	}
	ln, err := srv.getNetListener(addr)
	if err != nil {
		return err
	}
	srv.listener = ln
	return srv.serve()
}

// ListenAndServeTLS starts TLS server with graceful features.
func (srv *Server) ListenAndServeTLS(certFile, keyFile string) error {
	addr := srv.Addr
	if addr == "" {
		addr = ":https"
	}

	cfg := &tls.Config{}
	if srv.TLSConfig != nil {
		cfg = srv.TLSConfig.Clone()
	}
	if cfg.NextProtos == nil {
		cfg.NextProtos = []string{"http/1.1"}
	}
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return err
	}
	cfg.Certificates = []tls.Certificate{cert}

	ln, err := srv.getNetListener(addr)
	if err != nil {
		return err
	}
	srv.listener = tls.NewListener(ln, cfg)
	return srv.serve()
}

func (srv *Server) serve() error {
	go srv.handleSignals()
	err := srv.Server.Serve(srv.listener)
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-srv.shutdownChan
	return nil
}

func (srv *Server) getNetListener(addr string) (net.Listener, error) {
	if srv.isGraceful {
		file := os.NewFile(gracefulListenerFD, "")
		ln, err := net.FileListener(file)
		if err != nil {
			return nil, fmt.Errorf("inherit listener: %w", err)
		}
		return ln, nil
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return ln, nil
}

func (srv *Server) handleSignals() {
	signal.Notify(srv.signalChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGUSR2)

	for sig := range srv.signalChan {
		switch sig {
		case syscall.SIGTERM, syscall.SIGINT:
			Sugar.Infow("graceful shutdown", "signal", sig.String())
			srv.shutdownHTTPServer()
			return
		case syscall.SIGUSR2:
			Sugar.Info("received SIGUSR2, graceful restarting HTTP server")
			pid, err := srv.startNewProcess()
			if err != nil {
				Sugar.Errorw("start new process failed, continue serving", "error", err)
				continue
			}
			Sugar.Infow("new process started, draining old server", "pid", pid)
			srv.shutdownHTTPServer()
			return
		}
	}
}

func (srv *Server) shutdownHTTPServer() {
	srv.shutdownOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			Sugar.Errorw("HTTP server shutdown error", "error", err)
		} else {
			Sugar.Info("HTTP server shutdown success")
		}
		if srv.OnShutdown != nil {
			srv.OnShutdown()
		}
		close(srv.shutdownChan)
	})
}

// startNewProcess forks the current binary and passes the listener as fd 3.
func (srv *Server) startNewProcess() (int, error) {
	tcpLn, ok := srv.listener.(*net.TCPListener)
	if !ok {
		return 0, errors.New("listener is not a TCP listener")
	}
	file, err := tcpLn.File()
	if err != nil {
		return 0, fmt.Errorf("get listener file: %w", err)
	}
	defer file.Close()

	envs := make([]string, 0, len(os.Environ())+1)
	for _, e := range os.Environ() {
		if e != gracefulEnvValue {
			envs = append(envs, e)
		}
	}
	envs = append(envs, gracefulEnvValue)

	attr := &syscall.ProcAttr{
		Env:   envs,
		Files: []uintptr{os.Stdin.Fd(), os.Stdout.Fd(), os.Stderr.Fd(), file.Fd()},
	}
	return syscall.ForkExec(os.Args[0], os.Args, attr)
}

// GraceServer starts an HTTP server with graceful capabilities. onShutdown may be nil.
func GraceServer(addr string, handler http.Handler, onShutdown func()) error {
	srv := NewServer(addr, handler, DefaultReadTimeout, DefaultWriteTimeout)
	srv.OnShutdown = onShutdown
	return srv.ListenAndServe()
}
