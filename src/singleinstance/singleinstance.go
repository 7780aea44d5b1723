package singleinstance

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultPort = 49560

	residentHost = "127.0.0.1"
	pingRequest  = "PING\n"
	pongResponse = "PONG\n"
	showRequest  = "SHOW\n"
	okResponse   = "OK\n"

	connDeadline = 3 * time.Second
)

// ErrAlreadyRunning is returned by Acquire when another resident owns the port.
var ErrAlreadyRunning = errors.New("another instance is already running")

// Lock is ownership of the loopback port. It answers PING probes and SHOW
// requests from later launches until closed.
type Lock struct {
	lis    net.Listener
	port   int
	onShow func()

	wg      sync.WaitGroup
	closeMu sync.Mutex
	closed  bool
}

// Acquire binds 127.0.0.1:port. If the port is held by a resident that
// answers PING, the resident is asked to show itself and ErrAlreadyRunning
// is returned. onShow may be nil.
func Acquire(port int, onShow func()) (*Lock, error) {
	addr := net.JoinHostPort(residentHost, strconv.Itoa(port))
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		if ping(addr, time.Second) {
			log.Info().Str("addr", addr).Msg("singleinstance: resident answered PING")
			if err := requestShow(addr, time.Second); err != nil {
				log.Warn().Err(err).Msg("singleinstance: SHOW request failed")
			}
			return nil, ErrAlreadyRunning
		}
		return nil, fmt.Errorf("singleinstance: bind %s: %w", addr, err)
	}

	l := &Lock{lis: lis, port: lis.Addr().(*net.TCPAddr).Port, onShow: onShow}
	log.Info().Str("addr", lis.Addr().String()).Msg("singleinstance: listening")
	l.wg.Add(1)
	go l.acceptLoop()
	return l, nil
}

// Port returns the bound port.
func (l *Lock) Port() int { return l.port }

// Close releases the port and waits for the accept loop to exit.
func (l *Lock) Close() error {
	l.closeMu.Lock()
	if l.closed {
		l.closeMu.Unlock()
		return nil
	}
	l.closed = true
	l.closeMu.Unlock()

	err := l.lis.Close()
	l.wg.Wait()
	return err
}

func (l *Lock) acceptLoop() {
	defer l.wg.Done()
	for {
		c, err := l.lis.Accept()
		if err != nil {
			return
		}
		l.serve(c)
	}
}

func (l *Lock) serve(c net.Conn) {
	defer c.Close()
	remote := c.RemoteAddr().String()
	_ = c.SetDeadline(time.Now().Add(connDeadline))

	line, err := bufio.NewReader(c).ReadString('\n')
	if err != nil {
		log.Debug().Err(err).Str("remote", remote).Msg("singleinstance: read failed")
		return
	}
	bw := bufio.NewWriter(c)
	switch line {
	case pingRequest:
		log.Debug().Str("remote", remote).Msg("singleinstance: PING -> PONG")
		_, _ = bw.WriteString(pongResponse)
	case showRequest:
		log.Info().Str("remote", remote).Msg("singleinstance: SHOW requested by second launch")
		if l.onShow != nil {
			l.onShow()
		}
		_, _ = bw.WriteString(okResponse)
	default:
		log.Warn().Str("remote", remote).Str("line", line).Msg("singleinstance: unknown request")
		return
	}
	_ = bw.Flush()
}

func ping(addr string, timeout time.Duration) bool {
	resp, err := roundTrip(addr, pingRequest, timeout)
	return err == nil && resp == pongResponse
}

func requestShow(addr string, timeout time.Duration) error {
	resp, err := roundTrip(addr, showRequest, timeout)
	if err != nil {
		return err
	}
	if resp != okResponse {
		return fmt.Errorf("unexpected response %q", resp)
	}
	return nil
}

func roundTrip(addr, request string, timeout time.Duration) (string, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return "", err
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout))

	w := bufio.NewWriter(conn)
	if _, err := w.WriteString(request); err != nil {
		return "", err
	}
	if err := w.Flush(); err != nil {
		return "", err
	}
	return bufio.NewReader(conn).ReadString('\n')
}
