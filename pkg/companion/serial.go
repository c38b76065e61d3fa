package companion

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"
)

// DefaultBaudRate is the console baud rate.
const DefaultBaudRate = 115200

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{Name: name, Description: name})
	}
	return result, nil
}

// Opener opens the console stream. OpenSerial is the production opener.
type Opener func() (io.ReadWriteCloser, error)

// OpenSerial returns an opener for a serial port.
func OpenSerial(port string, baudRate int) Opener {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	return func() (io.ReadWriteCloser, error) {
		conn, err := serial.Open(port, &serial.Mode{BaudRate: baudRate})
		if err != nil {
			return nil, fmt.Errorf("failed to open serial port %s: %w", port, err)
		}
		return conn, nil
	}
}

// Link runs the console on a serial connection and streams telemetry lines.
type Link struct {
	c        *Companion
	open     Opener
	interval time.Duration

	mu        sync.Mutex
	conn      io.ReadWriteCloser
	connected bool
}

// NewLink creates a link. A zero interval disables telemetry.
func NewLink(c *Companion, open Opener, interval time.Duration) *Link {
	return &Link{c: c, open: open, interval: interval}
}

// IsConnected returns whether the link is currently connected.
func (l *Link) IsConnected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.connected
}

// Run opens the connection and serves it until ctx is done or the stream
// ends.
func (l *Link) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.connected {
		l.mu.Unlock()
		return fmt.Errorf("already connected")
	}
	conn, err := l.open()
	if err != nil {
		l.mu.Unlock()
		return err
	}
	l.conn = conn
	l.connected = true
	l.mu.Unlock()

	defer l.close()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	con := NewConsole(l.c, conn)

	var wg sync.WaitGroup
	if l.interval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.stream(runCtx, con)
		}()
	}

	// Closing the stream unblocks the reader.
	go func() {
		<-runCtx.Done()
		l.close()
	}()

	err = con.Serve(runCtx, conn)
	cancel()
	wg.Wait()

	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (l *Link) stream(ctx context.Context, con *Console) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if err := con.WriteTelemetry(now); err != nil {
				logf("telemetry: %v", err)
				return
			}
		}
	}
}

func (l *Link) close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.connected {
		return
	}
	if err := l.conn.Close(); err != nil {
		logf("error closing serial port: %v", err)
	}
	l.conn = nil
	l.connected = false
}
