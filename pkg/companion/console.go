package companion

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/itohio/govfd/pkg/params"
)

// Console serves the line protocol of the companion:
//
//	get <id>                 -> <id>=<value>
//	set <id> <value>         -> ok
//	enable <bank> <0|1>      -> ok
//	dump                     -> telemetry line
//
// Banks are numbered from one. Failures are answered with "error: <reason>".
// Telemetry lines have the form <unix_micros>,<id>=<value>,...
type Console struct {
	c  *Companion
	mu sync.Mutex
	w  io.Writer
}

// NewConsole creates a console answering on w.
func NewConsole(c *Companion, w io.Writer) *Console {
	return &Console{c: c, w: w}
}

// Serve reads commands from r until it is exhausted or ctx is done.
func (con *Console) Serve(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := con.writeLine(con.Handle(ctx, line)); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return fmt.Errorf("read console: %w", err)
	}
	return nil
}

// Handle executes one command line and returns the reply.
func (con *Console) Handle(ctx context.Context, line string) string {
	reply, err := con.handle(ctx, strings.Fields(line))
	if err != nil {
		return "error: " + err.Error()
	}
	return reply
}

func (con *Console) handle(ctx context.Context, args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("empty command")
	}

	switch args[0] {
	case "get":
		if len(args) != 2 {
			return "", fmt.Errorf("usage: get <id>")
		}
		id, err := params.ParseID(args[1])
		if err != nil {
			return "", err
		}
		v, err := con.c.Get(id)
		if err != nil {
			return "", err
		}
		return id.String() + "=" + v.String(), nil

	case "set":
		if len(args) != 3 {
			return "", fmt.Errorf("usage: set <id> <value>")
		}
		id, err := params.ParseID(args[1])
		if err != nil {
			return "", err
		}
		if err := con.c.SetText(id, args[2]); err != nil {
			return "", err
		}
		return "ok", nil

	case "enable":
		if len(args) != 3 {
			return "", fmt.Errorf("usage: enable <bank> <0|1>")
		}
		bank, err := strconv.Atoi(args[1])
		if err != nil {
			return "", fmt.Errorf("invalid bank %q", args[1])
		}
		on, err := params.ParseValue(params.KindBool, args[2])
		if err != nil {
			return "", err
		}
		if _, err := con.c.Enable(ctx, bank-1, on.Bool()); err != nil {
			return "", err
		}
		return "ok", nil

	case "dump":
		return FormatTelemetry(time.Now(), con.c.Snapshot()), nil
	}

	return "", fmt.Errorf("unknown command %q", args[0])
}

// WriteTelemetry writes one telemetry line with every parameter.
func (con *Console) WriteTelemetry(now time.Time) error {
	return con.writeLine(FormatTelemetry(now, con.c.Snapshot()))
}

func (con *Console) writeLine(line string) error {
	con.mu.Lock()
	defer con.mu.Unlock()

	if _, err := io.WriteString(con.w, line+"\n"); err != nil {
		return fmt.Errorf("write console: %w", err)
	}
	return nil
}

// FormatTelemetry formats entries as a telemetry line.
func FormatTelemetry(ts time.Time, entries []params.Entry) string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(ts.UnixMicro(), 10))
	for _, e := range entries {
		b.WriteByte(',')
		b.WriteString(e.ID.String())
		b.WriteByte('=')
		b.WriteString(e.Value.String())
	}
	return b.String()
}

// ParseTelemetry parses a line produced by FormatTelemetry.
func ParseTelemetry(line string) (time.Time, []params.Entry, error) {
	parts := strings.Split(strings.TrimSpace(line), ",")

	micros, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("invalid timestamp: %w", err)
	}

	entries := make([]params.Entry, 0, len(parts)-1)
	for _, part := range parts[1:] {
		name, text, ok := strings.Cut(part, "=")
		if !ok {
			return time.Time{}, nil, fmt.Errorf("invalid entry %q", part)
		}
		id, err := params.ParseID(name)
		if err != nil {
			return time.Time{}, nil, err
		}
		v, err := params.ParseValue(id.Field().Kind(), text)
		if err != nil {
			return time.Time{}, nil, fmt.Errorf("%s: %w", id, err)
		}
		entries = append(entries, params.Entry{ID: id, Value: v})
	}

	return time.UnixMicro(micros), entries, nil
}

func logf(format string, args ...any) {
	log.Printf("companion: "+format, args...)
}
