package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"workdays/internal/api"
	"workdays/internal/config"
	"workdays/internal/engine"
	"workdays/internal/util"
	"workdays/pkg/client"
	"workdays/pkg/workdays"
)

const version = "0.1.0"

var errUsage = errors.New("usage")

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: workdays-cli [-server URL] <command> [args]\n\n")
	fmt.Fprintf(os.Stderr, "Without -server the calendar is built locally from WORKDAYS_CONFIG.\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  version                          Print the CLI version\n")
	fmt.Fprintf(os.Stderr, "  is-business-day <date>           Report whether date is a business day\n")
	fmt.Fprintf(os.Stderr, "  next <date> [n]                  n-th business day after date\n")
	fmt.Fprintf(os.Stderr, "  previous <date> [n]              n-th business day before date\n")
	fmt.Fprintf(os.Stderr, "  nearest <date> [forward|backward]\n")
	fmt.Fprintf(os.Stderr, "  range <start> <end> [boundary]   Business days between two dates\n")
	fmt.Fprintf(os.Stderr, "  count <date> <n>                 |n| business days from date\n")
	fmt.Fprintf(os.Stderr, "  in-session <time>\n")
	fmt.Fprintf(os.Stderr, "  next-border <time>\n")
	fmt.Fprintf(os.Stderr, "  previous-border <time> [force]\n")
	fmt.Fprintf(os.Stderr, "  nearest-border <time> [forward|backward]\n")
	fmt.Fprintf(os.Stderr, "  add <time> <duration>            Add business time (2h30m or seconds)\n")
	fmt.Fprintf(os.Stderr, "  subtract <time> <duration>\n")
	fmt.Fprintf(os.Stderr, "  elapsed <start> <end>            Business time between two instants\n")
	fmt.Fprintf(os.Stderr, "  status                           Query a server's configuration over gRPC (-grpc)\n")
	fmt.Fprintf(os.Stderr, "\nOptions:\n")
	flag.PrintDefaults()
}

func main() {
	server := flag.String("server", "", "workdays-server base URL, e.g. http://localhost:8080")
	grpcAddr := flag.String("grpc", "localhost:9090", "workdays-server gRPC address for status")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(1)
	}

	ctx := context.Background()
	cmd, args := flag.Arg(0), flag.Args()[1:]

	var err error
	switch cmd {
	case "version":
		fmt.Printf("workdays-cli %s\n", version)
		return
	case "status":
		err = status(ctx, os.Stdout, *grpcAddr)
	default:
		var b backend
		if b, err = open(ctx, *server); err == nil {
			err = run(ctx, os.Stdout, b, cmd, args)
		}
	}

	if errors.Is(err, errUsage) {
		fmt.Fprintf(os.Stderr, "%v\n\n", err)
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func open(ctx context.Context, server string) (backend, error) {
	if server != "" {
		return client.NewClient(server), nil
	}
	cfgPath := "config/workdays.yaml"
	if p := os.Getenv("WORKDAYS_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	logger := util.NewLoggerTo(os.Stderr, "warn", "text")
	eng, closeStore, err := engine.Open(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	defer closeStore()
	c, err := eng.Calendar()
	if err != nil {
		return nil, err
	}
	return local{c: c}, nil
}

func status(ctx context.Context, w io.Writer, addr string) error {
	conn, c, err := api.Dial(addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	out, err := c.Call(ctx, api.MethodGetConfig, nil)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// run executes one query command against b and prints the result.
func run(ctx context.Context, w io.Writer, b backend, cmd string, args []string) error {
	switch cmd {
	case "is-business-day":
		d, err := dateArg(args, 0)
		if err != nil {
			return err
		}
		ok, err := b.IsBusinessDay(ctx, d)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, ok)

	case "next", "previous":
		d, err := dateArg(args, 0)
		if err != nil {
			return err
		}
		n, err := intArg(args, 1, 1)
		if err != nil {
			return err
		}
		walk := b.NextBusinessDay
		if cmd == "previous" {
			walk = b.PreviousBusinessDay
		}
		got, err := walk(ctx, d, n)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, got)

	case "nearest":
		d, err := dateArg(args, 0)
		if err != nil {
			return err
		}
		dir, err := directionArg(args, 1)
		if err != nil {
			return err
		}
		got, err := b.NearestBusinessDay(ctx, d, dir)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, got)

	case "range":
		start, err := dateArg(args, 0)
		if err != nil {
			return err
		}
		end, err := dateArg(args, 1)
		if err != nil {
			return err
		}
		bd := workdays.Left
		if len(args) > 2 {
			if bd, err = workdays.ParseBoundary(args[2]); err != nil {
				return err
			}
		}
		days, err := b.BusinessDaysInRange(ctx, start, end, bd)
		if err != nil {
			return err
		}
		printDates(w, days)

	case "count":
		d, err := dateArg(args, 0)
		if err != nil {
			return err
		}
		if len(args) < 2 {
			return fmt.Errorf("%w: count needs <date> <n>", errUsage)
		}
		n, err := intArg(args, 1, 0)
		if err != nil {
			return err
		}
		days, err := b.BusinessDaysCount(ctx, d, n)
		if err != nil {
			return err
		}
		printDates(w, days)

	case "in-session":
		ts, _, err := stampArgs(args, 1)
		if err != nil {
			return err
		}
		ok, err := b.IsInSession(ctx, ts[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(w, ok)

	case "next-border", "previous-border", "nearest-border":
		ts, zone, err := stampArgs(args[:min(len(args), 1)], 1)
		if err != nil {
			return err
		}
		var bd workdays.Border
		switch cmd {
		case "next-border":
			bd, err = b.NextBorder(ctx, ts[0])
		case "previous-border":
			bd, err = b.PreviousBorder(ctx, ts[0], len(args) > 1 && args[1] == "force")
		default:
			dir, derr := directionArg(args, 1)
			if derr != nil {
				return derr
			}
			bd, err = b.NearestBorder(ctx, ts[0], dir)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s %s\n", zone.Format(bd.Time), bd.Kind)

	case "add", "subtract":
		ts, zone, err := stampArgs(args[:min(len(args), 1)], 1)
		if err != nil {
			return err
		}
		if len(args) < 2 {
			return fmt.Errorf("%w: %s needs <time> <duration>", errUsage, cmd)
		}
		d, err := parseDuration(args[1])
		if err != nil {
			return err
		}
		op := b.Add
		if cmd == "subtract" {
			op = b.Subtract
		}
		got, err := op(ctx, ts[0], d)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, zone.Format(got))

	case "elapsed":
		ts, _, err := stampArgs(args, 2)
		if err != nil {
			return err
		}
		d, err := b.Elapsed(ctx, ts[0], ts[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s (%d seconds)\n", d, int64(d/time.Second))

	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
	return nil
}

func dateArg(args []string, i int) (workdays.Date, error) {
	if i >= len(args) {
		return workdays.Date{}, fmt.Errorf("%w: missing date argument", errUsage)
	}
	return workdays.ParseDate(args[i])
}

func intArg(args []string, i, def int) (int, error) {
	if i >= len(args) {
		return def, nil
	}
	n, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", workdays.ErrInvalidArgument, args[i])
	}
	return n, nil
}

func directionArg(args []string, i int) (workdays.Direction, error) {
	if i >= len(args) {
		return workdays.Forward, nil
	}
	return workdays.ParseDirection(args[i])
}

// stampArgs parses n timestamps and strips their shared offset.
func stampArgs(args []string, n int) ([]time.Time, workdays.Zone, error) {
	if len(args) < n {
		return nil, workdays.Zone{}, fmt.Errorf("%w: need %d timestamp argument(s)", errUsage, n)
	}
	return workdays.ParseStamps(args[:n]...)
}

func parseDuration(s string) (time.Duration, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: duration %q", workdays.ErrInvalidArgument, s)
	}
	return d, nil
}

func printDates(w io.Writer, ds []workdays.Date) {
	parts := make([]string, len(ds))
	for i, d := range ds {
		parts[i] = d.String()
	}
	fmt.Fprintln(w, strings.Join(parts, "\n"))
}
