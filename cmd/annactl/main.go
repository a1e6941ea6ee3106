// Command annactl is an example command-line client exercising the
// pkg/anna façade: get, get_all, put, put_all against a routing tier.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/hydro-project/anna-go/internal/lattice"
	"github.com/hydro-project/anna-go/internal/logging"
	"github.com/hydro-project/anna-go/pkg/anna"
)

func main() {
	routingAddr := flag.String("routing-addr", "", "routing tier host (required)")
	ip := flag.String("ip", "", "this client's own address (default: inferred)")
	local := flag.Bool("local", false, "use the single-port local routing tier")
	timeout := flag.Duration("timeout", anna.DefaultRequestTimeout, "per-operation timeout")
	logLevel := flag.String("log-level", "info", "zap log level")
	flag.Parse()

	args := flag.Args()
	if len(args) < 2 || *routingAddr == "" {
		usage()
		os.Exit(2)
	}

	logger, err := logging.NewLogger(*logLevel, "console")
	if err != nil {
		log.Fatalf("annactl: configuring logger: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout+5*time.Second)
	defer cancel()

	client, err := anna.New(ctx, anna.Config{
		RoutingAddr:    *routingAddr,
		IP:             *ip,
		Local:          *local,
		RequestTimeout: *timeout,
		Logger:         logger,
	})
	if err != nil {
		log.Fatalf("annactl: constructing client: %v", err)
	}
	defer client.Close()

	if err := run(ctx, client, args); err != nil {
		log.Fatalf("annactl: %v", err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: annactl -routing-addr ADDR <command> [args...]

commands:
  get KEY...                  print the value for one or more keys
  get_all KEY...               read KEY from every replica and print the merged value
  put KEY VALUE                write VALUE (an LWW pair) to KEY
  put_all KEY VALUE             write VALUE to every replica for KEY`)
}

func run(ctx context.Context, client *anna.Client, args []string) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "get":
		return runGet(ctx, rest, client.Get)
	case "get_all":
		return runGet(ctx, rest, client.GetAll)
	case "put":
		return runPut(ctx, rest, client.Put)
	case "put_all":
		return runPut(ctx, rest, client.PutAll)
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func runGet(ctx context.Context, keys []string, op func(context.Context, ...[]byte) (map[string]lattice.Lattice, error)) error {
	if len(keys) == 0 {
		usage()
		return fmt.Errorf("get requires at least one key")
	}
	byteKeys := make([][]byte, len(keys))
	for i, k := range keys {
		byteKeys[i] = []byte(k)
	}
	result, err := op(ctx, byteKeys...)
	if err != nil {
		return err
	}
	for _, k := range keys {
		val := result[k]
		if val == nil {
			fmt.Printf("%s: <not found>\n", k)
			continue
		}
		fmt.Printf("%s: %v\n", k, val.Reveal())
	}
	return nil
}

func runPut(ctx context.Context, args []string, op func(context.Context, []byte, lattice.Lattice) (bool, error)) error {
	if len(args) != 2 {
		usage()
		return fmt.Errorf("put requires exactly a key and a value")
	}
	key, rawValue := args[0], args[1]
	ok, err := op(ctx, []byte(key), lattice.NewLWWPair(nowMillis(), []byte(rawValue)))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("put for key %q was not accepted", key)
	}
	fmt.Printf("%s: ok\n", key)
	return nil
}

func nowMillis() uint64 {
	return uint64(time.Now().UnixMilli())
}
