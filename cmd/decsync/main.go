// Command decsync is a small inspection/debugging CLI for a DecsyncDir. It
// exists so a directory can be poked at from a shell during development of
// a fire-and-forget library that otherwise surfaces nothing to a caller.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/39aldo39/libdecsync-go"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	logger := decsync.NewDefaultLogger()

	switch os.Args[1] {
	case "sync":
		cmdSync(logger, os.Args[2:])
	case "get":
		cmdGet(logger, os.Args[2:])
	case "collections":
		cmdCollections(logger, os.Args[2:])
	case "bootstrap":
		cmdBootstrap(logger, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  decsync sync <dir> <appId>
  decsync get <dir> <appId> <path...> <key>
  decsync collections <base> <syncType>
  decsync bootstrap <dir> <appId>`)
}

func cmdSync(logger decsync.Logger, args []string) {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	fs.Parse(args)
	rest := fs.Args()
	if len(rest) != 2 {
		usage()
		os.Exit(2)
	}
	dir, appId := rest[0], rest[1]

	d, err := decsync.Open(dir, appId, nil, decsync.WithLogger(logger))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	d.ExecuteAllNewEntries(nil)
}

func cmdGet(logger decsync.Logger, args []string) {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	fs.Parse(args)
	rest := fs.Args()
	if len(rest) < 3 {
		usage()
		os.Exit(2)
	}
	dir, appId := rest[0], rest[1]
	path := rest[2 : len(rest)-1]
	key := rest[len(rest)-1]

	d, err := decsync.Open(dir, appId, nil, decsync.WithLogger(logger))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	value, ok := d.GetStoredStaticValue(path, decsync.NewStringValue(key))
	if !ok {
		fmt.Fprintln(os.Stderr, "not found")
		os.Exit(1)
	}
	b, err := value.Encode()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	var pretty interface{}
	if err := json.Unmarshal(b, &pretty); err == nil {
		out, _ := json.MarshalIndent(pretty, "", "  ")
		fmt.Println(string(out))
		return
	}
	fmt.Println(string(b))
}

func cmdCollections(logger decsync.Logger, args []string) {
	fs := flag.NewFlagSet("collections", flag.ExitOnError)
	ignoreDeleted := fs.Bool("ignore-deleted", true, "omit collections flagged deleted")
	fs.Parse(args)
	rest := fs.Args()
	if len(rest) != 2 {
		usage()
		os.Exit(2)
	}
	base, syncType := rest[0], rest[1]

	for _, name := range decsync.ListDecsyncCollections(base, syncType, *ignoreDeleted, logger) {
		fmt.Println(name)
	}
}

func cmdBootstrap(logger decsync.Logger, args []string) {
	fs := flag.NewFlagSet("bootstrap", flag.ExitOnError)
	fs.Parse(args)
	rest := fs.Args()
	if len(rest) != 2 {
		usage()
		os.Exit(2)
	}
	dir, appId := rest[0], rest[1]

	d, err := decsync.Open(dir, appId, nil, decsync.WithLogger(logger))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	d.InitStoredEntries()
	d.ExecuteStoredEntries(nil, nil, nil, nil, nil)
}
