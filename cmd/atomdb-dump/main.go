// Command atomdb-dump converts a snapshot between the binary and JSON
// formats. By default it prints a binary snapshot as JSON.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/leengari/atomdb/internal/storage"
)

func main() {
	if err := mainImpl(os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "atomdb-dump: %v\n", err)
		}
		os.Exit(1)
	}
}

func mainImpl(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("atomdb-dump", flag.ContinueOnError)
	in := fs.String("in", "database.bin", "Snapshot to read")
	from := fs.String("from", "auto", "Input format (auto, binary, json)")
	to := fs.String("to", storage.FormatJSON, "Output format (binary, json)")
	compression := fs.String("compression", storage.CompressionNone, "Output compression (none, zstd)")
	out := fs.String("out", "", "Output file, stdout when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unknown arguments: %v", fs.Args())
	}

	encoder, err := storage.NewCodec(*to, *compression)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(*in)
	if err != nil {
		return err
	}

	var decoder storage.Codec
	if *from == "auto" {
		decoder = storage.Sniff(raw)
	} else if decoder, err = storage.NewCodec(*from, storage.CompressionNone); err != nil {
		return err
	}

	db, err := decoder.Decode(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", *in, err)
	}
	if *out != "" {
		return storage.NewManager(*out, encoder, nil).Save(db)
	}

	encoded, err := encoder.Encode(db)
	if err != nil {
		return err
	}
	_, err = stdout.Write(encoded)
	return err
}
