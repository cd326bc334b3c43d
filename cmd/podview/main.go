package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/lumastream/podwire"
	"github.com/lumastream/podwire/debug"
	"github.com/lumastream/podwire/parser"
	"github.com/lumastream/podwire/pod"
	"github.com/lumastream/podwire/transcode"
)

func main() {
	var (
		inFile      = flag.String("in", "", "Path to encoded pod file (- for stdin, .zst decompressed)")
		format      = flag.String("format", "text", "Output format: text, diag or cbor")
		typesFile   = flag.String("types", "", "YAML type table for symbolic names")
		offset      = flag.Uint("offset", 0, "Byte offset of the first pod")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		verbose     = flag.Bool("v", false, "Verbose codec logging to stderr")
	)
	flag.Parse()

	if *inFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: podview -in <file> [-format text|diag|cbor] [-types table.yaml]")
		fmt.Fprintln(os.Stderr, "       podview -in <file> -i  (interactive mode)")
		os.Exit(1)
	}

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		podwire.SetLogger(logger)
	}

	data, err := readInput(*inFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if uint64(*offset) > uint64(len(data)) {
		fmt.Fprintf(os.Stderr, "Error: offset %d past end of %d-byte input\n", *offset, len(data))
		os.Exit(1)
	}
	data = data[*offset:]

	table := debug.DefaultTable()
	if *typesFile != "" {
		table, err = debug.LoadTableFile(*typesFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if *interactive {
		if err := runInteractive(*inFile, data, table); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(data, *format, table); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// readInput loads the pod bytes, transparently decompressing zstd input.
func readInput(path string) ([]byte, error) {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	if strings.HasSuffix(path, ".zst") {
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		defer zr.Close()
		r = zr
	}
	return io.ReadAll(r)
}

func run(data []byte, format string, table *debug.TypeTable) error {
	switch format {
	case "text":
		return dumpText(os.Stdout, data, table)
	case "diag", "cbor":
		v, err := podwire.Decode(data)
		if err != nil {
			return err
		}
		if format == "diag" {
			out, err := transcode.Diagnose(v)
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		}
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("refusing to write binary CBOR to a terminal, redirect stdout")
		}
		out, err := transcode.Marshal(v)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(out)
		return err
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// dumpText renders every top-level pod in the buffer.
func dumpText(w io.Writer, data []byte, table *debug.TypeTable) error {
	p := parser.New(data)
	n := 0
	for {
		v, ok, err := p.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if n > 0 {
			fmt.Fprintln(w)
		}
		if err := debug.Render(w, 0, table, v); err != nil {
			return err
		}
		n++
	}
	if n == 0 {
		return fmt.Errorf("no pods in input")
	}
	return nil
}

// renderAll returns the text rendering used by both run and the TUI.
func renderAll(data []byte, table *debug.TypeTable) (string, error) {
	var sb strings.Builder
	if err := dumpText(&sb, data, table); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// summarize counts the top-level pods for the TUI status line.
func summarize(data []byte) (count int, types []pod.Type) {
	p := parser.New(data)
	for {
		v, ok, err := p.Next()
		if err != nil || !ok {
			return count, types
		}
		count++
		types = append(types, v.Type())
	}
}
