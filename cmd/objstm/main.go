// objstm lists the object streams of a PDF file and the objects packed
// into them.
//
// For every object stream it prints the stream's object number, the
// number of objects it holds, /First, the decoded size and a BLAKE3 digest
// of the decoded bytes. Each packed object follows on its own line with
// its object number, offset and length.
//
//	objstm [flags] file.pdf
//
// --dump adds a hex dump of every object slice, --parse prints the parsed
// object and --deep resolves its references first.
package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/midbel/hexdump"
	"github.com/spf13/pflag"
	"github.com/zeebo/blake3"

	"github.com/tsawler/pdfstream/core"
	"github.com/tsawler/pdfstream/internal/config"
	"github.com/tsawler/pdfstream/reader"
	"github.com/tsawler/pdfstream/resolver"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	object     int
	dump       bool
	parse      bool
	deep       bool
	lenient    bool
	logLevel   string
}

func run(args []string, stdout, stderr io.Writer) error {
	var opts options

	flagSet := pflag.NewFlagSet("objstm", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&opts.configPath, "config", "", "YAML config file (default: $"+config.EnvVar+")")
	flagSet.IntVarP(&opts.object, "object", "o", 0, "only show the object stream with this number")
	flagSet.BoolVarP(&opts.dump, "dump", "x", false, "hex dump each object slice")
	flagSet.BoolVarP(&opts.parse, "parse", "p", false, "print each parsed object")
	flagSet.BoolVar(&opts.deep, "deep", false, "resolve references in parsed objects (implies --parse)")
	flagSet.BoolVar(&opts.lenient, "lenient", false, "read object stream headers past /First")
	flagSet.StringVar(&opts.logLevel, "log-level", "", "override log.level from the config")

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if flagSet.NArg() != 1 {
		return fmt.Errorf("usage: objstm [flags] file.pdf")
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.lenient {
		cfg.Decode.StrictHeader = false
	}
	level, err := cfg.LogLevel()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	doc, err := reader.Open(flagSet.Arg(0),
		reader.WithLogger(logger),
		reader.WithDecodeOptions(cfg.DecodeOptions()...))
	if err != nil {
		return err
	}
	defer doc.Close()

	res := resolver.NewResolver(doc, append(cfg.ResolverOptions(), resolver.WithLogger(logger))...)

	nums := doc.ObjectStreamNumbers()
	if opts.object != 0 {
		nums = []int{opts.object}
	}
	if len(nums) == 0 {
		fmt.Fprintf(stdout, "%s: PDF %s has no object streams\n", flagSet.Arg(0), doc.Version())
		return nil
	}

	for _, num := range nums {
		stm, err := doc.ObjectStream(num)
		if err != nil {
			return err
		}
		if err := printStream(stdout, stm, res, opts); err != nil {
			return err
		}
	}

	if hits, misses := res.CacheStats(); hits+misses > 0 {
		logger.Debug("resolver cache", "hits", hits, "misses", misses)
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func printStream(w io.Writer, stm *core.ObjectStream, res *resolver.ObjectResolver, opts options) error {
	data := stm.Data()
	sum := blake3.Sum256(data)
	info := stm.Info()

	fmt.Fprintf(w, "object stream %d: %d objects, first=%d, %d bytes, blake3=%s",
		stm.ID(), stm.NObjects(), info.First, len(data), hex.EncodeToString(sum[:]))
	if ext := stm.Extends(); ext != nil {
		fmt.Fprintf(w, ", extends %s", ext)
	}
	fmt.Fprintln(w)

	offsets := stm.Offsets()
	nums := stm.ObjectNumbers()
	for i := range nums {
		slice, err := stm.ObjectSlice(i)
		if err != nil {
			return fmt.Errorf("object stream %d: %w", stm.ID(), err)
		}
		fmt.Fprintf(w, "  [%d] object %d at +%d, %d bytes\n", i, nums[i], offsets[i], len(slice))

		if opts.dump {
			fmt.Fprintln(w, hexdump.Dump(slice))
		}
		if opts.parse || opts.deep {
			obj, _, err := stm.GetObjectByIndex(i)
			if err != nil {
				return err
			}
			if opts.deep {
				if obj, err = res.ResolveDeep(obj); err != nil {
					return fmt.Errorf("object %d: %w", nums[i], err)
				}
			}
			fmt.Fprintf(w, "      %s\n", obj)
		}
	}
	return nil
}
