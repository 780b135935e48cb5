package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/cognicore/segment/pkg/segment"
	"github.com/cognicore/segment/pkg/segment/config"
	"github.com/cognicore/segment/pkg/segment/srx"
)

type segmentJSON struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

func main() {
	var (
		cfgPath  = flag.String("config", "", "Optional: YAML tunables file")
		lang     = flag.String("lang", "", "Language code (overrides config, default en)")
		engine   = flag.String("engine", "", "Engine: merged or accurate (overrides config)")
		encoding = flag.String("encoding", "", "Input charset (overrides config, default utf-8)")
		jsonOut  = flag.Bool("json", false, "Write one JSON object per segment")
		verbose  = flag.Bool("verbose", false, "Log debug output to stderr")
	)
	flag.Parse()

	cfg := &config.Config{}
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			log.Fatalf("load config: %v", err)
		}
	}
	if *lang != "" {
		cfg.Language = *lang
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if *engine != "" {
		cfg.Engine = *engine
	}
	if *encoding != "" {
		cfg.Encoding = *encoding
	}
	if *verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	in := io.Reader(os.Stdin)
	if flag.NArg() > 0 {
		f, err := os.Open(flag.Arg(0))
		if err != nil {
			log.Fatalf("open input: %v", err)
		}
		defer f.Close()
		in = f
	}

	n, err := run(cfg, in, os.Stdout, *jsonOut)
	if err != nil {
		log.Fatalf("segment: %v", err)
	}
	if *verbose {
		log.Printf("wrote %d segments", n)
	}
}

// run segments in according to cfg and writes one segment per line to out.
// It returns the number of segments written.
func run(cfg *config.Config, in io.Reader, out io.Writer, jsonOut bool) (int, error) {
	opts, err := cfg.Options(cfg.Logger(os.Stderr))
	if err != nil {
		return 0, err
	}
	seg, err := segment.New(srx.DefaultDocument(cfg.DocumentOptions()...), cfg.Language, opts...)
	if err != nil {
		return 0, err
	}

	r, err := cfg.Reader(in)
	if err != nil {
		return 0, err
	}
	it, err := seg.Stream(r)
	if err != nil {
		return 0, err
	}

	enc := json.NewEncoder(out)
	n := 0
	for it.Next() {
		s := it.Segment()
		if jsonOut {
			err = enc.Encode(segmentJSON{Start: s.Start, End: s.End, Text: s.Text})
		} else {
			_, err = fmt.Fprintln(out, strconv.Quote(s.Text))
		}
		if err != nil {
			return n, err
		}
		n++
	}
	return n, it.Err()
}
