package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/jmquispe/viaticos-core/internal/extract"
	"github.com/jmquispe/viaticos-core/pkg/logger"
)

type output struct {
	XML        *extract.Result     `json:"xml,omitempty"`
	Text       *extract.Result     `json:"text"`
	Resolution *extract.Resolution `json:"resolution"`
}

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: extract <receipt file (.pdf, .xml or .txt)>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	log, err := logger.New(logger.Config{Level: "warn", OutputPath: "stderr", Format: "console"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	extractor := extract.NewExtractor(log)
	resolver := extract.NewResolver(log, nil)

	var out output
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		reader := extract.NewPDFReader(log)
		text, err := reader.Text(path)
		if err != nil {
			log.Fatal("Failed to read PDF", zap.String("path", path), zap.Error(err))
		}
		out.Text = extractor.ExtractText(text)
		out.Resolution = resolver.Resolve(nil, out.Text)
	case ".xml":
		raw, err := os.ReadFile(path)
		if err != nil {
			log.Fatal("Failed to read file", zap.String("path", path), zap.Error(err))
		}
		out.XML = extractor.ExtractXML(string(raw))
		out.Text = extractor.ExtractText(string(raw))
		out.Resolution = resolver.Resolve(out.XML, out.Text)
	default:
		raw, err := os.ReadFile(path)
		if err != nil {
			log.Fatal("Failed to read file", zap.String("path", path), zap.Error(err))
		}
		out.Text = extractor.ExtractText(string(raw))
		out.Resolution = resolver.Resolve(nil, out.Text)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatal("Failed to encode output", zap.Error(err))
	}
}
